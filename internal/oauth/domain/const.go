// Package domain defines the OAuth2 domain entities and types.
package domain

// Grant types a client may be allowed to use.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
)

// ResponseTypeCode is the only supported authorization response type.
const ResponseTypeCode = "code"

// PKCE code challenge methods.
const (
	CodeChallengeMethodS256  = "S256"
	CodeChallengeMethodPlain = "plain"
)

// SystemRoleBFF marks the first-party backend-for-frontend client created at
// bootstrap. System clients skip the consent prompt entirely.
const SystemRoleBFF = "bff"

// TokenTypeBearer is the token_type returned by the token endpoint.
const TokenTypeBearer = "Bearer"

// ValidGrantTypes lists every grant type a client registration may carry.
var ValidGrantTypes = []string{GrantTypeAuthorizationCode, GrantTypeRefreshToken}
