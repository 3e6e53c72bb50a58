package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuthorizationCode is a single-use credential binding an approved
// authorization request to the client that must redeem it.
type AuthorizationCode struct {
	Code                string // opaque, at least 128 bits of entropy
	UserID              uuid.UUID
	ClientID            string
	RedirectURI         string
	Scope               string // space-delimited approved scopes
	CodeChallenge       string
	CodeChallengeMethod string
	ExpiresAt           time.Time
	Used                bool
	UsedAt              *time.Time
	CreatedAt           time.Time
}

// Expired reports whether the code is past its expiry at the given instant.
// A code expires exactly at ExpiresAt.
func (c *AuthorizationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// AuthorizeInput carries the query parameters of an authorization request.
type AuthorizeInput struct {
	ClientID            string
	RedirectURI         string
	ResponseType        string
	Scope               string // raw space-delimited request value
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
	UserID              uuid.UUID
}

// AuthorizeOutput is the result of an authorization request: either a
// redirect back to the client carrying a fresh code, or a consent prompt.
type AuthorizeOutput struct {
	RedirectURL     string
	ConsentRequired *ConsentPrompt
}

// ConsentPrompt carries everything the consent page needs to render and to
// resubmit the decision.
type ConsentPrompt struct {
	ClientID            string
	ClientName          string
	Scopes              []ScopeDefinition
	ConsentURL          string
	RedirectURI         string
	ResponseType        string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// ConsentDecisionInput carries the user's approve/deny decision together
// with the original authorization parameters.
type ConsentDecisionInput struct {
	Approved  bool
	Authorize AuthorizeInput
}

// ExchangeTokenInput carries the form parameters of a token request.
type ExchangeTokenInput struct {
	GrantType    string
	Code         string
	RedirectURI  string
	ClientID     string
	ClientSecret string
	CodeVerifier string
}

// ExchangeTokenOutput is the token endpoint response body.
type ExchangeTokenOutput struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}
