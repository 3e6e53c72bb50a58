// Package service provides cryptographic services for token signing.
// Implements KMS keeper access, signing key generation with keeper wrapping,
// and RS256 JWT signing and verification.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/authd/internal/crypto/domain"
)

// KMSService opens KMS keepers using gocloud.dev/secrets.
type KMSService interface {
	// OpenKeeper opens a secrets.Keeper for the configured KMS provider.
	// Returns an error if the KMS provider URI is invalid or connection fails.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}

// KeyManager generates signing keys and wraps/unwraps their private material
// with the KMS keeper.
type KeyManager interface {
	// GenerateAccessTokenKey creates a new RSA-2048 key for signing access
	// tokens. When kidOverride is empty the kid is derived from the public
	// modulus. The private key PEM is wrapped by the keeper before it is
	// placed on the returned entity.
	GenerateAccessTokenKey(ctx context.Context, kidOverride string) (*cryptoDomain.SigningKey, error)

	// GenerateAuditKey creates a new 32-byte HMAC secret for signing audit
	// log entries, wrapped by the keeper.
	GenerateAuditKey(ctx context.Context) (*cryptoDomain.SigningKey, error)

	// UnwrapKey recovers the plaintext private material of a signing key.
	UnwrapKey(ctx context.Context, key *cryptoDomain.SigningKey) ([]byte, error)
}

// TokenSigner signs and verifies JWT access tokens and publishes the JWKS.
type TokenSigner interface {
	// Sign issues a signed RS256 access token with the active key.
	Sign(input *cryptoDomain.SignTokenInput) (string, error)

	// Verify validates a token signature and registered claims and returns
	// the parsed claims. All failures map to cryptoDomain.ErrInvalidToken.
	Verify(tokenString string) (*AccessTokenClaims, error)

	// JWKS returns the JSON Web Key Set for all published access token keys,
	// including retired ones.
	JWKS() *cryptoDomain.JWKS
}
