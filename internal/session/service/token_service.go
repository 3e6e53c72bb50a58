package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	apperrors "github.com/allisson/authd/internal/errors"
)

// tokenService implements TokenService using CSPRNG-generated tokens.
type tokenService struct{}

// GenerateToken creates a new cryptographically secure 32-byte random session
// token. The token is base64 URL-encoded without padding (43 characters) so it
// can travel in cookies and headers without escaping.
func (t *tokenService) GenerateToken() (string, error) {
	// Generate 32 random bytes (256 bits)
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", apperrors.Wrap(err, "failed to generate session token")
	}

	return base64.RawURLEncoding.EncodeToString(randomBytes), nil
}

// DigestToken returns the unpadded base64 URL-encoded SHA-256 digest of the
// token. Only the digest is stored; the raw token exists solely in the cookie.
func (t *tokenService) DigestToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

// NewTokenService creates a new TokenService instance.
func NewTokenService() TokenService {
	return &tokenService{}
}
