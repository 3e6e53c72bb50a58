// Package service provides session token generation.
package service

// TokenService generates and digests opaque session tokens.
type TokenService interface {
	// GenerateToken returns a new cryptographically secure session token.
	GenerateToken() (string, error)

	// DigestToken returns the digest stored in place of the raw token, so a
	// leaked sessions table cannot be replayed as cookies.
	DigestToken(token string) string
}
