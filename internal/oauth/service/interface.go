// Package service provides technical services for OAuth2 operations.
//
// This package implements reusable services for client secret generation,
// authorization code generation, and PKCE verification using
// industry-standard cryptographic practices.
package service

// SecretService defines operations for client secret generation and validation.
// Implementations must use cryptographically secure random generation and
// industry-standard hashing algorithms (e.g., bcrypt, argon2).
type SecretService interface {
	// GenerateSecret creates a new cryptographically secure random secret.
	// Returns both the plain text secret (to be shared with the client) and
	// the hashed version (to be stored in the database).
	//
	// The plain secret should be treated as sensitive data and only displayed
	// once to the client during creation or rotation.
	GenerateSecret() (plainSecret string, hashedSecret string, error error)

	// HashSecret hashes a plain text secret using a secure hashing algorithm.
	HashSecret(plainSecret string) (hashedSecret string, error error)

	// CompareSecret compares a plain text secret against a hashed secret.
	// Returns true if the plain secret matches the hash, false otherwise.
	// This is constant-time to prevent timing attacks.
	CompareSecret(plainSecret string, hashedSecret string) bool
}

// CodeService defines operations for authorization code generation.
type CodeService interface {
	// GenerateCode creates a new cryptographically secure random
	// authorization code with at least 128 bits of entropy.
	GenerateCode() (string, error)
}

// PKCEService defines RFC 7636 code challenge operations.
type PKCEService interface {
	// VerifyChallenge checks a code verifier against the challenge recorded
	// at authorization time. Comparison is constant-time for both methods.
	VerifyChallenge(verifier string, challenge string, method string) bool

	// ChallengeS256 derives the S256 challenge for a verifier. Used by
	// clients in tests and by the CLI.
	ChallengeS256(verifier string) string
}
