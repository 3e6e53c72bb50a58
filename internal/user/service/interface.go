// Package service provides user-related services for password hashing and verification.
package service

// PasswordService defines operations for user password hashing and verification.
// Implementations must produce self-describing hashes (algorithm, cost and salt
// encoded in the output) and compare in constant time.
type PasswordService interface {
	// Hash hashes a plain text password for storage.
	Hash(plainPassword string) (string, error)

	// Verify compares a plain text password against a stored hash.
	// Returns false for any mismatch, including hashes produced by an
	// unknown algorithm. It never returns an error.
	Verify(plainPassword string, passwordHash string) bool
}
