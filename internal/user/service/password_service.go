package service

import (
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/allisson/authd/internal/errors"
)

// passwordService implements PasswordService using bcrypt.
//
// bcrypt truncates input at 72 bytes, so input validation must cap password
// length before it reaches this service.
type passwordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given bcrypt cost.
// Costs outside the supported range fall back to bcrypt.DefaultCost.
func NewPasswordService(cost int) PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &passwordService{cost: cost}
}

// Hash hashes a plain text password using bcrypt. The output encodes the
// algorithm, cost and salt.
func (s *passwordService) Hash(plainPassword string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), s.cost)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

// Verify compares a plain text password against a bcrypt hash in constant time.
// Malformed or foreign-algorithm hashes verify as false.
func (s *passwordService) Verify(plainPassword string, passwordHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(plainPassword)) == nil
}
