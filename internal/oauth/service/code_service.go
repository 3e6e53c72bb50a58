package service

import (
	"crypto/rand"
	"encoding/base64"

	apperrors "github.com/allisson/authd/internal/errors"
)

// codeService implements CodeService using CSPRNG-generated codes.
type codeService struct{}

// GenerateCode creates a new cryptographically secure 32-byte random
// authorization code. The code is base64 URL-encoded without padding
// (43 characters) so it survives query strings and form bodies unescaped.
func (c *codeService) GenerateCode() (string, error) {
	// Generate 32 random bytes (256 bits)
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", apperrors.Wrap(err, "failed to generate authorization code")
	}

	return base64.RawURLEncoding.EncodeToString(randomBytes), nil
}

// NewCodeService creates a new CodeService instance.
func NewCodeService() CodeService {
	return &codeService{}
}
