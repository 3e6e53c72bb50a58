// Package domain defines the core models for token signing key management.
//
// Signing keys come in two flavors: RSA keys that sign access tokens (RS256)
// and HMAC secrets that sign audit log entries (HS256). Private material is
// wrapped by a KMS keeper before persistence and only unwrapped into memory
// at startup. At most one key per purpose is active at a time; retired keys
// stay published so previously issued signatures remain verifiable.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/errors"
)

// KeyPurpose identifies what a signing key is used for.
type KeyPurpose string

const (
	// KeyPurposeAccessToken marks RSA keys that sign JWT access tokens.
	KeyPurposeAccessToken KeyPurpose = "access_token"

	// KeyPurposeAuditLog marks HMAC secrets that sign audit log entries.
	KeyPurposeAuditLog KeyPurpose = "audit_log"
)

// KeyAlgorithm identifies the signature algorithm of a signing key.
type KeyAlgorithm string

const (
	// KeyAlgorithmRS256 is RSASSA-PKCS1-v1_5 with SHA-256.
	KeyAlgorithmRS256 KeyAlgorithm = "RS256"

	// KeyAlgorithmHS256 is HMAC with SHA-256.
	KeyAlgorithmHS256 KeyAlgorithm = "HS256"
)

// SigningKey represents a persisted signing key.
// The private material is stored keeper-wrapped and never in plaintext.
type SigningKey struct {
	ID                  uuid.UUID
	Kid                 string       // key id published in JWT headers and the JWKS
	Purpose             KeyPurpose   // access_token or audit_log
	Algorithm           KeyAlgorithm // RS256 or HS256
	PublicKey           *string      // PEM-encoded public key, nil for HMAC secrets
	EncryptedPrivateKey []byte       // private material wrapped by the KMS keeper
	IsActive            bool
	CreatedAt           time.Time
	RetiredAt           *time.Time
}

// Signing key error definitions.
var (
	// ErrSigningKeyNotFound indicates the requested signing key doesn't exist.
	ErrSigningKeyNotFound = errors.Wrap(errors.ErrNotFound, "signing key not found")

	// ErrNoActiveSigningKey indicates no active key exists for a purpose.
	// Startup must fail on this condition after EnsureKeys has run.
	ErrNoActiveSigningKey = errors.Wrap(errors.ErrNotFound, "no active signing key")

	// ErrInvalidToken indicates a bearer token failed verification.
	// The wording stays constant for every failure cause so responses don't
	// reveal whether the token was malformed, expired, or signed by an
	// unknown key.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid token")
)

// JWK is a single JSON Web Key as published by the JWKS endpoint.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is the JSON Web Key Set document.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// SignTokenInput carries the claims material for signing an access token.
type SignTokenInput struct {
	UserID   uuid.UUID
	Email    string
	ClientID string
	Scope    string
}
