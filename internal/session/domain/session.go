// Package domain defines the session domain model for first-party browser logins.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/errors"
)

// Session represents an authenticated first-party login.
// The client holds an opaque random token; only its SHA-256 digest is stored
// server side (as the ID) so sessions can be revoked individually or per user
// without the stored rows being replayable as cookies.
type Session struct {
	ID        string // digest of the token, primary key at rest
	Token     string // raw token for the cookie; set on issuance only, never stored
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer valid at the given time.
// A session expires exactly at its expiry instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Session errors.
var (
	// ErrSessionNotFound indicates a session with the specified ID was not found.
	ErrSessionNotFound = errors.Wrap(errors.ErrNotFound, "session not found")

	// ErrInvalidSession indicates a missing, expired or revoked session.
	// The wording is identical for every failure cause so responses don't
	// reveal whether a session ever existed.
	ErrInvalidSession = errors.Wrap(errors.ErrUnauthorized, "invalid session")
)
