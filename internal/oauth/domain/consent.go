package domain

import (
	"time"

	"github.com/google/uuid"
)

// Consent records a user's grant of scopes to a client. A user has at most
// one active (non-revoked) consent per client; granting again revokes the
// previous row and inserts a new one in the same transaction.
type Consent struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ClientID  string // external client identifier
	Scopes    []string
	GrantedAt time.Time
	ExpiresAt *time.Time
	RevokedAt *time.Time
}

// IsActive reports whether the consent is usable at the given instant: not
// revoked and not past its optional expiry.
func (c *Consent) IsActive(now time.Time) bool {
	if c.RevokedAt != nil {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	return true
}

// Covers reports whether the consent includes every requested scope.
func (c *Consent) Covers(scopes []string) bool {
	granted := make(map[string]struct{}, len(c.Scopes))
	for _, s := range c.Scopes {
		granted[s] = struct{}{}
	}
	for _, s := range scopes {
		if _, ok := granted[s]; !ok {
			return false
		}
	}
	return true
}

// GrantConsentInput contains the input data for a consent grant.
type GrantConsentInput struct {
	UserID    uuid.UUID
	ClientID  string
	Scopes    []string
	ExpiresAt *time.Time
}

// ConsentWithClient pairs an active consent with display data about the
// client it was granted to.
type ConsentWithClient struct {
	Consent    *Consent
	ClientName string
	Scopes     []ScopeDefinition
}
