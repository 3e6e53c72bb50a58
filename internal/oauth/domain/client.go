package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client represents a registered OAuth2 client application.
type Client struct {
	ID              uuid.UUID
	ClientID        string // external identifier used on the wire
	ClientSecret    string // argon2id hash of the current secret
	ClientSecretOld *string
	SecretExpiresAt *time.Time // grace deadline for the old secret
	ClientName      string
	RedirectURIs    []string
	GrantTypes      []string
	IsPublic        bool
	IsActive        bool
	IsSystemClient  bool
	SystemRole      *string
	UserID          *uuid.UUID // owning user; nil for system clients
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasRedirectURI reports whether uri matches one of the registered redirect
// URIs byte for byte. No normalization, no prefix matching.
func (c *Client) HasRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// HasGrantType reports whether the client is allowed to use the grant type.
func (c *Client) HasGrantType(grantType string) bool {
	for _, gt := range c.GrantTypes {
		if gt == grantType {
			return true
		}
	}
	return false
}

// OldSecretUsable reports whether the previous secret is still inside its
// rotation grace window at the given instant.
func (c *Client) OldSecretUsable(now time.Time) bool {
	if c.ClientSecretOld == nil || c.SecretExpiresAt == nil {
		return false
	}
	return now.Before(*c.SecretExpiresAt)
}

// IsOwnedBy reports whether the client belongs to the given user. System
// clients have no owner.
func (c *Client) IsOwnedBy(userID uuid.UUID) bool {
	return c.UserID != nil && *c.UserID == userID
}

// CreateClientInput contains the input data for client registration.
type CreateClientInput struct {
	ClientName   string
	RedirectURIs []string
	GrantTypes   []string
	IsPublic     bool
	UserID       uuid.UUID
}

// CreateClientOutput carries the created client together with the plaintext
// secret. The plaintext is shown exactly once and never stored.
type CreateClientOutput struct {
	Client          *Client
	PlaintextSecret string
}

// UpdateClientInput contains the partial client update. Nil fields are left
// unchanged.
type UpdateClientInput struct {
	ClientName   *string
	RedirectURIs []string
	GrantTypes   []string
	IsPublic     *bool
}

// RotateSecretOutput carries the new plaintext secret and the instant the
// previous secret stops being accepted.
type RotateSecretOutput struct {
	Client          *Client
	PlaintextSecret string
	OldSecretExpiry time.Time
}
