// Package usecase defines business logic interfaces for OAuth2 operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/authd/internal/crypto/domain"
	"github.com/allisson/authd/internal/oauth/domain"
	outboxDomain "github.com/allisson/authd/internal/outbox/domain"
)

// ClientRepository defines persistence operations for OAuth2 clients.
// Implementations must support transaction-aware operations via context propagation.
type ClientRepository interface {
	// Create stores a new client. Returns a conflict error when the
	// client_id is already taken.
	Create(ctx context.Context, client *domain.Client) error

	// Update modifies an existing client.
	Update(ctx context.Context, client *domain.Client) error

	// GetByID retrieves a client by internal id. Returns ErrClientNotFound
	// if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)

	// GetByClientID retrieves a client by external client_id. Returns
	// ErrClientNotFound if not found.
	GetByClientID(ctx context.Context, clientID string) (*domain.Client, error)

	// ListByUser retrieves the active clients owned by a user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*domain.Client, error)

	// GetSystemClient retrieves the active system client with the given role.
	// Returns ErrClientNotFound if not found.
	GetSystemClient(ctx context.Context, systemRole string) (*domain.Client, error)
}

// CodeRepository defines persistence operations for authorization codes.
type CodeRepository interface {
	// Create stores a new authorization code.
	Create(ctx context.Context, code *domain.AuthorizationCode) error

	// GetByCode retrieves a code by value. Returns
	// ErrInvalidAuthorizationCode if not found.
	GetByCode(ctx context.Context, code string) (*domain.AuthorizationCode, error)

	// MarkUsed consumes a code with a compare-and-set on used = false.
	// Returns false when the code was already consumed.
	MarkUsed(ctx context.Context, code string, usedAt time.Time) (bool, error)

	// DeleteStale removes used or expired codes created before the cutoff.
	DeleteStale(ctx context.Context, now, createdBefore time.Time) (int64, error)

	// CountStale counts the codes DeleteStale would remove.
	CountStale(ctx context.Context, now, createdBefore time.Time) (int64, error)
}

// ConsentRepository defines persistence operations for user consents.
type ConsentRepository interface {
	// Create stores a new consent. Returns ErrActiveConsentExists when an
	// active consent already exists for the (user, client) pair.
	Create(ctx context.Context, consent *domain.Consent) error

	// GetByID retrieves a consent by id. Returns ErrConsentNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Consent, error)

	// GetActive retrieves the non-revoked consent for a (user, client) pair.
	// Returns ErrConsentNotFound if not found.
	GetActive(ctx context.Context, userID uuid.UUID, clientID string) (*domain.Consent, error)

	// ListActiveByUser retrieves all non-revoked consents for a user.
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Consent, error)

	// Revoke stamps revoked_at on an active consent. No-op when already revoked.
	Revoke(ctx context.Context, id uuid.UUID, revokedAt time.Time) error
}

// ScopeRepository defines persistence operations for scope definitions.
type ScopeRepository interface {
	// Create stores a new scope definition. Returns ErrScopeAlreadyExists
	// on name collision.
	Create(ctx context.Context, scope *domain.ScopeDefinition) error

	// GetByName retrieves a scope definition. Returns ErrScopeNotFound if not found.
	GetByName(ctx context.Context, name string) (*domain.ScopeDefinition, error)

	// List retrieves all scope definitions ordered by name.
	List(ctx context.Context) ([]*domain.ScopeDefinition, error)

	// ListDefaults retrieves the scopes granted when a request omits scope.
	ListDefaults(ctx context.Context) ([]*domain.ScopeDefinition, error)
}

// OutboxEventRepository defines the outbox operations the OAuth2 use cases
// depend on.
type OutboxEventRepository interface {
	// Create stores a new outbox event.
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// TokenSigner defines the access token signing operation the authorize use
// case depends on.
type TokenSigner interface {
	// Sign issues a signed RS256 access token with the active key.
	Sign(input *cryptoDomain.SignTokenInput) (string, error)
}

// UserDirectory resolves the user data embedded in access token claims.
type UserDirectory interface {
	// GetEmail returns the email of an existing user.
	GetEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

// SessionCleaner defines the session cleanup operation the maintenance use
// case depends on.
type SessionCleaner interface {
	// Cleanup deletes expired sessions and returns the count removed.
	Cleanup(ctx context.Context) (int64, error)
}

// ClientUseCase defines business logic operations for OAuth2 client lifecycle.
type ClientUseCase interface {
	// Create registers a new client owned by a developer user. The returned
	// output carries the only plaintext copy of the client secret.
	Create(ctx context.Context, input *domain.CreateClientInput) (*domain.CreateClientOutput, error)

	// ListByUser returns the caller's active clients, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*domain.Client, error)

	// GetByID returns a client after an ownership check: missing rows yield
	// ErrClientNotFound, foreign rows ErrClientForbidden.
	GetByID(ctx context.Context, id uuid.UUID, callerID uuid.UUID) (*domain.Client, error)

	// Update applies a partial update via read-modify-write.
	Update(ctx context.Context, id uuid.UUID, callerID uuid.UUID, input *domain.UpdateClientInput) (*domain.Client, error)

	// SoftDelete deactivates a client. Idempotent when already inactive.
	SoftDelete(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error

	// RotateSecret atomically replaces the client secret, keeping the old
	// one valid until the grace deadline. Returns the new plaintext secret.
	RotateSecret(ctx context.Context, id uuid.UUID, callerID uuid.UUID) (*domain.RotateSecretOutput, error)

	// VerifySecret checks a plaintext secret against the current hash and,
	// within the rotation grace window, the previous one.
	VerifySecret(client *domain.Client, plainSecret string, now time.Time) bool
}

// ConsentUseCase defines business logic operations for the consent ledger.
type ConsentUseCase interface {
	// Grant stores a new consent, atomically revoking any previous active
	// consent for the same (user, client) pair.
	Grant(ctx context.Context, input *domain.GrantConsentInput) (*domain.Consent, error)

	// Revoke revokes a consent owned by the user. Idempotent for already
	// revoked rows; foreign or missing rows yield ErrConsentNotFound.
	Revoke(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	// FindActive returns the active consent for a (user, client) pair.
	FindActive(ctx context.Context, userID uuid.UUID, clientID string) (*domain.Consent, error)

	// ListByUser returns the user's active consents together with client
	// names and scope descriptions.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConsentWithClient, error)

	// GetByID returns a consent owned by the user.
	GetByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*domain.Consent, error)
}

// AuthorizeUseCase drives the authorization code grant state machine.
type AuthorizeUseCase interface {
	// BeginAuthorize validates an authorization request and either issues a
	// code (redirect) or asks for consent.
	BeginAuthorize(ctx context.Context, input *domain.AuthorizeInput) (*domain.AuthorizeOutput, error)

	// DecideConsent applies the user's consent decision. Approval grants the
	// consent and issues a code; denial returns ErrConsentDenied.
	DecideConsent(ctx context.Context, input *domain.ConsentDecisionInput) (*domain.AuthorizeOutput, error)

	// ExchangeToken redeems an authorization code for an access token.
	ExchangeToken(ctx context.Context, input *domain.ExchangeTokenInput) (*domain.ExchangeTokenOutput, error)
}

// ScopeUseCase defines business logic operations for scope definitions.
type ScopeUseCase interface {
	// Create registers a new scope definition.
	Create(ctx context.Context, input *domain.CreateScopeInput) (*domain.ScopeDefinition, error)

	// List returns all scope definitions.
	List(ctx context.Context) ([]*domain.ScopeDefinition, error)
}

// BootstrapUseCase prepares first-party state at startup.
type BootstrapUseCase interface {
	// EnsureSystemClient guarantees the BFF system client exists with the
	// configured credentials. A configured secret shorter than 32 characters
	// is a fatal error; a hash mismatch on an existing client only logs a
	// warning.
	EnsureSystemClient(ctx context.Context) error
}

// MaintenanceUseCase runs periodic cleanup of expired rows.
type MaintenanceUseCase interface {
	// CleanSessions deletes expired sessions and returns the count removed.
	CleanSessions(ctx context.Context) (int64, error)

	// CleanAuthorizationCodes deletes stale codes created before the cutoff.
	// When dryRun is set it only counts.
	CleanAuthorizationCodes(ctx context.Context, createdBefore time.Time, dryRun bool) (int64, error)

	// Start runs the cleanup loop until the context is cancelled.
	Start(ctx context.Context)
}
