// Package usecase defines business logic interfaces for user account operations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	outboxDomain "github.com/allisson/authd/internal/outbox/domain"
	sessionDomain "github.com/allisson/authd/internal/session/domain"
	"github.com/allisson/authd/internal/user/domain"
)

// UserRepository defines persistence operations for users.
// Implementations must support transaction-aware operations via context propagation.
type UserRepository interface {
	// Create stores a new user. Returns ErrEmailAlreadyExists or
	// ErrUsernameAlreadyExists on uniqueness violations.
	Create(ctx context.Context, user *domain.User) error

	// Update modifies an existing user. Uniqueness violations map to the
	// same conflict errors as Create.
	Update(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID. Returns ErrUserNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by lowercased email. Returns ErrUserNotFound if not found.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByUsername retrieves a user by username. Returns ErrUserNotFound if not found.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// SessionManager defines the session operations the user use case depends on.
type SessionManager interface {
	// Issue creates a new session for the user.
	Issue(ctx context.Context, userID uuid.UUID, expiresIn time.Duration) (*sessionDomain.Session, error)

	// DeleteByUser removes all sessions for the user. Idempotent.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// OutboxEventRepository defines the outbox operations the user use case depends on.
type OutboxEventRepository interface {
	// Create stores a new outbox event.
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// UserUseCase defines business logic operations for user accounts.
type UserUseCase interface {
	// Register creates a new user account. Feature flags are derived from
	// the requested account type: regular users can use expenses, developers
	// can register OAuth clients. The password is hashed before storage and
	// a user.registered event is written in the same transaction.
	Register(ctx context.Context, input *domain.RegisterUserInput) (*domain.User, error)

	// Authenticate verifies login credentials and issues a session.
	// Lookup is by email first (case-insensitive), then by username.
	// Any failure returns ErrInvalidCredentials without revealing whether
	// the account exists.
	Authenticate(ctx context.Context, input *domain.AuthenticateUserInput) (*domain.AuthenticateUserOutput, error)

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdateProfile applies a partial update of full name and username.
	UpdateProfile(ctx context.Context, userID uuid.UUID, input *domain.UpdateProfileInput) (*domain.User, error)

	// ChangePassword replaces the user's password after verifying the
	// current one. Optionally revokes all of the user's sessions.
	ChangePassword(ctx context.Context, userID uuid.UUID, input *domain.ChangePasswordInput) error

	// UpgradeToDeveloper enables OAuth client registration for the user.
	// Returns ErrInvalidUser if the user is already a developer.
	UpgradeToDeveloper(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// EnableExpenses enables the expenses feature for the user.
	// Returns ErrInvalidUser if the feature is already enabled.
	EnableExpenses(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}
