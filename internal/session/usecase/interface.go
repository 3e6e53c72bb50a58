package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/session/domain"
)

// SessionRepository defines the interface for session data persistence.
type SessionRepository interface {
	// Create persists a new session.
	Create(ctx context.Context, session *domain.Session) error

	// GetByID retrieves a session by its stored id (the token digest) without
	// checking expiry. Returns domain.ErrSessionNotFound when no row exists.
	GetByID(ctx context.Context, sessionID string) (*domain.Session, error)

	// ListByUser retrieves the sessions of a user expiring after the given
	// instant, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.Session, error)

	// Delete removes a session by id. Missing sessions are not an error.
	Delete(ctx context.Context, sessionID string) error

	// DeleteByUser removes all sessions of a user. A user with no sessions
	// is not an error.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired removes sessions that expired before the given instant
	// and returns the number of rows deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionUseCase defines the interface for login session lifecycle operations.
type SessionUseCase interface {
	// Issue creates and persists a new session for the user with the given
	// lifetime and returns it. The Token field carries the cookie value; only
	// its digest is stored.
	Issue(ctx context.Context, userID uuid.UUID, expiresIn time.Duration) (*domain.Session, error)

	// Get retrieves a live session by its raw token. An expired session is
	// deleted on lookup and reported as domain.ErrSessionNotFound.
	Get(ctx context.Context, token string) (*domain.Session, error)

	// GetByUser retrieves all live sessions of a user, newest first.
	GetByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Session, error)

	// Delete removes a session by its stored id. Idempotent.
	Delete(ctx context.Context, sessionID string) error

	// DeleteByUser removes all sessions of a user. Idempotent.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// Cleanup removes all expired sessions and returns how many were deleted.
	// Safe to run concurrently with Issue and Get.
	Cleanup(ctx context.Context) (int64, error)
}
