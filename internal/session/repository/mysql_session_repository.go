package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/session/domain"
)

// MySQLSessionRepository implements Session persistence for MySQL.
// Uses BINARY(16) for the user id with transaction support via database.GetTx().
type MySQLSessionRepository struct {
	db *sql.DB
}

// Create inserts a new Session into the MySQL database. Uses transaction support
// via database.GetTx(). Returns an error if database insertion fails.
func (m *MySQLSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	querier := database.GetTx(ctx, m.db)

	userIDBytes, err := session.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `INSERT INTO sessions (id, user_id, expires_at, created_at)
			  VALUES (?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		session.ID,
		userIDBytes,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create session")
	}
	return nil
}

// GetByID retrieves a Session by its opaque id from the MySQL database.
// Returns ErrSessionNotFound if the session doesn't exist. Expiry is not checked
// here; callers decide what to do with expired rows.
func (m *MySQLSessionRepository) GetByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, expires_at, created_at
			  FROM sessions WHERE id = ?`

	var session domain.Session
	var userIDBytes []byte

	err := querier.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&userIDBytes,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get session")
	}

	if err := session.UserID.UnmarshalBinary(userIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}

	return &session, nil
}

// ListByUser retrieves all sessions for a user that expire after the given instant,
// newest first. Returns an empty slice if the user has no live sessions.
func (m *MySQLSessionRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) ([]*domain.Session, error) {
	querier := database.GetTx(ctx, m.db)

	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `SELECT id, user_id, expires_at, created_at
			  FROM sessions
			  WHERE user_id = ? AND expires_at > ?
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, userIDBytes, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list sessions")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	sessions := make([]*domain.Session, 0)
	for rows.Next() {
		var session domain.Session
		var rowUserIDBytes []byte

		err := rows.Scan(
			&session.ID,
			&rowUserIDBytes,
			&session.ExpiresAt,
			&session.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan session")
		}

		if err := session.UserID.UnmarshalBinary(rowUserIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal user id")
		}

		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate sessions")
	}

	return sessions, nil
}

// Delete removes a Session by id. Deleting a missing session is not an error.
func (m *MySQLSessionRepository) Delete(ctx context.Context, sessionID string) error {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM sessions WHERE id = ?`

	_, err := querier.ExecContext(ctx, query, sessionID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete session")
	}
	return nil
}

// DeleteByUser removes all sessions belonging to a user. Deleting for a user
// with no sessions is not an error.
func (m *MySQLSessionRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `DELETE FROM sessions WHERE user_id = ?`

	_, err = querier.ExecContext(ctx, query, userIDBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete sessions")
	}
	return nil
}

// DeleteExpired removes all sessions that expired before the given instant.
// Returns the number of rows deleted.
func (m *MySQLSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM sessions WHERE expires_at < ?`

	result, err := querier.ExecContext(ctx, query, now)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired sessions")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows count")
	}

	return count, nil
}

// NewMySQLSessionRepository creates a new MySQL Session repository.
func NewMySQLSessionRepository(db *sql.DB) *MySQLSessionRepository {
	return &MySQLSessionRepository{db: db}
}
