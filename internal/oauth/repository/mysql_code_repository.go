package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/oauth/domain"
)

// MySQLCodeRepository implements AuthorizationCode persistence for MySQL
// with transaction support via database.GetTx().
type MySQLCodeRepository struct {
	db *sql.DB
}

// Create inserts a new AuthorizationCode into the MySQL database.
func (m *MySQLCodeRepository) Create(ctx context.Context, code *domain.AuthorizationCode) error {
	querier := database.GetTx(ctx, m.db)

	userIDBytes, err := code.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `INSERT INTO authorization_codes (code, user_id, client_id, redirect_uri, scope,
				  code_challenge, code_challenge_method, expires_at, used, used_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		code.Code,
		userIDBytes,
		code.ClientID,
		code.RedirectURI,
		code.Scope,
		code.CodeChallenge,
		code.CodeChallengeMethod,
		code.ExpiresAt,
		code.Used,
		code.UsedAt,
		code.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create authorization code")
	}
	return nil
}

// GetByCode retrieves an AuthorizationCode by its opaque value.
// Returns ErrInvalidAuthorizationCode when the code doesn't exist, matching
// the uniform token endpoint error.
func (m *MySQLCodeRepository) GetByCode(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT code, user_id, client_id, redirect_uri, scope, code_challenge,
				  code_challenge_method, expires_at, used, used_at, created_at
			  FROM authorization_codes WHERE code = ?`

	var authCode domain.AuthorizationCode
	var userIDBytes []byte

	err := querier.QueryRowContext(ctx, query, code).Scan(
		&authCode.Code,
		&userIDBytes,
		&authCode.ClientID,
		&authCode.RedirectURI,
		&authCode.Scope,
		&authCode.CodeChallenge,
		&authCode.CodeChallengeMethod,
		&authCode.ExpiresAt,
		&authCode.Used,
		&authCode.UsedAt,
		&authCode.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvalidAuthorizationCode
		}
		return nil, apperrors.Wrap(err, "failed to get authorization code")
	}

	userID, err := uuid.FromBytes(userIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse user id")
	}
	authCode.UserID = userID

	return &authCode, nil
}

// MarkUsed flips the used flag with a compare-and-set. Returns false when the
// code was already consumed, which signals a replay under concurrency.
func (m *MySQLCodeRepository) MarkUsed(ctx context.Context, code string, usedAt time.Time) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE authorization_codes
			  SET used = true, used_at = ?
			  WHERE code = ? AND used = false`

	result, err := querier.ExecContext(ctx, query, usedAt, code)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to mark authorization code used")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to get affected rows count")
	}

	return count > 0, nil
}

// DeleteStale removes codes that are used or expired and were created before
// the cutoff. Returns the number of rows deleted.
func (m *MySQLCodeRepository) DeleteStale(ctx context.Context, now, createdBefore time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM authorization_codes
			  WHERE (used = true OR expires_at < ?) AND created_at < ?`

	result, err := querier.ExecContext(ctx, query, now, createdBefore)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete stale authorization codes")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows count")
	}

	return count, nil
}

// CountStale counts the codes DeleteStale would remove. Used by dry runs.
func (m *MySQLCodeRepository) CountStale(ctx context.Context, now, createdBefore time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM authorization_codes
			  WHERE (used = true OR expires_at < ?) AND created_at < ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, now, createdBefore).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count stale authorization codes")
	}

	return count, nil
}

// NewMySQLCodeRepository creates a new MySQL AuthorizationCode repository.
func NewMySQLCodeRepository(db *sql.DB) *MySQLCodeRepository {
	return &MySQLCodeRepository{db: db}
}
