package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/oauth/domain"
)

// PostgreSQLCodeRepository implements AuthorizationCode persistence for
// PostgreSQL with transaction support via database.GetTx().
type PostgreSQLCodeRepository struct {
	db *sql.DB
}

// Create inserts a new AuthorizationCode into the PostgreSQL database.
func (p *PostgreSQLCodeRepository) Create(ctx context.Context, code *domain.AuthorizationCode) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO authorization_codes (code, user_id, client_id, redirect_uri, scope,
				  code_challenge, code_challenge_method, expires_at, used, used_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier.ExecContext(
		ctx,
		query,
		code.Code,
		code.UserID,
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
func (p *PostgreSQLCodeRepository) GetByCode(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT code, user_id, client_id, redirect_uri, scope, code_challenge,
				  code_challenge_method, expires_at, used, used_at, created_at
			  FROM authorization_codes WHERE code = $1`

	var authCode domain.AuthorizationCode

	err := querier.QueryRowContext(ctx, query, code).Scan(
		&authCode.Code,
		&authCode.UserID,
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

	return &authCode, nil
}

// MarkUsed flips the used flag with a compare-and-set. Returns false when the
// code was already consumed, which signals a replay under concurrency.
func (p *PostgreSQLCodeRepository) MarkUsed(ctx context.Context, code string, usedAt time.Time) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE authorization_codes
			  SET used = true, used_at = $1
			  WHERE code = $2 AND used = false`

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
func (p *PostgreSQLCodeRepository) DeleteStale(ctx context.Context, now, createdBefore time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM authorization_codes
			  WHERE (used = true OR expires_at < $1) AND created_at < $2`

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
func (p *PostgreSQLCodeRepository) CountStale(ctx context.Context, now, createdBefore time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM authorization_codes
			  WHERE (used = true OR expires_at < $1) AND created_at < $2`

	var count int64
	if err := querier.QueryRowContext(ctx, query, now, createdBefore).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count stale authorization codes")
	}

	return count, nil
}

// NewPostgreSQLCodeRepository creates a new PostgreSQL AuthorizationCode repository.
func NewPostgreSQLCodeRepository(db *sql.DB) *PostgreSQLCodeRepository {
	return &PostgreSQLCodeRepository{db: db}
}
