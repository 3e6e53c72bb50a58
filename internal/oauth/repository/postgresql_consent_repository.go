package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/oauth/domain"
)

// PostgreSQLConsentRepository implements Consent persistence for PostgreSQL.
// A partial unique index on (user_id, client_id) WHERE revoked_at IS NULL
// guarantees at most one active consent per pair; this repository surfaces
// violations as ErrActiveConsentExists.
type PostgreSQLConsentRepository struct {
	db *sql.DB
}

const postgresConsentColumns = `id, user_id, client_id, scopes, granted_at, expires_at, revoked_at`

// Create inserts a new Consent into the PostgreSQL database.
func (p *PostgreSQLConsentRepository) Create(ctx context.Context, consent *domain.Consent) error {
	querier := database.GetTx(ctx, p.db)

	scopesJSON, err := json.Marshal(consent.Scopes)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal consent scopes")
	}

	query := `INSERT INTO user_consents (id, user_id, client_id, scopes, granted_at, expires_at, revoked_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = querier.ExecContext(
		ctx,
		query,
		consent.ID,
		consent.UserID,
		consent.ClientID,
		scopesJSON,
		consent.GrantedAt,
		consent.ExpiresAt,
		consent.RevokedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrActiveConsentExists
		}
		return apperrors.Wrap(err, "failed to create consent")
	}
	return nil
}

// GetByID retrieves a Consent by id from the PostgreSQL database.
func (p *PostgreSQLConsentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Consent, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresConsentColumns + ` FROM user_consents WHERE id = $1`

	return scanPostgreSQLConsent(querier.QueryRowContext(ctx, query, id))
}

// GetActive retrieves the non-revoked consent for a user and client pair.
func (p *PostgreSQLConsentRepository) GetActive(
	ctx context.Context,
	userID uuid.UUID,
	clientID string,
) (*domain.Consent, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresConsentColumns + `
			  FROM user_consents
			  WHERE user_id = $1 AND client_id = $2 AND revoked_at IS NULL`

	return scanPostgreSQLConsent(querier.QueryRowContext(ctx, query, userID, clientID))
}

// ListActiveByUser retrieves all non-revoked consents for a user, newest first.
func (p *PostgreSQLConsentRepository) ListActiveByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Consent, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresConsentColumns + `
			  FROM user_consents
			  WHERE user_id = $1 AND revoked_at IS NULL
			  ORDER BY granted_at DESC`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list consents")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	consents := make([]*domain.Consent, 0)
	for rows.Next() {
		var consent domain.Consent
		var scopesJSON []byte

		err := rows.Scan(
			&consent.ID,
			&consent.UserID,
			&consent.ClientID,
			&scopesJSON,
			&consent.GrantedAt,
			&consent.ExpiresAt,
			&consent.RevokedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan consent")
		}
		if err := json.Unmarshal(scopesJSON, &consent.Scopes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal consent scopes")
		}

		consents = append(consents, &consent)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate consents")
	}

	return consents, nil
}

// Revoke stamps revoked_at on a consent that is still active. Revoking an
// already revoked consent affects zero rows and is not an error.
func (p *PostgreSQLConsentRepository) Revoke(ctx context.Context, id uuid.UUID, revokedAt time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE user_consents SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`

	_, err := querier.ExecContext(ctx, query, revokedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke consent")
	}
	return nil
}

// scanPostgreSQLConsent reads a consent from a single-row query.
func scanPostgreSQLConsent(row *sql.Row) (*domain.Consent, error) {
	var consent domain.Consent
	var scopesJSON []byte

	err := row.Scan(
		&consent.ID,
		&consent.UserID,
		&consent.ClientID,
		&scopesJSON,
		&consent.GrantedAt,
		&consent.ExpiresAt,
		&consent.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConsentNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get consent")
	}

	if err := json.Unmarshal(scopesJSON, &consent.Scopes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal consent scopes")
	}

	return &consent, nil
}

// NewPostgreSQLConsentRepository creates a new PostgreSQL Consent repository.
func NewPostgreSQLConsentRepository(db *sql.DB) *PostgreSQLConsentRepository {
	return &PostgreSQLConsentRepository{db: db}
}
