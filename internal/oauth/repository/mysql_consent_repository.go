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

// MySQLConsentRepository implements Consent persistence for MySQL. MySQL has
// no partial indexes, so the table carries a generated column active_flag
// (1 when revoked_at IS NULL, NULL otherwise) under a composite unique key;
// NULLs never collide, revoked rows never conflict. Violations surface as
// ErrActiveConsentExists.
type MySQLConsentRepository struct {
	db *sql.DB
}

const mysqlConsentColumns = `id, user_id, client_id, scopes, granted_at, expires_at, revoked_at`

// Create inserts a new Consent into the MySQL database.
func (m *MySQLConsentRepository) Create(ctx context.Context, consent *domain.Consent) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := consent.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	userIDBytes, err := consent.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	scopesJSON, err := json.Marshal(consent.Scopes)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal consent scopes")
	}

	query := `INSERT INTO user_consents (id, user_id, client_id, scopes, granted_at, expires_at, revoked_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
		userIDBytes,
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

// GetByID retrieves a Consent by id from the MySQL database.
func (m *MySQLConsentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Consent, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT ` + mysqlConsentColumns + ` FROM user_consents WHERE id = ?`

	return scanMySQLConsent(querier.QueryRowContext(ctx, query, idBytes))
}

// GetActive retrieves the non-revoked consent for a user and client pair.
func (m *MySQLConsentRepository) GetActive(
	ctx context.Context,
	userID uuid.UUID,
	clientID string,
) (*domain.Consent, error) {
	querier := database.GetTx(ctx, m.db)

	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT ` + mysqlConsentColumns + `
			  FROM user_consents
			  WHERE user_id = ? AND client_id = ? AND revoked_at IS NULL`

	return scanMySQLConsent(querier.QueryRowContext(ctx, query, userIDBytes, clientID))
}

// ListActiveByUser retrieves all non-revoked consents for a user, newest first.
func (m *MySQLConsentRepository) ListActiveByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Consent, error) {
	querier := database.GetTx(ctx, m.db)

	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT ` + mysqlConsentColumns + `
			  FROM user_consents
			  WHERE user_id = ? AND revoked_at IS NULL
			  ORDER BY granted_at DESC`

	rows, err := querier.QueryContext(ctx, query, userIDBytes)
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
		var idBytes, uidBytes, scopesJSON []byte

		err := rows.Scan(
			&idBytes,
			&uidBytes,
			&consent.ClientID,
			&scopesJSON,
			&consent.GrantedAt,
			&consent.ExpiresAt,
			&consent.RevokedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan consent")
		}
		if err := hydrateMySQLConsent(&consent, idBytes, uidBytes, scopesJSON); err != nil {
			return nil, err
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
func (m *MySQLConsentRepository) Revoke(ctx context.Context, id uuid.UUID, revokedAt time.Time) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE user_consents SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`

	_, err = querier.ExecContext(ctx, query, revokedAt, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke consent")
	}
	return nil
}

// scanMySQLConsent reads a consent from a single-row query.
func scanMySQLConsent(row *sql.Row) (*domain.Consent, error) {
	var consent domain.Consent
	var idBytes, userIDBytes, scopesJSON []byte

	err := row.Scan(
		&idBytes,
		&userIDBytes,
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

	if err := hydrateMySQLConsent(&consent, idBytes, userIDBytes, scopesJSON); err != nil {
		return nil, err
	}

	return &consent, nil
}

// hydrateMySQLConsent converts raw column bytes into the domain consent.
func hydrateMySQLConsent(consent *domain.Consent, idBytes, userIDBytes, scopesJSON []byte) error {
	id, err := uuid.FromBytes(idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to parse consent id")
	}
	consent.ID = id

	userID, err := uuid.FromBytes(userIDBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to parse consent user id")
	}
	consent.UserID = userID

	if err := json.Unmarshal(scopesJSON, &consent.Scopes); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal consent scopes")
	}
	return nil
}

// NewMySQLConsentRepository creates a new MySQL Consent repository.
func NewMySQLConsentRepository(db *sql.DB) *MySQLConsentRepository {
	return &MySQLConsentRepository{db: db}
}
