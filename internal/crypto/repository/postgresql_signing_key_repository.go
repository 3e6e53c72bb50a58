// Package repository provides signing key persistence for PostgreSQL and
// MySQL with transaction support via database.GetTx().
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/authd/internal/crypto/domain"
	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
)

// PostgreSQLSigningKeyRepository implements SigningKey persistence for
// PostgreSQL. Private material arrives keeper-wrapped; this layer never sees
// plaintext keys.
type PostgreSQLSigningKeyRepository struct {
	db *sql.DB
}

// Create inserts a new signing key into the PostgreSQL database.
func (p *PostgreSQLSigningKeyRepository) Create(ctx context.Context, key *cryptoDomain.SigningKey) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO signing_keys (id, kid, purpose, algorithm, public_key,
				  encrypted_private_key, is_active, created_at, retired_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		key.ID,
		key.Kid,
		key.Purpose,
		key.Algorithm,
		key.PublicKey,
		key.EncryptedPrivateKey,
		key.IsActive,
		key.CreatedAt,
		key.RetiredAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrapf(apperrors.ErrConflict, "signing key %q already exists", key.Kid)
		}
		return apperrors.Wrap(err, "failed to create signing key")
	}
	return nil
}

// GetActive retrieves the active signing key for a purpose.
// Returns ErrNoActiveSigningKey when no active key exists.
func (p *PostgreSQLSigningKeyRepository) GetActive(
	ctx context.Context,
	purpose cryptoDomain.KeyPurpose,
) (*cryptoDomain.SigningKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, kid, purpose, algorithm, public_key, encrypted_private_key,
				  is_active, created_at, retired_at
			  FROM signing_keys
			  WHERE purpose = $1 AND is_active = true
			  ORDER BY created_at DESC
			  LIMIT 1`

	key, err := scanSigningKey(querier.QueryRowContext(ctx, query, purpose))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cryptoDomain.ErrNoActiveSigningKey
		}
		return nil, apperrors.Wrap(err, "failed to get active signing key")
	}
	return key, nil
}

// ListByPurpose retrieves all signing keys for a purpose, newest first.
func (p *PostgreSQLSigningKeyRepository) ListByPurpose(
	ctx context.Context,
	purpose cryptoDomain.KeyPurpose,
) ([]*cryptoDomain.SigningKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, kid, purpose, algorithm, public_key, encrypted_private_key,
				  is_active, created_at, retired_at
			  FROM signing_keys
			  WHERE purpose = $1
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, purpose)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list signing keys")
	}
	defer func() { _ = rows.Close() }()

	keys := []*cryptoDomain.SigningKey{}
	for rows.Next() {
		key, err := scanSigningKey(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan signing key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate signing keys")
	}
	return keys, nil
}

// Retire clears the active flag and stamps retired_at on a key.
// Returns ErrSigningKeyNotFound when the key does not exist or is already
// retired.
func (p *PostgreSQLSigningKeyRepository) Retire(ctx context.Context, id uuid.UUID, retiredAt time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE signing_keys
			  SET is_active = false, retired_at = $1
			  WHERE id = $2 AND is_active = true`

	result, err := querier.ExecContext(ctx, query, retiredAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to retire signing key")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows count")
	}
	if count == 0 {
		return cryptoDomain.ErrSigningKeyNotFound
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSigningKey scans one signing key row.
func scanSigningKey(row rowScanner) (*cryptoDomain.SigningKey, error) {
	var key cryptoDomain.SigningKey
	err := row.Scan(
		&key.ID,
		&key.Kid,
		&key.Purpose,
		&key.Algorithm,
		&key.PublicKey,
		&key.EncryptedPrivateKey,
		&key.IsActive,
		&key.CreatedAt,
		&key.RetiredAt,
	)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// isUniqueViolation reports whether err is a uniqueness violation from either
// supported driver.
func isUniqueViolation(err error) bool {
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") ||
		strings.Contains(errMsg, "unique constraint") ||
		strings.Contains(errMsg, "duplicate entry") ||
		strings.Contains(errMsg, "1062")
}

// NewPostgreSQLSigningKeyRepository creates a new PostgreSQL SigningKey repository.
func NewPostgreSQLSigningKeyRepository(db *sql.DB) *PostgreSQLSigningKeyRepository {
	return &PostgreSQLSigningKeyRepository{db: db}
}
