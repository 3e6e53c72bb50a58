package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/authd/internal/crypto/domain"
	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
)

// MySQLSigningKeyRepository implements SigningKey persistence for MySQL.
type MySQLSigningKeyRepository struct {
	db *sql.DB
}

// Create inserts a new signing key into the MySQL database.
func (m *MySQLSigningKeyRepository) Create(ctx context.Context, key *cryptoDomain.SigningKey) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := key.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `INSERT INTO signing_keys (id, kid, purpose, algorithm, public_key,
				  encrypted_private_key, is_active, created_at, retired_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
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
func (m *MySQLSigningKeyRepository) GetActive(
	ctx context.Context,
	purpose cryptoDomain.KeyPurpose,
) (*cryptoDomain.SigningKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, kid, purpose, algorithm, public_key, encrypted_private_key,
				  is_active, created_at, retired_at
			  FROM signing_keys
			  WHERE purpose = ? AND is_active = true
			  ORDER BY created_at DESC
			  LIMIT 1`

	key, err := scanMySQLSigningKey(querier.QueryRowContext(ctx, query, purpose))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cryptoDomain.ErrNoActiveSigningKey
		}
		return nil, apperrors.Wrap(err, "failed to get active signing key")
	}
	return key, nil
}

// ListByPurpose retrieves all signing keys for a purpose, newest first.
func (m *MySQLSigningKeyRepository) ListByPurpose(
	ctx context.Context,
	purpose cryptoDomain.KeyPurpose,
) ([]*cryptoDomain.SigningKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, kid, purpose, algorithm, public_key, encrypted_private_key,
				  is_active, created_at, retired_at
			  FROM signing_keys
			  WHERE purpose = ?
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, purpose)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list signing keys")
	}
	defer func() { _ = rows.Close() }()

	keys := []*cryptoDomain.SigningKey{}
	for rows.Next() {
		key, err := scanMySQLSigningKey(rows)
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
func (m *MySQLSigningKeyRepository) Retire(ctx context.Context, id uuid.UUID, retiredAt time.Time) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE signing_keys
			  SET is_active = false, retired_at = ?
			  WHERE id = ? AND is_active = true`

	result, err := querier.ExecContext(ctx, query, retiredAt, idBytes)
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

// scanMySQLSigningKey scans one signing key row, converting the BINARY(16) ID.
func scanMySQLSigningKey(row rowScanner) (*cryptoDomain.SigningKey, error) {
	var key cryptoDomain.SigningKey
	var idBytes []byte

	err := row.Scan(
		&idBytes,
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

	if err := key.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	return &key, nil
}

// NewMySQLSigningKeyRepository creates a new MySQL SigningKey repository.
func NewMySQLSigningKeyRepository(db *sql.DB) *MySQLSigningKeyRepository {
	return &MySQLSigningKeyRepository{db: db}
}
