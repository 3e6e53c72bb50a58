package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/oauth/domain"
)

// MySQLClientRepository implements Client persistence for MySQL.
// Uses BINARY(16) UUID columns with transaction support via database.GetTx().
type MySQLClientRepository struct {
	db *sql.DB
}

const mysqlClientColumns = `id, client_id, client_secret, client_secret_old, secret_expires_at,
				  client_name, redirect_uris, grant_types, is_public, is_active,
				  is_system_client, system_role, user_id, created_at, updated_at`

// Create inserts a new Client into the MySQL database.
func (m *MySQLClientRepository) Create(ctx context.Context, client *domain.Client) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := client.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	userIDBytes, err := nullableUUIDBytes(client.UserID)
	if err != nil {
		return err
	}
	redirectURIsJSON, grantTypesJSON, err := marshalClientLists(client)
	if err != nil {
		return err
	}

	query := `INSERT INTO oauth_clients (id, client_id, client_secret, client_secret_old,
				  secret_expires_at, client_name, redirect_uris, grant_types, is_public,
				  is_active, is_system_client, system_role, user_id, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
		client.ClientID,
		client.ClientSecret,
		client.ClientSecretOld,
		client.SecretExpiresAt,
		client.ClientName,
		redirectURIsJSON,
		grantTypesJSON,
		client.IsPublic,
		client.IsActive,
		client.IsSystemClient,
		client.SystemRole,
		userIDBytes,
		client.CreatedAt,
		client.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "client_id already exists")
		}
		return apperrors.Wrap(err, "failed to create client")
	}
	return nil
}

// Update modifies an existing Client in the MySQL database.
func (m *MySQLClientRepository) Update(ctx context.Context, client *domain.Client) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := client.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	redirectURIsJSON, grantTypesJSON, err := marshalClientLists(client)
	if err != nil {
		return err
	}

	query := `UPDATE oauth_clients
			  SET client_secret = ?,
				  client_secret_old = ?,
				  secret_expires_at = ?,
				  client_name = ?,
				  redirect_uris = ?,
				  grant_types = ?,
				  is_public = ?,
				  is_active = ?,
				  updated_at = ?
			  WHERE id = ?`

	_, err = querier.ExecContext(
		ctx,
		query,
		client.ClientSecret,
		client.ClientSecretOld,
		client.SecretExpiresAt,
		client.ClientName,
		redirectURIsJSON,
		grantTypesJSON,
		client.IsPublic,
		client.IsActive,
		client.UpdatedAt,
		idBytes,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update client")
	}
	return nil
}

// GetByID retrieves a Client by its internal id from the MySQL database.
func (m *MySQLClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT ` + mysqlClientColumns + ` FROM oauth_clients WHERE id = ?`

	return scanMySQLClient(querier.QueryRowContext(ctx, query, idBytes))
}

// GetByClientID retrieves a Client by its external client_id from the MySQL
// database.
func (m *MySQLClientRepository) GetByClientID(ctx context.Context, clientID string) (*domain.Client, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlClientColumns + ` FROM oauth_clients WHERE client_id = ?`

	return scanMySQLClient(querier.QueryRowContext(ctx, query, clientID))
}

// ListByUser retrieves the active clients owned by a user, newest first.
func (m *MySQLClientRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*domain.Client, error) {
	querier := database.GetTx(ctx, m.db)

	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT ` + mysqlClientColumns + `
			  FROM oauth_clients
			  WHERE user_id = ? AND is_active = true
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, userIDBytes, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list clients")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	clients := make([]*domain.Client, 0)
	for rows.Next() {
		client, err := scanMySQLClientRow(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate clients")
	}

	return clients, nil
}

// GetSystemClient retrieves the active system client carrying the given role.
func (m *MySQLClientRepository) GetSystemClient(ctx context.Context, systemRole string) (*domain.Client, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlClientColumns + `
			  FROM oauth_clients
			  WHERE is_system_client = true AND system_role = ? AND is_active = true`

	return scanMySQLClient(querier.QueryRowContext(ctx, query, systemRole))
}

// scanMySQLClient reads a client from a single-row query, converting the
// BINARY(16) id columns.
func scanMySQLClient(row *sql.Row) (*domain.Client, error) {
	var client domain.Client
	var idBytes, userIDBytes []byte
	var redirectURIsJSON, grantTypesJSON []byte

	err := row.Scan(
		&idBytes,
		&client.ClientID,
		&client.ClientSecret,
		&client.ClientSecretOld,
		&client.SecretExpiresAt,
		&client.ClientName,
		&redirectURIsJSON,
		&grantTypesJSON,
		&client.IsPublic,
		&client.IsActive,
		&client.IsSystemClient,
		&client.SystemRole,
		&userIDBytes,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get client")
	}

	if err := hydrateMySQLClient(&client, idBytes, userIDBytes, redirectURIsJSON, grantTypesJSON); err != nil {
		return nil, err
	}

	return &client, nil
}

// scanMySQLClientRow reads a client from a multi-row result set.
func scanMySQLClientRow(rows *sql.Rows) (*domain.Client, error) {
	var client domain.Client
	var idBytes, userIDBytes []byte
	var redirectURIsJSON, grantTypesJSON []byte

	err := rows.Scan(
		&idBytes,
		&client.ClientID,
		&client.ClientSecret,
		&client.ClientSecretOld,
		&client.SecretExpiresAt,
		&client.ClientName,
		&redirectURIsJSON,
		&grantTypesJSON,
		&client.IsPublic,
		&client.IsActive,
		&client.IsSystemClient,
		&client.SystemRole,
		&userIDBytes,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan client")
	}

	if err := hydrateMySQLClient(&client, idBytes, userIDBytes, redirectURIsJSON, grantTypesJSON); err != nil {
		return nil, err
	}

	return &client, nil
}

// hydrateMySQLClient converts raw column bytes into the domain client.
func hydrateMySQLClient(client *domain.Client, idBytes, userIDBytes, redirectURIsJSON, grantTypesJSON []byte) error {
	id, err := uuid.FromBytes(idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to parse client id")
	}
	client.ID = id

	if userIDBytes != nil {
		userID, err := uuid.FromBytes(userIDBytes)
		if err != nil {
			return apperrors.Wrap(err, "failed to parse client user id")
		}
		client.UserID = &userID
	}

	return unmarshalClientLists(client, redirectURIsJSON, grantTypesJSON)
}

// nullableUUIDBytes converts an optional uuid to its BINARY(16) form,
// preserving NULL.
func nullableUUIDBytes(id *uuid.UUID) (interface{}, error) {
	if id == nil {
		return nil, nil
	}
	bytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}
	return bytes, nil
}

// NewMySQLClientRepository creates a new MySQL Client repository.
func NewMySQLClientRepository(db *sql.DB) *MySQLClientRepository {
	return &MySQLClientRepository{db: db}
}
