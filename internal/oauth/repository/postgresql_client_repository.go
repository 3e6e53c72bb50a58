// Package repository implements data persistence for OAuth2 entities.
//
// Provides PostgreSQL and MySQL implementations for clients, authorization
// codes, consents and scope definitions with transaction support via
// database.GetTx(). PostgreSQL uses native UUID types, MySQL uses BINARY(16)
// types.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/oauth/domain"
)

// PostgreSQLClientRepository implements Client persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLClientRepository struct {
	db *sql.DB
}

const postgresClientColumns = `id, client_id, client_secret, client_secret_old, secret_expires_at,
				  client_name, redirect_uris, grant_types, is_public, is_active,
				  is_system_client, system_role, user_id, created_at, updated_at`

// Create inserts a new Client into the PostgreSQL database.
func (p *PostgreSQLClientRepository) Create(ctx context.Context, client *domain.Client) error {
	querier := database.GetTx(ctx, p.db)

	redirectURIsJSON, grantTypesJSON, err := marshalClientLists(client)
	if err != nil {
		return err
	}

	query := `INSERT INTO oauth_clients (id, client_id, client_secret, client_secret_old,
				  secret_expires_at, client_name, redirect_uris, grant_types, is_public,
				  is_active, is_system_client, system_role, user_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = querier.ExecContext(
		ctx,
		query,
		client.ID,
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
		client.UserID,
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

// Update modifies an existing Client in the PostgreSQL database.
func (p *PostgreSQLClientRepository) Update(ctx context.Context, client *domain.Client) error {
	querier := database.GetTx(ctx, p.db)

	redirectURIsJSON, grantTypesJSON, err := marshalClientLists(client)
	if err != nil {
		return err
	}

	query := `UPDATE oauth_clients
			  SET client_secret = $1,
				  client_secret_old = $2,
				  secret_expires_at = $3,
				  client_name = $4,
				  redirect_uris = $5,
				  grant_types = $6,
				  is_public = $7,
				  is_active = $8,
				  updated_at = $9
			  WHERE id = $10`

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
		client.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update client")
	}
	return nil
}

// GetByID retrieves a Client by its internal id from the PostgreSQL database.
func (p *PostgreSQLClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresClientColumns + ` FROM oauth_clients WHERE id = $1`

	return scanPostgreSQLClient(querier.QueryRowContext(ctx, query, id))
}

// GetByClientID retrieves a Client by its external client_id from the
// PostgreSQL database.
func (p *PostgreSQLClientRepository) GetByClientID(ctx context.Context, clientID string) (*domain.Client, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresClientColumns + ` FROM oauth_clients WHERE client_id = $1`

	return scanPostgreSQLClient(querier.QueryRowContext(ctx, query, clientID))
}

// ListByUser retrieves the active clients owned by a user, newest first.
func (p *PostgreSQLClientRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*domain.Client, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresClientColumns + `
			  FROM oauth_clients
			  WHERE user_id = $1 AND is_active = true
			  ORDER BY created_at DESC
			  OFFSET $2 LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list clients")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	clients := make([]*domain.Client, 0)
	for rows.Next() {
		client, err := scanPostgreSQLClientRow(rows)
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
func (p *PostgreSQLClientRepository) GetSystemClient(ctx context.Context, systemRole string) (*domain.Client, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresClientColumns + `
			  FROM oauth_clients
			  WHERE is_system_client = true AND system_role = $1 AND is_active = true`

	return scanPostgreSQLClient(querier.QueryRowContext(ctx, query, systemRole))
}

// scanPostgreSQLClient reads a client from a single-row query.
func scanPostgreSQLClient(row *sql.Row) (*domain.Client, error) {
	var client domain.Client
	var redirectURIsJSON, grantTypesJSON []byte

	err := row.Scan(
		&client.ID,
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
		&client.UserID,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get client")
	}

	if err := unmarshalClientLists(&client, redirectURIsJSON, grantTypesJSON); err != nil {
		return nil, err
	}

	return &client, nil
}

// scanPostgreSQLClientRow reads a client from a multi-row result set.
func scanPostgreSQLClientRow(rows *sql.Rows) (*domain.Client, error) {
	var client domain.Client
	var redirectURIsJSON, grantTypesJSON []byte

	err := rows.Scan(
		&client.ID,
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
		&client.UserID,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan client")
	}

	if err := unmarshalClientLists(&client, redirectURIsJSON, grantTypesJSON); err != nil {
		return nil, err
	}

	return &client, nil
}

// marshalClientLists renders the JSON array columns of a client.
func marshalClientLists(client *domain.Client) (redirectURIs []byte, grantTypes []byte, err error) {
	redirectURIs, err = json.Marshal(client.RedirectURIs)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal redirect uris")
	}
	grantTypes, err = json.Marshal(client.GrantTypes)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal grant types")
	}
	return redirectURIs, grantTypes, nil
}

// unmarshalClientLists parses the JSON array columns of a client.
func unmarshalClientLists(client *domain.Client, redirectURIsJSON, grantTypesJSON []byte) error {
	if err := json.Unmarshal(redirectURIsJSON, &client.RedirectURIs); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal redirect uris")
	}
	if err := json.Unmarshal(grantTypesJSON, &client.GrantTypes); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal grant types")
	}
	return nil
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

// NewPostgreSQLClientRepository creates a new PostgreSQL Client repository.
func NewPostgreSQLClientRepository(db *sql.DB) *PostgreSQLClientRepository {
	return &PostgreSQLClientRepository{db: db}
}
