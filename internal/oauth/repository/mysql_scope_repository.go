package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/oauth/domain"
)

// MySQLScopeRepository implements ScopeDefinition persistence for MySQL with
// transaction support via database.GetTx().
type MySQLScopeRepository struct {
	db *sql.DB
}

// Create inserts a new ScopeDefinition into the MySQL database.
func (m *MySQLScopeRepository) Create(ctx context.Context, scope *domain.ScopeDefinition) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO scope_definitions (name, description, is_default, created_at)
			  VALUES (?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		scope.Name,
		scope.Description,
		scope.IsDefault,
		scope.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrScopeAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create scope")
	}
	return nil
}

// GetByName retrieves a ScopeDefinition by name from the MySQL database.
func (m *MySQLScopeRepository) GetByName(ctx context.Context, name string) (*domain.ScopeDefinition, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT name, description, is_default, created_at
			  FROM scope_definitions WHERE name = ?`

	var scope domain.ScopeDefinition

	err := querier.QueryRowContext(ctx, query, name).Scan(
		&scope.Name,
		&scope.Description,
		&scope.IsDefault,
		&scope.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrScopeNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get scope")
	}

	return &scope, nil
}

// List retrieves all scope definitions ordered by name.
func (m *MySQLScopeRepository) List(ctx context.Context) ([]*domain.ScopeDefinition, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT name, description, is_default, created_at
			  FROM scope_definitions ORDER BY name`

	return queryScopes(ctx, querier, query)
}

// ListDefaults retrieves the scopes granted when a request omits the scope
// parameter.
func (m *MySQLScopeRepository) ListDefaults(ctx context.Context) ([]*domain.ScopeDefinition, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT name, description, is_default, created_at
			  FROM scope_definitions WHERE is_default = true ORDER BY name`

	return queryScopes(ctx, querier, query)
}

// NewMySQLScopeRepository creates a new MySQL ScopeDefinition repository.
func NewMySQLScopeRepository(db *sql.DB) *MySQLScopeRepository {
	return &MySQLScopeRepository{db: db}
}
