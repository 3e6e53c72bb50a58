package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/oauth/domain"
)

// PostgreSQLScopeRepository implements ScopeDefinition persistence for
// PostgreSQL with transaction support via database.GetTx().
type PostgreSQLScopeRepository struct {
	db *sql.DB
}

// Create inserts a new ScopeDefinition into the PostgreSQL database.
func (p *PostgreSQLScopeRepository) Create(ctx context.Context, scope *domain.ScopeDefinition) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO scope_definitions (name, description, is_default, created_at)
			  VALUES ($1, $2, $3, $4)`

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

// GetByName retrieves a ScopeDefinition by name from the PostgreSQL database.
func (p *PostgreSQLScopeRepository) GetByName(ctx context.Context, name string) (*domain.ScopeDefinition, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT name, description, is_default, created_at
			  FROM scope_definitions WHERE name = $1`

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
func (p *PostgreSQLScopeRepository) List(ctx context.Context) ([]*domain.ScopeDefinition, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT name, description, is_default, created_at
			  FROM scope_definitions ORDER BY name`

	return queryScopes(ctx, querier, query)
}

// ListDefaults retrieves the scopes granted when a request omits the scope
// parameter.
func (p *PostgreSQLScopeRepository) ListDefaults(ctx context.Context) ([]*domain.ScopeDefinition, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT name, description, is_default, created_at
			  FROM scope_definitions WHERE is_default = true ORDER BY name`

	return queryScopes(ctx, querier, query)
}

// queryScopes runs a scope query with no parameters and scans the rows. The
// SQL is identical under both drivers.
func queryScopes(ctx context.Context, querier database.Querier, query string) ([]*domain.ScopeDefinition, error) {
	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list scopes")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	scopes := make([]*domain.ScopeDefinition, 0)
	for rows.Next() {
		var scope domain.ScopeDefinition

		err := rows.Scan(
			&scope.Name,
			&scope.Description,
			&scope.IsDefault,
			&scope.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan scope")
		}

		scopes = append(scopes, &scope)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate scopes")
	}

	return scopes, nil
}

// NewPostgreSQLScopeRepository creates a new PostgreSQL ScopeDefinition repository.
func NewPostgreSQLScopeRepository(db *sql.DB) *PostgreSQLScopeRepository {
	return &PostgreSQLScopeRepository{db: db}
}
