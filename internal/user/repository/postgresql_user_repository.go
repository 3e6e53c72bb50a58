// Package repository implements data persistence for user entities.
//
// Provides PostgreSQL and MySQL implementations with transaction support via database.GetTx().
// PostgreSQL uses native UUID types, MySQL uses BINARY(16) types.
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
	"github.com/allisson/authd/internal/user/domain"
)

// PostgreSQLUserRepository implements User persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// Create inserts a new User into the PostgreSQL database.
func (p *PostgreSQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, p.db)

	rolesJSON, err := json.Marshal(user.Roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user roles")
	}

	query := `INSERT INTO users (id, email, username, password_hash, full_name, roles, is_active,
				  email_verified, is_developer, can_use_expenses, developer_enabled_at,
				  expenses_enabled_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = querier.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.FullName,
		rolesJSON,
		user.IsActive,
		user.EmailVerified,
		user.IsDeveloper,
		user.CanUseExpenses,
		user.DeveloperEnabledAt,
		user.ExpensesEnabledAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if conflictErr := mapPostgreSQLUniqueViolation(err); conflictErr != nil {
			return conflictErr
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// Update modifies an existing User in the PostgreSQL database.
func (p *PostgreSQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, p.db)

	rolesJSON, err := json.Marshal(user.Roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user roles")
	}

	query := `UPDATE users
			  SET email = $1,
			  	  username = $2,
				  password_hash = $3,
				  full_name = $4,
				  roles = $5,
				  is_active = $6,
				  email_verified = $7,
				  is_developer = $8,
				  can_use_expenses = $9,
				  developer_enabled_at = $10,
				  expenses_enabled_at = $11,
				  updated_at = $12
			  WHERE id = $13`

	_, err = querier.ExecContext(
		ctx,
		query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.FullName,
		rolesJSON,
		user.IsActive,
		user.EmailVerified,
		user.IsDeveloper,
		user.CanUseExpenses,
		user.DeveloperEnabledAt,
		user.ExpensesEnabledAt,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if conflictErr := mapPostgreSQLUniqueViolation(err); conflictErr != nil {
			return conflictErr
		}
		return apperrors.Wrap(err, "failed to update user")
	}

	return nil
}

// GetByID retrieves a User by ID from the PostgreSQL database.
func (p *PostgreSQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, username, password_hash, full_name, roles, is_active,
				  email_verified, is_developer, can_use_expenses, developer_enabled_at,
				  expenses_enabled_at, created_at, updated_at
			  FROM users WHERE id = $1`

	var user domain.User
	var rolesJSON []byte

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.FullName,
		&rolesJSON,
		&user.IsActive,
		&user.EmailVerified,
		&user.IsDeveloper,
		&user.CanUseExpenses,
		&user.DeveloperEnabledAt,
		&user.ExpensesEnabledAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by id")
	}

	if err := json.Unmarshal(rolesJSON, &user.Roles); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user roles")
	}

	return &user, nil
}

// GetByEmail retrieves a User by email from the PostgreSQL database.
// The caller is expected to pass a lowercased email.
func (p *PostgreSQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, username, password_hash, full_name, roles, is_active,
				  email_verified, is_developer, can_use_expenses, developer_enabled_at,
				  expenses_enabled_at, created_at, updated_at
			  FROM users WHERE email = $1`

	var user domain.User
	var rolesJSON []byte

	err := querier.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.FullName,
		&rolesJSON,
		&user.IsActive,
		&user.EmailVerified,
		&user.IsDeveloper,
		&user.CanUseExpenses,
		&user.DeveloperEnabledAt,
		&user.ExpensesEnabledAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by email")
	}

	if err := json.Unmarshal(rolesJSON, &user.Roles); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user roles")
	}

	return &user, nil
}

// GetByUsername retrieves a User by username from the PostgreSQL database.
func (p *PostgreSQLUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, username, password_hash, full_name, roles, is_active,
				  email_verified, is_developer, can_use_expenses, developer_enabled_at,
				  expenses_enabled_at, created_at, updated_at
			  FROM users WHERE username = $1`

	var user domain.User
	var rolesJSON []byte

	err := querier.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.FullName,
		&rolesJSON,
		&user.IsActive,
		&user.EmailVerified,
		&user.IsDeveloper,
		&user.CanUseExpenses,
		&user.DeveloperEnabledAt,
		&user.ExpensesEnabledAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by username")
	}

	if err := json.Unmarshal(rolesJSON, &user.Roles); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user roles")
	}

	return &user, nil
}

// mapPostgreSQLUniqueViolation translates a PostgreSQL uniqueness violation into
// the conflicting column's domain error. Returns nil for any other error.
func mapPostgreSQLUniqueViolation(err error) error {
	errMsg := strings.ToLower(err.Error())
	if !strings.Contains(errMsg, "duplicate key") && !strings.Contains(errMsg, "unique constraint") {
		return nil
	}
	// Constraint names come from the users table migration
	if strings.Contains(errMsg, "username") {
		return domain.ErrUsernameAlreadyExists
	}
	return domain.ErrEmailAlreadyExists
}

// NewPostgreSQLUserRepository creates a new PostgreSQL User repository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}
