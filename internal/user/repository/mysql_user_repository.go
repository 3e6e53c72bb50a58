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

// MySQLUserRepository implements User persistence for MySQL.
// Uses BINARY(16) UUID storage with transaction support via database.GetTx().
type MySQLUserRepository struct {
	db *sql.DB
}

// Create inserts a new User into the MySQL database.
func (m *MySQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, m.db)

	rolesJSON, err := json.Marshal(user.Roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user roles")
	}

	idBytes, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `INSERT INTO users (id, email, username, password_hash, full_name, roles, is_active,
				  email_verified, is_developer, can_use_expenses, developer_enabled_at,
				  expenses_enabled_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
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
		if conflictErr := mapMySQLUniqueViolation(err); conflictErr != nil {
			return conflictErr
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// Update modifies an existing User in the MySQL database.
func (m *MySQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, m.db)

	rolesJSON, err := json.Marshal(user.Roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user roles")
	}

	idBytes, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE users
			  SET email = ?,
			  	  username = ?,
				  password_hash = ?,
				  full_name = ?,
				  roles = ?,
				  is_active = ?,
				  email_verified = ?,
				  is_developer = ?,
				  can_use_expenses = ?,
				  developer_enabled_at = ?,
				  expenses_enabled_at = ?,
				  updated_at = ?
			  WHERE id = ?`

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
		idBytes,
	)
	if err != nil {
		if conflictErr := mapMySQLUniqueViolation(err); conflictErr != nil {
			return conflictErr
		}
		return apperrors.Wrap(err, "failed to update user")
	}

	return nil
}

// GetByID retrieves a User by ID from the MySQL database.
func (m *MySQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT id, email, username, password_hash, full_name, roles, is_active,
				  email_verified, is_developer, can_use_expenses, developer_enabled_at,
				  expenses_enabled_at, created_at, updated_at
			  FROM users WHERE id = ?`

	return m.scanUser(querier.QueryRowContext(ctx, query, idBytes), "failed to get user by id")
}

// GetByEmail retrieves a User by email from the MySQL database.
// The caller is expected to pass a lowercased email.
func (m *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, email, username, password_hash, full_name, roles, is_active,
				  email_verified, is_developer, can_use_expenses, developer_enabled_at,
				  expenses_enabled_at, created_at, updated_at
			  FROM users WHERE email = ?`

	return m.scanUser(querier.QueryRowContext(ctx, query, email), "failed to get user by email")
}

// GetByUsername retrieves a User by username from the MySQL database.
func (m *MySQLUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, email, username, password_hash, full_name, roles, is_active,
				  email_verified, is_developer, can_use_expenses, developer_enabled_at,
				  expenses_enabled_at, created_at, updated_at
			  FROM users WHERE username = ?`

	return m.scanUser(querier.QueryRowContext(ctx, query, username), "failed to get user by username")
}

// scanUser reads a user row, converting the BINARY(16) ID and JSON roles column.
func (m *MySQLUserRepository) scanUser(row *sql.Row, wrapMsg string) (*domain.User, error) {
	var user domain.User
	var idBytes []byte
	var rolesJSON []byte

	err := row.Scan(
		&idBytes,
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
		return nil, apperrors.Wrap(err, wrapMsg)
	}

	if err := user.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	if err := json.Unmarshal(rolesJSON, &user.Roles); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user roles")
	}

	return &user, nil
}

// mapMySQLUniqueViolation translates a MySQL uniqueness violation into the
// conflicting column's domain error. Returns nil for any other error.
func mapMySQLUniqueViolation(err error) error {
	errMsg := strings.ToLower(err.Error())
	if !strings.Contains(errMsg, "duplicate entry") && !strings.Contains(errMsg, "1062") {
		return nil
	}
	// Key names come from the users table migration
	if strings.Contains(errMsg, "username") {
		return domain.ErrUsernameAlreadyExists
	}
	return domain.ErrEmailAlreadyExists
}

// NewMySQLUserRepository creates a new MySQL User repository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}
