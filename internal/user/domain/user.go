// Package domain defines the core user domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/errors"
)

// AccountType classifies a user by the product features enabled at
// registration. The type is derived from the feature flags, never stored.
type AccountType string

// Account types derived from the developer and expenses flags.
const (
	AccountTypeUser      AccountType = "user"
	AccountTypeDeveloper AccountType = "developer"
	AccountTypeHybrid    AccountType = "hybrid"
)

// RoleAdmin grants access to administrative endpoints such as audit log listing.
const RoleAdmin = "admin"

// User represents a registered user.
type User struct {
	ID                 uuid.UUID
	Email              string     // unique, stored lowercase
	Username           *string    // optional, unique when set
	PasswordHash       string     //nolint:gosec // bcrypt hash, not plaintext
	FullName           *string
	Roles              []string
	IsActive           bool
	EmailVerified      bool
	IsDeveloper        bool
	CanUseExpenses     bool
	DeveloperEnabledAt *time.Time // set iff IsDeveloper
	ExpensesEnabledAt  *time.Time // set iff CanUseExpenses
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AccountType derives the account classification from the feature flags.
func (u *User) AccountType() AccountType {
	switch {
	case u.IsDeveloper && u.CanUseExpenses:
		return AccountTypeHybrid
	case u.IsDeveloper:
		return AccountTypeDeveloper
	default:
		return AccountTypeUser
	}
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RegisterUserInput contains the input data for user registration.
type RegisterUserInput struct {
	Email       string
	Username    string // optional
	Password    string
	FullName    string // optional
	AccountType AccountType
}

// AuthenticateUserInput contains the login credentials.
type AuthenticateUserInput struct {
	EmailOrUsername string
	Password        string
	RememberMe      bool
}

// AuthenticateUserOutput contains the issued session and the authenticated user.
type AuthenticateUserOutput struct {
	SessionID string // raw session token for the cookie; only its digest is stored
	User      *User
	ExpiresAt time.Time
}

// UpdateProfileInput contains the partial profile update. Nil fields are
// left unchanged.
type UpdateProfileInput struct {
	FullName *string
	Username *string
}

// ChangePasswordInput contains the data for a password change.
type ChangePasswordInput struct {
	CurrentPassword   string
	NewPassword       string
	RevokeAllSessions bool
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrEmailAlreadyExists indicates a user with the same email already exists.
	ErrEmailAlreadyExists = errors.Wrap(errors.ErrConflict, "email already registered")

	// ErrUsernameAlreadyExists indicates the username is already taken.
	ErrUsernameAlreadyExists = errors.Wrap(errors.ErrConflict, "username already taken")

	// ErrInvalidCredentials indicates a login failure. The wording is identical
	// whether the user was missing, inactive or the password was wrong.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrInvalidUser indicates an account state transition that is not allowed,
	// such as upgrading a user who is already a developer.
	ErrInvalidUser = errors.Wrap(errors.ErrUnauthorized, "invalid user")

	// ErrSamePassword indicates the new password equals the current one.
	ErrSamePassword = errors.Wrap(errors.ErrInvalidInput, "new password must be different from the current password")
)
