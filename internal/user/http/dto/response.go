package dto

import (
	"time"

	"github.com/google/uuid"

	userDomain "github.com/allisson/authd/internal/user/domain"
)

// UserResponse is the public representation of a user account. The password
// hash never leaves the server.
type UserResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	Username           *string    `json:"username,omitempty"`
	FullName           *string    `json:"full_name,omitempty"`
	Roles              []string   `json:"roles"`
	AccountType        string     `json:"account_type"`
	IsActive           bool       `json:"is_active"`
	EmailVerified      bool       `json:"email_verified"`
	IsDeveloper        bool       `json:"is_developer"`
	CanUseExpenses     bool       `json:"can_use_expenses"`
	DeveloperEnabledAt *time.Time `json:"developer_enabled_at,omitempty"`
	ExpensesEnabledAt  *time.Time `json:"expenses_enabled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// MapUserToResponse converts a domain user to its public response.
func MapUserToResponse(user *userDomain.User) UserResponse {
	return UserResponse{
		ID:                 user.ID,
		Email:              user.Email,
		Username:           user.Username,
		FullName:           user.FullName,
		Roles:              user.Roles,
		AccountType:        string(user.AccountType()),
		IsActive:           user.IsActive,
		EmailVerified:      user.EmailVerified,
		IsDeveloper:        user.IsDeveloper,
		CanUseExpenses:     user.CanUseExpenses,
		DeveloperEnabledAt: user.DeveloperEnabledAt,
		ExpensesEnabledAt:  user.ExpensesEnabledAt,
		CreatedAt:          user.CreatedAt,
		UpdatedAt:          user.UpdatedAt,
	}
}

// UserDetailResponse wraps a single user.
type UserDetailResponse struct {
	User UserResponse `json:"user"`
}

// MapUserToDetailResponse converts a domain user to a detail response.
func MapUserToDetailResponse(user *userDomain.User) UserDetailResponse {
	return UserDetailResponse{User: MapUserToResponse(user)}
}

// RegisterUserResponse is returned after a successful registration.
type RegisterUserResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// LoginResponse is returned after a successful login, alongside the session
// cookie.
type LoginResponse struct {
	User      UserResponse `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
	Message   string       `json:"message"`
}

// ChangePasswordResponse reports a completed password change. SessionRevoked
// appears only when the change also revoked the user's sessions.
type ChangePasswordResponse struct {
	Message        string `json:"message"`
	SessionRevoked bool   `json:"session_revoked,omitempty"`
}

// UpgradeResponse is returned by the account upgrade endpoints.
type UpgradeResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}
