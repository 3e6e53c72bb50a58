// Package dto contains the request and response shapes for the user account
// and login endpoints. Requests are thin binding structs; validation happens
// in the use cases.
package dto

import (
	userDomain "github.com/allisson/authd/internal/user/domain"
)

// RegisterUserRequest is the payload for user registration.
type RegisterUserRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	AccountType string `json:"account_type"`
}

// ToRegisterUserInput converts the request into a use case input. An empty
// account type is resolved to a regular account by the use case.
func (r *RegisterUserRequest) ToRegisterUserInput() *userDomain.RegisterUserInput {
	return &userDomain.RegisterUserInput{
		Email:       r.Email,
		Username:    r.Username,
		Password:    r.Password,
		FullName:    r.FullName,
		AccountType: userDomain.AccountType(r.AccountType),
	}
}

// LoginRequest is the payload for login. The built-in login form posts the
// same field names the JSON API accepts.
type LoginRequest struct {
	EmailOrUsername string `json:"email_or_username" form:"email_or_username"`
	Password        string `json:"password" form:"password"`
	RememberMe      bool   `json:"remember_me" form:"remember_me"`
}

// ToAuthenticateUserInput converts the request into a use case input.
func (r *LoginRequest) ToAuthenticateUserInput() *userDomain.AuthenticateUserInput {
	return &userDomain.AuthenticateUserInput{
		EmailOrUsername: r.EmailOrUsername,
		Password:        r.Password,
		RememberMe:      r.RememberMe,
	}
}

// UpdateProfileRequest is the payload for a partial profile update. Absent
// fields are left unchanged.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name"`
	Username *string `json:"username"`
}

// ToUpdateProfileInput converts the request into a use case input.
func (r *UpdateProfileRequest) ToUpdateProfileInput() *userDomain.UpdateProfileInput {
	return &userDomain.UpdateProfileInput{
		FullName: r.FullName,
		Username: r.Username,
	}
}

// ChangePasswordRequest is the payload for a password change.
type ChangePasswordRequest struct {
	CurrentPassword   string `json:"current_password"`
	NewPassword       string `json:"new_password"`
	RevokeAllSessions bool   `json:"revoke_all_sessions"`
}

// ToChangePasswordInput converts the request into a use case input.
func (r *ChangePasswordRequest) ToChangePasswordInput() *userDomain.ChangePasswordInput {
	return &userDomain.ChangePasswordInput{
		CurrentPassword:   r.CurrentPassword,
		NewPassword:       r.NewPassword,
		RevokeAllSessions: r.RevokeAllSessions,
	}
}
