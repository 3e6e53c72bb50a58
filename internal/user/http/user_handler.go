// Package http provides HTTP handlers for user accounts, login and logout.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/authd/internal/audit/domain"
	auditHTTP "github.com/allisson/authd/internal/audit/http"
	auditUseCase "github.com/allisson/authd/internal/audit/usecase"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/httputil"
	sessionHTTP "github.com/allisson/authd/internal/session/http"
	"github.com/allisson/authd/internal/user/http/dto"
	userUseCase "github.com/allisson/authd/internal/user/usecase"
)

// UserHandler handles HTTP requests for user accounts.
type UserHandler struct {
	userUseCase     userUseCase.UserUseCase
	auditLogUseCase auditUseCase.AuditLogUseCase
	logger          *slog.Logger
}

// NewUserHandler creates a new user handler with required dependencies.
func NewUserHandler(
	userUseCase userUseCase.UserUseCase,
	auditLogUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		userUseCase:     userUseCase,
		auditLogUseCase: auditLogUseCase,
		logger:          logger,
	}
}

// RegisterHandler handles POST /user/.
// Registration is open; the account type in the payload decides which
// features the new account starts with.
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	// Parse and bind JSON
	var request dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Call use case
	user, err := h.userUseCase.Register(c.Request.Context(), request.ToRegisterUserInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	auditHTTP.Record(c, h.auditLogUseCase, h.logger,
		auditDomain.ActorTypeUser, user.ID.String(),
		auditDomain.ActionUserRegistered, "users/"+user.ID.String(),
		map[string]any{"email": user.Email, "account_type": string(user.AccountType())},
	)

	// Return response
	response := dto.RegisterUserResponse{
		User:    dto.MapUserToResponse(user),
		Message: "User registered successfully.",
	}
	c.JSON(http.StatusCreated, response)
}

// MeHandler handles GET /user/me.
// The bearer middleware already loaded a fresh copy of the user, so this is
// a plain echo.
func (h *UserHandler) MeHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapUserToDetailResponse(user))
}

// UpdateMeHandler handles PUT /user/me. Absent fields are left unchanged.
func (h *UserHandler) UpdateMeHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	// Parse and bind JSON
	var request dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Call use case
	updated, err := h.userUseCase.UpdateProfile(c.Request.Context(), user.ID, request.ToUpdateProfileInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response
	c.JSON(http.StatusOK, dto.MapUserToDetailResponse(updated))
}

// ChangePasswordHandler handles PUT /user/me/password.
// Session revocation happens inside the use case, in the same transaction as
// the password update.
func (h *UserHandler) ChangePasswordHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	// Parse and bind JSON
	var request dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Call use case
	input := request.ToChangePasswordInput()
	if err := h.userUseCase.ChangePassword(c.Request.Context(), user.ID, input); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	auditHTTP.Record(c, h.auditLogUseCase, h.logger,
		auditDomain.ActorTypeUser, user.ID.String(),
		auditDomain.ActionUserPasswordChanged, "users/"+user.ID.String(),
		map[string]any{"sessions_revoked": input.RevokeAllSessions},
	)

	// Return response
	response := dto.ChangePasswordResponse{
		Message:        "Password changed successfully.",
		SessionRevoked: input.RevokeAllSessions,
	}
	c.JSON(http.StatusOK, response)
}

// UpgradeDeveloperHandler handles PUT /user/me/upgrade/developer.
// Requires a login session rather than a bearer token so a user can enable
// the feature right after signing in, before any client exists.
func (h *UserHandler) UpgradeDeveloperHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	upgraded, err := h.userUseCase.UpgradeToDeveloper(c.Request.Context(), user.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.UpgradeResponse{
		User:    dto.MapUserToResponse(upgraded),
		Message: "Developer access enabled.",
	}
	c.JSON(http.StatusOK, response)
}

// UpgradeExpensesHandler handles PUT /user/me/upgrade/expenses.
func (h *UserHandler) UpgradeExpensesHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	upgraded, err := h.userUseCase.EnableExpenses(c.Request.Context(), user.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.UpgradeResponse{
		User:    dto.MapUserToResponse(upgraded),
		Message: "Expenses access enabled.",
	}
	c.JSON(http.StatusOK, response)
}
