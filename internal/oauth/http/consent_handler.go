package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/authd/internal/audit/domain"
	auditHTTP "github.com/allisson/authd/internal/audit/http"
	auditUseCase "github.com/allisson/authd/internal/audit/usecase"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/httputil"
	"github.com/allisson/authd/internal/oauth/http/dto"
	oauthUseCase "github.com/allisson/authd/internal/oauth/usecase"
	sessionHTTP "github.com/allisson/authd/internal/session/http"
)

// ConsentHandler handles HTTP requests for a user's consent grants.
type ConsentHandler struct {
	consentUseCase  oauthUseCase.ConsentUseCase
	auditLogUseCase auditUseCase.AuditLogUseCase
	logger          *slog.Logger
}

// NewConsentHandler creates a new consent handler with required dependencies.
func NewConsentHandler(
	consentUseCase oauthUseCase.ConsentUseCase,
	auditLogUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
) *ConsentHandler {
	return &ConsentHandler{
		consentUseCase:  consentUseCase,
		auditLogUseCase: auditLogUseCase,
		logger:          logger,
	}
}

// ListHandler lists the caller's active consents with client names and scope
// descriptions.
// GET /user/me/consents - Requires bearer authentication.
func (h *ConsentHandler) ListHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	// Call use case
	consents, err := h.consentUseCase.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response
	c.JSON(http.StatusOK, dto.MapConsentsToListResponse(consents))
}

// RevokeHandler revokes one of the caller's consents. Authorization codes
// already issued under it stop being exchangeable immediately.
// DELETE /user/me/consents/:id - Requires bearer authentication.
// Returns 204 No Content.
func (h *ConsentHandler) RevokeHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	// Parse and validate UUID
	consentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c,
			fmt.Errorf("invalid consent ID format: must be a valid UUID"),
			h.logger)
		return
	}

	// Call use case
	if err := h.consentUseCase.Revoke(c.Request.Context(), consentID, user.ID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	auditHTTP.Record(c, h.auditLogUseCase, h.logger,
		auditDomain.ActorTypeUser, user.ID.String(),
		auditDomain.ActionConsentRevoked, "oauth/consents/"+consentID.String(),
		nil,
	)

	// Return 204 No Content with empty body
	c.Data(http.StatusNoContent, "application/json", nil)
}
