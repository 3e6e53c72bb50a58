// Package http provides HTTP handlers for the OAuth2 authorization server
// endpoints.
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
	"github.com/allisson/authd/internal/oauth/http/dto"
	oauthUseCase "github.com/allisson/authd/internal/oauth/usecase"
	sessionHTTP "github.com/allisson/authd/internal/session/http"
)

// AuthorizeHandler handles the authorization endpoint and the consent
// decision endpoint of the authorization code flow.
type AuthorizeHandler struct {
	authorizeUseCase oauthUseCase.AuthorizeUseCase
	auditLogUseCase  auditUseCase.AuditLogUseCase
	logger           *slog.Logger
}

// NewAuthorizeHandler creates a new AuthorizeHandler.
func NewAuthorizeHandler(
	authorizeUseCase oauthUseCase.AuthorizeUseCase,
	auditLogUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
) *AuthorizeHandler {
	return &AuthorizeHandler{
		authorizeUseCase: authorizeUseCase,
		auditLogUseCase:  auditLogUseCase,
		logger:           logger,
	}
}

// BeginHandler handles GET /auth/authorize.
// Validates the authorization request for the session user and returns a 302
// redirect carrying a fresh authorization code, or a 200 consent-required
// payload when no active consent covers the requested scopes.
func (h *AuthorizeHandler) BeginHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var request dto.AuthorizeRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	output, err := h.authorizeUseCase.BeginAuthorize(c.Request.Context(), request.ToAuthorizeInput(user.ID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if output.ConsentRequired != nil {
		c.JSON(http.StatusOK, dto.MapConsentPromptToResponse(output.ConsentRequired))
		return
	}

	auditHTTP.Record(c, h.auditLogUseCase, h.logger,
		auditDomain.ActorTypeUser, user.ID.String(),
		auditDomain.ActionCodeIssued, "oauth/codes",
		map[string]any{"client_id": request.ClientID, "scope": request.Scope},
	)
	c.Redirect(http.StatusFound, output.RedirectURL)
}

// DecisionHandler handles POST /auth/authorize/decision.
// Applies the session user's consent decision. Approval swaps the consent
// ledger entry and redirects back to the client with a fresh code; denial
// returns 401.
func (h *AuthorizeHandler) DecisionHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var request dto.ConsentDecisionRequest
	if err := c.ShouldBind(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	input := request.ToConsentDecisionInput(user.ID)
	output, err := h.authorizeUseCase.DecideConsent(c.Request.Context(), input)
	if err != nil {
		if !input.Approved {
			auditHTTP.Record(c, h.auditLogUseCase, h.logger,
				auditDomain.ActorTypeUser, user.ID.String(),
				auditDomain.ActionConsentDenied, "oauth/consents",
				map[string]any{"client_id": request.ClientID, "scope": request.Scope},
			)
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	auditHTTP.Record(c, h.auditLogUseCase, h.logger,
		auditDomain.ActorTypeUser, user.ID.String(),
		auditDomain.ActionConsentGranted, "oauth/consents",
		map[string]any{"client_id": request.ClientID, "scope": request.Scope},
	)
	c.Redirect(http.StatusFound, output.RedirectURL)
}
