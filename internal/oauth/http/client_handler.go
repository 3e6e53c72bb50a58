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

// ClientHandler handles HTTP requests for OAuth2 client management.
// All routes require a developer session; ownership checks live in the use
// case.
type ClientHandler struct {
	clientUseCase   oauthUseCase.ClientUseCase
	auditLogUseCase auditUseCase.AuditLogUseCase
	logger          *slog.Logger
}

// NewClientHandler creates a new client handler with required dependencies.
func NewClientHandler(
	clientUseCase oauthUseCase.ClientUseCase,
	auditLogUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
) *ClientHandler {
	return &ClientHandler{
		clientUseCase:   clientUseCase,
		auditLogUseCase: auditLogUseCase,
		logger:          logger,
	}
}

// CreateHandler registers a new OAuth2 client owned by the session user.
// POST /client - Requires a developer session.
// Returns 201 Created with the client and its one-time plaintext secret.
func (h *ClientHandler) CreateHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CreateClientRequest

	// Parse and bind JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Call use case
	output, err := h.clientUseCase.Create(c.Request.Context(), req.ToCreateClientInput(user.ID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	auditHTTP.Record(c, h.auditLogUseCase, h.logger,
		auditDomain.ActorTypeUser, user.ID.String(),
		auditDomain.ActionClientCreated, "oauth/clients/"+output.Client.ID.String(),
		map[string]any{"client_id": output.Client.ClientID, "client_name": output.Client.ClientName},
	)

	// Return response with the plaintext secret
	c.JSON(http.StatusCreated, dto.MapCreateClientOutputToResponse(output))
}

// ListHandler lists the session user's active clients, newest first.
// GET /client?offset=0&limit=50 - Requires a developer session.
func (h *ClientHandler) ListHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	// Parse pagination parameters
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Call use case
	clients, err := h.clientUseCase.ListByUser(c.Request.Context(), user.ID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response
	c.JSON(http.StatusOK, dto.MapClientsToListResponse(clients))
}

// GetHandler retrieves one of the session user's clients by ID.
// GET /client/:id - Requires a developer session.
// Returns 200 OK with client data (no secret material).
func (h *ClientHandler) GetHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	// Parse and validate UUID
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c,
			fmt.Errorf("invalid client ID format: must be a valid UUID"),
			h.logger)
		return
	}

	// Call use case
	client, err := h.clientUseCase.GetByID(c.Request.Context(), clientID, user.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Return response
	c.JSON(http.StatusOK, dto.MapClientToDetailResponse(client))
}

// UpdateHandler applies a partial update to one of the session user's
// clients.
// PUT /client/:id - Requires a developer session.
// Returns 200 OK with the updated client data.
func (h *ClientHandler) UpdateHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	// Parse and validate UUID
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c,
			fmt.Errorf("invalid client ID format: must be a valid UUID"),
			h.logger)
		return
	}

	var req dto.UpdateClientRequest

	// Parse and bind JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Call use case
	client, err := h.clientUseCase.Update(c.Request.Context(), clientID, user.ID, req.ToUpdateClientInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	auditHTTP.Record(c, h.auditLogUseCase, h.logger,
		auditDomain.ActorTypeUser, user.ID.String(),
		auditDomain.ActionClientUpdated, "oauth/clients/"+client.ID.String(),
		map[string]any{"client_id": client.ClientID},
	)

	// Return response
	c.JSON(http.StatusOK, dto.MapClientToDetailResponse(client))
}

// DeleteHandler soft deletes one of the session user's clients. Consents and
// audit history referencing the client stay behind.
// DELETE /client/:id - Requires a developer session.
// Returns 204 No Content.
func (h *ClientHandler) DeleteHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	// Parse and validate UUID
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c,
			fmt.Errorf("invalid client ID format: must be a valid UUID"),
			h.logger)
		return
	}

	// Call use case
	if err := h.clientUseCase.SoftDelete(c.Request.Context(), clientID, user.ID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	auditHTTP.Record(c, h.auditLogUseCase, h.logger,
		auditDomain.ActorTypeUser, user.ID.String(),
		auditDomain.ActionClientDeleted, "oauth/clients/"+clientID.String(),
		nil,
	)

	// Return 204 No Content with empty body
	c.Data(http.StatusNoContent, "application/json", nil)
}

// RotateSecretHandler replaces the client secret, keeping the previous one
// valid for a 24 hour grace window.
// POST /client/:id/rotate-secret - Requires a developer session.
// Returns 200 OK with the new plaintext secret and the grace deadline.
func (h *ClientHandler) RotateSecretHandler(c *gin.Context) {
	user, ok := sessionHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	// Parse and validate UUID
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c,
			fmt.Errorf("invalid client ID format: must be a valid UUID"),
			h.logger)
		return
	}

	// Call use case
	output, err := h.clientUseCase.RotateSecret(c.Request.Context(), clientID, user.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	auditHTTP.Record(c, h.auditLogUseCase, h.logger,
		auditDomain.ActorTypeUser, user.ID.String(),
		auditDomain.ActionClientSecretRotated, "oauth/clients/"+output.Client.ID.String(),
		map[string]any{
			"client_id":             output.Client.ClientID,
			"old_secret_expires_at": output.OldSecretExpiry,
		},
	)

	// Return response with the new plaintext secret
	c.JSON(http.StatusOK, dto.MapRotateSecretOutputToResponse(output))
}
