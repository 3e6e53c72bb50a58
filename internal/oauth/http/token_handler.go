package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/authd/internal/audit/domain"
	auditHTTP "github.com/allisson/authd/internal/audit/http"
	auditUseCase "github.com/allisson/authd/internal/audit/usecase"
	cryptoService "github.com/allisson/authd/internal/crypto/service"
	"github.com/allisson/authd/internal/httputil"
	"github.com/allisson/authd/internal/oauth/http/dto"
	oauthUseCase "github.com/allisson/authd/internal/oauth/usecase"
)

// TokenHandler handles the token endpoint and the JWKS document.
type TokenHandler struct {
	authorizeUseCase oauthUseCase.AuthorizeUseCase
	auditLogUseCase  auditUseCase.AuditLogUseCase
	tokenSigner      cryptoService.TokenSigner
	logger           *slog.Logger
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(
	authorizeUseCase oauthUseCase.AuthorizeUseCase,
	auditLogUseCase auditUseCase.AuditLogUseCase,
	tokenSigner cryptoService.TokenSigner,
	logger *slog.Logger,
) *TokenHandler {
	return &TokenHandler{
		authorizeUseCase: authorizeUseCase,
		auditLogUseCase:  auditLogUseCase,
		tokenSigner:      tokenSigner,
		logger:           logger,
	}
}

// ExchangeHandler handles POST /auth/token.
// Redeems a single-use authorization code for a signed access token. The
// client authenticates with its secret (confidential) or the PKCE verifier
// alone (public).
func (h *TokenHandler) ExchangeHandler(c *gin.Context) {
	var request dto.ExchangeTokenRequest
	if err := c.ShouldBind(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	output, err := h.authorizeUseCase.ExchangeToken(c.Request.Context(), request.ToExchangeTokenInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	auditHTTP.Record(c, h.auditLogUseCase, h.logger,
		auditDomain.ActorTypeClient, request.ClientID,
		auditDomain.ActionTokenIssued, "oauth/tokens",
		map[string]any{"grant_type": request.GrantType, "scope": output.Scope},
	)
	c.JSON(http.StatusOK, output)
}

// JWKSHandler handles GET /auth/.well-known/jwks.json.
// Publishes the public keys of all access token signing keys, retired ones
// included, so tokens signed before a rotation stay verifiable.
func (h *TokenHandler) JWKSHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.tokenSigner.JWKS())
}
