package http

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/authd/internal/crypto/domain"
	cryptoService "github.com/allisson/authd/internal/crypto/service"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/httputil"
	sessionHTTP "github.com/allisson/authd/internal/session/http"
	userDomain "github.com/allisson/authd/internal/user/domain"
	userUseCase "github.com/allisson/authd/internal/user/usecase"
)

// BearerAuthMiddleware authenticates requests via a signed access token.
//
// The middleware:
// 1. Reads the token from the Authorization header (Bearer scheme)
// 2. Verifies signature and registered claims against the published keys
// 3. Loads the subject user and requires it to be active
// 4. Stores the user in the request context for handlers
//
// Every authentication failure is reported as an invalid token with uniform
// wording so the response doesn't reveal whether the token was missing,
// expired, forged, or bound to a deactivated account.
func BearerAuthMiddleware(
	tokenSigner cryptoService.TokenSigner,
	users userUseCase.UserUseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			logger.Debug("bearer authentication failed: missing or malformed Authorization header")
			httputil.HandleErrorGin(c, cryptoDomain.ErrInvalidToken, logger)
			c.Abort()
			return
		}

		claims, err := tokenSigner.Verify(token)
		if err != nil {
			logger.Debug("bearer authentication failed: token verification failed")
			httputil.HandleErrorGin(c, cryptoDomain.ErrInvalidToken, logger)
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			logger.Debug("bearer authentication failed: subject is not a valid UUID")
			httputil.HandleErrorGin(c, cryptoDomain.ErrInvalidToken, logger)
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, userDomain.ErrUserNotFound) {
				logger.Debug("bearer authentication failed: user not found",
					slog.String("user_id", userID.String()))
				httputil.HandleErrorGin(c, cryptoDomain.ErrInvalidToken, logger)
				c.Abort()
				return
			}
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		if !user.IsActive {
			logger.Debug("bearer authentication failed: user is inactive",
				slog.String("user_id", user.ID.String()))
			httputil.HandleErrorGin(c, cryptoDomain.ErrInvalidToken, logger)
			c.Abort()
			return
		}

		// Store authenticated user in context
		c.Request = c.Request.WithContext(sessionHTTP.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

// RequireAdmin authorizes requests for admin-only routes.
//
// This middleware MUST be used after an authentication middleware that stores
// the user in the request context. Accounts without the admin role receive
// 403.
func RequireAdmin(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := sessionHTTP.GetUser(c.Request.Context())
		if !ok || user == nil {
			logger.Debug("admin check failed: no authenticated user in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !user.HasRole(userDomain.RoleAdmin) {
			logger.Debug("admin check failed: user lacks the admin role",
				slog.String("user_id", user.ID.String()))
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
