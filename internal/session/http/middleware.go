package http

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/httputil"
	sessionDomain "github.com/allisson/authd/internal/session/domain"
	sessionUseCase "github.com/allisson/authd/internal/session/usecase"
	userDomain "github.com/allisson/authd/internal/user/domain"
	userUseCase "github.com/allisson/authd/internal/user/usecase"
)

// SessionCookieName is the cookie that carries the opaque session id.
const SessionCookieName = "session_id"

// SessionAuthMiddleware authenticates requests via the session cookie.
//
// The middleware:
// 1. Reads the session id from the session_id cookie
// 2. Looks up the session; expired sessions are deleted on lookup and miss
// 3. Loads the session's user and requires it to be active
// 4. Stores both session and user in the request context for handlers
//
// Every failure is reported as an invalid session with uniform wording so the
// response doesn't reveal whether the cookie was missing, expired, or bound to
// a deactivated account.
func SessionAuthMiddleware(
	sessions sessionUseCase.SessionUseCase,
	users userUseCase.UserUseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookieName)
		if err != nil || sessionID == "" {
			logger.Debug("session authentication failed: missing session cookie")
			httputil.HandleErrorGin(c, sessionDomain.ErrInvalidSession, logger)
			c.Abort()
			return
		}

		session, err := sessions.Get(c.Request.Context(), sessionID)
		if err != nil {
			if errors.Is(err, sessionDomain.ErrSessionNotFound) {
				logger.Debug("session authentication failed: session not found or expired")
				httputil.HandleErrorGin(c, sessionDomain.ErrInvalidSession, logger)
				c.Abort()
				return
			}
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), session.UserID)
		if err != nil {
			if errors.Is(err, userDomain.ErrUserNotFound) {
				logger.Debug("session authentication failed: user not found",
					slog.String("user_id", session.UserID.String()))
				httputil.HandleErrorGin(c, sessionDomain.ErrInvalidSession, logger)
				c.Abort()
				return
			}
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		if !user.IsActive {
			logger.Debug("session authentication failed: user is inactive",
				slog.String("user_id", user.ID.String()))
			httputil.HandleErrorGin(c, sessionDomain.ErrInvalidSession, logger)
			c.Abort()
			return
		}

		// Store authenticated session and user in context
		ctx := WithSession(c.Request.Context(), session)
		ctx = WithUser(ctx, user)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireDeveloper authorizes requests for developer-only routes.
//
// This middleware MUST be used after an authentication middleware that stores
// the user in the request context. Non-developer accounts receive 403.
func RequireDeveloper(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c.Request.Context())
		if !ok || user == nil {
			logger.Debug("developer check failed: no authenticated user in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !user.IsDeveloper {
			logger.Debug("developer check failed: user is not a developer",
				slog.String("user_id", user.ID.String()))
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
