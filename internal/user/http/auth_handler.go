package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/authd/internal/audit/domain"
	auditHTTP "github.com/allisson/authd/internal/audit/http"
	auditUseCase "github.com/allisson/authd/internal/audit/usecase"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/httputil"
	sessionHTTP "github.com/allisson/authd/internal/session/http"
	sessionUseCase "github.com/allisson/authd/internal/session/usecase"
	userDomain "github.com/allisson/authd/internal/user/domain"
	"github.com/allisson/authd/internal/user/http/dto"
	userUseCase "github.com/allisson/authd/internal/user/usecase"
)

// loginPage is the built-in login form. It posts to the login endpoint with
// the same field names the JSON API accepts.
const loginPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Sign in</title>
</head>
<body>
  <h1>Sign in</h1>
  <form method="post" action="/auth/login">
    <p>
      <label for="email_or_username">Email or username</label><br>
      <input type="text" id="email_or_username" name="email_or_username" autocomplete="username" required>
    </p>
    <p>
      <label for="password">Password</label><br>
      <input type="password" id="password" name="password" autocomplete="current-password" required>
    </p>
    <p>
      <label><input type="checkbox" name="remember_me" value="true"> Remember me</label>
    </p>
    <p>
      <button type="submit">Sign in</button>
    </p>
  </form>
</body>
</html>
`

// AuthHandler handles login and logout.
type AuthHandler struct {
	userUseCase     userUseCase.UserUseCase
	sessionUseCase  sessionUseCase.SessionUseCase
	auditLogUseCase auditUseCase.AuditLogUseCase
	cookieSecure    bool
	logger          *slog.Logger
}

// NewAuthHandler creates a new auth handler. cookieSecure marks the session
// cookie Secure and should be on in production.
func NewAuthHandler(
	userUseCase userUseCase.UserUseCase,
	sessionUseCase sessionUseCase.SessionUseCase,
	auditLogUseCase auditUseCase.AuditLogUseCase,
	cookieSecure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		userUseCase:     userUseCase,
		sessionUseCase:  sessionUseCase,
		auditLogUseCase: auditLogUseCase,
		cookieSecure:    cookieSecure,
		logger:          logger,
	}
}

// LoginFormHandler handles GET /auth/login.
func (h *AuthHandler) LoginFormHandler(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loginPage))
}

// LoginHandler handles POST /auth/login. Accepts the HTML form or a JSON
// body and sets the session cookie on success.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	// Parse and bind form or JSON
	var request dto.LoginRequest
	if err := c.ShouldBind(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Call use case
	output, err := h.userUseCase.Authenticate(c.Request.Context(), request.ToAuthenticateUserInput())
	if err != nil {
		if errors.Is(err, userDomain.ErrInvalidCredentials) {
			auditHTTP.Record(c, h.auditLogUseCase, h.logger,
				auditDomain.ActorTypeUser, request.EmailOrUsername,
				auditDomain.ActionUserLoginFailed, "users",
				nil,
			)
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.setSessionCookie(c, output.SessionID, output.ExpiresAt)

	auditHTTP.Record(c, h.auditLogUseCase, h.logger,
		auditDomain.ActorTypeUser, output.User.ID.String(),
		auditDomain.ActionUserLoggedIn, "users/"+output.User.ID.String(),
		map[string]any{"remember_me": request.RememberMe},
	)

	// Return response
	response := dto.LoginResponse{
		User:      dto.MapUserToResponse(output.User),
		ExpiresAt: output.ExpiresAt,
		Message:   "Login successful.",
	}
	c.JSON(http.StatusOK, response)
}

// LogoutHandler handles POST /auth/logout. Deletes the session and expires
// the cookie.
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	session, ok := sessionHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	if err := h.sessionUseCase.Delete(c.Request.Context(), session.ID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.clearSessionCookie(c)

	auditHTTP.Record(c, h.auditLogUseCase, h.logger,
		auditDomain.ActorTypeUser, session.UserID.String(),
		auditDomain.ActionUserLoggedOut, "users/"+session.UserID.String(),
		nil,
	)

	c.Data(http.StatusNoContent, "application/json", nil)
}

// setSessionCookie issues the session cookie. SameSite Lax keeps the cookie
// on the top-level redirects of the authorization flow while blocking
// cross-site POSTs.
func (h *AuthHandler) setSessionCookie(c *gin.Context, sessionID string, expiresAt time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetCookie(sessionHTTP.SessionCookieName, sessionID, maxAge, "/", "", h.cookieSecure, true)
}

// clearSessionCookie expires the session cookie.
func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionHTTP.SessionCookieName, "", -1, "/", "", h.cookieSecure, true)
}
