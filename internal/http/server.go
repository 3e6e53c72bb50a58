// Package http provides the API and metrics HTTP servers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	otelmetric "go.opentelemetry.io/otel/metric"

	auditHTTP "github.com/allisson/authd/internal/audit/http"
	cryptoService "github.com/allisson/authd/internal/crypto/service"
	"github.com/allisson/authd/internal/metrics"
	oauthHTTP "github.com/allisson/authd/internal/oauth/http"
	sessionHTTP "github.com/allisson/authd/internal/session/http"
	sessionUseCase "github.com/allisson/authd/internal/session/usecase"
	userHTTP "github.com/allisson/authd/internal/user/http"
	userUseCase "github.com/allisson/authd/internal/user/usecase"
)

// Server represents the API HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates a new API server. The route table is configured
// separately with SetupRouter so commands that never serve traffic can skip
// handler construction.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// RouterConfig carries the handlers and cross-cutting dependencies wired
// into the route table.
type RouterConfig struct {
	AuthHandler      *userHTTP.AuthHandler
	UserHandler      *userHTTP.UserHandler
	AuthorizeHandler *oauthHTTP.AuthorizeHandler
	TokenHandler     *oauthHTTP.TokenHandler
	ClientHandler    *oauthHTTP.ClientHandler
	ConsentHandler   *oauthHTTP.ConsentHandler
	AuditLogHandler  *auditHTTP.AuditLogHandler

	// Dependencies of the session and bearer auth middlewares.
	Sessions    sessionUseCase.SessionUseCase
	Users       userUseCase.UserUseCase
	TokenSigner cryptoService.TokenSigner

	// MeterProvider enables per-request HTTP metrics when set.
	MeterProvider    otelmetric.MeterProvider
	MetricsNamespace string

	CORSEnabled bool
	CORSOrigins string

	LoginRateLimitEnabled bool
	LoginRateLimitRPS     float64
	LoginRateLimitBurst   int

	TokenRateLimitEnabled bool
	TokenRateLimitRPS     float64
	TokenRateLimitBurst   int
}

// SetupRouter builds the route table. Must be called before Start.
func (s *Server) SetupRouter(cfg RouterConfig) {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))
	if cfg.MeterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(cfg.MeterProvider, cfg.MetricsNamespace))
	}
	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	// Health and readiness endpoints
	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	sessionAuth := sessionHTTP.SessionAuthMiddleware(cfg.Sessions, cfg.Users, s.logger)
	bearerAuth := oauthHTTP.BearerAuthMiddleware(cfg.TokenSigner, cfg.Users, s.logger)

	var loginLimiter gin.HandlerFunc
	if cfg.LoginRateLimitEnabled {
		loginLimiter = oauthHTTP.LoginRateLimitMiddleware(cfg.LoginRateLimitRPS, cfg.LoginRateLimitBurst, s.logger)
	}
	var tokenLimiter gin.HandlerFunc
	if cfg.TokenRateLimitEnabled {
		tokenLimiter = oauthHTTP.TokenRateLimitMiddleware(cfg.TokenRateLimitRPS, cfg.TokenRateLimitBurst, s.logger)
	}

	// Login, authorization flow and token endpoints
	auth := router.Group("/auth")
	{
		auth.GET("/login", cfg.AuthHandler.LoginFormHandler)
		auth.POST("/login", chain(loginLimiter, cfg.AuthHandler.LoginHandler)...)
		auth.POST("/logout", sessionAuth, cfg.AuthHandler.LogoutHandler)
		auth.GET("/authorize", sessionAuth, cfg.AuthorizeHandler.BeginHandler)
		auth.POST("/authorize/decision", sessionAuth, cfg.AuthorizeHandler.DecisionHandler)
		auth.POST("/token", chain(tokenLimiter, cfg.TokenHandler.ExchangeHandler)...)
		auth.GET("/.well-known/jwks.json", cfg.TokenHandler.JWKSHandler)
	}

	// User account endpoints
	user := router.Group("/user")
	{
		user.POST("/", cfg.UserHandler.RegisterHandler)
		user.GET("/me", bearerAuth, cfg.UserHandler.MeHandler)
		user.PUT("/me", bearerAuth, cfg.UserHandler.UpdateMeHandler)
		user.PUT("/me/password", bearerAuth, cfg.UserHandler.ChangePasswordHandler)
		user.PUT("/me/upgrade/developer", sessionAuth, cfg.UserHandler.UpgradeDeveloperHandler)
		user.PUT("/me/upgrade/expenses", sessionAuth, cfg.UserHandler.UpgradeExpensesHandler)
		user.GET("/me/consents", bearerAuth, cfg.ConsentHandler.ListHandler)
		user.DELETE("/me/consents/:id", bearerAuth, cfg.ConsentHandler.RevokeHandler)
	}

	// Client management endpoints, developer session only
	client := router.Group("/client", sessionAuth, sessionHTTP.RequireDeveloper(s.logger))
	{
		client.POST("", cfg.ClientHandler.CreateHandler)
		client.GET("", cfg.ClientHandler.ListHandler)
		client.GET("/:id", cfg.ClientHandler.GetHandler)
		client.PUT("/:id", cfg.ClientHandler.UpdateHandler)
		client.DELETE("/:id", cfg.ClientHandler.DeleteHandler)
		client.POST("/:id/rotate-secret", cfg.ClientHandler.RotateSecretHandler)
	}

	// Audit trail, admin only
	router.GET("/audit-logs", bearerAuth, oauthHTTP.RequireAdmin(s.logger), cfg.AuditLogHandler.ListHandler)

	s.router = router
}

// chain builds a handler chain, skipping nil entries so optional middleware
// can be left unset.
func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, handler := range handlers {
		if handler != nil {
			out = append(out, handler)
		}
	}
	return out
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic, checking
// database connectivity.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("readiness check failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": "ok"},
	})
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the API server. SetupRouter must have been called first.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured: call SetupRouter before Start")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
