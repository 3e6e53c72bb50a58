// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	auditHTTP "github.com/allisson/authd/internal/audit/http"
	auditUseCase "github.com/allisson/authd/internal/audit/usecase"
	"github.com/allisson/authd/internal/config"
	cryptoDomain "github.com/allisson/authd/internal/crypto/domain"
	cryptoService "github.com/allisson/authd/internal/crypto/service"
	cryptoUseCase "github.com/allisson/authd/internal/crypto/usecase"
	"github.com/allisson/authd/internal/database"
	internalHTTP "github.com/allisson/authd/internal/http"
	"github.com/allisson/authd/internal/metrics"
	oauthHTTP "github.com/allisson/authd/internal/oauth/http"
	oauthService "github.com/allisson/authd/internal/oauth/service"
	oauthUseCase "github.com/allisson/authd/internal/oauth/usecase"
	outboxRepository "github.com/allisson/authd/internal/outbox/repository"
	outboxUsecase "github.com/allisson/authd/internal/outbox/usecase"
	sessionService "github.com/allisson/authd/internal/session/service"
	sessionUseCase "github.com/allisson/authd/internal/session/usecase"
	userHTTP "github.com/allisson/authd/internal/user/http"
	userService "github.com/allisson/authd/internal/user/service"
	userUseCase "github.com/allisson/authd/internal/user/usecase"
)

// Container holds all application dependencies and provides methods to access
// them. It follows the lazy initialization pattern - components are created on
// first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Crypto
	kmsService     cryptoService.KMSService
	keeper         cryptoDomain.KMSKeeper
	keyManager     cryptoService.KeyManager
	signingKeyRepo cryptoUseCase.SigningKeyRepository
	keyUseCase     cryptoUseCase.KeyUseCase
	keyChain       *cryptoDomain.KeyChain
	tokenSigner    cryptoService.TokenSigner

	// User and session
	passwordService userService.PasswordService
	userRepo        userUseCase.UserRepository
	userUC          userUseCase.UserUseCase
	sessionTokens   sessionService.TokenService
	sessionRepo     sessionUseCase.SessionRepository
	sessionUC       sessionUseCase.SessionUseCase

	// OAuth
	secretService oauthService.SecretService
	codeService   oauthService.CodeService
	pkceService   oauthService.PKCEService
	clientRepo    oauthUseCase.ClientRepository
	codeRepo      oauthUseCase.CodeRepository
	consentRepo   oauthUseCase.ConsentRepository
	scopeRepo     oauthUseCase.ScopeRepository
	clientUC      oauthUseCase.ClientUseCase
	consentUC     oauthUseCase.ConsentUseCase
	scopeUC       oauthUseCase.ScopeUseCase
	authorizeUC   oauthUseCase.AuthorizeUseCase
	bootstrapUC   oauthUseCase.BootstrapUseCase
	maintenanceUC oauthUseCase.MaintenanceUseCase

	// Audit
	auditLogRepo auditUseCase.AuditLogRepository
	auditLogUC   auditUseCase.AuditLogUseCase

	// Outbox
	outboxRepo    outboxUsecase.OutboxEventRepository
	outboxUseCase outboxUsecase.UseCase

	// Handlers
	authHandler      *userHTTP.AuthHandler
	userHandler      *userHTTP.UserHandler
	authorizeHandler *oauthHTTP.AuthorizeHandler
	tokenHandler     *oauthHTTP.TokenHandler
	clientHandler    *oauthHTTP.ClientHandler
	consentHandler   *oauthHTTP.ConsentHandler
	auditLogHandler  *auditHTTP.AuditLogHandler

	// Servers
	apiServer     *internalHTTP.Server
	metricsServer *internalHTTP.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                   sync.Mutex
	loggerInit           sync.Once
	dbInit               sync.Once
	txManagerInit        sync.Once
	metricsProviderInit  sync.Once
	businessMetricsInit  sync.Once
	kmsServiceInit       sync.Once
	keeperInit           sync.Once
	keyManagerInit       sync.Once
	signingKeyRepoInit   sync.Once
	keyUseCaseInit       sync.Once
	keyChainInit         sync.Once
	tokenSignerInit      sync.Once
	passwordServiceInit  sync.Once
	userRepoInit         sync.Once
	userUseCaseInit      sync.Once
	sessionTokensInit    sync.Once
	sessionRepoInit      sync.Once
	sessionUseCaseInit   sync.Once
	secretServiceInit    sync.Once
	codeServiceInit      sync.Once
	pkceServiceInit      sync.Once
	clientRepoInit       sync.Once
	codeRepoInit         sync.Once
	consentRepoInit      sync.Once
	scopeRepoInit        sync.Once
	clientUseCaseInit    sync.Once
	consentUseCaseInit   sync.Once
	scopeUseCaseInit     sync.Once
	authorizeUseCaseInit sync.Once
	bootstrapUseCaseInit sync.Once
	maintenanceInit      sync.Once
	auditLogRepoInit     sync.Once
	auditLogUseCaseInit  sync.Once
	outboxRepoInit       sync.Once
	outboxUseCaseInit    sync.Once
	authHandlerInit      sync.Once
	userHandlerInit      sync.Once
	authorizeHandlerInit sync.Once
	tokenHandlerInit     sync.Once
	clientHandlerInit    sync.Once
	consentHandlerInit   sync.Once
	auditLogHandlerInit  sync.Once
	apiServerInit        sync.Once
	metricsServerInit    sync.Once
	initErrors           map[string]error
}

// NewContainer creates a new dependency injection container with the provided
// configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider backed by the
// Prometheus registry.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics collector. A no-op collector
// is returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// OutboxRepository returns the outbox event repository instance.
func (c *Container) OutboxRepository() (outboxUsecase.OutboxEventRepository, error) {
	var err error
	c.outboxRepoInit.Do(func() {
		c.outboxRepo, err = c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// OutboxUseCase returns the outbox worker use case instance.
func (c *Container) OutboxUseCase() (outboxUsecase.UseCase, error) {
	var err error
	c.outboxUseCaseInit.Do(func() {
		c.outboxUseCase, err = c.initOutboxUseCase()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

// APIServer returns the API HTTP server with the full route table configured.
func (c *Container) APIServer() (*internalHTTP.Server, error) {
	var err error
	c.apiServerInit.Do(func() {
		c.apiServer, err = c.initAPIServer()
		if err != nil {
			c.initErrors["apiServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiServer"]; exists {
		return nil, storedErr
	}
	return c.apiServer, nil
}

// MetricsServer returns the metrics HTTP server instance.
func (c *Container) MetricsServer() (*internalHTTP.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown servers if initialized
	if c.apiServer != nil {
		if err := c.apiServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
		}
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Zero unwrapped key material
	if c.keyChain != nil {
		c.keyChain.Close()
	}

	// Close the KMS keeper if initialized
	if c.keeper != nil {
		if err := c.keeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("keeper close: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DatabaseDriver,
		ConnectionString:   c.config.DatabaseURL,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initBusinessMetrics creates the business metrics collector.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initOutboxRepository creates the outbox event repository instance.
func (c *Container) initOutboxRepository() (outboxUsecase.OutboxEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DatabaseDriver {
	case "mysql":
		return outboxRepository.NewMySQLOutboxEventRepository(db), nil
	case "postgres":
		return outboxRepository.NewPostgreSQLOutboxEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DatabaseDriver)
	}
}

// initOutboxUseCase creates the outbox use case with all its dependencies.
func (c *Container) initOutboxUseCase() (outboxUsecase.UseCase, error) {
	logger := c.Logger()

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}

	useCaseConfig := outboxUsecase.Config{
		Interval:      c.config.WorkerInterval,
		BatchSize:     c.config.WorkerBatchSize,
		MaxRetries:    c.config.WorkerMaxRetries,
		RetryInterval: c.config.WorkerRetryInterval,
	}

	eventProcessor := outboxUsecase.NewDefaultEventProcessor(logger)
	useCase := outboxUsecase.NewOutboxUseCase(useCaseConfig, txManager, outboxRepo, eventProcessor, logger)

	return useCase, nil
}

// initAPIServer creates the API HTTP server with the full route table.
func (c *Container) initAPIServer() (*internalHTTP.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for api server: %w", err)
	}

	authHandler, err := c.AuthHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth handler for api server: %w", err)
	}
	userHandler, err := c.UserHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get user handler for api server: %w", err)
	}
	authorizeHandler, err := c.AuthorizeHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorize handler for api server: %w", err)
	}
	tokenHandler, err := c.TokenHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get token handler for api server: %w", err)
	}
	clientHandler, err := c.ClientHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get client handler for api server: %w", err)
	}
	consentHandler, err := c.ConsentHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent handler for api server: %w", err)
	}
	auditLogHandler, err := c.AuditLogHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log handler for api server: %w", err)
	}

	sessions, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for api server: %w", err)
	}
	users, err := c.UserUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get user use case for api server: %w", err)
	}
	tokenSigner, err := c.TokenSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to get token signer for api server: %w", err)
	}

	routerConfig := internalHTTP.RouterConfig{
		AuthHandler:      authHandler,
		UserHandler:      userHandler,
		AuthorizeHandler: authorizeHandler,
		TokenHandler:     tokenHandler,
		ClientHandler:    clientHandler,
		ConsentHandler:   consentHandler,
		AuditLogHandler:  auditLogHandler,

		Sessions:    sessions,
		Users:       users,
		TokenSigner: tokenSigner,

		CORSEnabled: c.config.CORSEnabled,
		CORSOrigins: c.config.CORSOrigins,

		LoginRateLimitEnabled: c.config.LoginRateLimitEnabled,
		LoginRateLimitRPS:     c.config.LoginRateLimitRequestsPerSec,
		LoginRateLimitBurst:   c.config.LoginRateLimitBurst,

		TokenRateLimitEnabled: c.config.TokenRateLimitEnabled,
		TokenRateLimitRPS:     c.config.TokenRateLimitRequestsPerSec,
		TokenRateLimitBurst:   c.config.TokenRateLimitBurst,
	}

	if c.config.MetricsEnabled {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for api server: %w", err)
		}
		routerConfig.MeterProvider = provider.MeterProvider()
		routerConfig.MetricsNamespace = c.config.MetricsNamespace
	}

	server := internalHTTP.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(routerConfig)

	return server, nil
}

// initMetricsServer creates the metrics HTTP server.
func (c *Container) initMetricsServer() (*internalHTTP.MetricsServer, error) {
	var provider *metrics.Provider
	if c.config.MetricsEnabled {
		var err error
		provider, err = c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
		}
	}

	return internalHTTP.NewMetricsServer(
		c.config.MetricsHost,
		c.config.MetricsPort,
		c.Logger(),
		provider,
	), nil
}

// splitList parses a comma-separated configuration value into its entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
