package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	oauthHTTP "github.com/allisson/authd/internal/oauth/http"
	oauthRepository "github.com/allisson/authd/internal/oauth/repository"
	oauthService "github.com/allisson/authd/internal/oauth/service"
	oauthUseCase "github.com/allisson/authd/internal/oauth/usecase"
	userUseCase "github.com/allisson/authd/internal/user/usecase"
)

// SecretService returns the client secret generation and hashing service.
func (c *Container) SecretService() oauthService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = oauthService.NewSecretService()
	})
	return c.secretService
}

// CodeService returns the authorization code generation service.
func (c *Container) CodeService() oauthService.CodeService {
	c.codeServiceInit.Do(func() {
		c.codeService = oauthService.NewCodeService()
	})
	return c.codeService
}

// PKCEService returns the PKCE challenge verification service.
func (c *Container) PKCEService() oauthService.PKCEService {
	c.pkceServiceInit.Do(func() {
		c.pkceService = oauthService.NewPKCEService()
	})
	return c.pkceService
}

// ClientRepository returns the client repository based on database driver.
func (c *Container) ClientRepository() (oauthUseCase.ClientRepository, error) {
	var err error
	c.clientRepoInit.Do(func() {
		c.clientRepo, err = c.initClientRepository()
		if err != nil {
			c.initErrors["clientRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["clientRepo"]; exists {
		return nil, storedErr
	}
	return c.clientRepo, nil
}

// CodeRepository returns the authorization code repository based on database driver.
func (c *Container) CodeRepository() (oauthUseCase.CodeRepository, error) {
	var err error
	c.codeRepoInit.Do(func() {
		c.codeRepo, err = c.initCodeRepository()
		if err != nil {
			c.initErrors["codeRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["codeRepo"]; exists {
		return nil, storedErr
	}
	return c.codeRepo, nil
}

// ConsentRepository returns the consent repository based on database driver.
func (c *Container) ConsentRepository() (oauthUseCase.ConsentRepository, error) {
	var err error
	c.consentRepoInit.Do(func() {
		c.consentRepo, err = c.initConsentRepository()
		if err != nil {
			c.initErrors["consentRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["consentRepo"]; exists {
		return nil, storedErr
	}
	return c.consentRepo, nil
}

// ScopeRepository returns the scope definition repository based on database driver.
func (c *Container) ScopeRepository() (oauthUseCase.ScopeRepository, error) {
	var err error
	c.scopeRepoInit.Do(func() {
		c.scopeRepo, err = c.initScopeRepository()
		if err != nil {
			c.initErrors["scopeRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["scopeRepo"]; exists {
		return nil, storedErr
	}
	return c.scopeRepo, nil
}

// ClientUseCase returns the client lifecycle use case.
func (c *Container) ClientUseCase() (oauthUseCase.ClientUseCase, error) {
	var err error
	c.clientUseCaseInit.Do(func() {
		c.clientUC, err = c.initClientUseCase()
		if err != nil {
			c.initErrors["clientUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["clientUseCase"]; exists {
		return nil, storedErr
	}
	return c.clientUC, nil
}

// ConsentUseCase returns the consent ledger use case.
func (c *Container) ConsentUseCase() (oauthUseCase.ConsentUseCase, error) {
	var err error
	c.consentUseCaseInit.Do(func() {
		c.consentUC, err = c.initConsentUseCase()
		if err != nil {
			c.initErrors["consentUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["consentUseCase"]; exists {
		return nil, storedErr
	}
	return c.consentUC, nil
}

// ScopeUseCase returns the scope definition use case.
func (c *Container) ScopeUseCase() (oauthUseCase.ScopeUseCase, error) {
	var err error
	c.scopeUseCaseInit.Do(func() {
		scopeRepo, repoErr := c.ScopeRepository()
		if repoErr != nil {
			err = repoErr
			c.initErrors["scopeUseCase"] = repoErr
			return
		}
		c.scopeUC = oauthUseCase.NewScopeUseCase(scopeRepo)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["scopeUseCase"]; exists {
		return nil, storedErr
	}
	return c.scopeUC, nil
}

// AuthorizeUseCase returns the authorization flow use case.
func (c *Container) AuthorizeUseCase() (oauthUseCase.AuthorizeUseCase, error) {
	var err error
	c.authorizeUseCaseInit.Do(func() {
		c.authorizeUC, err = c.initAuthorizeUseCase()
		if err != nil {
			c.initErrors["authorizeUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authorizeUseCase"]; exists {
		return nil, storedErr
	}
	return c.authorizeUC, nil
}

// BootstrapUseCase returns the system client bootstrap use case.
func (c *Container) BootstrapUseCase() (oauthUseCase.BootstrapUseCase, error) {
	var err error
	c.bootstrapUseCaseInit.Do(func() {
		c.bootstrapUC, err = c.initBootstrapUseCase()
		if err != nil {
			c.initErrors["bootstrapUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["bootstrapUseCase"]; exists {
		return nil, storedErr
	}
	return c.bootstrapUC, nil
}

// MaintenanceUseCase returns the expired session and code cleanup use case.
func (c *Container) MaintenanceUseCase() (oauthUseCase.MaintenanceUseCase, error) {
	var err error
	c.maintenanceInit.Do(func() {
		c.maintenanceUC, err = c.initMaintenanceUseCase()
		if err != nil {
			c.initErrors["maintenanceUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["maintenanceUseCase"]; exists {
		return nil, storedErr
	}
	return c.maintenanceUC, nil
}

// AuthorizeHandler returns the HTTP handler for the authorization flow.
func (c *Container) AuthorizeHandler() (*oauthHTTP.AuthorizeHandler, error) {
	var err error
	c.authorizeHandlerInit.Do(func() {
		c.authorizeHandler, err = c.initAuthorizeHandler()
		if err != nil {
			c.initErrors["authorizeHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authorizeHandler"]; exists {
		return nil, storedErr
	}
	return c.authorizeHandler, nil
}

// TokenHandler returns the HTTP handler for token exchange and JWKS.
func (c *Container) TokenHandler() (*oauthHTTP.TokenHandler, error) {
	var err error
	c.tokenHandlerInit.Do(func() {
		c.tokenHandler, err = c.initTokenHandler()
		if err != nil {
			c.initErrors["tokenHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenHandler"]; exists {
		return nil, storedErr
	}
	return c.tokenHandler, nil
}

// ClientHandler returns the HTTP handler for client management.
func (c *Container) ClientHandler() (*oauthHTTP.ClientHandler, error) {
	var err error
	c.clientHandlerInit.Do(func() {
		c.clientHandler, err = c.initClientHandler()
		if err != nil {
			c.initErrors["clientHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["clientHandler"]; exists {
		return nil, storedErr
	}
	return c.clientHandler, nil
}

// ConsentHandler returns the HTTP handler for consent listing and revocation.
func (c *Container) ConsentHandler() (*oauthHTTP.ConsentHandler, error) {
	var err error
	c.consentHandlerInit.Do(func() {
		c.consentHandler, err = c.initConsentHandler()
		if err != nil {
			c.initErrors["consentHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["consentHandler"]; exists {
		return nil, storedErr
	}
	return c.consentHandler, nil
}

// userDirectory adapts the user repository to the authorize use case's
// read-only email lookup.
type userDirectory struct {
	users userUseCase.UserRepository
}

// GetEmail returns the email of an existing user.
func (d *userDirectory) GetEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

// initClientRepository creates the client repository based on the database driver.
func (c *Container) initClientRepository() (oauthUseCase.ClientRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for client repository: %w", err)
	}

	switch c.config.DatabaseDriver {
	case "postgres":
		return oauthRepository.NewPostgreSQLClientRepository(db), nil
	case "mysql":
		return oauthRepository.NewMySQLClientRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DatabaseDriver)
	}
}

// initCodeRepository creates the code repository based on the database driver.
func (c *Container) initCodeRepository() (oauthUseCase.CodeRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for code repository: %w", err)
	}

	switch c.config.DatabaseDriver {
	case "postgres":
		return oauthRepository.NewPostgreSQLCodeRepository(db), nil
	case "mysql":
		return oauthRepository.NewMySQLCodeRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DatabaseDriver)
	}
}

// initConsentRepository creates the consent repository based on the database driver.
func (c *Container) initConsentRepository() (oauthUseCase.ConsentRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for consent repository: %w", err)
	}

	switch c.config.DatabaseDriver {
	case "postgres":
		return oauthRepository.NewPostgreSQLConsentRepository(db), nil
	case "mysql":
		return oauthRepository.NewMySQLConsentRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DatabaseDriver)
	}
}

// initScopeRepository creates the scope repository based on the database driver.
func (c *Container) initScopeRepository() (oauthUseCase.ScopeRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for scope repository: %w", err)
	}

	switch c.config.DatabaseDriver {
	case "postgres":
		return oauthRepository.NewPostgreSQLScopeRepository(db), nil
	case "mysql":
		return oauthRepository.NewMySQLScopeRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DatabaseDriver)
	}
}

// initClientUseCase creates the client use case with all its dependencies.
func (c *Container) initClientUseCase() (oauthUseCase.ClientUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for client use case: %w", err)
	}

	clientRepo, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for client use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for client use case: %w", err)
	}

	baseUseCase := oauthUseCase.NewClientUseCase(
		txManager,
		clientRepo,
		outboxRepo,
		c.SecretService(),
		c.config.SecretRotationGracePeriod,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for client use case: %w", err)
		}
		return oauthUseCase.NewClientUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initConsentUseCase creates the consent use case with all its dependencies.
func (c *Container) initConsentUseCase() (oauthUseCase.ConsentUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for consent use case: %w", err)
	}

	consentRepo, err := c.ConsentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent repository for consent use case: %w", err)
	}

	clientRepo, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for consent use case: %w", err)
	}

	scopeRepo, err := c.ScopeRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get scope repository for consent use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for consent use case: %w", err)
	}

	baseUseCase := oauthUseCase.NewConsentUseCase(txManager, consentRepo, clientRepo, scopeRepo, outboxRepo)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for consent use case: %w", err)
		}
		return oauthUseCase.NewConsentUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAuthorizeUseCase creates the authorization flow use case with all its
// dependencies.
func (c *Container) initAuthorizeUseCase() (oauthUseCase.AuthorizeUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for authorize use case: %w", err)
	}

	clientRepo, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for authorize use case: %w", err)
	}

	codeRepo, err := c.CodeRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get code repository for authorize use case: %w", err)
	}

	scopeRepo, err := c.ScopeRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get scope repository for authorize use case: %w", err)
	}

	consentUC, err := c.ConsentUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent use case for authorize use case: %w", err)
	}

	clientUC, err := c.ClientUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get client use case for authorize use case: %w", err)
	}

	tokenSigner, err := c.TokenSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to get token signer for authorize use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for authorize use case: %w", err)
	}

	baseUseCase := oauthUseCase.NewAuthorizeUseCase(
		txManager,
		clientRepo,
		codeRepo,
		scopeRepo,
		consentUC,
		clientUC,
		c.CodeService(),
		c.PKCEService(),
		tokenSigner,
		&userDirectory{users: userRepo},
		c.config.AuthCodeExpiresIn,
		c.config.AccessTokenExpiresIn,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for authorize use case: %w", err)
		}
		return oauthUseCase.NewAuthorizeUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initBootstrapUseCase creates the system client bootstrap use case.
func (c *Container) initBootstrapUseCase() (oauthUseCase.BootstrapUseCase, error) {
	clientRepo, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for bootstrap use case: %w", err)
	}

	bootstrapConfig := oauthUseCase.BootstrapConfig{
		ClientID:     c.config.BFFClientID,
		ClientSecret: c.config.BFFClientSecret,
		ClientName:   c.config.BFFClientName,
		RedirectURIs: splitList(c.config.BFFRedirectURIs),
	}

	return oauthUseCase.NewBootstrapUseCase(bootstrapConfig, clientRepo, c.SecretService(), c.Logger()), nil
}

// initMaintenanceUseCase creates the cleanup use case for expired sessions
// and authorization codes.
func (c *Container) initMaintenanceUseCase() (oauthUseCase.MaintenanceUseCase, error) {
	codeRepo, err := c.CodeRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get code repository for maintenance use case: %w", err)
	}

	sessions, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for maintenance use case: %w", err)
	}

	return oauthUseCase.NewMaintenanceUseCase(codeRepo, sessions, c.config.AutoCleanupInterval, c.Logger()), nil
}

// initAuthorizeHandler creates the authorization flow HTTP handler.
func (c *Container) initAuthorizeHandler() (*oauthHTTP.AuthorizeHandler, error) {
	authorizeUC, err := c.AuthorizeUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorize use case for authorize handler: %w", err)
	}

	auditLogs, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for authorize handler: %w", err)
	}

	return oauthHTTP.NewAuthorizeHandler(authorizeUC, auditLogs, c.Logger()), nil
}

// initTokenHandler creates the token exchange HTTP handler.
func (c *Container) initTokenHandler() (*oauthHTTP.TokenHandler, error) {
	authorizeUC, err := c.AuthorizeUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorize use case for token handler: %w", err)
	}

	auditLogs, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for token handler: %w", err)
	}

	tokenSigner, err := c.TokenSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to get token signer for token handler: %w", err)
	}

	return oauthHTTP.NewTokenHandler(authorizeUC, auditLogs, tokenSigner, c.Logger()), nil
}

// initClientHandler creates the client management HTTP handler.
func (c *Container) initClientHandler() (*oauthHTTP.ClientHandler, error) {
	clientUC, err := c.ClientUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get client use case for client handler: %w", err)
	}

	auditLogs, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for client handler: %w", err)
	}

	return oauthHTTP.NewClientHandler(clientUC, auditLogs, c.Logger()), nil
}

// initConsentHandler creates the consent HTTP handler.
func (c *Container) initConsentHandler() (*oauthHTTP.ConsentHandler, error) {
	consentUC, err := c.ConsentUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent use case for consent handler: %w", err)
	}

	auditLogs, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for consent handler: %w", err)
	}

	return oauthHTTP.NewConsentHandler(consentUC, auditLogs, c.Logger()), nil
}
