package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/oauth/domain"
	oauthService "github.com/allisson/authd/internal/oauth/service"
)

// minSystemSecretLength is the minimum length accepted for the configured
// system client secret.
const minSystemSecretLength = 32

// BootstrapConfig carries the system client settings applied at startup.
type BootstrapConfig struct {
	ClientID     string
	ClientSecret string
	ClientName   string
	RedirectURIs []string
}

// bootstrapUseCase implements BootstrapUseCase.
type bootstrapUseCase struct {
	config        BootstrapConfig
	clientRepo    ClientRepository
	secretService oauthService.SecretService
	logger        *slog.Logger
}

// EnsureSystemClient guarantees the configured first-party client exists.
// When no client id is configured bootstrap is skipped. A secret shorter
// than the minimum fails startup. An existing client whose stored hash no
// longer matches the configured secret only logs a warning so a config typo
// cannot lock the deployment out of its own database.
func (b *bootstrapUseCase) EnsureSystemClient(ctx context.Context) error {
	if b.config.ClientID == "" {
		b.logger.Info("system client bootstrap skipped", slog.String("reason", "no client id configured"))
		return nil
	}

	if len(b.config.ClientSecret) < minSystemSecretLength {
		return apperrors.Wrapf(
			apperrors.ErrInvalidInput,
			"system client secret must be at least %d characters",
			minSystemSecretLength,
		)
	}

	if len(b.config.RedirectURIs) == 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "system client requires at least one redirect uri")
	}

	client, err := b.clientRepo.GetByClientID(ctx, b.config.ClientID)
	if err != nil && !apperrors.Is(err, domain.ErrClientNotFound) {
		return err
	}

	if client != nil {
		if !b.secretService.CompareSecret(b.config.ClientSecret, client.ClientSecret) {
			b.logger.Warn("system client secret differs from stored credential",
				slog.String("client_id", client.ClientID),
			)
		}
		return nil
	}

	hashedSecret, err := b.secretService.HashSecret(b.config.ClientSecret)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	role := domain.SystemRoleBFF
	created := &domain.Client{
		ID:             uuid.Must(uuid.NewV7()),
		ClientID:       b.config.ClientID,
		ClientSecret:   hashedSecret,
		ClientName:     b.config.ClientName,
		RedirectURIs:   b.config.RedirectURIs,
		GrantTypes:     []string{domain.GrantTypeAuthorizationCode},
		IsPublic:       false,
		IsActive:       true,
		IsSystemClient: true,
		SystemRole:     &role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := b.clientRepo.Create(ctx, created); err != nil {
		return err
	}

	b.logger.Info("system client created",
		slog.String("client_id", created.ClientID),
		slog.String("client_name", created.ClientName),
	)

	return nil
}

// NewBootstrapUseCase creates a new BootstrapUseCase with the provided
// dependencies.
func NewBootstrapUseCase(
	config BootstrapConfig,
	clientRepo ClientRepository,
	secretService oauthService.SecretService,
	logger *slog.Logger,
) BootstrapUseCase {
	return &bootstrapUseCase{
		config:        config,
		clientRepo:    clientRepo,
		secretService: secretService,
		logger:        logger,
	}
}
