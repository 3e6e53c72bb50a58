// Package usecase implements the OAuth2 business logic: client lifecycle,
// consent ledger, the authorization code grant state machine, scope
// definitions, startup bootstrap and periodic maintenance.
package usecase

import (
	"context"
	"encoding/json"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/oauth/domain"
	oauthService "github.com/allisson/authd/internal/oauth/service"
	outboxDomain "github.com/allisson/authd/internal/outbox/domain"
	appValidation "github.com/allisson/authd/internal/validation"
)

// clientUseCase implements ClientUseCase for client registration and lifecycle
// management.
type clientUseCase struct {
	txManager     database.TxManager
	clientRepo    ClientRepository
	outboxRepo    OutboxEventRepository
	secretService oauthService.SecretService
	rotationGrace time.Duration
}

func (c *clientUseCase) validateCreateInput(input *domain.CreateClientInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.ClientName,
			validation.Required.Error("client name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("client name must be between 1 and 255 characters"),
		),
		validation.Field(&input.RedirectURIs,
			validation.Required.Error("at least one redirect uri is required"),
			validation.Each(appValidation.AbsoluteURI),
		),
		validation.Field(&input.GrantTypes,
			validation.Required.Error("at least one grant type is required"),
			validation.Each(validation.In(
				domain.GrantTypeAuthorizationCode,
				domain.GrantTypeRefreshToken,
			).Error("grant type must be authorization_code or refresh_token")),
		),
	)
	return appValidation.WrapValidationError(err)
}

func (c *clientUseCase) validateUpdateInput(input *domain.UpdateClientInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.ClientName,
			appValidation.NotBlank,
			validation.Length(1, 255).Error("client name must be between 1 and 255 characters"),
		),
		validation.Field(&input.RedirectURIs,
			validation.Each(appValidation.AbsoluteURI),
		),
		validation.Field(&input.GrantTypes,
			validation.Each(validation.In(
				domain.GrantTypeAuthorizationCode,
				domain.GrantTypeRefreshToken,
			).Error("grant type must be authorization_code or refresh_token")),
		),
	)
	return appValidation.WrapValidationError(err)
}

// createEvent writes an outbox event inside the caller's transaction.
func (c *clientUseCase) createEvent(ctx context.Context, eventType string, payload map[string]interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event payload")
	}

	now := time.Now().UTC()
	event := &outboxDomain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(payloadJSON),
		Status:    outboxDomain.OutboxEventStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.outboxRepo.Create(ctx, event); err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// Create registers a new OAuth2 client owned by the given user.
// The generated plaintext secret is returned exactly once and never stored;
// only its Argon2id hash is persisted. A client.created outbox event commits
// in the same transaction.
func (c *clientUseCase) Create(
	ctx context.Context,
	input *domain.CreateClientInput,
) (*domain.CreateClientOutput, error) {
	if err := c.validateCreateInput(input); err != nil {
		return nil, err
	}

	plainSecret, hashedSecret, err := c.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ownerID := input.UserID
	client := &domain.Client{
		ID:           uuid.Must(uuid.NewV7()),
		ClientID:     uuid.Must(uuid.NewV7()).String(),
		ClientSecret: hashedSecret,
		ClientName:   input.ClientName,
		RedirectURIs: input.RedirectURIs,
		GrantTypes:   input.GrantTypes,
		IsPublic:     input.IsPublic,
		IsActive:     true,
		UserID:       &ownerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = c.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := c.clientRepo.Create(ctx, client); err != nil {
			return err
		}

		return c.createEvent(ctx, "client.created", map[string]interface{}{
			"client_id":   client.ClientID,
			"client_name": client.ClientName,
			"user_id":     ownerID,
		})
	})
	if err != nil {
		return nil, err
	}

	return &domain.CreateClientOutput{
		Client:          client,
		PlaintextSecret: plainSecret,
	}, nil
}

// ListByUser returns the caller's active clients, newest first.
func (c *clientUseCase) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*domain.Client, error) {
	return c.clientRepo.ListByUser(ctx, userID, offset, limit)
}

// GetByID returns a client owned by the caller. Missing rows yield
// ErrClientNotFound; rows owned by someone else yield ErrClientForbidden so
// existence of foreign clients is still disclosed only to their owners via 404
// vs 403 at the HTTP layer.
func (c *clientUseCase) GetByID(ctx context.Context, id uuid.UUID, callerID uuid.UUID) (*domain.Client, error) {
	client, err := c.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if client.IsSystemClient {
		return nil, domain.ErrClientNotFound
	}
	if !client.IsOwnedBy(callerID) {
		return nil, domain.ErrClientForbidden
	}

	return client, nil
}

// Update applies a partial update of name, redirect URIs, grant types and the
// public flag via read-modify-write, bumping updated_at.
func (c *clientUseCase) Update(
	ctx context.Context,
	id uuid.UUID,
	callerID uuid.UUID,
	input *domain.UpdateClientInput,
) (*domain.Client, error) {
	if err := c.validateUpdateInput(input); err != nil {
		return nil, err
	}

	client, err := c.GetByID(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if input.ClientName != nil {
		client.ClientName = *input.ClientName
	}
	if input.RedirectURIs != nil {
		client.RedirectURIs = input.RedirectURIs
	}
	if input.GrantTypes != nil {
		client.GrantTypes = input.GrantTypes
	}
	if input.IsPublic != nil {
		client.IsPublic = *input.IsPublic
	}
	client.UpdatedAt = time.Now().UTC()

	if err := c.clientRepo.Update(ctx, client); err != nil {
		return nil, err
	}

	return client, nil
}

// SoftDelete deactivates a client so it can no longer authenticate while its
// rows stay behind for consent and audit history. Deleting an already
// inactive client succeeds without state change.
func (c *clientUseCase) SoftDelete(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error {
	client, err := c.clientRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if client.IsSystemClient {
		return domain.ErrClientNotFound
	}
	if !client.IsOwnedBy(callerID) {
		return domain.ErrClientForbidden
	}
	if !client.IsActive {
		return nil
	}

	client.IsActive = false
	client.UpdatedAt = time.Now().UTC()

	return c.clientRepo.Update(ctx, client)
}

// RotateSecret atomically replaces the client secret. The previous hash moves
// to client_secret_old and keeps verifying until now + grace; the new
// plaintext is returned exactly once. A client.secret_rotated outbox event
// commits in the same transaction.
func (c *clientUseCase) RotateSecret(
	ctx context.Context,
	id uuid.UUID,
	callerID uuid.UUID,
) (*domain.RotateSecretOutput, error) {
	client, err := c.GetByID(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	plainSecret, hashedSecret, err := c.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	graceDeadline := now.Add(c.rotationGrace)
	previousSecret := client.ClientSecret

	client.ClientSecretOld = &previousSecret
	client.ClientSecret = hashedSecret
	client.SecretExpiresAt = &graceDeadline
	client.UpdatedAt = now

	err = c.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := c.clientRepo.Update(ctx, client); err != nil {
			return err
		}

		return c.createEvent(ctx, "client.secret_rotated", map[string]interface{}{
			"client_id":         client.ClientID,
			"secret_expires_at": graceDeadline,
		})
	})
	if err != nil {
		return nil, err
	}

	return &domain.RotateSecretOutput{
		Client:          client,
		PlaintextSecret: plainSecret,
		OldSecretExpiry: graceDeadline,
	}, nil
}

// VerifySecret checks a plaintext secret against the current hash first and
// falls back to the previous hash while the rotation grace window is open.
func (c *clientUseCase) VerifySecret(client *domain.Client, plainSecret string, now time.Time) bool {
	if c.secretService.CompareSecret(plainSecret, client.ClientSecret) {
		return true
	}
	if client.OldSecretUsable(now) {
		return c.secretService.CompareSecret(plainSecret, *client.ClientSecretOld)
	}
	return false
}

// NewClientUseCase creates a new ClientUseCase with the provided dependencies.
// rotationGrace controls how long a rotated-out secret keeps authenticating.
func NewClientUseCase(
	txManager database.TxManager,
	clientRepo ClientRepository,
	outboxRepo OutboxEventRepository,
	secretService oauthService.SecretService,
	rotationGrace time.Duration,
) ClientUseCase {
	return &clientUseCase{
		txManager:     txManager,
		clientRepo:    clientRepo,
		outboxRepo:    outboxRepo,
		secretService: secretService,
		rotationGrace: rotationGrace,
	}
}
