package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/oauth/domain"
	outboxDomain "github.com/allisson/authd/internal/outbox/domain"
)

// consentUseCase implements ConsentUseCase over the consent ledger.
type consentUseCase struct {
	txManager   database.TxManager
	consentRepo ConsentRepository
	clientRepo  ClientRepository
	scopeRepo   ScopeRepository
	outboxRepo  OutboxEventRepository
}

// createEvent writes an outbox event inside the caller's transaction.
func (c *consentUseCase) createEvent(ctx context.Context, eventType string, payload map[string]interface{}) error {
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

// Grant records a consent using the auto-revoke strategy: inside one
// transaction any active consent for the (user, client) pair is revoked and
// the new row inserted, so no observer sees two active rows nor zero rows
// during the swap. A consent.granted outbox event commits with it.
func (c *consentUseCase) Grant(ctx context.Context, input *domain.GrantConsentInput) (*domain.Consent, error) {
	now := time.Now().UTC()
	consent := &domain.Consent{
		ID:        uuid.Must(uuid.NewV7()),
		UserID:    input.UserID,
		ClientID:  input.ClientID,
		Scopes:    input.Scopes,
		GrantedAt: now,
		ExpiresAt: input.ExpiresAt,
	}

	err := c.txManager.WithTx(ctx, func(ctx context.Context) error {
		current, err := c.consentRepo.GetActive(ctx, input.UserID, input.ClientID)
		if err != nil && !errors.Is(err, domain.ErrConsentNotFound) {
			return err
		}
		if current != nil {
			if err := c.consentRepo.Revoke(ctx, current.ID, now); err != nil {
				return err
			}
		}

		if err := c.consentRepo.Create(ctx, consent); err != nil {
			return err
		}

		return c.createEvent(ctx, "consent.granted", map[string]interface{}{
			"consent_id": consent.ID,
			"user_id":    consent.UserID,
			"client_id":  consent.ClientID,
			"scopes":     consent.Scopes,
		})
	})
	if err != nil {
		return nil, err
	}

	return consent, nil
}

// Revoke revokes a consent owned by the user. Rows owned by someone else are
// reported as missing rather than forbidden so consent ids are not an oracle.
// Revoking an already revoked consent succeeds without state change.
func (c *consentUseCase) Revoke(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	consent, err := c.consentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if consent.UserID != userID {
		return domain.ErrConsentNotFound
	}
	if consent.RevokedAt != nil {
		return nil
	}

	return c.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := c.consentRepo.Revoke(ctx, id, time.Now().UTC()); err != nil {
			return err
		}

		return c.createEvent(ctx, "consent.revoked", map[string]interface{}{
			"consent_id": consent.ID,
			"user_id":    consent.UserID,
			"client_id":  consent.ClientID,
		})
	})
}

// FindActive returns the active consent for a (user, client) pair.
func (c *consentUseCase) FindActive(
	ctx context.Context,
	userID uuid.UUID,
	clientID string,
) (*domain.Consent, error) {
	return c.consentRepo.GetActive(ctx, userID, clientID)
}

// ListByUser returns the user's active consents enriched with the client name
// and the description of every granted scope.
func (c *consentUseCase) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConsentWithClient, error) {
	consents, err := c.consentRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.ConsentWithClient, 0, len(consents))
	for _, consent := range consents {
		entry := &domain.ConsentWithClient{Consent: consent}

		client, err := c.clientRepo.GetByClientID(ctx, consent.ClientID)
		if err != nil && !errors.Is(err, domain.ErrClientNotFound) {
			return nil, err
		}
		if client != nil {
			entry.ClientName = client.ClientName
		}

		entry.Scopes = make([]domain.ScopeDefinition, 0, len(consent.Scopes))
		for _, name := range consent.Scopes {
			scope, err := c.scopeRepo.GetByName(ctx, name)
			if err != nil {
				if errors.Is(err, domain.ErrScopeNotFound) {
					// Scope definitions can be removed after a grant; keep the name
					entry.Scopes = append(entry.Scopes, domain.ScopeDefinition{Name: name})
					continue
				}
				return nil, err
			}
			entry.Scopes = append(entry.Scopes, *scope)
		}

		out = append(out, entry)
	}

	return out, nil
}

// GetByID returns a consent owned by the user. Foreign rows are reported as
// missing.
func (c *consentUseCase) GetByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*domain.Consent, error) {
	consent, err := c.consentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if consent.UserID != userID {
		return nil, domain.ErrConsentNotFound
	}
	return consent, nil
}

// NewConsentUseCase creates a new ConsentUseCase with the provided dependencies.
func NewConsentUseCase(
	txManager database.TxManager,
	consentRepo ConsentRepository,
	clientRepo ClientRepository,
	scopeRepo ScopeRepository,
	outboxRepo OutboxEventRepository,
) ConsentUseCase {
	return &consentUseCase{
		txManager:   txManager,
		consentRepo: consentRepo,
		clientRepo:  clientRepo,
		scopeRepo:   scopeRepo,
		outboxRepo:  outboxRepo,
	}
}
