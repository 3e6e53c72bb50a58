package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/metrics"
	"github.com/allisson/authd/internal/oauth/domain"
)

// clientUseCaseWithMetrics decorates ClientUseCase with metrics instrumentation.
type clientUseCaseWithMetrics struct {
	next    ClientUseCase
	metrics metrics.BusinessMetrics
}

// NewClientUseCaseWithMetrics wraps a ClientUseCase with metrics recording.
func NewClientUseCaseWithMetrics(useCase ClientUseCase, m metrics.BusinessMetrics) ClientUseCase {
	return &clientUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Create records metrics for client creation operations.
func (c *clientUseCaseWithMetrics) Create(
	ctx context.Context,
	input *domain.CreateClientInput,
) (*domain.CreateClientOutput, error) {
	start := time.Now()
	output, err := c.next.Create(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "oauth", "client_create", status)
	c.metrics.RecordDuration(ctx, "oauth", "client_create", time.Since(start), status)

	return output, err
}

// ListByUser records metrics for client list operations.
func (c *clientUseCaseWithMetrics) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*domain.Client, error) {
	start := time.Now()
	clients, err := c.next.ListByUser(ctx, userID, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "oauth", "client_list", status)
	c.metrics.RecordDuration(ctx, "oauth", "client_list", time.Since(start), status)

	return clients, err
}

// GetByID records metrics for client retrieval operations.
func (c *clientUseCaseWithMetrics) GetByID(
	ctx context.Context,
	id uuid.UUID,
	callerID uuid.UUID,
) (*domain.Client, error) {
	start := time.Now()
	client, err := c.next.GetByID(ctx, id, callerID)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "oauth", "client_get", status)
	c.metrics.RecordDuration(ctx, "oauth", "client_get", time.Since(start), status)

	return client, err
}

// Update records metrics for client update operations.
func (c *clientUseCaseWithMetrics) Update(
	ctx context.Context,
	id uuid.UUID,
	callerID uuid.UUID,
	input *domain.UpdateClientInput,
) (*domain.Client, error) {
	start := time.Now()
	client, err := c.next.Update(ctx, id, callerID, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "oauth", "client_update", status)
	c.metrics.RecordDuration(ctx, "oauth", "client_update", time.Since(start), status)

	return client, err
}

// SoftDelete records metrics for client deactivation operations.
func (c *clientUseCaseWithMetrics) SoftDelete(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error {
	start := time.Now()
	err := c.next.SoftDelete(ctx, id, callerID)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "oauth", "client_delete", status)
	c.metrics.RecordDuration(ctx, "oauth", "client_delete", time.Since(start), status)

	return err
}

// RotateSecret records metrics for secret rotation operations.
func (c *clientUseCaseWithMetrics) RotateSecret(
	ctx context.Context,
	id uuid.UUID,
	callerID uuid.UUID,
) (*domain.RotateSecretOutput, error) {
	start := time.Now()
	output, err := c.next.RotateSecret(ctx, id, callerID)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "oauth", "client_rotate_secret", status)
	c.metrics.RecordDuration(ctx, "oauth", "client_rotate_secret", time.Since(start), status)

	return output, err
}

// VerifySecret delegates without recording; it only runs as a step inside
// token exchange which is instrumented as a whole.
func (c *clientUseCaseWithMetrics) VerifySecret(client *domain.Client, plainSecret string, now time.Time) bool {
	return c.next.VerifySecret(client, plainSecret, now)
}

// consentUseCaseWithMetrics decorates ConsentUseCase with metrics instrumentation.
type consentUseCaseWithMetrics struct {
	next    ConsentUseCase
	metrics metrics.BusinessMetrics
}

// NewConsentUseCaseWithMetrics wraps a ConsentUseCase with metrics recording.
func NewConsentUseCaseWithMetrics(useCase ConsentUseCase, m metrics.BusinessMetrics) ConsentUseCase {
	return &consentUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Grant records metrics for consent grant operations.
func (c *consentUseCaseWithMetrics) Grant(
	ctx context.Context,
	input *domain.GrantConsentInput,
) (*domain.Consent, error) {
	start := time.Now()
	consent, err := c.next.Grant(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "oauth", "consent_grant", status)
	c.metrics.RecordDuration(ctx, "oauth", "consent_grant", time.Since(start), status)

	return consent, err
}

// Revoke records metrics for consent revocation operations.
func (c *consentUseCaseWithMetrics) Revoke(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	start := time.Now()
	err := c.next.Revoke(ctx, id, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "oauth", "consent_revoke", status)
	c.metrics.RecordDuration(ctx, "oauth", "consent_revoke", time.Since(start), status)

	return err
}

// FindActive records metrics for active consent lookups.
func (c *consentUseCaseWithMetrics) FindActive(
	ctx context.Context,
	userID uuid.UUID,
	clientID string,
) (*domain.Consent, error) {
	start := time.Now()
	consent, err := c.next.FindActive(ctx, userID, clientID)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "oauth", "consent_find_active", status)
	c.metrics.RecordDuration(ctx, "oauth", "consent_find_active", time.Since(start), status)

	return consent, err
}

// ListByUser records metrics for consent list operations.
func (c *consentUseCaseWithMetrics) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.ConsentWithClient, error) {
	start := time.Now()
	consents, err := c.next.ListByUser(ctx, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "oauth", "consent_list", status)
	c.metrics.RecordDuration(ctx, "oauth", "consent_list", time.Since(start), status)

	return consents, err
}

// GetByID records metrics for consent retrieval operations.
func (c *consentUseCaseWithMetrics) GetByID(
	ctx context.Context,
	id uuid.UUID,
	userID uuid.UUID,
) (*domain.Consent, error) {
	start := time.Now()
	consent, err := c.next.GetByID(ctx, id, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "oauth", "consent_get", status)
	c.metrics.RecordDuration(ctx, "oauth", "consent_get", time.Since(start), status)

	return consent, err
}

// authorizeUseCaseWithMetrics decorates AuthorizeUseCase with metrics instrumentation.
type authorizeUseCaseWithMetrics struct {
	next    AuthorizeUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthorizeUseCaseWithMetrics wraps an AuthorizeUseCase with metrics recording.
func NewAuthorizeUseCaseWithMetrics(useCase AuthorizeUseCase, m metrics.BusinessMetrics) AuthorizeUseCase {
	return &authorizeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// BeginAuthorize records metrics for authorization request operations.
func (a *authorizeUseCaseWithMetrics) BeginAuthorize(
	ctx context.Context,
	input *domain.AuthorizeInput,
) (*domain.AuthorizeOutput, error) {
	start := time.Now()
	output, err := a.next.BeginAuthorize(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "oauth", "authorize", status)
	a.metrics.RecordDuration(ctx, "oauth", "authorize", time.Since(start), status)

	return output, err
}

// DecideConsent records metrics for consent decision operations.
func (a *authorizeUseCaseWithMetrics) DecideConsent(
	ctx context.Context,
	input *domain.ConsentDecisionInput,
) (*domain.AuthorizeOutput, error) {
	start := time.Now()
	output, err := a.next.DecideConsent(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "oauth", "consent_decision", status)
	a.metrics.RecordDuration(ctx, "oauth", "consent_decision", time.Since(start), status)

	return output, err
}

// ExchangeToken records metrics for token exchange operations.
func (a *authorizeUseCaseWithMetrics) ExchangeToken(
	ctx context.Context,
	input *domain.ExchangeTokenInput,
) (*domain.ExchangeTokenOutput, error) {
	start := time.Now()
	output, err := a.next.ExchangeToken(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "oauth", "token_exchange", status)
	a.metrics.RecordDuration(ctx, "oauth", "token_exchange", time.Since(start), status)

	return output, err
}
