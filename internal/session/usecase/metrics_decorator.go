package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/metrics"
	"github.com/allisson/authd/internal/session/domain"
)

// sessionUseCaseWithMetrics decorates SessionUseCase with metrics instrumentation.
type sessionUseCaseWithMetrics struct {
	next    SessionUseCase
	metrics metrics.BusinessMetrics
}

// NewSessionUseCaseWithMetrics wraps a SessionUseCase with metrics recording.
func NewSessionUseCaseWithMetrics(useCase SessionUseCase, m metrics.BusinessMetrics) SessionUseCase {
	return &sessionUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Issue records metrics for session issuance operations.
func (s *sessionUseCaseWithMetrics) Issue(
	ctx context.Context,
	userID uuid.UUID,
	expiresIn time.Duration,
) (*domain.Session, error) {
	start := time.Now()
	session, err := s.next.Issue(ctx, userID, expiresIn)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "session", "issue", status)
	s.metrics.RecordDuration(ctx, "session", "issue", time.Since(start), status)

	return session, err
}

// Get records metrics for session lookup operations.
func (s *sessionUseCaseWithMetrics) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	start := time.Now()
	session, err := s.next.Get(ctx, sessionID)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "session", "get", status)
	s.metrics.RecordDuration(ctx, "session", "get", time.Since(start), status)

	return session, err
}

// GetByUser records metrics for per-user session listing operations.
func (s *sessionUseCaseWithMetrics) GetByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Session, error) {
	start := time.Now()
	sessions, err := s.next.GetByUser(ctx, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "session", "get_by_user", status)
	s.metrics.RecordDuration(ctx, "session", "get_by_user", time.Since(start), status)

	return sessions, err
}

// Delete records metrics for session deletion operations.
func (s *sessionUseCaseWithMetrics) Delete(ctx context.Context, sessionID string) error {
	start := time.Now()
	err := s.next.Delete(ctx, sessionID)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "session", "delete", status)
	s.metrics.RecordDuration(ctx, "session", "delete", time.Since(start), status)

	return err
}

// DeleteByUser records metrics for per-user session revocation operations.
func (s *sessionUseCaseWithMetrics) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	start := time.Now()
	err := s.next.DeleteByUser(ctx, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "session", "delete_by_user", status)
	s.metrics.RecordDuration(ctx, "session", "delete_by_user", time.Since(start), status)

	return err
}

// Cleanup records metrics for expired session cleanup operations.
func (s *sessionUseCaseWithMetrics) Cleanup(ctx context.Context) (int64, error) {
	start := time.Now()
	count, err := s.next.Cleanup(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "session", "cleanup", status)
	s.metrics.RecordDuration(ctx, "session", "cleanup", time.Since(start), status)

	return count, err
}
