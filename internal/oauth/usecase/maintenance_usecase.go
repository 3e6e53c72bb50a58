package usecase

import (
	"context"
	"log/slog"
	"time"
)

// maintenanceUseCase implements MaintenanceUseCase. The cleanup loop runs in
// the server process next to the outbox worker; failures are logged and the
// loop keeps going.
type maintenanceUseCase struct {
	codeRepo       CodeRepository
	sessionCleaner SessionCleaner
	interval       time.Duration
	logger         *slog.Logger
}

// CleanSessions deletes expired sessions and returns the count removed.
func (m *maintenanceUseCase) CleanSessions(ctx context.Context) (int64, error) {
	return m.sessionCleaner.Cleanup(ctx)
}

// CleanAuthorizationCodes deletes used or expired authorization codes created
// before the cutoff. When dryRun is set it only reports how many rows a real
// run would remove.
func (m *maintenanceUseCase) CleanAuthorizationCodes(
	ctx context.Context,
	createdBefore time.Time,
	dryRun bool,
) (int64, error) {
	now := time.Now().UTC()
	if dryRun {
		return m.codeRepo.CountStale(ctx, now, createdBefore)
	}
	return m.codeRepo.DeleteStale(ctx, now, createdBefore)
}

// Start runs the cleanup loop until the context is cancelled. An interval of
// zero disables the loop.
func (m *maintenanceUseCase) Start(ctx context.Context) {
	if m.interval <= 0 {
		m.logger.Info("automatic cleanup disabled")
		return
	}

	m.logger.Info("starting cleanup loop", slog.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("stopping cleanup loop")
			return
		case <-ticker.C:
			m.runOnce(ctx)
		}
	}
}

// runOnce performs one cleanup pass. Stale codes older than the interval are
// removed so a row always survives at least one full tick after expiring,
// which keeps replay detection working for codes redeemed near their
// deadline.
func (m *maintenanceUseCase) runOnce(ctx context.Context) {
	sessions, err := m.CleanSessions(ctx)
	if err != nil {
		m.logger.Error("failed to clean sessions", slog.Any("error", err))
	} else if sessions > 0 {
		m.logger.Info("cleaned expired sessions", slog.Int64("count", sessions))
	}

	cutoff := time.Now().UTC().Add(-m.interval)
	codes, err := m.CleanAuthorizationCodes(ctx, cutoff, false)
	if err != nil {
		m.logger.Error("failed to clean authorization codes", slog.Any("error", err))
	} else if codes > 0 {
		m.logger.Info("cleaned stale authorization codes", slog.Int64("count", codes))
	}
}

// NewMaintenanceUseCase creates a new MaintenanceUseCase with the provided
// dependencies.
func NewMaintenanceUseCase(
	codeRepo CodeRepository,
	sessionCleaner SessionCleaner,
	interval time.Duration,
	logger *slog.Logger,
) MaintenanceUseCase {
	return &maintenanceUseCase{
		codeRepo:       codeRepo,
		sessionCleaner: sessionCleaner,
		interval:       interval,
		logger:         logger,
	}
}
