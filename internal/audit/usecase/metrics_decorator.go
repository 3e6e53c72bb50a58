package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/authd/internal/audit/domain"
	"github.com/allisson/authd/internal/metrics"
)

// auditLogUseCaseWithMetrics decorates AuditLogUseCase with metrics instrumentation.
type auditLogUseCaseWithMetrics struct {
	next    AuditLogUseCase
	metrics metrics.BusinessMetrics
}

// NewAuditLogUseCaseWithMetrics wraps an AuditLogUseCase with metrics recording.
func NewAuditLogUseCaseWithMetrics(useCase AuditLogUseCase, m metrics.BusinessMetrics) AuditLogUseCase {
	return &auditLogUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Record records metrics for audit log creation operations.
func (a *auditLogUseCaseWithMetrics) Record(
	ctx context.Context,
	input *auditDomain.RecordAuditLogInput,
) error {
	start := time.Now()
	err := a.next.Record(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", "audit_log_record", status)
	a.metrics.RecordDuration(ctx, "audit", "audit_log_record", time.Since(start), status)

	return err
}

// List records metrics for audit log list operations.
func (a *auditLogUseCaseWithMetrics) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.AuditLog, error) {
	start := time.Now()
	logs, err := a.next.List(ctx, offset, limit, createdAtFrom, createdAtTo)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", "audit_log_list", status)
	a.metrics.RecordDuration(ctx, "audit", "audit_log_list", time.Since(start), status)

	return logs, err
}

// VerifyBatch records metrics for batch verification operations.
func (a *auditLogUseCaseWithMetrics) VerifyBatch(
	ctx context.Context,
	startTime, endTime time.Time,
) (*VerificationReport, error) {
	start := time.Now()
	report, err := a.next.VerifyBatch(ctx, startTime, endTime)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", "audit_log_verify_batch", status)
	a.metrics.RecordDuration(ctx, "audit", "audit_log_verify_batch", time.Since(start), status)

	return report, err
}

// DeleteOlderThan records metrics for audit log retention operations.
func (a *auditLogUseCaseWithMetrics) DeleteOlderThan(
	ctx context.Context,
	days int,
	dryRun bool,
) (int64, error) {
	start := time.Now()
	count, err := a.next.DeleteOlderThan(ctx, days, dryRun)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", "audit_log_delete", status)
	a.metrics.RecordDuration(ctx, "audit", "audit_log_delete", time.Since(start), status)

	return count, err
}
