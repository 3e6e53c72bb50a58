// Package usecase implements recording, listing, retention, and integrity
// verification of the audit trail.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/authd/internal/audit/domain"
)

// AuditLogRepository defines the interface for audit log persistence.
type AuditLogRepository interface {
	// Create inserts a new audit log entry.
	Create(ctx context.Context, log *auditDomain.AuditLog) error

	// List retrieves audit logs newest first with pagination and optional
	// inclusive created_at bounds (nil means no bound).
	List(
		ctx context.Context,
		offset, limit int,
		createdAtFrom, createdAtTo *time.Time,
	) ([]*auditDomain.AuditLog, error)

	// ListByTimeRange retrieves audit logs within [from, to) oldest first.
	ListByTimeRange(ctx context.Context, from, to time.Time, offset, limit int) ([]*auditDomain.AuditLog, error)

	// CountOlderThan counts entries created before the cutoff.
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOlderThan removes entries created before the cutoff and returns
	// the deleted row count.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// VerificationReport summarizes a batch integrity verification run.
type VerificationReport struct {
	TotalChecked  int64
	SignedCount   int64
	UnsignedCount int64
	ValidCount    int64
	InvalidCount  int64
	InvalidLogs   []uuid.UUID
}

// AuditLogUseCase defines the interface for audit trail operations.
type AuditLogUseCase interface {
	// Record persists a new audit entry, signing it with the active audit
	// key when one is loaded. Entries recorded while no key is available are
	// stored unsigned rather than dropped.
	Record(ctx context.Context, input *auditDomain.RecordAuditLogInput) error

	// List retrieves audit logs newest first with pagination and optional
	// inclusive created_at bounds.
	List(
		ctx context.Context,
		offset, limit int,
		createdAtFrom, createdAtTo *time.Time,
	) ([]*auditDomain.AuditLog, error)

	// VerifyBatch checks the signature of every entry within [start, end)
	// and reports totals plus the ids of entries that failed verification.
	VerifyBatch(ctx context.Context, start, end time.Time) (*VerificationReport, error)

	// DeleteOlderThan removes entries older than the given number of days.
	// With dryRun it only counts what would be deleted.
	DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error)
}
