package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/authd/internal/audit/domain"
	auditService "github.com/allisson/authd/internal/audit/service"
	cryptoDomain "github.com/allisson/authd/internal/crypto/domain"
	apperrors "github.com/allisson/authd/internal/errors"
)

// verifyBatchSize bounds how many entries a verification pass loads at once.
const verifyBatchSize = 500

// auditLogUseCase implements AuditLogUseCase.
//
// Signing is best effort: an entry that cannot be signed is still persisted,
// because losing the record of a security event is worse than storing it
// unsigned. Unsigned entries are surfaced as such by VerifyBatch.
type auditLogUseCase struct {
	auditLogRepo AuditLogRepository
	signer       auditService.AuditSigner
	keyChain     *cryptoDomain.KeyChain
	logger       *slog.Logger
}

// Record persists a new audit entry signed with the active audit key.
func (a *auditLogUseCase) Record(ctx context.Context, input *auditDomain.RecordAuditLogInput) error {
	log := &auditDomain.AuditLog{
		ID:        uuid.Must(uuid.NewV7()),
		RequestID: input.RequestID,
		ActorType: input.ActorType,
		ActorID:   input.ActorID,
		Action:    input.Action,
		Resource:  input.Resource,
		Metadata:  input.Metadata,
		CreatedAt: time.Now().UTC(),
	}

	if key, ok := a.keyChain.Active(cryptoDomain.KeyPurposeAuditLog); ok {
		signature, err := a.signer.Sign(key.Material, log)
		if err != nil {
			a.logger.Warn("failed to sign audit log, storing unsigned",
				slog.String("action", string(log.Action)),
				slog.Any("error", err),
			)
		} else {
			kid := key.SigningKey.Kid
			log.Signature = signature
			log.KeyID = &kid
		}
	}

	if err := a.auditLogRepo.Create(ctx, log); err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}

	return nil
}

// List retrieves audit logs ordered newest first with pagination and optional
// inclusive time bounds. All timestamps are expected in UTC.
func (a *auditLogUseCase) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.AuditLog, error) {
	logs, err := a.auditLogRepo.List(ctx, offset, limit, createdAtFrom, createdAtTo)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	return logs, nil
}

// VerifyBatch walks all entries within [start, end) oldest first and checks
// each signature against the key named by its key id. Entries whose key is
// no longer in the chain count as invalid since their integrity can no
// longer be proven.
func (a *auditLogUseCase) VerifyBatch(ctx context.Context, start, end time.Time) (*VerificationReport, error) {
	report := &VerificationReport{}

	offset := 0
	for {
		logs, err := a.auditLogRepo.ListByTimeRange(ctx, start, end, offset, verifyBatchSize)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to load audit logs for verification")
		}

		for _, log := range logs {
			report.TotalChecked++

			if !log.HasValidSignature() {
				report.UnsignedCount++
				continue
			}
			report.SignedCount++

			key, ok := a.keyChain.Get(*log.KeyID)
			if !ok {
				report.InvalidCount++
				report.InvalidLogs = append(report.InvalidLogs, log.ID)
				continue
			}

			if err := a.signer.Verify(key.Material, log); err != nil {
				report.InvalidCount++
				report.InvalidLogs = append(report.InvalidLogs, log.ID)
				continue
			}
			report.ValidCount++
		}

		if len(logs) < verifyBatchSize {
			break
		}
		offset += verifyBatchSize
	}

	return report, nil
}

// DeleteOlderThan removes entries older than the given number of days,
// or only counts them when dryRun is set.
func (a *auditLogUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	if dryRun {
		count, err := a.auditLogRepo.CountOlderThan(ctx, cutoff)
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to count audit logs")
		}
		return count, nil
	}

	count, err := a.auditLogRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}
	return count, nil
}

// NewAuditLogUseCase creates a new AuditLogUseCase with the provided dependencies.
func NewAuditLogUseCase(
	auditLogRepo AuditLogRepository,
	signer auditService.AuditSigner,
	keyChain *cryptoDomain.KeyChain,
	logger *slog.Logger,
) AuditLogUseCase {
	return &auditLogUseCase{
		auditLogRepo: auditLogRepo,
		signer:       signer,
		keyChain:     keyChain,
		logger:       logger,
	}
}
