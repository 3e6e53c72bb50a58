// Package repository implements audit log persistence for PostgreSQL and
// MySQL. Entries are append-only: nothing updates a row after insertion,
// which is what makes the HMAC signatures meaningful.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	auditDomain "github.com/allisson/authd/internal/audit/domain"
	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
)

// PostgreSQLAuditLogRepository implements AuditLog persistence for PostgreSQL.
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// Create inserts a new AuditLog into the PostgreSQL database. Handles nil
// metadata as database NULL.
func (p *PostgreSQLAuditLogRepository) Create(ctx context.Context, log *auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := marshalMetadata(log.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_logs (id, request_id, actor_type, actor_id, action,
				  resource, metadata, signature, key_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = querier.ExecContext(
		ctx,
		query,
		log.ID,
		log.RequestID,
		string(log.ActorType),
		log.ActorID,
		string(log.Action),
		log.Resource,
		metadataJSON,
		log.Signature,
		log.KeyID,
		log.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}

	return nil
}

// List retrieves audit logs ordered by id descending (newest first, ids are
// UUIDv7) with pagination and optional inclusive time bounds.
func (p *PostgreSQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, request_id, actor_type, actor_id, action, resource,
				  metadata, signature, key_id, created_at
			  FROM audit_logs`

	var conditions []string
	var args []any
	if createdAtFrom != nil {
		args = append(args, *createdAtFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if createdAtTo != nil {
		args = append(args, *createdAtTo)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() { _ = rows.Close() }()

	return collectPostgreSQLAuditLogs(rows)
}

// ListByTimeRange retrieves audit logs within [from, to) ordered by id
// ascending. Verification walks entries oldest first so reports read in
// insertion order.
func (p *PostgreSQLAuditLogRepository) ListByTimeRange(
	ctx context.Context,
	from, to time.Time,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, request_id, actor_type, actor_id, action, resource,
				  metadata, signature, key_id, created_at
			  FROM audit_logs
			  WHERE created_at >= $1 AND created_at < $2
			  ORDER BY id ASC
			  LIMIT $3 OFFSET $4`

	rows, err := querier.QueryContext(ctx, query, from, to, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs by time range")
	}
	defer func() { _ = rows.Close() }()

	return collectPostgreSQLAuditLogs(rows)
}

// CountOlderThan counts audit logs created before the cutoff.
func (p *PostgreSQLAuditLogRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM audit_logs WHERE created_at < $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count audit logs")
	}
	return count, nil
}

// DeleteOlderThan removes audit logs created before the cutoff and returns
// the number of deleted rows.
func (p *PostgreSQLAuditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM audit_logs WHERE created_at < $1`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows count")
	}
	return count, nil
}

// collectPostgreSQLAuditLogs scans all rows into audit log entities.
func collectPostgreSQLAuditLogs(rows *sql.Rows) ([]*auditDomain.AuditLog, error) {
	logs := make([]*auditDomain.AuditLog, 0)
	for rows.Next() {
		var log auditDomain.AuditLog
		var actorType, action string
		var metadataJSON []byte

		err := rows.Scan(
			&log.ID,
			&log.RequestID,
			&actorType,
			&log.ActorID,
			&action,
			&log.Resource,
			&metadataJSON,
			&log.Signature,
			&log.KeyID,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log")
		}

		log.ActorType = auditDomain.ActorType(actorType)
		log.Action = auditDomain.Action(action)

		if err := unmarshalMetadata(metadataJSON, &log); err != nil {
			return nil, err
		}

		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}
	return logs, nil
}

// marshalMetadata serializes metadata, mapping nil to database NULL.
func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit log metadata")
	}
	return metadataJSON, nil
}

// unmarshalMetadata restores the metadata map, keeping nil for NULL columns.
func unmarshalMetadata(metadataJSON []byte, log *auditDomain.AuditLog) error {
	if metadataJSON == nil {
		return nil
	}
	if err := json.Unmarshal(metadataJSON, &log.Metadata); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal audit log metadata")
	}
	return nil
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL AuditLog repository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}
