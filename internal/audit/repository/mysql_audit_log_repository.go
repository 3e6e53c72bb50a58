package repository

import (
	"context"
	"database/sql"
	"time"

	auditDomain "github.com/allisson/authd/internal/audit/domain"
	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
)

// MySQLAuditLogRepository implements AuditLog persistence for MySQL.
type MySQLAuditLogRepository struct {
	db *sql.DB
}

// Create inserts a new AuditLog into the MySQL database. Handles nil
// metadata as database NULL.
func (m *MySQLAuditLogRepository) Create(ctx context.Context, log *auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, m.db)

	metadataJSON, err := marshalMetadata(log.Metadata)
	if err != nil {
		return err
	}

	idBytes, err := log.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	requestIDBytes, err := log.RequestID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `INSERT INTO audit_logs (id, request_id, actor_type, actor_id, action,
				  resource, metadata, signature, key_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
		requestIDBytes,
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
func (m *MySQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, request_id, actor_type, actor_id, action, resource,
				  metadata, signature, key_id, created_at
			  FROM audit_logs`

	var args []any
	switch {
	case createdAtFrom != nil && createdAtTo != nil:
		query += " WHERE created_at >= ? AND created_at <= ?"
		args = append(args, *createdAtFrom, *createdAtTo)
	case createdAtFrom != nil:
		query += " WHERE created_at >= ?"
		args = append(args, *createdAtFrom)
	case createdAtTo != nil:
		query += " WHERE created_at <= ?"
		args = append(args, *createdAtTo)
	}

	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() { _ = rows.Close() }()

	return collectMySQLAuditLogs(rows)
}

// ListByTimeRange retrieves audit logs within [from, to) ordered by id
// ascending. Verification walks entries oldest first so reports read in
// insertion order.
func (m *MySQLAuditLogRepository) ListByTimeRange(
	ctx context.Context,
	from, to time.Time,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, request_id, actor_type, actor_id, action, resource,
				  metadata, signature, key_id, created_at
			  FROM audit_logs
			  WHERE created_at >= ? AND created_at < ?
			  ORDER BY id ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, from, to, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs by time range")
	}
	defer func() { _ = rows.Close() }()

	return collectMySQLAuditLogs(rows)
}

// CountOlderThan counts audit logs created before the cutoff.
func (m *MySQLAuditLogRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM audit_logs WHERE created_at < ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count audit logs")
	}
	return count, nil
}

// DeleteOlderThan removes audit logs created before the cutoff and returns
// the number of deleted rows.
func (m *MySQLAuditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM audit_logs WHERE created_at < ?`

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

// collectMySQLAuditLogs scans all rows, converting BINARY(16) UUID columns.
func collectMySQLAuditLogs(rows *sql.Rows) ([]*auditDomain.AuditLog, error) {
	logs := make([]*auditDomain.AuditLog, 0)
	for rows.Next() {
		var log auditDomain.AuditLog
		var idBytes, requestIDBytes []byte
		var actorType, action string
		var metadataJSON []byte

		err := rows.Scan(
			&idBytes,
			&requestIDBytes,
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

		if err := log.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if err := log.RequestID.UnmarshalBinary(requestIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
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

// NewMySQLAuditLogRepository creates a new MySQL AuditLog repository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}
