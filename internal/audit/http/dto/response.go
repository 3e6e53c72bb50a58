// Package dto provides data transfer objects for audit log HTTP responses.
package dto

import (
	"time"

	auditDomain "github.com/allisson/authd/internal/audit/domain"
)

// AuditLogResponse represents an audit log entry in API responses.
// The raw signature bytes are never exposed; the signed flag reports whether
// the entry carries a verifiable signature.
type AuditLogResponse struct {
	ID        string         `json:"id"`
	RequestID string         `json:"request_id"`
	ActorType string         `json:"actor_type"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	Resource  string         `json:"resource"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	KeyID     *string        `json:"key_id,omitempty"`
	Signed    bool           `json:"signed"`
	CreatedAt time.Time      `json:"created_at"`
}

// MapAuditLogToResponse converts a domain audit log to an API response.
func MapAuditLogToResponse(auditLog *auditDomain.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:        auditLog.ID.String(),
		RequestID: auditLog.RequestID.String(),
		ActorType: string(auditLog.ActorType),
		ActorID:   auditLog.ActorID,
		Action:    string(auditLog.Action),
		Resource:  auditLog.Resource,
		Metadata:  auditLog.Metadata,
		KeyID:     auditLog.KeyID,
		Signed:    auditLog.HasValidSignature(),
		CreatedAt: auditLog.CreatedAt,
	}
}

// ListAuditLogsResponse represents a paginated list of audit logs in API responses.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

// MapAuditLogsToListResponse converts a slice of domain audit logs to a list API response.
func MapAuditLogsToListResponse(auditLogs []*auditDomain.AuditLog) ListAuditLogsResponse {
	auditLogResponses := make([]AuditLogResponse, 0, len(auditLogs))
	for _, auditLog := range auditLogs {
		auditLogResponses = append(auditLogResponses, MapAuditLogToResponse(auditLog))
	}
	return ListAuditLogsResponse{
		Data: auditLogResponses,
	}
}
