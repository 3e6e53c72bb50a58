package http

import (
	"log/slog"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/authd/internal/audit/domain"
	auditUseCase "github.com/allisson/authd/internal/audit/usecase"
)

// RequestUUID extracts the request id assigned by the requestid middleware.
// A missing or malformed id degrades to uuid.Nil instead of failing the
// request.
func RequestUUID(c *gin.Context) uuid.UUID {
	id, err := uuid.Parse(requestid.Get(c))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Record writes an audit entry for a completed operation. Audit failures
// are logged and never surface to the client.
func Record(
	c *gin.Context,
	auditLogs auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
	actorType auditDomain.ActorType,
	actorID string,
	action auditDomain.Action,
	resource string,
	metadata map[string]any,
) {
	input := &auditDomain.RecordAuditLogInput{
		RequestID: RequestUUID(c),
		ActorType: actorType,
		ActorID:   actorID,
		Action:    action,
		Resource:  resource,
		Metadata:  metadata,
	}
	if err := auditLogs.Record(c.Request.Context(), input); err != nil {
		logger.Warn("failed to record audit log",
			"action", string(action),
			"resource", resource,
			"error", err,
		)
	}
}
