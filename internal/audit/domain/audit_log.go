// Package domain defines the audit trail entities.
package domain

import (
	"crypto/sha256"
	"time"

	"github.com/google/uuid"
)

// ActorType identifies what kind of principal performed an audited action.
type ActorType string

const (
	// ActorTypeUser marks actions performed by an authenticated end user.
	ActorTypeUser ActorType = "user"

	// ActorTypeClient marks actions performed by an OAuth client.
	ActorTypeClient ActorType = "client"

	// ActorTypeSystem marks actions performed by the server itself,
	// such as bootstrap seeding and scheduled maintenance.
	ActorTypeSystem ActorType = "system"
)

// Action identifies the audited operation.
type Action string

const (
	ActionUserRegistered      Action = "user.registered"
	ActionUserLoggedIn        Action = "user.logged_in"
	ActionUserLoginFailed     Action = "user.login_failed"
	ActionUserLoggedOut       Action = "user.logged_out"
	ActionUserPasswordChanged Action = "user.password_changed"
	ActionUserDeactivated     Action = "user.deactivated"
	ActionConsentGranted      Action = "consent.granted"
	ActionConsentDenied       Action = "consent.denied"
	ActionConsentRevoked      Action = "consent.revoked"
	ActionClientCreated       Action = "client.created"
	ActionClientUpdated       Action = "client.updated"
	ActionClientDeleted       Action = "client.deleted"
	ActionClientSecretRotated Action = "client.secret_rotated"
	ActionCodeIssued          Action = "code.issued"
	ActionTokenIssued         Action = "token.issued"
	ActionSystemBootstrap     Action = "system.bootstrap"
)

// SignatureSize is the byte length of an HMAC-SHA256 audit signature.
const SignatureSize = sha256.Size

// AuditLog records a security-relevant action for compliance and incident
// investigation. Entries are signed with an HMAC over a canonical byte
// encoding; KeyID names the signing key so signatures stay verifiable across
// key rotations. Entries written while no audit key was available carry a nil
// KeyID and empty signature.
type AuditLog struct {
	ID        uuid.UUID
	RequestID uuid.UUID
	ActorType ActorType
	ActorID   string
	Action    Action
	Resource  string
	Metadata  map[string]any
	Signature []byte
	KeyID     *string
	CreatedAt time.Time
}

// HasValidSignature reports whether the entry carries a structurally complete
// signature. It does not verify the HMAC itself.
func (a *AuditLog) HasValidSignature() bool {
	return a.KeyID != nil && len(a.Signature) == SignatureSize
}

// RecordAuditLogInput carries the caller-supplied fields of a new audit entry.
// ID, signature, and timestamp are assigned at record time.
type RecordAuditLogInput struct {
	RequestID uuid.UUID
	ActorType ActorType
	ActorID   string
	Action    Action
	Resource  string
	Metadata  map[string]any
}
