// Package service implements audit log signing with HKDF key derivation
// and HMAC-SHA256 signatures.
package service

import (
	auditDomain "github.com/allisson/authd/internal/audit/domain"
)

// AuditSigner signs and verifies audit log entries.
//
// The secret parameter is the raw HMAC material of an audit signing key; a
// dedicated signing key is derived from it per call so the stored secret is
// never used directly.
type AuditSigner interface {
	// Sign generates an HMAC-SHA256 signature over the canonical encoding of
	// the audit log. Returns the 32-byte signature.
	Sign(secret []byte, log *auditDomain.AuditLog) ([]byte, error)

	// Verify checks the audit log signature. Returns nil when valid and
	// ErrSignatureInvalid when the entry was tampered with.
	Verify(secret []byte, log *auditDomain.AuditLog) error
}
