// Package usecase implements the signing key lifecycle.
//
// The use case layer coordinates the key manager service (key generation and
// keeper wrapping) with the signing key repository (persistence). It enforces
// the lifecycle rules:
//   - At most one active key per purpose at any time.
//   - Rotation retires the active key and creates its successor atomically.
//   - Retired keys stay persisted so their signatures remain verifiable.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/authd/internal/crypto/domain"
)

// SigningKeyRepository defines persistence operations for signing keys.
// Implementations must support transaction-aware operations via context
// propagation.
type SigningKeyRepository interface {
	// Create stores a new signing key. Returns a conflict error when the kid
	// is already taken.
	Create(ctx context.Context, key *cryptoDomain.SigningKey) error

	// GetActive retrieves the active key for a purpose. Returns
	// ErrNoActiveSigningKey if none exists.
	GetActive(ctx context.Context, purpose cryptoDomain.KeyPurpose) (*cryptoDomain.SigningKey, error)

	// ListByPurpose retrieves all keys for a purpose, newest first.
	ListByPurpose(ctx context.Context, purpose cryptoDomain.KeyPurpose) ([]*cryptoDomain.SigningKey, error)

	// Retire clears the active flag and stamps retired_at on a key.
	Retire(ctx context.Context, id uuid.UUID, retiredAt time.Time) error
}

// KeyUseCase manages the signing key lifecycle.
type KeyUseCase interface {
	// EnsureKeys guarantees an active key exists for every purpose. Intended
	// to run once at startup before the key chain is loaded; it is a no-op
	// when keys already exist.
	EnsureKeys(ctx context.Context) error

	// RotateAccessTokenKey retires the active access token key and creates a
	// fresh one in a single transaction. The retired key stays published so
	// outstanding tokens verify until they expire.
	RotateAccessTokenKey(ctx context.Context) (*cryptoDomain.SigningKey, error)

	// LoadKeyChain unwraps every persisted signing key into an in-memory
	// chain. Callers own the chain and must Close it to clear key material.
	LoadKeyChain(ctx context.Context) (*cryptoDomain.KeyChain, error)
}
