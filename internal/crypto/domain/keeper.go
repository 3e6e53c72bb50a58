package domain

import "context"

// KMSKeeper wraps and unwraps key material using an external key management
// service. *secrets.Keeper from gocloud.dev implements this interface.
type KMSKeeper interface {
	// Encrypt wraps plaintext key material.
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)

	// Decrypt unwraps previously wrapped key material.
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)

	// Close releases resources held by the keeper.
	Close() error
}
