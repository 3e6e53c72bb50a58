package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/authd/internal/crypto/domain"
)

const (
	// rsaKeyBits is the modulus size of generated access token keys.
	rsaKeyBits = 2048

	// auditSecretSize is the byte length of generated audit HMAC secrets.
	auditSecretSize = 32

	// kidHashSize is the number of SHA-256 bytes used for derived kids.
	kidHashSize = 16
)

// keyManagerService implements KeyManager. Generated private material is
// wrapped by the KMS keeper before it is placed on the returned entity, so a
// signing key never reaches the repository in plaintext.
type keyManagerService struct {
	keeper cryptoDomain.KMSKeeper
}

// NewKeyManager creates a new KeyManager backed by the provided keeper.
func NewKeyManager(keeper cryptoDomain.KMSKeeper) KeyManager {
	return &keyManagerService{keeper: keeper}
}

// GenerateAccessTokenKey creates a new RSA-2048 signing key for access
// tokens. The kid defaults to the base64url form of the first 16 bytes of
// the SHA-256 of the public modulus, which stays stable for the key's life
// and reveals nothing private. A non-empty kidOverride wins over derivation.
func (k *keyManagerService) GenerateAccessTokenKey(
	ctx context.Context,
	kidOverride string,
) (*cryptoDomain.SigningKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	kid := kidOverride
	if kid == "" {
		hash := sha256.Sum256(privateKey.PublicKey.N.Bytes())
		kid = base64.RawURLEncoding.EncodeToString(hash[:kidHashSize])
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
	defer cryptoDomain.Zero(privatePEM)

	publicDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	publicPEM := string(pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	}))

	wrapped, err := k.keeper.Encrypt(ctx, privatePEM)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap private key: %w", err)
	}

	return &cryptoDomain.SigningKey{
		ID:                  uuid.Must(uuid.NewV7()),
		Kid:                 kid,
		Purpose:             cryptoDomain.KeyPurposeAccessToken,
		Algorithm:           cryptoDomain.KeyAlgorithmRS256,
		PublicKey:           &publicPEM,
		EncryptedPrivateKey: wrapped,
		IsActive:            true,
		CreatedAt:           time.Now().UTC(),
	}, nil
}

// GenerateAuditKey creates a new 32-byte HMAC secret for signing audit log
// entries. The kid is a fresh UUID since HMAC secrets are never published.
func (k *keyManagerService) GenerateAuditKey(ctx context.Context) (*cryptoDomain.SigningKey, error) {
	secret := make([]byte, auditSecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate audit secret: %w", err)
	}
	defer cryptoDomain.Zero(secret)

	wrapped, err := k.keeper.Encrypt(ctx, secret)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap audit secret: %w", err)
	}

	return &cryptoDomain.SigningKey{
		ID:                  uuid.Must(uuid.NewV7()),
		Kid:                 uuid.Must(uuid.NewV7()).String(),
		Purpose:             cryptoDomain.KeyPurposeAuditLog,
		Algorithm:           cryptoDomain.KeyAlgorithmHS256,
		EncryptedPrivateKey: wrapped,
		IsActive:            true,
		CreatedAt:           time.Now().UTC(),
	}, nil
}

// UnwrapKey recovers the plaintext private material of a signing key. The
// caller owns the returned slice and must zero it when done.
func (k *keyManagerService) UnwrapKey(ctx context.Context, key *cryptoDomain.SigningKey) ([]byte, error) {
	material, err := k.keeper.Decrypt(ctx, key.EncryptedPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap signing key %s: %w", key.Kid, err)
	}
	return material, nil
}
