package usecase

import (
	"context"
	"log/slog"
	"time"

	cryptoDomain "github.com/allisson/authd/internal/crypto/domain"
	cryptoService "github.com/allisson/authd/internal/crypto/service"
	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
)

// keyUseCase implements KeyUseCase.
//
// Key generation happens in the key manager service, which wraps private
// material with the KMS keeper before anything reaches the repository. This
// use case only sequences the lifecycle steps and keeps them transactional.
type keyUseCase struct {
	txManager   database.TxManager
	keyRepo     SigningKeyRepository
	keyManager  cryptoService.KeyManager
	kidOverride string
	logger      *slog.Logger
}

// EnsureKeys guarantees an active signing key exists for each purpose.
//
// The access token key honors the configured kid override so deployments can
// pin a stable, externally known kid for their first key. The audit key always
// derives its own kid. Existing active keys are left untouched, which makes
// this safe to run on every boot.
func (u *keyUseCase) EnsureKeys(ctx context.Context) error {
	if err := u.ensureKey(ctx, cryptoDomain.KeyPurposeAccessToken); err != nil {
		return err
	}
	return u.ensureKey(ctx, cryptoDomain.KeyPurposeAuditLog)
}

// ensureKey creates an active key for the purpose when none exists.
func (u *keyUseCase) ensureKey(ctx context.Context, purpose cryptoDomain.KeyPurpose) error {
	_, err := u.keyRepo.GetActive(ctx, purpose)
	if err == nil {
		return nil
	}
	if !apperrors.Is(err, cryptoDomain.ErrNoActiveSigningKey) {
		return err
	}

	key, err := u.generateKey(ctx, purpose)
	if err != nil {
		return err
	}
	if err := u.keyRepo.Create(ctx, key); err != nil {
		return err
	}

	u.logger.Info("signing key created",
		slog.String("purpose", string(purpose)),
		slog.String("kid", key.Kid),
	)
	return nil
}

// generateKey dispatches to the key manager by purpose.
func (u *keyUseCase) generateKey(
	ctx context.Context,
	purpose cryptoDomain.KeyPurpose,
) (*cryptoDomain.SigningKey, error) {
	if purpose == cryptoDomain.KeyPurposeAuditLog {
		return u.keyManager.GenerateAuditKey(ctx)
	}
	return u.keyManager.GenerateAccessTokenKey(ctx, u.kidOverride)
}

// RotateAccessTokenKey retires the active access token key and creates a
// fresh one atomically. When no active key exists the rotation degrades to a
// plain creation, so the command is safe to run against an empty database.
// The kid override never applies to rotated keys; their kids derive from the
// public modulus.
func (u *keyUseCase) RotateAccessTokenKey(ctx context.Context) (*cryptoDomain.SigningKey, error) {
	var newKey *cryptoDomain.SigningKey
	var oldKid string

	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		current, err := u.keyRepo.GetActive(ctx, cryptoDomain.KeyPurposeAccessToken)
		if err != nil && !apperrors.Is(err, cryptoDomain.ErrNoActiveSigningKey) {
			return err
		}

		if current != nil {
			oldKid = current.Kid
			if err := u.keyRepo.Retire(ctx, current.ID, time.Now().UTC()); err != nil {
				return err
			}
		}

		key, err := u.keyManager.GenerateAccessTokenKey(ctx, "")
		if err != nil {
			return err
		}
		if err := u.keyRepo.Create(ctx, key); err != nil {
			return err
		}

		newKey = key
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("access token signing key rotated",
		slog.String("old_kid", oldKid),
		slog.String("new_kid", newKey.Kid),
	)
	return newKey, nil
}

// LoadKeyChain unwraps every persisted signing key into memory.
//
// All keys of both purposes are loaded, retired ones included: the token
// signer needs retired public keys in the JWKS and the audit verifier needs
// retired HMAC secrets for historical entries. A key that fails to unwrap
// aborts the load since serving with a partial chain would make some valid
// signatures unverifiable.
func (u *keyUseCase) LoadKeyChain(ctx context.Context) (*cryptoDomain.KeyChain, error) {
	purposes := []cryptoDomain.KeyPurpose{
		cryptoDomain.KeyPurposeAccessToken,
		cryptoDomain.KeyPurposeAuditLog,
	}

	var unwrapped []*cryptoDomain.UnwrappedKey
	for _, purpose := range purposes {
		keys, err := u.keyRepo.ListByPurpose(ctx, purpose)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			material, err := u.keyManager.UnwrapKey(ctx, key)
			if err != nil {
				return nil, err
			}
			unwrapped = append(unwrapped, &cryptoDomain.UnwrappedKey{
				SigningKey: key,
				Material:   material,
			})
		}
	}

	return cryptoDomain.NewKeyChain(unwrapped), nil
}

// NewKeyUseCase creates a new KeyUseCase with the provided dependencies.
// kidOverride pins the kid of the first generated access token key; pass an
// empty string to derive kids from the public modulus.
func NewKeyUseCase(
	txManager database.TxManager,
	keyRepo SigningKeyRepository,
	keyManager cryptoService.KeyManager,
	kidOverride string,
	logger *slog.Logger,
) KeyUseCase {
	return &keyUseCase{
		txManager:   txManager,
		keyRepo:     keyRepo,
		keyManager:  keyManager,
		kidOverride: kidOverride,
		logger:      logger,
	}
}
