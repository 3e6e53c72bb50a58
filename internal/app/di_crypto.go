package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/authd/internal/crypto/domain"
	cryptoRepository "github.com/allisson/authd/internal/crypto/repository"
	cryptoService "github.com/allisson/authd/internal/crypto/service"
	cryptoUseCase "github.com/allisson/authd/internal/crypto/usecase"
)

// KMSService returns the KMS service used to open keepers.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// Keeper returns the KMS keeper that wraps stored signing key material.
func (c *Container) Keeper() (cryptoDomain.KMSKeeper, error) {
	var err error
	c.keeperInit.Do(func() {
		c.keeper, err = c.KMSService().OpenKeeper(context.Background(), c.config.MasterKeyURL)
		if err != nil {
			c.initErrors["keeper"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keeper"]; exists {
		return nil, storedErr
	}
	return c.keeper, nil
}

// KeyManager returns the signing key manager service.
func (c *Container) KeyManager() (cryptoService.KeyManager, error) {
	var err error
	c.keyManagerInit.Do(func() {
		var keeper cryptoDomain.KMSKeeper
		keeper, err = c.Keeper()
		if err != nil {
			c.initErrors["keyManager"] = err
			return
		}
		c.keyManager = cryptoService.NewKeyManager(keeper)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyManager"]; exists {
		return nil, storedErr
	}
	return c.keyManager, nil
}

// SigningKeyRepository returns the signing key repository based on database driver.
func (c *Container) SigningKeyRepository() (cryptoUseCase.SigningKeyRepository, error) {
	var err error
	c.signingKeyRepoInit.Do(func() {
		c.signingKeyRepo, err = c.initSigningKeyRepository()
		if err != nil {
			c.initErrors["signingKeyRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signingKeyRepo"]; exists {
		return nil, storedErr
	}
	return c.signingKeyRepo, nil
}

// KeyUseCase returns the signing key lifecycle use case.
func (c *Container) KeyUseCase() (cryptoUseCase.KeyUseCase, error) {
	var err error
	c.keyUseCaseInit.Do(func() {
		c.keyUseCase, err = c.initKeyUseCase()
		if err != nil {
			c.initErrors["keyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyUseCase"]; exists {
		return nil, storedErr
	}
	return c.keyUseCase, nil
}

// KeyChain returns the unwrapped signing key chain, creating missing keys on
// first boot. The container owns the chain and zeroes it on Shutdown.
func (c *Container) KeyChain() (*cryptoDomain.KeyChain, error) {
	var err error
	c.keyChainInit.Do(func() {
		c.keyChain, err = c.initKeyChain()
		if err != nil {
			c.initErrors["keyChain"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyChain"]; exists {
		return nil, storedErr
	}
	return c.keyChain, nil
}

// TokenSigner returns the JWT access token signer.
func (c *Container) TokenSigner() (cryptoService.TokenSigner, error) {
	var err error
	c.tokenSignerInit.Do(func() {
		c.tokenSigner, err = c.initTokenSigner()
		if err != nil {
			c.initErrors["tokenSigner"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenSigner"]; exists {
		return nil, storedErr
	}
	return c.tokenSigner, nil
}

// initSigningKeyRepository creates the signing key repository based on the
// database driver.
func (c *Container) initSigningKeyRepository() (cryptoUseCase.SigningKeyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for signing key repository: %w", err)
	}

	switch c.config.DatabaseDriver {
	case "postgres":
		return cryptoRepository.NewPostgreSQLSigningKeyRepository(db), nil
	case "mysql":
		return cryptoRepository.NewMySQLSigningKeyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DatabaseDriver)
	}
}

// initKeyUseCase creates the key use case with all its dependencies.
func (c *Container) initKeyUseCase() (cryptoUseCase.KeyUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for key use case: %w", err)
	}

	keyRepo, err := c.SigningKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key repository for key use case: %w", err)
	}

	keyManager, err := c.KeyManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get key manager for key use case: %w", err)
	}

	return cryptoUseCase.NewKeyUseCase(txManager, keyRepo, keyManager, c.config.JWTKeyID, c.Logger()), nil
}

// initKeyChain ensures signing keys exist and loads them into memory.
func (c *Container) initKeyChain() (*cryptoDomain.KeyChain, error) {
	keyUseCase, err := c.KeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get key use case for key chain: %w", err)
	}

	ctx := context.Background()
	if err := keyUseCase.EnsureKeys(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure signing keys: %w", err)
	}

	keyChain, err := keyUseCase.LoadKeyChain(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load key chain: %w", err)
	}

	return keyChain, nil
}

// initTokenSigner creates the token signer bound to the loaded key chain.
func (c *Container) initTokenSigner() (cryptoService.TokenSigner, error) {
	keyChain, err := c.KeyChain()
	if err != nil {
		return nil, fmt.Errorf("failed to get key chain for token signer: %w", err)
	}

	return cryptoService.NewTokenSigner(
		keyChain,
		c.config.JWTIssuer,
		c.config.JWTAudience,
		c.config.AccessTokenExpiresIn,
	)
}
