package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/oauth/domain"
)

func testBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		ClientID:     "bff-client",
		ClientSecret: testPlainSecret,
		ClientName:   "BFF",
		RedirectURIs: []string{"https://bff.example.com/callback"},
	}
}

func newTestBootstrapUseCase(
	config BootstrapConfig,
	clientRepo *mockClientRepository,
	secretService *mockSecretService,
) BootstrapUseCase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBootstrapUseCase(config, clientRepo, secretService, logger)
}

func TestBootstrapUseCase_EnsureSystemClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_SkippedWithoutClientID", func(t *testing.T) {
		// Setup mocks
		clientRepo := &mockClientRepository{}
		secretService := &mockSecretService{}

		config := testBootstrapConfig()
		config.ClientID = ""
		useCase := newTestBootstrapUseCase(config, clientRepo, secretService)

		// Execute, no collaborator may be touched when bootstrap is off
		err := useCase.EnsureSystemClient(ctx)

		// Assert
		require.NoError(t, err)
		clientRepo.AssertExpectations(t)
		secretService.AssertExpectations(t)
	})

	t.Run("Success_CreatesSystemClient", func(t *testing.T) {
		// Setup mocks
		clientRepo := &mockClientRepository{}
		secretService := &mockSecretService{}

		config := testBootstrapConfig()
		useCase := newTestBootstrapUseCase(config, clientRepo, secretService)

		// Setup expectations
		clientRepo.On("GetByClientID", ctx, "bff-client").Return(nil, domain.ErrClientNotFound).Once()
		secretService.On("HashSecret", testPlainSecret).Return(testSecretHash, nil).Once()

		var capturedClient *domain.Client
		clientRepo.On("Create", ctx, mock.AnythingOfType("*domain.Client")).
			Run(func(args mock.Arguments) {
				capturedClient = args.Get(1).(*domain.Client)
			}).
			Return(nil).
			Once()

		// Execute
		err := useCase.EnsureSystemClient(ctx)

		// Assert
		require.NoError(t, err)
		require.NotNil(t, capturedClient)
		assert.NotEqual(t, uuid.Nil, capturedClient.ID)
		assert.Equal(t, "bff-client", capturedClient.ClientID)
		assert.Equal(t, testSecretHash, capturedClient.ClientSecret)
		assert.Equal(t, "BFF", capturedClient.ClientName)
		assert.Equal(t, []string{"https://bff.example.com/callback"}, capturedClient.RedirectURIs)
		assert.Equal(t, []string{domain.GrantTypeAuthorizationCode}, capturedClient.GrantTypes)
		assert.False(t, capturedClient.IsPublic)
		assert.True(t, capturedClient.IsActive)
		assert.True(t, capturedClient.IsSystemClient)
		require.NotNil(t, capturedClient.SystemRole)
		assert.Equal(t, domain.SystemRoleBFF, *capturedClient.SystemRole)
		assert.Nil(t, capturedClient.UserID)
		assert.WithinDuration(t, time.Now().UTC(), capturedClient.CreatedAt, 5*time.Second)

		clientRepo.AssertExpectations(t)
		secretService.AssertExpectations(t)
	})

	t.Run("Success_ExistingClientMatchingSecret", func(t *testing.T) {
		// Setup mocks
		clientRepo := &mockClientRepository{}
		secretService := &mockSecretService{}

		config := testBootstrapConfig()
		useCase := newTestBootstrapUseCase(config, clientRepo, secretService)

		role := domain.SystemRoleBFF
		existing := &domain.Client{
			ID:             uuid.Must(uuid.NewV7()),
			ClientID:       "bff-client",
			ClientSecret:   testSecretHash,
			IsActive:       true,
			IsSystemClient: true,
			SystemRole:     &role,
		}

		// Setup expectations, nothing is created on the second boot
		clientRepo.On("GetByClientID", ctx, "bff-client").Return(existing, nil).Once()
		secretService.On("CompareSecret", testPlainSecret, testSecretHash).Return(true).Once()

		// Execute
		err := useCase.EnsureSystemClient(ctx)

		// Assert
		require.NoError(t, err)
		clientRepo.AssertExpectations(t)
		secretService.AssertExpectations(t)
	})

	t.Run("Success_ExistingClientSecretMismatchOnlyWarns", func(t *testing.T) {
		// Setup mocks
		clientRepo := &mockClientRepository{}
		secretService := &mockSecretService{}

		config := testBootstrapConfig()
		useCase := newTestBootstrapUseCase(config, clientRepo, secretService)

		existing := &domain.Client{
			ID:           uuid.Must(uuid.NewV7()),
			ClientID:     "bff-client",
			ClientSecret: testSecretHash,
			IsActive:     true,
		}

		// Setup expectations
		clientRepo.On("GetByClientID", ctx, "bff-client").Return(existing, nil).Once()
		secretService.On("CompareSecret", testPlainSecret, testSecretHash).Return(false).Once()

		// Execute
		err := useCase.EnsureSystemClient(ctx)

		// Assert
		require.NoError(t, err)
		clientRepo.AssertExpectations(t)
		secretService.AssertExpectations(t)
	})

	t.Run("Failure_SecretTooShort", func(t *testing.T) {
		// Setup mocks
		clientRepo := &mockClientRepository{}
		secretService := &mockSecretService{}

		config := testBootstrapConfig()
		config.ClientSecret = "short-secret" //nolint:gosec // test fixture, not a real credential
		useCase := newTestBootstrapUseCase(config, clientRepo, secretService)

		// Execute
		err := useCase.EnsureSystemClient(ctx)

		// Assert
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.ErrorContains(t, err, "at least 32 characters")
		clientRepo.AssertExpectations(t)
		secretService.AssertExpectations(t)
	})

	t.Run("Failure_MissingRedirectURIs", func(t *testing.T) {
		// Setup mocks
		clientRepo := &mockClientRepository{}
		secretService := &mockSecretService{}

		config := testBootstrapConfig()
		config.RedirectURIs = nil
		useCase := newTestBootstrapUseCase(config, clientRepo, secretService)

		// Execute
		err := useCase.EnsureSystemClient(ctx)

		// Assert
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		clientRepo.AssertExpectations(t)
		secretService.AssertExpectations(t)
	})
}
