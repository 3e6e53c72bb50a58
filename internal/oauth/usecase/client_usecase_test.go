package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/authd/internal/crypto/domain"
	databaseMocks "github.com/allisson/authd/internal/database/mocks"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/oauth/domain"
	outboxDomain "github.com/allisson/authd/internal/outbox/domain"
)

// mockClientRepository is a mock implementation of ClientRepository for testing.
type mockClientRepository struct {
	mock.Mock
}

func (m *mockClientRepository) Create(ctx context.Context, client *domain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *mockClientRepository) Update(ctx context.Context, client *domain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *mockClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *mockClientRepository) GetByClientID(ctx context.Context, clientID string) (*domain.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *mockClientRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*domain.Client, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Client), args.Error(1)
}

func (m *mockClientRepository) GetSystemClient(ctx context.Context, systemRole string) (*domain.Client, error) {
	args := m.Called(ctx, systemRole)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

// mockCodeRepository is a mock implementation of CodeRepository for testing.
type mockCodeRepository struct {
	mock.Mock
}

func (m *mockCodeRepository) Create(ctx context.Context, code *domain.AuthorizationCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *mockCodeRepository) GetByCode(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizationCode), args.Error(1)
}

func (m *mockCodeRepository) MarkUsed(ctx context.Context, code string, usedAt time.Time) (bool, error) {
	args := m.Called(ctx, code, usedAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockCodeRepository) DeleteStale(ctx context.Context, now, createdBefore time.Time) (int64, error) {
	args := m.Called(ctx, now, createdBefore)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCodeRepository) CountStale(ctx context.Context, now, createdBefore time.Time) (int64, error) {
	args := m.Called(ctx, now, createdBefore)
	return args.Get(0).(int64), args.Error(1)
}

// mockConsentRepository is a mock implementation of ConsentRepository for testing.
type mockConsentRepository struct {
	mock.Mock
}

func (m *mockConsentRepository) Create(ctx context.Context, consent *domain.Consent) error {
	args := m.Called(ctx, consent)
	return args.Error(0)
}

func (m *mockConsentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Consent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Consent), args.Error(1)
}

func (m *mockConsentRepository) GetActive(
	ctx context.Context,
	userID uuid.UUID,
	clientID string,
) (*domain.Consent, error) {
	args := m.Called(ctx, userID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Consent), args.Error(1)
}

func (m *mockConsentRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Consent, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Consent), args.Error(1)
}

func (m *mockConsentRepository) Revoke(ctx context.Context, id uuid.UUID, revokedAt time.Time) error {
	args := m.Called(ctx, id, revokedAt)
	return args.Error(0)
}

// mockScopeRepository is a mock implementation of ScopeRepository for testing.
type mockScopeRepository struct {
	mock.Mock
}

func (m *mockScopeRepository) Create(ctx context.Context, scope *domain.ScopeDefinition) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

func (m *mockScopeRepository) GetByName(ctx context.Context, name string) (*domain.ScopeDefinition, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScopeDefinition), args.Error(1)
}

func (m *mockScopeRepository) List(ctx context.Context) ([]*domain.ScopeDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScopeDefinition), args.Error(1)
}

func (m *mockScopeRepository) ListDefaults(ctx context.Context) ([]*domain.ScopeDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScopeDefinition), args.Error(1)
}

// mockOutboxEventRepository is a mock implementation of OutboxEventRepository for testing.
type mockOutboxEventRepository struct {
	mock.Mock
}

func (m *mockOutboxEventRepository) Create(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// mockSecretService is a mock implementation of service.SecretService for testing.
type mockSecretService struct {
	mock.Mock
}

func (m *mockSecretService) GenerateSecret() (string, string, error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockSecretService) HashSecret(plainSecret string) (string, error) {
	args := m.Called(plainSecret)
	return args.String(0), args.Error(1)
}

func (m *mockSecretService) CompareSecret(plainSecret, hashedSecret string) bool {
	args := m.Called(plainSecret, hashedSecret)
	return args.Bool(0)
}

// mockCodeService is a mock implementation of service.CodeService for testing.
type mockCodeService struct {
	mock.Mock
}

func (m *mockCodeService) GenerateCode() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// mockPKCEService is a mock implementation of service.PKCEService for testing.
type mockPKCEService struct {
	mock.Mock
}

func (m *mockPKCEService) VerifyChallenge(verifier, challenge, method string) bool {
	args := m.Called(verifier, challenge, method)
	return args.Bool(0)
}

func (m *mockPKCEService) ChallengeS256(verifier string) string {
	args := m.Called(verifier)
	return args.String(0)
}

// mockTokenSigner is a mock implementation of TokenSigner for testing.
type mockTokenSigner struct {
	mock.Mock
}

func (m *mockTokenSigner) Sign(input *cryptoDomain.SignTokenInput) (string, error) {
	args := m.Called(input)
	return args.String(0), args.Error(1)
}

// mockUserDirectory is a mock implementation of UserDirectory for testing.
type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) GetEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

// mockSessionCleaner is a mock implementation of SessionCleaner for testing.
type mockSessionCleaner struct {
	mock.Mock
}

func (m *mockSessionCleaner) Cleanup(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

const (
	testRotationGrace = 24 * time.Hour
	testSecretHash    = "$argon2id$v=19$m=65536,t=3,p=4$test-hash" //nolint:gosec // test fixture, not a real credential
	testPlainSecret   = "plaintext-secret-0123456789abcdef"        //nolint:gosec // test fixture, not a real credential
)

// newOwnedClient builds an active confidential client owned by ownerID.
func newOwnedClient(ownerID uuid.UUID) *domain.Client {
	now := time.Now().UTC()
	owner := ownerID
	return &domain.Client{
		ID:           uuid.Must(uuid.NewV7()),
		ClientID:     uuid.Must(uuid.NewV7()).String(),
		ClientSecret: testSecretHash,
		ClientName:   "Test App",
		RedirectURIs: []string{"https://app.example.com/callback"},
		GrantTypes:   []string{domain.GrantTypeAuthorizationCode},
		IsActive:     true,
		UserID:       &owner,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newTestClientUseCase(
	txManager *databaseMocks.MockTxManager,
	clientRepo *mockClientRepository,
	outboxRepo *mockOutboxEventRepository,
	secretService *mockSecretService,
) ClientUseCase {
	return NewClientUseCase(txManager, clientRepo, outboxRepo, secretService, testRotationGrace)
}

func TestClientUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ConfidentialClient", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		ownerID := uuid.Must(uuid.NewV7())
		input := &domain.CreateClientInput{
			ClientName:   "My Web App",
			RedirectURIs: []string{"https://app.example.com/callback", "https://app.example.com/alt"},
			GrantTypes:   []string{domain.GrantTypeAuthorizationCode},
			UserID:       ownerID,
		}

		// Setup expectations
		mockSecrets.On("GenerateSecret").Return(testPlainSecret, testSecretHash, nil).Once()
		mockClientRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Client")).Return(nil).Once()

		var capturedEvent *outboxDomain.OutboxEvent
		mockOutboxRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.OutboxEvent")).
			Run(func(args mock.Arguments) {
				capturedEvent = args.Get(1).(*outboxDomain.OutboxEvent)
			}).
			Return(nil).
			Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		output, err := uc.Create(ctx, input)

		// Assert
		assert.NoError(t, err)
		assert.NotNil(t, output)
		assert.Equal(t, testPlainSecret, output.PlaintextSecret)
		assert.Equal(t, testSecretHash, output.Client.ClientSecret)
		assert.Equal(t, "My Web App", output.Client.ClientName)
		assert.Len(t, output.Client.RedirectURIs, 2)
		assert.True(t, output.Client.IsActive)
		assert.False(t, output.Client.IsPublic)
		assert.False(t, output.Client.IsSystemClient)
		assert.Equal(t, ownerID, *output.Client.UserID)

		// client_id is an opaque uuid, distinct from the internal id
		_, parseErr := uuid.Parse(output.Client.ClientID)
		assert.NoError(t, parseErr)
		assert.NotEqual(t, output.Client.ID.String(), output.Client.ClientID)

		assert.NotNil(t, capturedEvent)
		assert.Equal(t, "client.created", capturedEvent.EventType)

		var payload map[string]interface{}
		assert.NoError(t, json.Unmarshal([]byte(capturedEvent.Payload), &payload))
		assert.Equal(t, output.Client.ClientID, payload["client_id"])

		mockClientRepo.AssertExpectations(t)
		mockOutboxRepo.AssertExpectations(t)
		mockSecrets.AssertExpectations(t)
	})

	t.Run("Failure_RelativeRedirectURI", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		input := &domain.CreateClientInput{
			ClientName:   "My Web App",
			RedirectURIs: []string{"/callback"},
			GrantTypes:   []string{domain.GrantTypeAuthorizationCode},
			UserID:       uuid.Must(uuid.NewV7()),
		}

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		output, err := uc.Create(ctx, input)

		// Assert
		assert.Nil(t, output)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Failure_UnknownGrantType", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		input := &domain.CreateClientInput{
			ClientName:   "My Web App",
			RedirectURIs: []string{"https://app.example.com/callback"},
			GrantTypes:   []string{"password"},
			UserID:       uuid.Must(uuid.NewV7()),
		}

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		output, err := uc.Create(ctx, input)

		// Assert
		assert.Nil(t, output)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Failure_MissingRedirectURIs", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		input := &domain.CreateClientInput{
			ClientName: "My Web App",
			GrantTypes: []string{domain.GrantTypeAuthorizationCode},
			UserID:     uuid.Must(uuid.NewV7()),
		}

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		output, err := uc.Create(ctx, input)

		// Assert
		assert.Nil(t, output)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		var validationErr *apperrors.ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.NotEmpty(t, validationErr.Fields)
	})
}

func TestClientUseCase_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_Owner", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		ownerID := uuid.Must(uuid.NewV7())
		client := newOwnedClient(ownerID)

		// Setup expectations
		mockClientRepo.On("GetByID", mock.Anything, client.ID).Return(client, nil).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		got, err := uc.GetByID(ctx, client.ID, ownerID)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, client.ID, got.ID)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Failure_ForeignClient", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		client := newOwnedClient(uuid.Must(uuid.NewV7()))

		// Setup expectations
		mockClientRepo.On("GetByID", mock.Anything, client.ID).Return(client, nil).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		got, err := uc.GetByID(ctx, client.ID, uuid.Must(uuid.NewV7()))

		// Assert
		assert.Nil(t, got)
		assert.ErrorIs(t, err, domain.ErrClientForbidden)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("Failure_SystemClientHidden", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		role := domain.SystemRoleBFF
		client := newOwnedClient(uuid.Must(uuid.NewV7()))
		client.IsSystemClient = true
		client.SystemRole = &role
		client.UserID = nil

		// Setup expectations
		mockClientRepo.On("GetByID", mock.Anything, client.ID).Return(client, nil).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		got, err := uc.GetByID(ctx, client.ID, uuid.Must(uuid.NewV7()))

		// Assert
		assert.Nil(t, got)
		assert.ErrorIs(t, err, domain.ErrClientNotFound)
	})

	t.Run("Failure_NotFound", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		id := uuid.Must(uuid.NewV7())

		// Setup expectations
		mockClientRepo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrClientNotFound).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		got, err := uc.GetByID(ctx, id, uuid.Must(uuid.NewV7()))

		// Assert
		assert.Nil(t, got)
		assert.ErrorIs(t, err, domain.ErrClientNotFound)
	})
}

func TestClientUseCase_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_PartialUpdateKeepsOtherFields", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		ownerID := uuid.Must(uuid.NewV7())
		client := newOwnedClient(ownerID)
		originalURIs := client.RedirectURIs
		newName := "Renamed App"

		// Setup expectations
		mockClientRepo.On("GetByID", mock.Anything, client.ID).Return(client, nil).Once()
		mockClientRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *domain.Client) bool {
			return c.ClientName == newName
		})).Return(nil).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		updated, err := uc.Update(ctx, client.ID, ownerID, &domain.UpdateClientInput{ClientName: &newName})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, newName, updated.ClientName)
		assert.Equal(t, originalURIs, updated.RedirectURIs)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Success_TogglePublicFlag", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		ownerID := uuid.Must(uuid.NewV7())
		client := newOwnedClient(ownerID)
		isPublic := true

		// Setup expectations
		mockClientRepo.On("GetByID", mock.Anything, client.ID).Return(client, nil).Once()
		mockClientRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *domain.Client) bool {
			return c.IsPublic
		})).Return(nil).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		updated, err := uc.Update(ctx, client.ID, ownerID, &domain.UpdateClientInput{IsPublic: &isPublic})

		// Assert
		assert.NoError(t, err)
		assert.True(t, updated.IsPublic)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Failure_InvalidRedirectURI", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		updated, err := uc.Update(ctx, uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7()), &domain.UpdateClientInput{
			RedirectURIs: []string{"not a uri at all\n"},
		})

		// Assert
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Failure_ForeignClient", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		client := newOwnedClient(uuid.Must(uuid.NewV7()))
		newName := "Hijacked"

		// Setup expectations
		mockClientRepo.On("GetByID", mock.Anything, client.ID).Return(client, nil).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		updated, err := uc.Update(ctx, client.ID, uuid.Must(uuid.NewV7()), &domain.UpdateClientInput{
			ClientName: &newName,
		})

		// Assert
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, domain.ErrClientForbidden)
		mockClientRepo.AssertExpectations(t)
	})
}

func TestClientUseCase_SoftDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_DeactivatesClient", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		ownerID := uuid.Must(uuid.NewV7())
		client := newOwnedClient(ownerID)

		// Setup expectations
		mockClientRepo.On("GetByID", mock.Anything, client.ID).Return(client, nil).Once()
		mockClientRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *domain.Client) bool {
			return !c.IsActive
		})).Return(nil).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		err := uc.SoftDelete(ctx, client.ID, ownerID)

		// Assert
		assert.NoError(t, err)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Success_AlreadyInactive", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		ownerID := uuid.Must(uuid.NewV7())
		client := newOwnedClient(ownerID)
		client.IsActive = false

		// Setup expectations, Update must not be called
		mockClientRepo.On("GetByID", mock.Anything, client.ID).Return(client, nil).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		err := uc.SoftDelete(ctx, client.ID, ownerID)

		// Assert
		assert.NoError(t, err)
		mockClientRepo.AssertExpectations(t)
	})

	t.Run("Failure_SystemClientProtected", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		role := domain.SystemRoleBFF
		client := newOwnedClient(uuid.Must(uuid.NewV7()))
		client.IsSystemClient = true
		client.SystemRole = &role
		client.UserID = nil

		// Setup expectations
		mockClientRepo.On("GetByID", mock.Anything, client.ID).Return(client, nil).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		err := uc.SoftDelete(ctx, client.ID, uuid.Must(uuid.NewV7()))

		// Assert
		assert.ErrorIs(t, err, domain.ErrClientNotFound)
		mockClientRepo.AssertExpectations(t)
	})
}

func TestClientUseCase_RotateSecret(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_KeepsOldSecretForGracePeriod", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		ownerID := uuid.Must(uuid.NewV7())
		client := newOwnedClient(ownerID)
		previousHash := client.ClientSecret
		newHash := "$argon2id$v=19$m=65536,t=3,p=4$new-hash" //nolint:gosec // test fixture, not a real credential
		newPlain := "new-plaintext-secret-0123456789ab"      //nolint:gosec // test fixture, not a real credential

		// Setup expectations
		mockClientRepo.On("GetByID", mock.Anything, client.ID).Return(client, nil).Once()
		mockSecrets.On("GenerateSecret").Return(newPlain, newHash, nil).Once()
		mockClientRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *domain.Client) bool {
			return c.ClientSecret == newHash &&
				c.ClientSecretOld != nil && *c.ClientSecretOld == previousHash &&
				c.SecretExpiresAt != nil
		})).Return(nil).Once()

		var capturedEvent *outboxDomain.OutboxEvent
		mockOutboxRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.OutboxEvent")).
			Run(func(args mock.Arguments) {
				capturedEvent = args.Get(1).(*outboxDomain.OutboxEvent)
			}).
			Return(nil).
			Once()

		// Execute
		before := time.Now().UTC()
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		output, err := uc.RotateSecret(ctx, client.ID, ownerID)
		after := time.Now().UTC()

		// Assert
		assert.NoError(t, err)
		assert.NotNil(t, output)
		assert.Equal(t, newPlain, output.PlaintextSecret)
		assert.Equal(t, newHash, output.Client.ClientSecret)
		assert.Equal(t, previousHash, *output.Client.ClientSecretOld)

		// Grace deadline lands in [before+grace, after+grace]
		assert.False(t, output.OldSecretExpiry.Before(before.Add(testRotationGrace)))
		assert.False(t, output.OldSecretExpiry.After(after.Add(testRotationGrace)))

		assert.NotNil(t, capturedEvent)
		assert.Equal(t, "client.secret_rotated", capturedEvent.EventType)

		mockClientRepo.AssertExpectations(t)
		mockOutboxRepo.AssertExpectations(t)
		mockSecrets.AssertExpectations(t)
	})

	t.Run("Failure_ForeignClient", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		client := newOwnedClient(uuid.Must(uuid.NewV7()))

		// Setup expectations
		mockClientRepo.On("GetByID", mock.Anything, client.ID).Return(client, nil).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		output, err := uc.RotateSecret(ctx, client.ID, uuid.Must(uuid.NewV7()))

		// Assert
		assert.Nil(t, output)
		assert.ErrorIs(t, err, domain.ErrClientForbidden)
		mockSecrets.AssertExpectations(t)
	})
}

func TestClientUseCase_VerifySecret(t *testing.T) {
	t.Run("Success_CurrentSecret", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		client := newOwnedClient(uuid.Must(uuid.NewV7()))

		// Setup expectations
		mockSecrets.On("CompareSecret", testPlainSecret, client.ClientSecret).Return(true).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		ok := uc.VerifySecret(client, testPlainSecret, time.Now().UTC())

		// Assert
		assert.True(t, ok)
		mockSecrets.AssertExpectations(t)
	})

	t.Run("Success_OldSecretWithinGrace", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		now := time.Now().UTC()
		oldHash := "$argon2id$v=19$m=65536,t=3,p=4$old-hash" //nolint:gosec // test fixture, not a real credential
		expiry := now.Add(time.Hour)

		client := newOwnedClient(uuid.Must(uuid.NewV7()))
		client.ClientSecretOld = &oldHash
		client.SecretExpiresAt = &expiry

		// Setup expectations
		mockSecrets.On("CompareSecret", testPlainSecret, client.ClientSecret).Return(false).Once()
		mockSecrets.On("CompareSecret", testPlainSecret, oldHash).Return(true).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		ok := uc.VerifySecret(client, testPlainSecret, now)

		// Assert
		assert.True(t, ok)
		mockSecrets.AssertExpectations(t)
	})

	t.Run("Failure_OldSecretAfterGrace", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		now := time.Now().UTC()
		oldHash := "$argon2id$v=19$m=65536,t=3,p=4$old-hash" //nolint:gosec // test fixture, not a real credential
		expiry := now.Add(-time.Second)

		client := newOwnedClient(uuid.Must(uuid.NewV7()))
		client.ClientSecretOld = &oldHash
		client.SecretExpiresAt = &expiry

		// Setup expectations, the old hash must not be compared after expiry
		mockSecrets.On("CompareSecret", testPlainSecret, client.ClientSecret).Return(false).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		ok := uc.VerifySecret(client, testPlainSecret, now)

		// Assert
		assert.False(t, ok)
		mockSecrets.AssertExpectations(t)
	})

	t.Run("Failure_NoOldSecret", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockClientRepo := &mockClientRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSecrets := &mockSecretService{}

		client := newOwnedClient(uuid.Must(uuid.NewV7()))

		// Setup expectations
		mockSecrets.On("CompareSecret", "wrong", client.ClientSecret).Return(false).Once()

		// Execute
		uc := newTestClientUseCase(mockTxManager, mockClientRepo, mockOutboxRepo, mockSecrets)
		ok := uc.VerifySecret(client, "wrong", time.Now().UTC())

		// Assert
		assert.False(t, ok)
		mockSecrets.AssertExpectations(t)
	})
}
