package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	databaseMocks "github.com/allisson/authd/internal/database/mocks"
	apperrors "github.com/allisson/authd/internal/errors"
	outboxDomain "github.com/allisson/authd/internal/outbox/domain"
	sessionDomain "github.com/allisson/authd/internal/session/domain"
	"github.com/allisson/authd/internal/user/domain"
)

// mockUserRepository is a mock implementation of UserRepository for testing.
type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// mockOutboxEventRepository is a mock implementation of OutboxEventRepository for testing.
type mockOutboxEventRepository struct {
	mock.Mock
}

func (m *mockOutboxEventRepository) Create(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// mockSessionManager is a mock implementation of SessionManager for testing.
type mockSessionManager struct {
	mock.Mock
}

func (m *mockSessionManager) Issue(
	ctx context.Context,
	userID uuid.UUID,
	expiresIn time.Duration,
) (*sessionDomain.Session, error) {
	args := m.Called(ctx, userID, expiresIn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessionDomain.Session), args.Error(1)
}

func (m *mockSessionManager) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// mockPasswordService is a mock implementation of service.PasswordService for testing.
type mockPasswordService struct {
	mock.Mock
}

func (m *mockPasswordService) Hash(plainPassword string) (string, error) {
	args := m.Called(plainPassword)
	return args.String(0), args.Error(1)
}

func (m *mockPasswordService) Verify(plainPassword, hashedPassword string) bool {
	args := m.Called(plainPassword, hashedPassword)
	return args.Bool(0)
}

const (
	testSessionTTL    = 24 * time.Hour
	testRememberTTL   = 168 * time.Hour
	testPasswordHash  = "$2a$10$test-hash" //nolint:gosec // test fixture, not a real credential
	testValidPassword = "SecurePass123!"   //nolint:gosec // test fixture, not a real credential
)

func newTestUseCase(
	txManager *databaseMocks.MockTxManager,
	userRepo *mockUserRepository,
	outboxRepo *mockOutboxEventRepository,
	sessionManager *mockSessionManager,
	passwordService *mockPasswordService,
) UserUseCase {
	return NewUserUseCase(txManager, userRepo, outboxRepo, sessionManager, passwordService, testSessionTTL, testRememberTTL)
}

func TestUserUseCase_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RegularAccount", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		input := &domain.RegisterUserInput{
			Email:    "  Alice@Example.COM ",
			Username: "alice",
			Password: testValidPassword,
			FullName: "Alice Smith",
		}

		// Setup expectations
		mockPasswords.On("Hash", testValidPassword).Return(testPasswordHash, nil).Once()
		mockUserRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil).Once()

		var capturedEvent *outboxDomain.OutboxEvent
		mockOutboxRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.OutboxEvent")).
			Run(func(args mock.Arguments) {
				capturedEvent = args.Get(1).(*outboxDomain.OutboxEvent)
			}).
			Return(nil).
			Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		user, err := uc.Register(ctx, input)

		// Assert
		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "alice", *user.Username)
		assert.Equal(t, "Alice Smith", *user.FullName)
		assert.Equal(t, testPasswordHash, user.PasswordHash)
		assert.True(t, user.IsActive)
		assert.False(t, user.EmailVerified)
		assert.False(t, user.IsDeveloper)
		assert.Nil(t, user.DeveloperEnabledAt)
		assert.True(t, user.CanUseExpenses)
		assert.NotNil(t, user.ExpensesEnabledAt)
		assert.Equal(t, domain.AccountTypeUser, user.AccountType())

		assert.NotNil(t, capturedEvent)
		assert.Equal(t, "user.registered", capturedEvent.EventType)
		assert.Equal(t, outboxDomain.OutboxEventStatusPending, capturedEvent.Status)

		var payload map[string]interface{}
		assert.NoError(t, json.Unmarshal([]byte(capturedEvent.Payload), &payload))
		assert.Equal(t, "alice@example.com", payload["email"])
		assert.Equal(t, string(domain.AccountTypeUser), payload["account_type"])

		mockPasswords.AssertExpectations(t)
		mockUserRepo.AssertExpectations(t)
		mockOutboxRepo.AssertExpectations(t)
	})

	t.Run("Success_DeveloperAccount", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		input := &domain.RegisterUserInput{
			Email:       "dev@example.com",
			Password:    testValidPassword,
			AccountType: domain.AccountTypeDeveloper,
		}

		// Setup expectations
		mockPasswords.On("Hash", testValidPassword).Return(testPasswordHash, nil).Once()
		mockUserRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil).Once()
		mockOutboxRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.OutboxEvent")).Return(nil).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		user, err := uc.Register(ctx, input)

		// Assert
		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.Nil(t, user.Username)
		assert.Nil(t, user.FullName)
		assert.True(t, user.IsDeveloper)
		assert.NotNil(t, user.DeveloperEnabledAt)
		assert.False(t, user.CanUseExpenses)
		assert.Nil(t, user.ExpensesEnabledAt)
		assert.Equal(t, domain.AccountTypeDeveloper, user.AccountType())

		mockUserRepo.AssertExpectations(t)
		mockOutboxRepo.AssertExpectations(t)
	})

	t.Run("Failure_InvalidInput", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		input := &domain.RegisterUserInput{
			Email:    "not-an-email",
			Password: "weak",
		}

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		user, err := uc.Register(ctx, input)

		// Assert
		assert.Nil(t, user)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		var validationErr *apperrors.ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.NotEmpty(t, validationErr.Fields)

		mockUserRepo.AssertExpectations(t)
	})

	t.Run("Failure_InvalidAccountType", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		input := &domain.RegisterUserInput{
			Email:       "alice@example.com",
			Password:    testValidPassword,
			AccountType: domain.AccountType("admin"),
		}

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		user, err := uc.Register(ctx, input)

		// Assert
		assert.Nil(t, user)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Failure_DuplicateEmail", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		input := &domain.RegisterUserInput{
			Email:    "alice@example.com",
			Password: testValidPassword,
		}

		// Setup expectations
		mockPasswords.On("Hash", testValidPassword).Return(testPasswordHash, nil).Once()
		mockUserRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
			Return(domain.ErrEmailAlreadyExists).
			Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		user, err := uc.Register(ctx, input)

		// Assert
		assert.Nil(t, user)
		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		mockUserRepo.AssertExpectations(t)
	})

	t.Run("Failure_OutboxCreateFails", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		input := &domain.RegisterUserInput{
			Email:    "alice@example.com",
			Password: testValidPassword,
		}

		// Setup expectations
		mockPasswords.On("Hash", testValidPassword).Return(testPasswordHash, nil).Once()
		mockUserRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil).Once()
		mockOutboxRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.OutboxEvent")).
			Return(errors.New("outbox error")).
			Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		user, err := uc.Register(ctx, input)

		// Assert
		assert.Nil(t, user)
		assert.ErrorContains(t, err, "failed to create outbox event")
		mockOutboxRepo.AssertExpectations(t)
	})
}

func TestUserUseCase_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ByEmail", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())
		user := &domain.User{
			ID:           userID,
			Email:        "alice@example.com",
			PasswordHash: testPasswordHash,
			IsActive:     true,
		}
		expiresAt := time.Now().UTC().Add(testSessionTTL)
		session := &sessionDomain.Session{
			ID:        "session-digest",
			Token:     "session-token",
			UserID:    userID,
			ExpiresAt: expiresAt,
		}

		// Setup expectations
		mockUserRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()
		mockPasswords.On("Verify", testValidPassword, testPasswordHash).Return(true).Once()
		mockSessions.On("Issue", mock.Anything, userID, testSessionTTL).Return(session, nil).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		output, err := uc.Authenticate(ctx, &domain.AuthenticateUserInput{
			EmailOrUsername: "Alice@Example.com",
			Password:        testValidPassword,
		})

		// Assert
		assert.NoError(t, err)
		assert.NotNil(t, output)
		// The cookie carries the raw token, never the stored digest
		assert.Equal(t, "session-token", output.SessionID)
		assert.Equal(t, userID, output.User.ID)
		assert.Equal(t, expiresAt, output.ExpiresAt)
		mockUserRepo.AssertExpectations(t)
		mockSessions.AssertExpectations(t)
	})

	t.Run("Success_ByUsername", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())
		username := "alice"
		user := &domain.User{
			ID:           userID,
			Email:        "alice@example.com",
			Username:     &username,
			PasswordHash: testPasswordHash,
			IsActive:     true,
		}
		session := &sessionDomain.Session{ID: "session-digest", Token: "session-token", UserID: userID}

		// Setup expectations
		mockUserRepo.On("GetByEmail", mock.Anything, "alice").Return(nil, domain.ErrUserNotFound).Once()
		mockUserRepo.On("GetByUsername", mock.Anything, "alice").Return(user, nil).Once()
		mockPasswords.On("Verify", testValidPassword, testPasswordHash).Return(true).Once()
		mockSessions.On("Issue", mock.Anything, userID, testSessionTTL).Return(session, nil).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		output, err := uc.Authenticate(ctx, &domain.AuthenticateUserInput{
			EmailOrUsername: "alice",
			Password:        testValidPassword,
		})

		// Assert
		assert.NoError(t, err)
		assert.NotNil(t, output)
		mockUserRepo.AssertExpectations(t)
	})

	t.Run("Success_RememberMeExtendsSession", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())
		user := &domain.User{
			ID:           userID,
			Email:        "alice@example.com",
			PasswordHash: testPasswordHash,
			IsActive:     true,
		}
		session := &sessionDomain.Session{ID: "session-digest", Token: "session-token", UserID: userID}

		// Setup expectations
		mockUserRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()
		mockPasswords.On("Verify", testValidPassword, testPasswordHash).Return(true).Once()
		mockSessions.On("Issue", mock.Anything, userID, testRememberTTL).Return(session, nil).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		output, err := uc.Authenticate(ctx, &domain.AuthenticateUserInput{
			EmailOrUsername: "alice@example.com",
			Password:        testValidPassword,
			RememberMe:      true,
		})

		// Assert
		assert.NoError(t, err)
		assert.NotNil(t, output)
		mockSessions.AssertExpectations(t)
	})

	t.Run("Failure_UnknownAccount", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		// Setup expectations
		mockUserRepo.On("GetByEmail", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound).Once()
		mockUserRepo.On("GetByUsername", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		output, err := uc.Authenticate(ctx, &domain.AuthenticateUserInput{
			EmailOrUsername: "ghost",
			Password:        testValidPassword,
		})

		// Assert
		assert.Nil(t, output)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		mockUserRepo.AssertExpectations(t)
	})

	t.Run("Failure_WrongPassword", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		user := &domain.User{
			ID:           uuid.Must(uuid.NewV7()),
			Email:        "alice@example.com",
			PasswordHash: testPasswordHash,
			IsActive:     true,
		}

		// Setup expectations
		mockUserRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()
		mockPasswords.On("Verify", "WrongPass123!", testPasswordHash).Return(false).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		output, err := uc.Authenticate(ctx, &domain.AuthenticateUserInput{
			EmailOrUsername: "alice@example.com",
			Password:        "WrongPass123!",
		})

		// Assert
		assert.Nil(t, output)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Failure_InactiveAccount", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		user := &domain.User{
			ID:           uuid.Must(uuid.NewV7()),
			Email:        "alice@example.com",
			PasswordHash: testPasswordHash,
			IsActive:     false,
		}

		// Setup expectations, password verification must not run for inactive accounts
		mockUserRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		output, err := uc.Authenticate(ctx, &domain.AuthenticateUserInput{
			EmailOrUsername: "alice@example.com",
			Password:        testValidPassword,
		})

		// Assert
		assert.Nil(t, output)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		mockPasswords.AssertExpectations(t)
	})
}

func TestUserUseCase_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_UpdateBothFields", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())
		user := &domain.User{ID: userID, Email: "alice@example.com", IsActive: true}

		newName := "Alice Cooper"
		newUsername := "alice_cooper"

		// Setup expectations
		mockUserRepo.On("GetByID", mock.Anything, userID).Return(user, nil).Once()
		mockUserRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return *u.FullName == newName && *u.Username == newUsername
		})).Return(nil).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		updated, err := uc.UpdateProfile(ctx, userID, &domain.UpdateProfileInput{
			FullName: &newName,
			Username: &newUsername,
		})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, newName, *updated.FullName)
		assert.Equal(t, newUsername, *updated.Username)
		mockUserRepo.AssertExpectations(t)
	})

	t.Run("Success_PartialUpdateKeepsOtherFields", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())
		username := "alice"
		user := &domain.User{ID: userID, Email: "alice@example.com", Username: &username, IsActive: true}

		newName := "Alice Cooper"

		// Setup expectations
		mockUserRepo.On("GetByID", mock.Anything, userID).Return(user, nil).Once()
		mockUserRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		updated, err := uc.UpdateProfile(ctx, userID, &domain.UpdateProfileInput{FullName: &newName})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, newName, *updated.FullName)
		assert.Equal(t, "alice", *updated.Username)
		mockUserRepo.AssertExpectations(t)
	})

	t.Run("Failure_UsernameTaken", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())
		user := &domain.User{ID: userID, Email: "alice@example.com", IsActive: true}
		newUsername := "taken"

		// Setup expectations
		mockUserRepo.On("GetByID", mock.Anything, userID).Return(user, nil).Once()
		mockUserRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.User")).
			Return(domain.ErrUsernameAlreadyExists).
			Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		updated, err := uc.UpdateProfile(ctx, userID, &domain.UpdateProfileInput{Username: &newUsername})

		// Assert
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, domain.ErrUsernameAlreadyExists)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("Failure_InvalidUsername", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		badUsername := "ab"

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		updated, err := uc.UpdateProfile(ctx, uuid.Must(uuid.NewV7()), &domain.UpdateProfileInput{
			Username: &badUsername,
		})

		// Assert
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		mockUserRepo.AssertExpectations(t)
	})
}

func TestUserUseCase_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_WithSessionRevocation", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())
		user := &domain.User{ID: userID, Email: "alice@example.com", PasswordHash: testPasswordHash, IsActive: true}
		newPassword := "NewSecurePass456!"
		newHash := "$2a$10$new-hash" //nolint:gosec // test fixture, not a real credential

		// Setup expectations
		mockUserRepo.On("GetByID", mock.Anything, userID).Return(user, nil).Once()
		mockPasswords.On("Verify", testValidPassword, testPasswordHash).Return(true).Once()
		mockPasswords.On("Hash", newPassword).Return(newHash, nil).Once()
		mockUserRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.PasswordHash == newHash
		})).Return(nil).Once()
		mockSessions.On("DeleteByUser", mock.Anything, userID).Return(nil).Once()

		var capturedEvent *outboxDomain.OutboxEvent
		mockOutboxRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.OutboxEvent")).
			Run(func(args mock.Arguments) {
				capturedEvent = args.Get(1).(*outboxDomain.OutboxEvent)
			}).
			Return(nil).
			Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		err := uc.ChangePassword(ctx, userID, &domain.ChangePasswordInput{
			CurrentPassword:   testValidPassword,
			NewPassword:       newPassword,
			RevokeAllSessions: true,
		})

		// Assert
		assert.NoError(t, err)
		assert.NotNil(t, capturedEvent)
		assert.Equal(t, "user.password_changed", capturedEvent.EventType)

		var payload map[string]interface{}
		assert.NoError(t, json.Unmarshal([]byte(capturedEvent.Payload), &payload))
		assert.Equal(t, true, payload["sessions_revoked"])

		mockUserRepo.AssertExpectations(t)
		mockSessions.AssertExpectations(t)
		mockOutboxRepo.AssertExpectations(t)
	})

	t.Run("Success_WithoutSessionRevocation", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())
		user := &domain.User{ID: userID, Email: "alice@example.com", PasswordHash: testPasswordHash, IsActive: true}
		newPassword := "NewSecurePass456!"

		// Setup expectations, DeleteByUser must not be called
		mockUserRepo.On("GetByID", mock.Anything, userID).Return(user, nil).Once()
		mockPasswords.On("Verify", testValidPassword, testPasswordHash).Return(true).Once()
		mockPasswords.On("Hash", newPassword).Return("$2a$10$new-hash", nil).Once()
		mockUserRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil).Once()
		mockOutboxRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.OutboxEvent")).Return(nil).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		err := uc.ChangePassword(ctx, userID, &domain.ChangePasswordInput{
			CurrentPassword: testValidPassword,
			NewPassword:     newPassword,
		})

		// Assert
		assert.NoError(t, err)
		mockSessions.AssertExpectations(t)
		mockUserRepo.AssertExpectations(t)
	})

	t.Run("Failure_WrongCurrentPassword", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())
		user := &domain.User{ID: userID, Email: "alice@example.com", PasswordHash: testPasswordHash, IsActive: true}

		// Setup expectations
		mockUserRepo.On("GetByID", mock.Anything, userID).Return(user, nil).Once()
		mockPasswords.On("Verify", "WrongPass123!", testPasswordHash).Return(false).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		err := uc.ChangePassword(ctx, userID, &domain.ChangePasswordInput{
			CurrentPassword: "WrongPass123!",
			NewPassword:     "NewSecurePass456!",
		})

		// Assert
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Failure_SamePassword", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())
		user := &domain.User{ID: userID, Email: "alice@example.com", PasswordHash: testPasswordHash, IsActive: true}

		// Setup expectations
		mockUserRepo.On("GetByID", mock.Anything, userID).Return(user, nil).Once()
		mockPasswords.On("Verify", testValidPassword, testPasswordHash).Return(true).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		err := uc.ChangePassword(ctx, userID, &domain.ChangePasswordInput{
			CurrentPassword: testValidPassword,
			NewPassword:     testValidPassword,
		})

		// Assert
		assert.ErrorIs(t, err, domain.ErrSamePassword)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Failure_WeakNewPassword", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		err := uc.ChangePassword(ctx, uuid.Must(uuid.NewV7()), &domain.ChangePasswordInput{
			CurrentPassword: testValidPassword,
			NewPassword:     "alllowercase",
		})

		// Assert
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		mockUserRepo.AssertExpectations(t)
	})
}

func TestUserUseCase_UpgradeToDeveloper(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_EnablesDeveloperAccess", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())
		now := time.Now().UTC()
		user := &domain.User{
			ID:                userID,
			Email:             "alice@example.com",
			IsActive:          true,
			CanUseExpenses:    true,
			ExpensesEnabledAt: &now,
		}

		// Setup expectations
		mockUserRepo.On("GetByID", mock.Anything, userID).Return(user, nil).Once()
		mockUserRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.IsDeveloper && u.DeveloperEnabledAt != nil
		})).Return(nil).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		updated, err := uc.UpgradeToDeveloper(ctx, userID)

		// Assert
		assert.NoError(t, err)
		assert.True(t, updated.IsDeveloper)
		assert.Equal(t, domain.AccountTypeHybrid, updated.AccountType())
		mockUserRepo.AssertExpectations(t)
	})

	t.Run("Failure_AlreadyDeveloper", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())
		user := &domain.User{ID: userID, Email: "dev@example.com", IsActive: true, IsDeveloper: true}

		// Setup expectations
		mockUserRepo.On("GetByID", mock.Anything, userID).Return(user, nil).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		updated, err := uc.UpgradeToDeveloper(ctx, userID)

		// Assert
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, domain.ErrInvalidUser)
		mockUserRepo.AssertExpectations(t)
	})

	t.Run("Failure_UserNotFound", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())

		// Setup expectations
		mockUserRepo.On("GetByID", mock.Anything, userID).Return(nil, domain.ErrUserNotFound).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		updated, err := uc.UpgradeToDeveloper(ctx, userID)

		// Assert
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestUserUseCase_EnableExpenses(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_EnablesExpenses", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())
		now := time.Now().UTC()
		user := &domain.User{
			ID:                 userID,
			Email:              "dev@example.com",
			IsActive:           true,
			IsDeveloper:        true,
			DeveloperEnabledAt: &now,
		}

		// Setup expectations
		mockUserRepo.On("GetByID", mock.Anything, userID).Return(user, nil).Once()
		mockUserRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.CanUseExpenses && u.ExpensesEnabledAt != nil
		})).Return(nil).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		updated, err := uc.EnableExpenses(ctx, userID)

		// Assert
		assert.NoError(t, err)
		assert.True(t, updated.CanUseExpenses)
		assert.Equal(t, domain.AccountTypeHybrid, updated.AccountType())
		mockUserRepo.AssertExpectations(t)
	})

	t.Run("Failure_AlreadyEnabled", func(t *testing.T) {
		// Setup mocks
		mockTxManager := databaseMocks.NewMockTxManager(t)
		mockUserRepo := &mockUserRepository{}
		mockOutboxRepo := &mockOutboxEventRepository{}
		mockSessions := &mockSessionManager{}
		mockPasswords := &mockPasswordService{}

		userID := uuid.Must(uuid.NewV7())
		user := &domain.User{ID: userID, Email: "alice@example.com", IsActive: true, CanUseExpenses: true}

		// Setup expectations
		mockUserRepo.On("GetByID", mock.Anything, userID).Return(user, nil).Once()

		// Execute
		uc := newTestUseCase(mockTxManager, mockUserRepo, mockOutboxRepo, mockSessions, mockPasswords)
		updated, err := uc.EnableExpenses(ctx, userID)

		// Assert
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, domain.ErrInvalidUser)
		mockUserRepo.AssertExpectations(t)
	})
}
