// Package usecase implements the user business logic and orchestrates account lifecycle operations.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
	outboxDomain "github.com/allisson/authd/internal/outbox/domain"
	"github.com/allisson/authd/internal/user/domain"
	userService "github.com/allisson/authd/internal/user/service"
	appValidation "github.com/allisson/authd/internal/validation"
)

// userUseCase implements UserUseCase for account registration and lifecycle management.
type userUseCase struct {
	txManager       database.TxManager
	userRepo        UserRepository
	outboxRepo      OutboxEventRepository
	sessionManager  SessionManager
	passwordService userService.PasswordService
	sessionTTL      time.Duration
	rememberMeTTL   time.Duration
}

func (u *userUseCase) validateRegisterInput(input *domain.RegisterUserInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&input.Username,
			appValidation.Username,
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			appValidation.PasswordStrength{
				MinLength:      8,
				MaxLength:      72,
				RequireUpper:   true,
				RequireLower:   true,
				RequireNumber:  true,
				RequireSpecial: true,
			},
		),
		validation.Field(&input.FullName,
			validation.Length(1, 255).Error("full name must be between 1 and 255 characters"),
		),
		validation.Field(&input.AccountType,
			validation.In(domain.AccountTypeUser, domain.AccountTypeDeveloper).
				Error("account type must be user or developer"),
		),
	)
	return appValidation.WrapValidationError(err)
}

func (u *userUseCase) validateAuthenticateInput(input *domain.AuthenticateUserInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.EmailOrUsername,
			validation.Required.Error("email or username is required"),
			appValidation.NotBlank,
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

func (u *userUseCase) validateUpdateProfileInput(input *domain.UpdateProfileInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.FullName,
			appValidation.NotBlank,
			validation.Length(1, 255).Error("full name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Username,
			appValidation.Username,
		),
	)
	return appValidation.WrapValidationError(err)
}

func (u *userUseCase) validateChangePasswordInput(input *domain.ChangePasswordInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.CurrentPassword,
			validation.Required.Error("current password is required"),
		),
		validation.Field(&input.NewPassword,
			validation.Required.Error("new password is required"),
			appValidation.PasswordStrength{
				MinLength:      8,
				MaxLength:      72,
				RequireUpper:   true,
				RequireLower:   true,
				RequireNumber:  true,
				RequireSpecial: true,
			},
		),
	)
	return appValidation.WrapValidationError(err)
}

// createEvent writes an outbox event inside the caller's transaction.
func (u *userUseCase) createEvent(ctx context.Context, eventType string, payload map[string]interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event payload")
	}

	now := time.Now().UTC()
	event := &outboxDomain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(payloadJSON),
		Status:    outboxDomain.OutboxEventStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.outboxRepo.Create(ctx, event); err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// Register creates a new user account.
// Feature flags are derived from the requested account type: regular accounts
// get the expenses feature, developer accounts get OAuth client registration.
// The user row and a user.registered outbox event commit in one transaction.
func (u *userUseCase) Register(ctx context.Context, input *domain.RegisterUserInput) (*domain.User, error) {
	if err := u.validateRegisterInput(input); err != nil {
		return nil, err
	}

	hashedPassword, err := u.passwordService.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Email:        strings.TrimSpace(strings.ToLower(input.Email)),
		PasswordHash: hashedPassword,
		Roles:        []string{},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if username := strings.TrimSpace(input.Username); username != "" {
		user.Username = &username
	}
	if fullName := strings.TrimSpace(input.FullName); fullName != "" {
		user.FullName = &fullName
	}

	// An unset account type defaults to a regular user account
	switch input.AccountType {
	case domain.AccountTypeDeveloper:
		user.IsDeveloper = true
		user.DeveloperEnabledAt = &now
	default:
		user.CanUseExpenses = true
		user.ExpensesEnabledAt = &now
	}

	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.userRepo.Create(ctx, user); err != nil {
			return err
		}

		return u.createEvent(ctx, "user.registered", map[string]interface{}{
			"user_id":      user.ID,
			"email":        user.Email,
			"account_type": user.AccountType(),
		})
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate verifies login credentials and issues a session.
// The identifier is resolved as an email first, then as a username. Unknown
// accounts, inactive accounts and bad passwords all return ErrInvalidCredentials.
func (u *userUseCase) Authenticate(
	ctx context.Context,
	input *domain.AuthenticateUserInput,
) (*domain.AuthenticateUserOutput, error) {
	if err := u.validateAuthenticateInput(input); err != nil {
		return nil, err
	}

	user, err := u.findByEmailOrUsername(ctx, input.EmailOrUsername)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}

	if !u.passwordService.Verify(input.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	expiresIn := u.sessionTTL
	if input.RememberMe {
		expiresIn = u.rememberMeTTL
	}

	session, err := u.sessionManager.Issue(ctx, user.ID, expiresIn)
	if err != nil {
		return nil, err
	}

	return &domain.AuthenticateUserOutput{
		SessionID: session.Token,
		User:      user,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// findByEmailOrUsername resolves a login identifier, trying email first.
// Email lookup is case-insensitive, username lookup is exact.
func (u *userUseCase) findByEmailOrUsername(ctx context.Context, identifier string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)

	user, err := u.userRepo.GetByEmail(ctx, strings.ToLower(identifier))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user, err = u.userRepo.GetByUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (u *userUseCase) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return u.userRepo.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email.
func (u *userUseCase) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return u.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}

// UpdateProfile applies a partial update of full name and username.
// Nil fields are left unchanged. A username collision returns ErrUsernameAlreadyExists.
func (u *userUseCase) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	input *domain.UpdateProfileInput,
) (*domain.User, error) {
	if err := u.validateUpdateProfileInput(input); err != nil {
		return nil, err
	}

	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		fullName := strings.TrimSpace(*input.FullName)
		user.FullName = &fullName
	}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		user.Username = &username
	}
	user.UpdatedAt = time.Now().UTC()

	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword replaces the user's password after verifying the current one.
// The new password must differ from the current one. When RevokeAllSessions is
// set, every session of the user is removed in the same transaction.
func (u *userUseCase) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	input *domain.ChangePasswordInput,
) error {
	if err := u.validateChangePasswordInput(input); err != nil {
		return err
	}

	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !u.passwordService.Verify(input.CurrentPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	if input.NewPassword == input.CurrentPassword {
		return domain.ErrSamePassword
	}

	hashedPassword, err := u.passwordService.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hashedPassword
	user.UpdatedAt = time.Now().UTC()

	return u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.userRepo.Update(ctx, user); err != nil {
			return err
		}

		if input.RevokeAllSessions {
			if err := u.sessionManager.DeleteByUser(ctx, user.ID); err != nil {
				return err
			}
		}

		return u.createEvent(ctx, "user.password_changed", map[string]interface{}{
			"user_id":          user.ID,
			"sessions_revoked": input.RevokeAllSessions,
		})
	})
}

// UpgradeToDeveloper enables OAuth client registration for an existing account.
// Returns ErrInvalidUser if the account already has developer access.
func (u *userUseCase) UpgradeToDeveloper(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.IsDeveloper {
		return nil, domain.ErrInvalidUser
	}

	now := time.Now().UTC()
	user.IsDeveloper = true
	user.DeveloperEnabledAt = &now
	user.UpdatedAt = now

	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// EnableExpenses enables the expenses feature for an existing account.
// Returns ErrInvalidUser if the feature is already enabled.
func (u *userUseCase) EnableExpenses(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.CanUseExpenses {
		return nil, domain.ErrInvalidUser
	}

	now := time.Now().UTC()
	user.CanUseExpenses = true
	user.ExpensesEnabledAt = &now
	user.UpdatedAt = now

	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// NewUserUseCase creates a new UserUseCase with the provided dependencies.
// sessionTTL and rememberMeTTL control how long issued sessions stay valid.
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	outboxRepo OutboxEventRepository,
	sessionManager SessionManager,
	passwordService userService.PasswordService,
	sessionTTL time.Duration,
	rememberMeTTL time.Duration,
) UserUseCase {
	return &userUseCase{
		txManager:       txManager,
		userRepo:        userRepo,
		outboxRepo:      outboxRepo,
		sessionManager:  sessionManager,
		passwordService: passwordService,
		sessionTTL:      sessionTTL,
		rememberMeTTL:   rememberMeTTL,
	}
}
