package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/metrics"
	"github.com/allisson/authd/internal/user/domain"
)

// userUseCaseWithMetrics decorates UserUseCase with metrics instrumentation.
type userUseCaseWithMetrics struct {
	next    UserUseCase
	metrics metrics.BusinessMetrics
}

// NewUserUseCaseWithMetrics wraps a UserUseCase with metrics recording.
func NewUserUseCaseWithMetrics(useCase UserUseCase, m metrics.BusinessMetrics) UserUseCase {
	return &userUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Register records metrics for user registration operations.
func (u *userUseCaseWithMetrics) Register(
	ctx context.Context,
	input *domain.RegisterUserInput,
) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.Register(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "user", "register", status)
	u.metrics.RecordDuration(ctx, "user", "register", time.Since(start), status)

	return user, err
}

// Authenticate records metrics for login operations.
func (u *userUseCaseWithMetrics) Authenticate(
	ctx context.Context,
	input *domain.AuthenticateUserInput,
) (*domain.AuthenticateUserOutput, error) {
	start := time.Now()
	output, err := u.next.Authenticate(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "user", "authenticate", status)
	u.metrics.RecordDuration(ctx, "user", "authenticate", time.Since(start), status)

	return output, err
}

// GetByID records metrics for user retrieval operations.
func (u *userUseCaseWithMetrics) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.GetByID(ctx, id)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "user", "get_by_id", status)
	u.metrics.RecordDuration(ctx, "user", "get_by_id", time.Since(start), status)

	return user, err
}

// GetByEmail records metrics for user retrieval operations.
func (u *userUseCaseWithMetrics) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.GetByEmail(ctx, email)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "user", "get_by_email", status)
	u.metrics.RecordDuration(ctx, "user", "get_by_email", time.Since(start), status)

	return user, err
}

// UpdateProfile records metrics for profile update operations.
func (u *userUseCaseWithMetrics) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	input *domain.UpdateProfileInput,
) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.UpdateProfile(ctx, userID, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "user", "update_profile", status)
	u.metrics.RecordDuration(ctx, "user", "update_profile", time.Since(start), status)

	return user, err
}

// ChangePassword records metrics for password change operations.
func (u *userUseCaseWithMetrics) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	input *domain.ChangePasswordInput,
) error {
	start := time.Now()
	err := u.next.ChangePassword(ctx, userID, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "user", "change_password", status)
	u.metrics.RecordDuration(ctx, "user", "change_password", time.Since(start), status)

	return err
}

// UpgradeToDeveloper records metrics for developer upgrade operations.
func (u *userUseCaseWithMetrics) UpgradeToDeveloper(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.UpgradeToDeveloper(ctx, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "user", "upgrade_to_developer", status)
	u.metrics.RecordDuration(ctx, "user", "upgrade_to_developer", time.Since(start), status)

	return user, err
}

// EnableExpenses records metrics for expenses enablement operations.
func (u *userUseCaseWithMetrics) EnableExpenses(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.EnableExpenses(ctx, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "user", "enable_expenses", status)
	u.metrics.RecordDuration(ctx, "user", "enable_expenses", time.Since(start), status)

	return user, err
}
