package usecase

import (
	"context"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/allisson/authd/internal/oauth/domain"
	appValidation "github.com/allisson/authd/internal/validation"
)

// scopeUseCase implements ScopeUseCase.
type scopeUseCase struct {
	scopeRepo ScopeRepository
}

// validateCreateInput validates the input for scope registration.
func (s *scopeUseCase) validateCreateInput(input *domain.CreateScopeInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.ScopeName,
		),
		validation.Field(&input.Description,
			validation.Required.Error("description is required"),
			appValidation.NotBlank,
			validation.Length(1, 255),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Create registers a new scope definition.
func (s *scopeUseCase) Create(ctx context.Context, input *domain.CreateScopeInput) (*domain.ScopeDefinition, error) {
	if err := s.validateCreateInput(input); err != nil {
		return nil, err
	}

	scope := &domain.ScopeDefinition{
		Name:        input.Name,
		Description: input.Description,
		IsDefault:   input.IsDefault,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.scopeRepo.Create(ctx, scope); err != nil {
		return nil, err
	}

	return scope, nil
}

// List returns all scope definitions ordered by name.
func (s *scopeUseCase) List(ctx context.Context) ([]*domain.ScopeDefinition, error) {
	return s.scopeRepo.List(ctx)
}

// NewScopeUseCase creates a new ScopeUseCase with the provided repository.
func NewScopeUseCase(scopeRepo ScopeRepository) ScopeUseCase {
	return &scopeUseCase{scopeRepo: scopeRepo}
}
