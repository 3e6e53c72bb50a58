// Package usecase implements business logic orchestration for login sessions.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/session/domain"
	sessionService "github.com/allisson/authd/internal/session/service"
)

// sessionUseCase implements SessionUseCase on top of a SessionRepository.
type sessionUseCase struct {
	sessionRepo  SessionRepository
	tokenService sessionService.TokenService
}

// Issue creates a new session for the user.
//
// The cookie value is a CSPRNG-generated opaque token, returned exactly once
// via the Token field. Only its digest is persisted, so the stored rows
// cannot be replayed as cookies.
func (s *sessionUseCase) Issue(
	ctx context.Context,
	userID uuid.UUID,
	expiresIn time.Duration,
) (*domain.Session, error) {
	token, err := s.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:        s.tokenService.DigestToken(token),
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(expiresIn),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// Get retrieves a live session by its raw token, digesting it for the
// lookup. The returned session carries the digest id, never the token.
//
// A lookup at or past the expiry instant deletes the row and reports
// ErrSessionNotFound, so callers never observe an expired session. The
// delete is idempotent, which keeps concurrent lookups and Cleanup safe.
func (s *sessionUseCase) Get(ctx context.Context, token string) (*domain.Session, error) {
	sessionID := s.tokenService.DigestToken(token)

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Expired(time.Now().UTC()) {
		if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		return nil, domain.ErrSessionNotFound
	}

	return session, nil
}

// GetByUser retrieves all live sessions of a user, newest first.
func (s *sessionUseCase) GetByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Session, error) {
	return s.sessionRepo.ListByUser(ctx, userID, time.Now().UTC())
}

// Delete removes a session by id. Idempotent.
func (s *sessionUseCase) Delete(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Delete(ctx, sessionID)
}

// DeleteByUser removes all sessions of a user. Idempotent.
func (s *sessionUseCase) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return s.sessionRepo.DeleteByUser(ctx, userID)
}

// Cleanup removes all expired sessions and returns how many were deleted.
func (s *sessionUseCase) Cleanup(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx, time.Now().UTC())
}

// NewSessionUseCase creates a new SessionUseCase with the provided dependencies.
func NewSessionUseCase(
	sessionRepo SessionRepository,
	tokenService sessionService.TokenService,
) SessionUseCase {
	return &sessionUseCase{
		sessionRepo:  sessionRepo,
		tokenService: tokenService,
	}
}
