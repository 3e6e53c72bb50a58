// Package http provides request authentication middleware and context helpers.
package http

import (
	"context"

	sessionDomain "github.com/allisson/authd/internal/session/domain"
	userDomain "github.com/allisson/authd/internal/user/domain"
)

// sessionKey is a context key type for storing the authenticated session.
type sessionKey struct{}

// userKey is a context key type for storing the authenticated user.
type userKey struct{}

// WithSession stores an authenticated session in the context.
// This is typically called by the session middleware after successful lookup.
func WithSession(ctx context.Context, session *sessionDomain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSession retrieves the authenticated session from the context.
// Returns (session, true) if a session is present, or (nil, false) if none was set.
// Bearer-authenticated requests carry a user but no session.
func GetSession(ctx context.Context) (*sessionDomain.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*sessionDomain.Session)
	return session, ok
}

// WithUser stores the authenticated user in the context.
// Both the session middleware and the bearer middleware call this, so handlers
// can resolve the caller identity the same way regardless of the auth scheme.
func WithUser(ctx context.Context, user *userDomain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser retrieves the authenticated user from the context.
// Returns (user, true) if a user is present, or (nil, false) if no user was set.
func GetUser(ctx context.Context) (*userDomain.User, bool) {
	user, ok := ctx.Value(userKey{}).(*userDomain.User)
	return user, ok
}
