package domain

import (
	"github.com/allisson/authd/internal/errors"
)

// Domain-specific errors for OAuth2 operations.
var (
	// ErrClientNotFound indicates the requested client does not exist.
	ErrClientNotFound = errors.Wrap(errors.ErrNotFound, "client not found")

	// ErrInvalidClient indicates client validation failed. The wording is
	// identical whether the client was missing, inactive, the secret was
	// wrong, or the redirect_uri was not registered, so callers cannot probe
	// a client's registered redirect URIs.
	ErrInvalidClient = errors.Wrap(errors.ErrUnauthorized, "invalid client")

	// ErrInvalidAuthorizationCode indicates code redemption failed. The
	// wording is identical for a missing, expired, replayed or mismatched
	// code.
	ErrInvalidAuthorizationCode = errors.Wrap(errors.ErrUnauthorized, "invalid authorization code")

	// ErrConsentDenied indicates the user rejected the consent prompt.
	ErrConsentDenied = errors.Wrap(errors.ErrUnauthorized, "consent denied")

	// ErrConsentNotFound indicates the requested consent does not exist or
	// belongs to another user.
	ErrConsentNotFound = errors.Wrap(errors.ErrNotFound, "consent not found")

	// ErrActiveConsentExists indicates a second active consent insert for the
	// same user and client pair.
	ErrActiveConsentExists = errors.Wrap(errors.ErrConflict, "active consent already exists for this client")

	// ErrScopeNotFound indicates the requested scope is not defined.
	ErrScopeNotFound = errors.Wrap(errors.ErrNotFound, "scope not found")

	// ErrScopeAlreadyExists indicates a scope with the same name already
	// exists.
	ErrScopeAlreadyExists = errors.Wrap(errors.ErrConflict, "scope already exists")

	// ErrUnknownScope indicates an authorization request asked for a scope
	// that is not defined.
	ErrUnknownScope = errors.Wrap(errors.ErrInvalidInput, "unknown scope")

	// ErrUnsupportedResponseType indicates a response_type other than "code".
	ErrUnsupportedResponseType = errors.Wrap(errors.ErrInvalidInput, "unsupported response_type")

	// ErrUnsupportedGrantType indicates a grant_type the token endpoint does
	// not implement.
	ErrUnsupportedGrantType = errors.Wrap(errors.ErrInvalidInput, "unsupported grant_type")

	// ErrClientForbidden indicates the caller does not own the client.
	ErrClientForbidden = errors.Wrap(errors.ErrForbidden, "client belongs to another user")

	// ErrSystemClientProtected indicates an attempt to modify or delete a
	// system client through the public API.
	ErrSystemClientProtected = errors.Wrap(errors.ErrForbidden, "system clients cannot be modified")
)
