package domain

import (
	"github.com/allisson/authd/internal/errors"
)

// ErrSignatureInvalid indicates an audit log signature failed verification,
// meaning the entry was tampered with or signed with a different key.
var ErrSignatureInvalid = errors.New("audit log signature invalid")
