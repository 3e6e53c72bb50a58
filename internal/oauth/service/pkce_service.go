package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"github.com/allisson/authd/internal/oauth/domain"
	appValidation "github.com/allisson/authd/internal/validation"
)

// pkceService implements PKCEService per RFC 7636.
type pkceService struct{}

// VerifyChallenge checks the verifier against the stored challenge. The
// verifier must be 43-128 unreserved characters; anything outside that never
// verifies regardless of the challenge. For S256 the verifier is hashed with
// SHA-256 and base64 URL-encoded without padding before comparison; for plain
// the verifier is compared directly. Both comparisons are constant-time.
// Unknown methods never verify.
func (p *pkceService) VerifyChallenge(verifier string, challenge string, method string) bool {
	if appValidation.CodeVerifier.Validate(verifier) != nil {
		return false
	}

	var computed string
	switch method {
	case domain.CodeChallengeMethodS256:
		computed = p.ChallengeS256(verifier)
	case domain.CodeChallengeMethodPlain:
		computed = verifier
	default:
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}

// ChallengeS256 derives the S256 code challenge for a verifier.
func (p *pkceService) ChallengeS256(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// NewPKCEService creates a new PKCEService instance.
func NewPKCEService() PKCEService {
	return &pkceService{}
}
