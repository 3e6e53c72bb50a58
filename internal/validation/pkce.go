package validation

import (
	"regexp"

	validation "github.com/jellydator/validation"
)

// codeVerifierRegex matches the PKCE unreserved character set with the
// length bounds from RFC 7636: 43 to 128 characters of ALPHA / DIGIT /
// "-" / "." / "_" / "~".
var codeVerifierRegex = regexp.MustCompile(`^[A-Za-z0-9\-._~]{43,128}$`)

// CodeVerifier validates a PKCE code verifier.
var CodeVerifier = validation.NewStringRuleWithError(
	func(s string) bool {
		return codeVerifierRegex.MatchString(s)
	},
	validation.NewError(
		"validation_code_verifier",
		"must be 43-128 characters of letters, digits, hyphen, period, underscore or tilde",
	),
)

// CodeChallenge validates a PKCE code challenge. An S256 challenge is the
// 43-character base64url digest of the verifier and a plain challenge is
// the verifier itself, so both share the verifier format.
var CodeChallenge = validation.NewStringRuleWithError(
	func(s string) bool {
		return codeVerifierRegex.MatchString(s)
	},
	validation.NewError(
		"validation_code_challenge",
		"must be 43-128 characters of letters, digits, hyphen, period, underscore or tilde",
	),
)

// CodeChallengeMethod restricts the PKCE transform to the supported methods.
var CodeChallengeMethod = validation.In("S256", "plain").Error("must be S256 or plain")
