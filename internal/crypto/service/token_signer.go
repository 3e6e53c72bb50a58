package service

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/authd/internal/crypto/domain"
)

// AccessTokenClaims is the claim set carried by issued access tokens:
// registered claims plus the email, client and scope of the authorization
// the token was minted for.
type AccessTokenClaims struct {
	Email    string `json:"email,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	Scope    string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// tokenSigner implements TokenSigner over an unwrapped key chain. The active
// access token key signs; every published key (retired ones included)
// verifies, so tokens issued before a rotation stay valid until they expire.
type tokenSigner struct {
	issuer     string
	audience   string
	ttl        time.Duration
	activeKid  string
	signingKey *rsa.PrivateKey
	verifyKeys map[string]*rsa.PublicKey
	jwks       *cryptoDomain.JWKS
}

// NewTokenSigner creates a TokenSigner from the unwrapped key chain. It fails
// when the chain has no active access token key or when any published key
// material does not parse.
func NewTokenSigner(
	keyChain *cryptoDomain.KeyChain,
	issuer string,
	audience string,
	accessTokenTTL time.Duration,
) (TokenSigner, error) {
	active, ok := keyChain.Active(cryptoDomain.KeyPurposeAccessToken)
	if !ok {
		return nil, cryptoDomain.ErrNoActiveSigningKey
	}

	signingKey, err := jwt.ParseRSAPrivateKeyFromPEM(active.Material)
	if err != nil {
		return nil, fmt.Errorf("failed to parse active signing key %s: %w", active.SigningKey.Kid, err)
	}

	verifyKeys := make(map[string]*rsa.PublicKey)
	jwks := &cryptoDomain.JWKS{Keys: []cryptoDomain.JWK{}}
	for _, key := range keyChain.List(cryptoDomain.KeyPurposeAccessToken) {
		if key.SigningKey.PublicKey == nil {
			continue
		}
		publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(*key.SigningKey.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key %s: %w", key.SigningKey.Kid, err)
		}
		verifyKeys[key.SigningKey.Kid] = publicKey
		jwks.Keys = append(jwks.Keys, cryptoDomain.JWK{
			Kty: "RSA",
			Use: "sig",
			Alg: string(cryptoDomain.KeyAlgorithmRS256),
			Kid: key.SigningKey.Kid,
			N:   base64.RawURLEncoding.EncodeToString(publicKey.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(publicKey.E)).Bytes()),
		})
	}

	return &tokenSigner{
		issuer:     issuer,
		audience:   audience,
		ttl:        accessTokenTTL,
		activeKid:  active.SigningKey.Kid,
		signingKey: signingKey,
		verifyKeys: verifyKeys,
		jwks:       jwks,
	}, nil
}

// Sign issues a signed RS256 access token with the active key. The subject is
// the user id, the jti a fresh UUIDv7, and the kid header names the signing
// key so verifiers can pick the right public key after a rotation.
func (t *tokenSigner) Sign(input *cryptoDomain.SignTokenInput) (string, error) {
	now := time.Now().UTC()
	claims := &AccessTokenClaims{
		Email:    input.Email,
		ClientID: input.ClientID,
		Scope:    input.Scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   input.UserID.String(),
			Audience:  jwt.ClaimStrings{t.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.Must(uuid.NewV7()).String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = t.activeKid

	signed, err := token.SignedString(t.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Verify validates a token signature and registered claims. Every failure
// cause collapses into ErrInvalidToken so responses never reveal whether the
// token was malformed, expired, or signed by an unknown key.
func (t *tokenSigner) Verify(tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		t.keyFunc,
		jwt.WithValidMethods([]string{string(cryptoDomain.KeyAlgorithmRS256)}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, cryptoDomain.ErrInvalidToken
	}
	return claims, nil
}

// keyFunc resolves the verification key from the token's kid header.
func (t *tokenSigner) keyFunc(token *jwt.Token) (any, error) {
	kid, ok := token.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, fmt.Errorf("missing kid in token header")
	}
	key, ok := t.verifyKeys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return key, nil
}

// JWKS returns the JSON Web Key Set for all published access token keys,
// including retired ones.
func (t *tokenSigner) JWKS() *cryptoDomain.JWKS {
	return t.jwks
}
