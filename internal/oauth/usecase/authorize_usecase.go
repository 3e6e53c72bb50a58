package usecase

import (
	"context"
	"errors"
	"net/url"
	"time"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/authd/internal/crypto/domain"
	"github.com/allisson/authd/internal/database"
	apperrors "github.com/allisson/authd/internal/errors"
	"github.com/allisson/authd/internal/oauth/domain"
	oauthService "github.com/allisson/authd/internal/oauth/service"
	appValidation "github.com/allisson/authd/internal/validation"
)

// DecisionPath is the endpoint consent prompts point back to.
const DecisionPath = "/auth/authorize/decision"

// authorizeUseCase implements the authorization code grant state machine.
// Its state lives entirely in persistent rows (sessions, consents, codes);
// the use case only drives transitions.
type authorizeUseCase struct {
	txManager      database.TxManager
	clientRepo     ClientRepository
	codeRepo       CodeRepository
	scopeRepo      ScopeRepository
	consentUseCase ConsentUseCase
	clientUseCase  ClientUseCase
	codeService    oauthService.CodeService
	pkceService    oauthService.PKCEService
	tokenSigner    TokenSigner
	userDirectory  UserDirectory
	codeTTL        time.Duration
	accessTokenTTL time.Duration
}

// validateChallenge checks the PKCE parameters of an authorization request.
func (a *authorizeUseCase) validateChallenge(input *domain.AuthorizeInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.CodeChallenge,
			validation.Required.Error("code_challenge is required"),
			appValidation.CodeChallenge,
		),
		validation.Field(&input.CodeChallengeMethod,
			validation.Required.Error("code_challenge_method is required"),
			appValidation.CodeChallengeMethod,
		),
	)
	return appValidation.WrapValidationError(err)
}

// checkClient runs the ordered client checks shared by the authorize request
// and the consent decision. A missing client, an inactive client and an
// unregistered redirect URI all surface as the same ErrInvalidClient so the
// response doesn't reveal which redirect URIs a client has registered.
func (a *authorizeUseCase) checkClient(ctx context.Context, input *domain.AuthorizeInput) (*domain.Client, error) {
	client, err := a.clientRepo.GetByClientID(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return nil, domain.ErrInvalidClient
		}
		return nil, err
	}
	if !client.IsActive {
		return nil, domain.ErrInvalidClient
	}
	if !client.HasRedirectURI(input.RedirectURI) {
		return nil, domain.ErrInvalidClient
	}
	return client, nil
}

// resolveScopes maps the raw scope parameter to known scope definitions.
// An empty parameter resolves to the default scopes.
func (a *authorizeUseCase) resolveScopes(ctx context.Context, scope string) ([]domain.ScopeDefinition, []string, error) {
	names := domain.ParseScope(scope)

	if len(names) == 0 {
		defaults, err := a.scopeRepo.ListDefaults(ctx)
		if err != nil {
			return nil, nil, err
		}
		if len(defaults) == 0 {
			return nil, nil, apperrors.Wrap(apperrors.ErrInvalidInput, "no scope requested and no default scopes configured")
		}
		resolved := make([]domain.ScopeDefinition, 0, len(defaults))
		resolvedNames := make([]string, 0, len(defaults))
		for _, def := range defaults {
			resolved = append(resolved, *def)
			resolvedNames = append(resolvedNames, def.Name)
		}
		return resolved, resolvedNames, nil
	}

	resolved := make([]domain.ScopeDefinition, 0, len(names))
	for _, name := range names {
		def, err := a.scopeRepo.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, domain.ErrScopeNotFound) {
				return nil, nil, apperrors.Wrapf(domain.ErrUnknownScope, "%q", name)
			}
			return nil, nil, err
		}
		resolved = append(resolved, *def)
	}
	return resolved, names, nil
}

// BeginAuthorize validates an authorization request in the mandated order:
// client exists and is active, redirect URI matches byte-exact, response_type
// is "code", the PKCE challenge is well-formed, and every requested scope is
// known (defaults apply when the scope parameter is empty). System clients
// skip consent entirely; normal clients proceed straight to code issuance
// only when an active consent covers all requested scopes.
func (a *authorizeUseCase) BeginAuthorize(ctx context.Context, input *domain.AuthorizeInput) (*domain.AuthorizeOutput, error) {
	client, err := a.checkClient(ctx, input)
	if err != nil {
		return nil, err
	}

	if input.ResponseType != domain.ResponseTypeCode {
		return nil, domain.ErrUnsupportedResponseType
	}

	if err := a.validateChallenge(input); err != nil {
		return nil, err
	}

	scopes, scopeNames, err := a.resolveScopes(ctx, input.Scope)
	if err != nil {
		return nil, err
	}

	if client.IsSystemClient {
		return a.issueCode(ctx, input, scopeNames)
	}

	consent, err := a.consentUseCase.FindActive(ctx, input.UserID, client.ClientID)
	if err != nil && !errors.Is(err, domain.ErrConsentNotFound) {
		return nil, err
	}
	if consent != nil && consent.IsActive(time.Now().UTC()) && consent.Covers(scopeNames) {
		return a.issueCode(ctx, input, scopeNames)
	}

	return &domain.AuthorizeOutput{
		ConsentRequired: &domain.ConsentPrompt{
			ClientID:            client.ClientID,
			ClientName:          client.ClientName,
			Scopes:              scopes,
			ConsentURL:          DecisionPath,
			RedirectURI:         input.RedirectURI,
			ResponseType:        input.ResponseType,
			Scope:               domain.JoinScope(scopeNames),
			State:               input.State,
			CodeChallenge:       input.CodeChallenge,
			CodeChallengeMethod: input.CodeChallengeMethod,
		},
	}, nil
}

// DecideConsent applies the user's decision on the consent prompt. A denial
// fails with ErrConsentDenied. An approval revalidates the echoed
// authorization parameters, swaps the consent ledger entry and issues a code.
func (a *authorizeUseCase) DecideConsent(ctx context.Context, input *domain.ConsentDecisionInput) (*domain.AuthorizeOutput, error) {
	if !input.Approved {
		return nil, domain.ErrConsentDenied
	}

	authorize := &input.Authorize

	client, err := a.checkClient(ctx, authorize)
	if err != nil {
		return nil, err
	}
	if authorize.ResponseType != domain.ResponseTypeCode {
		return nil, domain.ErrUnsupportedResponseType
	}
	if err := a.validateChallenge(authorize); err != nil {
		return nil, err
	}

	_, scopeNames, err := a.resolveScopes(ctx, authorize.Scope)
	if err != nil {
		return nil, err
	}

	if _, err := a.consentUseCase.Grant(ctx, &domain.GrantConsentInput{
		UserID:   authorize.UserID,
		ClientID: client.ClientID,
		Scopes:   scopeNames,
	}); err != nil {
		return nil, err
	}

	return a.issueCode(ctx, authorize, scopeNames)
}

// issueCode persists a fresh single-use authorization code and builds the
// redirect URL carrying it. The state parameter is echoed verbatim when
// present.
func (a *authorizeUseCase) issueCode(
	ctx context.Context,
	input *domain.AuthorizeInput,
	scopeNames []string,
) (*domain.AuthorizeOutput, error) {
	code, err := a.codeService.GenerateCode()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	row := &domain.AuthorizationCode{
		Code:                code,
		UserID:              input.UserID,
		ClientID:            input.ClientID,
		RedirectURI:         input.RedirectURI,
		Scope:               domain.JoinScope(scopeNames),
		CodeChallenge:       input.CodeChallenge,
		CodeChallengeMethod: input.CodeChallengeMethod,
		ExpiresAt:           now.Add(a.codeTTL),
		CreatedAt:           now,
	}

	if err := a.codeRepo.Create(ctx, row); err != nil {
		return nil, err
	}

	redirectURL, err := url.Parse(input.RedirectURI)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse redirect uri")
	}
	query := redirectURL.Query()
	query.Set("code", code)
	if input.State != "" {
		query.Set("state", input.State)
	}
	redirectURL.RawQuery = query.Encode()

	return &domain.AuthorizeOutput{RedirectURL: redirectURL.String()}, nil
}

// ExchangeToken redeems an authorization code for an access token. Code
// preconditions run in the mandated order and every failure among them
// surfaces as the same ErrInvalidAuthorizationCode so callers cannot tell a
// missing code from a replayed, expired or mismatched one. The mark-used step
// is a compare-and-set inside a transaction: of two concurrent exchanges at
// most one mints a token.
func (a *authorizeUseCase) ExchangeToken(ctx context.Context, input *domain.ExchangeTokenInput) (*domain.ExchangeTokenOutput, error) {
	if input.GrantType != domain.GrantTypeAuthorizationCode {
		return nil, domain.ErrUnsupportedGrantType
	}

	code, err := a.codeRepo.GetByCode(ctx, input.Code)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if code.ClientID != input.ClientID || code.RedirectURI != input.RedirectURI {
		return nil, domain.ErrInvalidAuthorizationCode
	}
	if code.Used || code.Expired(now) {
		return nil, domain.ErrInvalidAuthorizationCode
	}
	if !a.pkceService.VerifyChallenge(input.CodeVerifier, code.CodeChallenge, code.CodeChallengeMethod) {
		return nil, domain.ErrInvalidAuthorizationCode
	}

	client, err := a.clientRepo.GetByClientID(ctx, code.ClientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return nil, domain.ErrInvalidClient
		}
		return nil, err
	}
	if !client.IsActive {
		return nil, domain.ErrInvalidClient
	}
	// Confidential clients authenticate with their secret; public clients rely
	// on PKCE alone but a supplied secret must still match.
	if !client.IsPublic || input.ClientSecret != "" {
		if !a.clientUseCase.VerifySecret(client, input.ClientSecret, now) {
			return nil, domain.ErrInvalidClient
		}
	}

	email, err := a.userDirectory.GetEmail(ctx, code.UserID)
	if err != nil {
		return nil, err
	}

	var accessToken string
	err = a.txManager.WithTx(ctx, func(ctx context.Context) error {
		consumed, err := a.codeRepo.MarkUsed(ctx, code.Code, now)
		if err != nil {
			return err
		}
		if !consumed {
			return domain.ErrInvalidAuthorizationCode
		}

		accessToken, err = a.tokenSigner.Sign(&cryptoDomain.SignTokenInput{
			UserID:   code.UserID,
			Email:    email,
			ClientID: code.ClientID,
			Scope:    code.Scope,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &domain.ExchangeTokenOutput{
		AccessToken: accessToken,
		TokenType:   domain.TokenTypeBearer,
		ExpiresIn:   int64(a.accessTokenTTL.Seconds()),
		Scope:       code.Scope,
	}, nil
}

// NewAuthorizeUseCase creates a new AuthorizeUseCase with the provided
// dependencies. codeTTL bounds authorization code life (at most 10 minutes),
// accessTokenTTL is reported as expires_in on token responses.
func NewAuthorizeUseCase(
	txManager database.TxManager,
	clientRepo ClientRepository,
	codeRepo CodeRepository,
	scopeRepo ScopeRepository,
	consentUseCase ConsentUseCase,
	clientUseCase ClientUseCase,
	codeService oauthService.CodeService,
	pkceService oauthService.PKCEService,
	tokenSigner TokenSigner,
	userDirectory UserDirectory,
	codeTTL time.Duration,
	accessTokenTTL time.Duration,
) AuthorizeUseCase {
	return &authorizeUseCase{
		txManager:      txManager,
		clientRepo:     clientRepo,
		codeRepo:       codeRepo,
		scopeRepo:      scopeRepo,
		consentUseCase: consentUseCase,
		clientUseCase:  clientUseCase,
		codeService:    codeService,
		pkceService:    pkceService,
		tokenSigner:    tokenSigner,
		userDirectory:  userDirectory,
		codeTTL:        codeTTL,
		accessTokenTTL: accessTokenTTL,
	}
}
