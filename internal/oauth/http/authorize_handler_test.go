package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/authd/internal/audit/domain"
	oauthDomain "github.com/allisson/authd/internal/oauth/domain"
)

// setupTestAuthorizeHandler creates an authorize handler with mocked
// dependencies.
func setupTestAuthorizeHandler(t *testing.T) (*AuthorizeHandler, *mockAuthorizeUseCase, *mockAuditLogUseCase) {
	t.Helper()

	mockUseCase := &mockAuthorizeUseCase{}
	mockAuditLogs := &mockAuditLogUseCase{}
	handler := NewAuthorizeHandler(mockUseCase, mockAuditLogs, createTestLogger())

	return handler, mockUseCase, mockAuditLogs
}

// authorizeQuery returns a complete authorization request query string.
func authorizeQuery() string {
	query := url.Values{}
	query.Set("client_id", "web-app")
	query.Set("redirect_uri", "https://app.example.com/callback")
	query.Set("response_type", "code")
	query.Set("scope", "read")
	query.Set("state", "xyz")
	query.Set("code_challenge", "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM")
	query.Set("code_challenge_method", "S256")
	return query.Encode()
}

func TestAuthorizeHandler_BeginHandler(t *testing.T) {
	t.Run("Success_RedirectsWithCode", func(t *testing.T) {
		handler, mockUseCase, mockAuditLogs := setupTestAuthorizeHandler(t)
		user := newDeveloperUser()
		redirectURL := "https://app.example.com/callback?code=c123&state=xyz"

		// Setup expectations
		mockUseCase.On("BeginAuthorize", mock.Anything, mock.MatchedBy(func(input *oauthDomain.AuthorizeInput) bool {
			return input.ClientID == "web-app" &&
				input.RedirectURI == "https://app.example.com/callback" &&
				input.ResponseType == "code" &&
				input.Scope == "read" &&
				input.State == "xyz" &&
				input.CodeChallengeMethod == "S256" &&
				input.UserID == user.ID
		})).Return(&oauthDomain.AuthorizeOutput{RedirectURL: redirectURL}, nil).Once()
		mockAuditLogs.expectAuditRecord(auditDomain.ActionCodeIssued)

		// Execute
		c, w := createTestContext(http.MethodGet, "/auth/authorize?"+authorizeQuery(), nil)
		contextWithUser(c, user)
		handler.BeginHandler(c)

		// Assert
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, redirectURL, w.Header().Get("Location"))
		mockUseCase.AssertExpectations(t)
		mockAuditLogs.AssertExpectations(t)
	})

	t.Run("Success_ConsentRequiredPayload", func(t *testing.T) {
		handler, mockUseCase, mockAuditLogs := setupTestAuthorizeHandler(t)
		user := newDeveloperUser()

		// Setup expectations
		output := &oauthDomain.AuthorizeOutput{
			ConsentRequired: &oauthDomain.ConsentPrompt{
				ClientID:            "web-app",
				ClientName:          "Web App",
				Scopes:              []oauthDomain.ScopeDefinition{{Name: "read", Description: "Read access to your data"}},
				ConsentURL:          "/auth/authorize/decision",
				RedirectURI:         "https://app.example.com/callback",
				ResponseType:        "code",
				Scope:               "read",
				State:               "xyz",
				CodeChallenge:       "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
				CodeChallengeMethod: "S256",
			},
		}
		mockUseCase.On("BeginAuthorize", mock.Anything, mock.Anything).Return(output, nil).Once()

		// Execute
		c, w := createTestContext(http.MethodGet, "/auth/authorize?"+authorizeQuery(), nil)
		contextWithUser(c, user)
		handler.BeginHandler(c)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "web-app", response["client_id"])
		assert.Equal(t, "Web App", response["client_name"])
		assert.Equal(t, "/auth/authorize/decision", response["consent_url"])
		assert.Equal(t, "xyz", response["state"])

		scopes := response["scopes"].([]interface{})
		assert.Len(t, scopes, 1)
		assert.Equal(t, "read", scopes[0].(map[string]interface{})["name"])

		mockUseCase.AssertExpectations(t)
		mockAuditLogs.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("Error_Unauthenticated", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestAuthorizeHandler(t)

		// Execute without a user in context
		c, w := createTestContext(http.MethodGet, "/auth/authorize?"+authorizeQuery(), nil)
		handler.BeginHandler(c)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertNotCalled(t, "BeginAuthorize", mock.Anything, mock.Anything)
	})

	t.Run("Error_InvalidRedirectURI", func(t *testing.T) {
		handler, mockUseCase, mockAuditLogs := setupTestAuthorizeHandler(t)
		user := newDeveloperUser()

		// Setup expectations: redirect mismatches surface as the uniform
		// invalid-client error.
		mockUseCase.On("BeginAuthorize", mock.Anything, mock.Anything).
			Return(nil, oauthDomain.ErrInvalidClient).Once()

		// Execute
		c, w := createTestContext(http.MethodGet, "/auth/authorize?"+authorizeQuery(), nil)
		contextWithUser(c, user)
		handler.BeginHandler(c)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "unauthorized", response["error"])

		mockUseCase.AssertExpectations(t)
		mockAuditLogs.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("Error_UnknownScope", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestAuthorizeHandler(t)
		user := newDeveloperUser()

		// Setup expectations
		mockUseCase.On("BeginAuthorize", mock.Anything, mock.Anything).
			Return(nil, oauthDomain.ErrUnknownScope).Once()

		// Execute
		c, w := createTestContext(http.MethodGet, "/auth/authorize?"+authorizeQuery(), nil)
		contextWithUser(c, user)
		handler.BeginHandler(c)

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "invalid_request", response["error"])

		mockUseCase.AssertExpectations(t)
	})
}

// decisionForm returns a consent decision form echoing the authorization
// parameters.
func decisionForm(decision string) url.Values {
	form := url.Values{}
	form.Set("decision", decision)
	form.Set("client_id", "web-app")
	form.Set("redirect_uri", "https://app.example.com/callback")
	form.Set("response_type", "code")
	form.Set("scope", "read")
	form.Set("state", "xyz")
	form.Set("code_challenge", "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM")
	form.Set("code_challenge_method", "S256")
	return form
}

func TestAuthorizeHandler_DecisionHandler(t *testing.T) {
	t.Run("Success_ApproveRedirects", func(t *testing.T) {
		handler, mockUseCase, mockAuditLogs := setupTestAuthorizeHandler(t)
		user := newDeveloperUser()
		redirectURL := "https://app.example.com/callback?code=c456&state=xyz"

		// Setup expectations
		mockUseCase.On("DecideConsent", mock.Anything, mock.MatchedBy(func(input *oauthDomain.ConsentDecisionInput) bool {
			return input.Approved &&
				input.Authorize.ClientID == "web-app" &&
				input.Authorize.Scope == "read" &&
				input.Authorize.UserID == user.ID
		})).Return(&oauthDomain.AuthorizeOutput{RedirectURL: redirectURL}, nil).Once()
		mockAuditLogs.expectAuditRecord(auditDomain.ActionConsentGranted)

		// Execute
		c, w := createTestFormContext(http.MethodPost, "/auth/authorize/decision", decisionForm("approve"))
		contextWithUser(c, user)
		handler.DecisionHandler(c)
		// Flush gin's deferred status write; the engine normally does this at
		// the end of the handler chain, and POST redirects carry no body that
		// would trigger it implicitly.
		c.Writer.WriteHeaderNow()

		// Assert
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, redirectURL, w.Header().Get("Location"))
		mockUseCase.AssertExpectations(t)
		mockAuditLogs.AssertExpectations(t)
	})

	t.Run("Success_DenyReturns401", func(t *testing.T) {
		handler, mockUseCase, mockAuditLogs := setupTestAuthorizeHandler(t)
		user := newDeveloperUser()

		// Setup expectations
		mockUseCase.On("DecideConsent", mock.Anything, mock.MatchedBy(func(input *oauthDomain.ConsentDecisionInput) bool {
			return !input.Approved
		})).Return(nil, oauthDomain.ErrConsentDenied).Once()
		mockAuditLogs.expectAuditRecord(auditDomain.ActionConsentDenied)

		// Execute
		c, w := createTestFormContext(http.MethodPost, "/auth/authorize/decision", decisionForm("deny"))
		contextWithUser(c, user)
		handler.DecisionHandler(c)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "unauthorized", response["error"])

		mockUseCase.AssertExpectations(t)
		mockAuditLogs.AssertExpectations(t)
	})

	t.Run("Error_Unauthenticated", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestAuthorizeHandler(t)

		// Execute without a user in context
		c, w := createTestFormContext(http.MethodPost, "/auth/authorize/decision", decisionForm("approve"))
		handler.DecisionHandler(c)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertNotCalled(t, "DecideConsent", mock.Anything, mock.Anything)
	})

	t.Run("Error_UseCaseError", func(t *testing.T) {
		handler, mockUseCase, mockAuditLogs := setupTestAuthorizeHandler(t)
		user := newDeveloperUser()

		// Setup expectations
		mockUseCase.On("DecideConsent", mock.Anything, mock.Anything).
			Return(nil, assert.AnError).Once()

		// Execute
		c, w := createTestFormContext(http.MethodPost, "/auth/authorize/decision", decisionForm("approve"))
		contextWithUser(c, user)
		handler.DecisionHandler(c)

		// Assert
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		mockUseCase.AssertExpectations(t)
		mockAuditLogs.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})
}
