package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/authd/internal/audit/domain"
	oauthDomain "github.com/allisson/authd/internal/oauth/domain"
	"github.com/allisson/authd/internal/oauth/http/dto"
)

// setupTestClientHandler creates a client handler with mocked dependencies.
func setupTestClientHandler(t *testing.T) (*ClientHandler, *mockClientUseCase, *mockAuditLogUseCase) {
	t.Helper()

	mockUseCase := &mockClientUseCase{}
	mockAuditLogs := &mockAuditLogUseCase{}
	handler := NewClientHandler(mockUseCase, mockAuditLogs, createTestLogger())

	return handler, mockUseCase, mockAuditLogs
}

// newTestClient returns an active confidential client owned by the given
// user.
func newTestClient(ownerID uuid.UUID) *oauthDomain.Client {
	now := time.Now().UTC().Truncate(time.Second)
	return &oauthDomain.Client{
		ID:           uuid.Must(uuid.NewV7()),
		ClientID:     "web-app",
		ClientSecret: "argon2id-hash",
		ClientName:   "Web App",
		RedirectURIs: []string{"https://app.example.com/callback"},
		GrantTypes:   []string{"authorization_code"},
		IsPublic:     false,
		IsActive:     true,
		UserID:       &ownerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestClientHandler_CreateHandler(t *testing.T) {
	t.Run("Success_ValidRequest", func(t *testing.T) {
		handler, mockUseCase, mockAuditLogs := setupTestClientHandler(t)
		user := newDeveloperUser()
		client := newTestClient(user.ID)

		request := dto.CreateClientRequest{
			ClientName:   "Web App",
			RedirectURIs: []string{"https://app.example.com/callback"},
			GrantTypes:   []string{"authorization_code"},
			IsPublic:     false,
		}

		// Setup expectations
		mockUseCase.On("Create", mock.Anything, mock.MatchedBy(func(input *oauthDomain.CreateClientInput) bool {
			return input.ClientName == request.ClientName &&
				len(input.RedirectURIs) == 1 &&
				input.UserID == user.ID
		})).Return(&oauthDomain.CreateClientOutput{
			Client:          client,
			PlaintextSecret: "cs_live_0123456789abcdef",
		}, nil).Once()
		mockAuditLogs.expectAuditRecord(auditDomain.ActionClientCreated)

		// Execute
		c, w := createTestContext(http.MethodPost, "/client", request)
		contextWithUser(c, user)
		handler.CreateHandler(c)

		// Assert
		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)

		created := response["client"].(map[string]interface{})
		assert.Equal(t, "web-app", created["client_id"])
		assert.Equal(t, "Web App", created["client_name"])
		assert.Equal(t, "cs_live_0123456789abcdef", created["client_secret"])

		mockUseCase.AssertExpectations(t)
		mockAuditLogs.AssertExpectations(t)
	})

	t.Run("Error_Unauthenticated", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestClientHandler(t)

		// Execute without a user in context
		c, w := createTestContext(http.MethodPost, "/client", dto.CreateClientRequest{ClientName: "Web App"})
		handler.CreateHandler(c)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Error_MalformedJSON", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestClientHandler(t)
		user := newDeveloperUser()

		// Execute with a truncated body
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		req := httptest.NewRequest(http.MethodPost, "/client", strings.NewReader(`{"client_name":`))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req
		contextWithUser(c, user)
		handler.CreateHandler(c)

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUseCase.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Error_UseCaseError", func(t *testing.T) {
		handler, mockUseCase, mockAuditLogs := setupTestClientHandler(t)
		user := newDeveloperUser()

		// Setup expectations
		mockUseCase.On("Create", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

		// Execute
		c, w := createTestContext(http.MethodPost, "/client", dto.CreateClientRequest{ClientName: "Web App"})
		contextWithUser(c, user)
		handler.CreateHandler(c)

		// Assert
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		mockUseCase.AssertExpectations(t)
		mockAuditLogs.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})
}

func TestClientHandler_ListHandler(t *testing.T) {
	t.Run("Success_DefaultPagination", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestClientHandler(t)
		user := newDeveloperUser()
		clients := []*oauthDomain.Client{newTestClient(user.ID), newTestClient(user.ID)}

		// Setup expectations
		mockUseCase.On("ListByUser", mock.Anything, user.ID, 0, 50).Return(clients, nil).Once()

		// Execute
		c, w := createTestContext(http.MethodGet, "/client", nil)
		contextWithUser(c, user)
		handler.ListHandler(c)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListClientsResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Len(t, response.Clients, 2)

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Success_CustomPagination", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestClientHandler(t)
		user := newDeveloperUser()

		// Setup expectations
		mockUseCase.On("ListByUser", mock.Anything, user.ID, 10, 25).
			Return([]*oauthDomain.Client{}, nil).Once()

		// Execute
		c, w := createTestContext(http.MethodGet, "/client?offset=10&limit=25", nil)
		contextWithUser(c, user)
		handler.ListHandler(c)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidPagination", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestClientHandler(t)
		user := newDeveloperUser()

		// Execute
		c, w := createTestContext(http.MethodGet, "/client?offset=-1", nil)
		contextWithUser(c, user)
		handler.ListHandler(c)

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUseCase.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestClientHandler_GetHandler(t *testing.T) {
	t.Run("Success_OwnedClient", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestClientHandler(t)
		user := newDeveloperUser()
		client := newTestClient(user.ID)

		// Setup expectations
		mockUseCase.On("GetByID", mock.Anything, client.ID, user.ID).Return(client, nil).Once()

		// Execute
		c, w := createTestContext(http.MethodGet, "/client/"+client.ID.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: client.ID.String()}}
		contextWithUser(c, user)
		handler.GetHandler(c)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)

		payload := response["client"].(map[string]interface{})
		assert.Equal(t, client.ID.String(), payload["id"])
		assert.Equal(t, "web-app", payload["client_id"])
		assert.NotContains(t, payload, "client_secret")

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidUUID", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestClientHandler(t)
		user := newDeveloperUser()

		// Execute
		c, w := createTestContext(http.MethodGet, "/client/not-a-uuid", nil)
		c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
		contextWithUser(c, user)
		handler.GetHandler(c)

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Contains(t, response["message"], "invalid client ID format")

		mockUseCase.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestClientHandler(t)
		user := newDeveloperUser()
		clientID := uuid.Must(uuid.NewV7())

		// Setup expectations
		mockUseCase.On("GetByID", mock.Anything, clientID, user.ID).
			Return(nil, oauthDomain.ErrClientNotFound).Once()

		// Execute
		c, w := createTestContext(http.MethodGet, "/client/"+clientID.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: clientID.String()}}
		contextWithUser(c, user)
		handler.GetHandler(c)

		// Assert
		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_ForeignClient", func(t *testing.T) {
		handler, mockUseCase, _ := setupTestClientHandler(t)
		user := newDeveloperUser()
		clientID := uuid.Must(uuid.NewV7())

		// Setup expectations
		mockUseCase.On("GetByID", mock.Anything, clientID, user.ID).
			Return(nil, oauthDomain.ErrClientForbidden).Once()

		// Execute
		c, w := createTestContext(http.MethodGet, "/client/"+clientID.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: clientID.String()}}
		contextWithUser(c, user)
		handler.GetHandler(c)

		// Assert
		assert.Equal(t, http.StatusForbidden, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestClientHandler_UpdateHandler(t *testing.T) {
	t.Run("Success_PartialUpdate", func(t *testing.T) {
		handler, mockUseCase, mockAuditLogs := setupTestClientHandler(t)
		user := newDeveloperUser()
		client := newTestClient(user.ID)
		client.ClientName = "Renamed App"

		newName := "Renamed App"
		request := dto.UpdateClientRequest{ClientName: &newName}

		// Setup expectations
		mockUseCase.On("Update", mock.Anything, client.ID, user.ID, mock.MatchedBy(func(input *oauthDomain.UpdateClientInput) bool {
			return input.ClientName != nil && *input.ClientName == newName &&
				input.RedirectURIs == nil && input.IsPublic == nil
		})).Return(client, nil).Once()
		mockAuditLogs.expectAuditRecord(auditDomain.ActionClientUpdated)

		// Execute
		c, w := createTestContext(http.MethodPut, "/client/"+client.ID.String(), request)
		c.Params = gin.Params{{Key: "id", Value: client.ID.String()}}
		contextWithUser(c, user)
		handler.UpdateHandler(c)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "Renamed App", response["client"].(map[string]interface{})["client_name"])

		mockUseCase.AssertExpectations(t)
		mockAuditLogs.AssertExpectations(t)
	})

	t.Run("Error_SystemClientProtected", func(t *testing.T) {
		handler, mockUseCase, mockAuditLogs := setupTestClientHandler(t)
		user := newDeveloperUser()
		clientID := uuid.Must(uuid.NewV7())

		// Setup expectations
		mockUseCase.On("Update", mock.Anything, clientID, user.ID, mock.Anything).
			Return(nil, oauthDomain.ErrSystemClientProtected).Once()

		// Execute
		c, w := createTestContext(http.MethodPut, "/client/"+clientID.String(), dto.UpdateClientRequest{})
		c.Params = gin.Params{{Key: "id", Value: clientID.String()}}
		contextWithUser(c, user)
		handler.UpdateHandler(c)

		// Assert
		assert.Equal(t, http.StatusForbidden, w.Code)
		mockUseCase.AssertExpectations(t)
		mockAuditLogs.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})
}

func TestClientHandler_DeleteHandler(t *testing.T) {
	t.Run("Success_SoftDeletes", func(t *testing.T) {
		handler, mockUseCase, mockAuditLogs := setupTestClientHandler(t)
		user := newDeveloperUser()
		clientID := uuid.Must(uuid.NewV7())

		// Setup expectations
		mockUseCase.On("SoftDelete", mock.Anything, clientID, user.ID).Return(nil).Once()
		mockAuditLogs.expectAuditRecord(auditDomain.ActionClientDeleted)

		// Execute
		c, w := createTestContext(http.MethodDelete, "/client/"+clientID.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: clientID.String()}}
		contextWithUser(c, user)
		handler.DeleteHandler(c)

		// Assert
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.Bytes())
		mockUseCase.AssertExpectations(t)
		mockAuditLogs.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase, mockAuditLogs := setupTestClientHandler(t)
		user := newDeveloperUser()
		clientID := uuid.Must(uuid.NewV7())

		// Setup expectations
		mockUseCase.On("SoftDelete", mock.Anything, clientID, user.ID).
			Return(oauthDomain.ErrClientNotFound).Once()

		// Execute
		c, w := createTestContext(http.MethodDelete, "/client/"+clientID.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: clientID.String()}}
		contextWithUser(c, user)
		handler.DeleteHandler(c)

		// Assert
		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUseCase.AssertExpectations(t)
		mockAuditLogs.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})
}

func TestClientHandler_RotateSecretHandler(t *testing.T) {
	t.Run("Success_ReturnsNewSecretAndGraceDeadline", func(t *testing.T) {
		handler, mockUseCase, mockAuditLogs := setupTestClientHandler(t)
		user := newDeveloperUser()
		client := newTestClient(user.ID)
		oldSecretExpiry := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)

		// Setup expectations
		mockUseCase.On("RotateSecret", mock.Anything, client.ID, user.ID).
			Return(&oauthDomain.RotateSecretOutput{
				Client:          client,
				PlaintextSecret: "cs_live_fedcba9876543210",
				OldSecretExpiry: oldSecretExpiry,
			}, nil).Once()
		mockAuditLogs.expectAuditRecord(auditDomain.ActionClientSecretRotated)

		// Execute
		c, w := createTestContext(http.MethodPost, "/client/"+client.ID.String()+"/rotate-secret", nil)
		c.Params = gin.Params{{Key: "id", Value: client.ID.String()}}
		contextWithUser(c, user)
		handler.RotateSecretHandler(c)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.RotateSecretResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "web-app", response.ClientID)
		assert.Equal(t, "cs_live_fedcba9876543210", response.ClientSecret)
		assert.True(t, oldSecretExpiry.Equal(response.OldSecretExpiresAt))
		assert.NotEmpty(t, response.Message)

		mockUseCase.AssertExpectations(t)
		mockAuditLogs.AssertExpectations(t)
	})

	t.Run("Error_ForeignClient", func(t *testing.T) {
		handler, mockUseCase, mockAuditLogs := setupTestClientHandler(t)
		user := newDeveloperUser()
		clientID := uuid.Must(uuid.NewV7())

		// Setup expectations
		mockUseCase.On("RotateSecret", mock.Anything, clientID, user.ID).
			Return(nil, oauthDomain.ErrClientForbidden).Once()

		// Execute
		c, w := createTestContext(http.MethodPost, "/client/"+clientID.String()+"/rotate-secret", nil)
		c.Params = gin.Params{{Key: "id", Value: clientID.String()}}
		contextWithUser(c, user)
		handler.RotateSecretHandler(c)

		// Assert
		assert.Equal(t, http.StatusForbidden, w.Code)
		mockUseCase.AssertExpectations(t)
		mockAuditLogs.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})
}
