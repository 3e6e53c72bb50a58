package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authd/internal/oauth/domain"
)

// ScopeResponse represents a scope with its human-readable description.
type ScopeResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// MapScopesToResponses converts scope definitions to response payloads.
func MapScopesToResponses(scopes []domain.ScopeDefinition) []ScopeResponse {
	responses := make([]ScopeResponse, 0, len(scopes))
	for _, scope := range scopes {
		responses = append(responses, ScopeResponse{
			Name:        scope.Name,
			Description: scope.Description,
		})
	}
	return responses
}

// ConsentPromptResponse tells the caller that user consent is required. It
// carries everything the consent page needs to render the prompt and echo
// the authorization parameters back on the decision endpoint.
type ConsentPromptResponse struct {
	ClientID            string          `json:"client_id"`
	ClientName          string          `json:"client_name"`
	Scopes              []ScopeResponse `json:"scopes"`
	ConsentURL          string          `json:"consent_url"`
	RedirectURI         string          `json:"redirect_uri"`
	ResponseType        string          `json:"response_type"`
	Scope               string          `json:"scope"`
	State               string          `json:"state,omitempty"`
	CodeChallenge       string          `json:"code_challenge"`
	CodeChallengeMethod string          `json:"code_challenge_method"`
}

// MapConsentPromptToResponse converts a domain consent prompt to its
// response payload.
func MapConsentPromptToResponse(prompt *domain.ConsentPrompt) ConsentPromptResponse {
	return ConsentPromptResponse{
		ClientID:            prompt.ClientID,
		ClientName:          prompt.ClientName,
		Scopes:              MapScopesToResponses(prompt.Scopes),
		ConsentURL:          prompt.ConsentURL,
		RedirectURI:         prompt.RedirectURI,
		ResponseType:        prompt.ResponseType,
		Scope:               prompt.Scope,
		State:               prompt.State,
		CodeChallenge:       prompt.CodeChallenge,
		CodeChallengeMethod: prompt.CodeChallengeMethod,
	}
}

// ClientResponse represents an OAuth client in API responses. Secret hashes
// never leave the server.
type ClientResponse struct {
	ID              uuid.UUID  `json:"id"`
	ClientID        string     `json:"client_id"`
	ClientName      string     `json:"client_name"`
	RedirectURIs    []string   `json:"redirect_uris"`
	GrantTypes      []string   `json:"grant_types"`
	IsPublic        bool       `json:"is_public"`
	IsActive        bool       `json:"is_active"`
	SecretExpiresAt *time.Time `json:"secret_expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// MapClientToResponse converts a domain client to a response payload.
func MapClientToResponse(client *domain.Client) ClientResponse {
	return ClientResponse{
		ID:              client.ID,
		ClientID:        client.ClientID,
		ClientName:      client.ClientName,
		RedirectURIs:    client.RedirectURIs,
		GrantTypes:      client.GrantTypes,
		IsPublic:        client.IsPublic,
		IsActive:        client.IsActive,
		SecretExpiresAt: client.SecretExpiresAt,
		CreatedAt:       client.CreatedAt,
		UpdatedAt:       client.UpdatedAt,
	}
}

// ClientDetailResponse wraps a single client payload.
type ClientDetailResponse struct {
	Client ClientResponse `json:"client"`
}

// MapClientToDetailResponse converts a domain client to a wrapped response.
func MapClientToDetailResponse(client *domain.Client) ClientDetailResponse {
	return ClientDetailResponse{Client: MapClientToResponse(client)}
}

// CreatedClientResponse is a client payload extended with the one-time
// plaintext secret. Public clients have no secret and omit the field.
type CreatedClientResponse struct {
	ClientResponse
	ClientSecret string `json:"client_secret,omitempty"`
}

// CreateClientResponse wraps the created client together with its plaintext
// secret. The plaintext is shown exactly once and never again.
type CreateClientResponse struct {
	Client CreatedClientResponse `json:"client"`
}

// MapCreateClientOutputToResponse converts a client creation result to its
// response payload.
func MapCreateClientOutputToResponse(output *domain.CreateClientOutput) CreateClientResponse {
	return CreateClientResponse{
		Client: CreatedClientResponse{
			ClientResponse: MapClientToResponse(output.Client),
			ClientSecret:   output.PlaintextSecret,
		},
	}
}

// ListClientsResponse represents the response body for client listing.
type ListClientsResponse struct {
	Clients []ClientResponse `json:"clients"`
}

// MapClientsToListResponse converts a list of domain clients to a list
// response.
func MapClientsToListResponse(clients []*domain.Client) ListClientsResponse {
	responses := make([]ClientResponse, 0, len(clients))
	for _, client := range clients {
		responses = append(responses, MapClientToResponse(client))
	}
	return ListClientsResponse{Clients: responses}
}

// RotateSecretResponse carries the new plaintext secret and the grace
// deadline after which the previous secret stops being accepted.
type RotateSecretResponse struct {
	ClientID           string    `json:"client_id"`
	ClientSecret       string    `json:"client_secret"`
	OldSecretExpiresAt time.Time `json:"old_secret_expires_at"`
	Message            string    `json:"message"`
}

// MapRotateSecretOutputToResponse converts a secret rotation result to its
// response payload.
func MapRotateSecretOutputToResponse(output *domain.RotateSecretOutput) RotateSecretResponse {
	return RotateSecretResponse{
		ClientID:           output.Client.ClientID,
		ClientSecret:       output.PlaintextSecret,
		OldSecretExpiresAt: output.OldSecretExpiry,
		Message:            "Store the new client secret now. The previous secret stops working at old_secret_expires_at.",
	}
}

// ConsentResponse represents an active consent grant in API responses.
type ConsentResponse struct {
	ID         uuid.UUID       `json:"id"`
	ClientID   string          `json:"client_id"`
	ClientName string          `json:"client_name"`
	Scopes     []ScopeResponse `json:"scopes"`
	GrantedAt  time.Time       `json:"granted_at"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
}

// MapConsentToResponse converts a consent with client details to a response
// payload.
func MapConsentToResponse(consent *domain.ConsentWithClient) ConsentResponse {
	return ConsentResponse{
		ID:         consent.Consent.ID,
		ClientID:   consent.Consent.ClientID,
		ClientName: consent.ClientName,
		Scopes:     MapScopesToResponses(consent.Scopes),
		GrantedAt:  consent.Consent.GrantedAt,
		ExpiresAt:  consent.Consent.ExpiresAt,
	}
}

// ListConsentsResponse represents the response body for consent listing.
type ListConsentsResponse struct {
	Consents []ConsentResponse `json:"consents"`
}

// MapConsentsToListResponse converts a list of consents to a list response.
func MapConsentsToListResponse(consents []*domain.ConsentWithClient) ListConsentsResponse {
	responses := make([]ConsentResponse, 0, len(consents))
	for _, consent := range consents {
		responses = append(responses, MapConsentToResponse(consent))
	}
	return ListConsentsResponse{Consents: responses}
}
