// Package dto contains the request and response payloads of the OAuth HTTP
// API. Requests are thin binding structs; validation happens in the use
// cases.
package dto

import (
	"github.com/google/uuid"

	"github.com/allisson/authd/internal/oauth/domain"
)

// decisionApprove is the only decision value that grants consent. Anything
// else is treated as a denial.
const decisionApprove = "approve"

// AuthorizeRequest represents the query parameters of an authorization
// request.
type AuthorizeRequest struct {
	ClientID            string `form:"client_id"`
	RedirectURI         string `form:"redirect_uri"`
	ResponseType        string `form:"response_type"`
	Scope               string `form:"scope"`
	State               string `form:"state"`
	CodeChallenge       string `form:"code_challenge"`
	CodeChallengeMethod string `form:"code_challenge_method"`
}

// ToAuthorizeInput converts the request to a domain input for the given
// authenticated user.
func (r *AuthorizeRequest) ToAuthorizeInput(userID uuid.UUID) *domain.AuthorizeInput {
	return &domain.AuthorizeInput{
		ClientID:            r.ClientID,
		RedirectURI:         r.RedirectURI,
		ResponseType:        r.ResponseType,
		Scope:               r.Scope,
		State:               r.State,
		CodeChallenge:       r.CodeChallenge,
		CodeChallengeMethod: r.CodeChallengeMethod,
		UserID:              userID,
	}
}

// ConsentDecisionRequest represents the consent decision form: the user's
// choice plus the echoed authorization parameters from the consent prompt.
type ConsentDecisionRequest struct {
	Decision            string `form:"decision" json:"decision"`
	ClientID            string `form:"client_id" json:"client_id"`
	RedirectURI         string `form:"redirect_uri" json:"redirect_uri"`
	ResponseType        string `form:"response_type" json:"response_type"`
	Scope               string `form:"scope" json:"scope"`
	State               string `form:"state" json:"state"`
	CodeChallenge       string `form:"code_challenge" json:"code_challenge"`
	CodeChallengeMethod string `form:"code_challenge_method" json:"code_challenge_method"`
}

// ToConsentDecisionInput converts the request to a domain input for the
// given authenticated user.
func (r *ConsentDecisionRequest) ToConsentDecisionInput(userID uuid.UUID) *domain.ConsentDecisionInput {
	return &domain.ConsentDecisionInput{
		Approved: r.Decision == decisionApprove,
		Authorize: domain.AuthorizeInput{
			ClientID:            r.ClientID,
			RedirectURI:         r.RedirectURI,
			ResponseType:        r.ResponseType,
			Scope:               r.Scope,
			State:               r.State,
			CodeChallenge:       r.CodeChallenge,
			CodeChallengeMethod: r.CodeChallengeMethod,
			UserID:              userID,
		},
	}
}

// ExchangeTokenRequest represents the token endpoint parameters. Clients
// send application/x-www-form-urlencoded per RFC 6749; JSON is accepted as
// well.
type ExchangeTokenRequest struct {
	GrantType    string `form:"grant_type" json:"grant_type"`
	Code         string `form:"code" json:"code"`
	RedirectURI  string `form:"redirect_uri" json:"redirect_uri"`
	ClientID     string `form:"client_id" json:"client_id"`
	ClientSecret string `form:"client_secret" json:"client_secret"`
	CodeVerifier string `form:"code_verifier" json:"code_verifier"`
}

// ToExchangeTokenInput converts the request to a domain input.
func (r *ExchangeTokenRequest) ToExchangeTokenInput() *domain.ExchangeTokenInput {
	return &domain.ExchangeTokenInput{
		GrantType:    r.GrantType,
		Code:         r.Code,
		RedirectURI:  r.RedirectURI,
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		CodeVerifier: r.CodeVerifier,
	}
}

// CreateClientRequest represents the request body for client registration.
type CreateClientRequest struct {
	ClientName   string   `json:"client_name"`
	RedirectURIs []string `json:"redirect_uris"`
	GrantTypes   []string `json:"grant_types"`
	IsPublic     bool     `json:"is_public"`
}

// ToCreateClientInput converts the request to a domain input owned by the
// given user.
func (r *CreateClientRequest) ToCreateClientInput(userID uuid.UUID) *domain.CreateClientInput {
	return &domain.CreateClientInput{
		ClientName:   r.ClientName,
		RedirectURIs: r.RedirectURIs,
		GrantTypes:   r.GrantTypes,
		IsPublic:     r.IsPublic,
		UserID:       userID,
	}
}

// UpdateClientRequest represents the request body for a partial client
// update. Nil and absent fields keep their current values.
type UpdateClientRequest struct {
	ClientName   *string  `json:"client_name"`
	RedirectURIs []string `json:"redirect_uris"`
	GrantTypes   []string `json:"grant_types"`
	IsPublic     *bool    `json:"is_public"`
}

// ToUpdateClientInput converts the request to a domain input.
func (r *UpdateClientRequest) ToUpdateClientInput() *domain.UpdateClientInput {
	return &domain.UpdateClientInput{
		ClientName:   r.ClientName,
		RedirectURIs: r.RedirectURIs,
		GrantTypes:   r.GrantTypes,
		IsPublic:     r.IsPublic,
	}
}
