package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	oauthDomain "github.com/allisson/authd/internal/oauth/domain"
	oauthUseCase "github.com/allisson/authd/internal/oauth/usecase"
	userUseCase "github.com/allisson/authd/internal/user/usecase"
)

// RunCreateClient registers a new OAuth client owned by the user with the
// given email. The plaintext secret is printed exactly once and cannot be
// recovered afterwards. Supports both text/JSON output formats.
//
// Requirements: Database must be migrated and accessible, and the owner must
// be a developer account.
func RunCreateClient(
	ctx context.Context,
	clientUseCase oauthUseCase.ClientUseCase,
	users userUseCase.UserUseCase,
	logger *slog.Logger,
	writer io.Writer,
	ownerEmail, clientName string,
	redirectURIs []string,
	isPublic bool,
	format string,
) error {
	logger.Info("creating client",
		slog.String("client_name", clientName),
		slog.String("owner_email", ownerEmail),
	)

	owner, err := users.GetByEmail(ctx, ownerEmail)
	if err != nil {
		return fmt.Errorf("failed to resolve owner: %w", err)
	}

	output, err := clientUseCase.Create(ctx, &oauthDomain.CreateClientInput{
		ClientName:   clientName,
		RedirectURIs: redirectURIs,
		GrantTypes:   []string{"authorization_code"},
		IsPublic:     isPublic,
		UserID:       owner.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	// Output result based on format
	if format == "json" {
		result := map[string]interface{}{
			"id":            output.Client.ID,
			"client_id":     output.Client.ClientID,
			"client_name":   output.Client.ClientName,
			"redirect_uris": output.Client.RedirectURIs,
			"is_public":     output.Client.IsPublic,
			"created_at":    output.Client.CreatedAt,
		}
		if output.PlaintextSecret != "" {
			result["client_secret"] = output.PlaintextSecret
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintf(writer, "Client created successfully\n")
		_, _ = fmt.Fprintf(writer, "Client ID:   %s\n", output.Client.ClientID)
		_, _ = fmt.Fprintf(writer, "Client name: %s\n", output.Client.ClientName)
		if output.PlaintextSecret != "" {
			_, _ = fmt.Fprintf(writer, "Secret:      %s\n", output.PlaintextSecret)
			_, _ = fmt.Fprintf(writer, "\nStore the secret now. It will not be shown again.\n")
		}
	}

	logger.Info("client created", slog.String("client_id", output.Client.ClientID))

	return nil
}
