package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	oauthDomain "github.com/allisson/authd/internal/oauth/domain"
	oauthUseCase "github.com/allisson/authd/internal/oauth/usecase"
)

// RunCreateScope registers a new scope definition clients may request.
// Supports both text/JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCreateScope(
	ctx context.Context,
	scopeUseCase oauthUseCase.ScopeUseCase,
	logger *slog.Logger,
	writer io.Writer,
	name, description string,
	isDefault bool,
	format string,
) error {
	logger.Info("creating scope",
		slog.String("name", name),
		slog.Bool("is_default", isDefault),
	)

	scope, err := scopeUseCase.Create(ctx, &oauthDomain.CreateScopeInput{
		Name:        name,
		Description: description,
		IsDefault:   isDefault,
	})
	if err != nil {
		return fmt.Errorf("failed to create scope: %w", err)
	}

	// Output result based on format
	if format == "json" {
		result := map[string]interface{}{
			"name":        scope.Name,
			"description": scope.Description,
			"is_default":  scope.IsDefault,
			"created_at":  scope.CreatedAt,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintf(writer, "Scope created successfully\n")
		_, _ = fmt.Fprintf(writer, "Name:        %s\n", scope.Name)
		_, _ = fmt.Fprintf(writer, "Description: %s\n", scope.Description)
		_, _ = fmt.Fprintf(writer, "Default:     %t\n", scope.IsDefault)
	}

	logger.Info("scope created", slog.String("name", scope.Name))

	return nil
}
