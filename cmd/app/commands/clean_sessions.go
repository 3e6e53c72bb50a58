package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	oauthUseCase "github.com/allisson/authd/internal/oauth/usecase"
)

// RunCleanSessions deletes all expired sessions.
// Supports both text/JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanSessions(
	ctx context.Context,
	maintenanceUseCase oauthUseCase.MaintenanceUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	logger.Info("cleaning expired sessions")

	count, err := maintenanceUseCase.CleanSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to clean sessions: %w", err)
	}

	// Output result based on format
	if format == "json" {
		result := map[string]interface{}{
			"count": count,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintf(writer, "Successfully deleted %d expired session(s)\n", count)
	}

	logger.Info("cleanup completed", slog.Int64("count", count))

	return nil
}
