package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	oauthUseCase "github.com/allisson/authd/internal/oauth/usecase"
)

// RunCleanCodes deletes authorization codes created more than the specified
// number of days ago. Consumed and expired codes are kept briefly for replay
// detection, so the cutoff is age based rather than expiry based.
// Supports dry-run mode to preview deletion count and both text/JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanCodes(
	ctx context.Context,
	maintenanceUseCase oauthUseCase.MaintenanceUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	dryRun bool,
	format string,
) error {
	// Validate days parameter
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning authorization codes",
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	count, err := maintenanceUseCase.CleanAuthorizationCodes(ctx, cutoff, dryRun)
	if err != nil {
		return fmt.Errorf("failed to clean authorization codes: %w", err)
	}

	// Output result based on format
	if format == "json" {
		result := map[string]interface{}{
			"count":   count,
			"days":    days,
			"dry_run": dryRun,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		if dryRun {
			_, _ = fmt.Fprintf(writer, "Dry-run mode: Would delete %d authorization code(s) older than %d day(s)\n", count, days)
		} else {
			_, _ = fmt.Fprintf(writer, "Successfully deleted %d authorization code(s) older than %d day(s)\n", count, days)
		}
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	return nil
}
