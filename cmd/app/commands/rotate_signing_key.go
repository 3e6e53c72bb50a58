package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	cryptoUseCase "github.com/allisson/authd/internal/crypto/usecase"
)

// RunRotateSigningKey retires the active access token signing key and creates
// a fresh one. The retired key stays published in the JWKS so outstanding
// tokens keep verifying until they expire.
// Supports both text/JSON output formats.
//
// Requirements: Database must be migrated and the KMS keeper reachable.
func RunRotateSigningKey(
	ctx context.Context,
	keyUseCase cryptoUseCase.KeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	logger.Info("rotating access token signing key")

	key, err := keyUseCase.RotateAccessTokenKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to rotate signing key: %w", err)
	}

	// Output result based on format
	if format == "json" {
		result := map[string]interface{}{
			"id":         key.ID,
			"kid":        key.Kid,
			"algorithm":  key.Algorithm,
			"created_at": key.CreatedAt,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintf(writer, "Signing key rotated successfully\n")
		_, _ = fmt.Fprintf(writer, "New Kid:   %s\n", key.Kid)
		_, _ = fmt.Fprintf(writer, "Algorithm: %s\n", key.Algorithm)
		_, _ = fmt.Fprintf(writer, "\nRestart running servers to pick up the new key.\n")
	}

	logger.Info("signing key rotated", slog.String("kid", key.Kid))

	return nil
}
