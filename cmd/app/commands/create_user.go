package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	userDomain "github.com/allisson/authd/internal/user/domain"
	userUseCase "github.com/allisson/authd/internal/user/usecase"
)

// RunCreateUser registers a new user account from the command line. Feature
// flags follow the account type the same way the registration endpoint
// derives them. Supports both text/JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCreateUser(
	ctx context.Context,
	useCase userUseCase.UserUseCase,
	logger *slog.Logger,
	writer io.Writer,
	email, username, fullName, password, accountType, format string,
) error {
	logger.Info("creating user",
		slog.String("email", email),
		slog.String("account_type", accountType),
	)

	user, err := useCase.Register(ctx, &userDomain.RegisterUserInput{
		Email:       email,
		Username:    username,
		Password:    password,
		FullName:    fullName,
		AccountType: userDomain.AccountType(accountType),
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	// Output result based on format
	if format == "json" {
		result := map[string]interface{}{
			"id":           user.ID,
			"email":        user.Email,
			"account_type": string(user.AccountType()),
			"created_at":   user.CreatedAt,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintf(writer, "User created successfully\n")
		_, _ = fmt.Fprintf(writer, "ID:           %s\n", user.ID)
		_, _ = fmt.Fprintf(writer, "Email:        %s\n", user.Email)
		_, _ = fmt.Fprintf(writer, "Account type: %s\n", user.AccountType())
	}

	logger.Info("user created", slog.String("user_id", user.ID.String()))

	return nil
}
