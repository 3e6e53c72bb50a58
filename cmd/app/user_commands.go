package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/authd/cmd/app/commands"
	"github.com/allisson/authd/internal/app"
	"github.com/allisson/authd/internal/config"
)

func getUserCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-user",
			Usage: "Register a new user account",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Required: true,
					Usage:    "Email address (stored lowercase, unique)",
				},
				&cli.StringFlag{
					Name:  "username",
					Usage: "Optional username (unique when set)",
				},
				&cli.StringFlag{
					Name:  "full-name",
					Usage: "Optional display name",
				},
				&cli.StringFlag{
					Name:     "password",
					Required: true,
					Usage:    "Account password",
				},
				&cli.StringFlag{
					Name:  "account-type",
					Value: "user",
					Usage: "Account type: 'user', 'developer' or 'hybrid'",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateUser(
					ctx,
					userUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("username"),
					cmd.String("full-name"),
					cmd.String("password"),
					cmd.String("account-type"),
					cmd.String("format"),
				)
			},
		},
	}
}
