package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/authd/cmd/app/commands"
	"github.com/allisson/authd/internal/app"
	"github.com/allisson/authd/internal/config"
)

func getOAuthCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-scope",
			Usage: "Register a new OAuth2 scope definition",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Scope name (e.g., read, write)",
				},
				&cli.StringFlag{
					Name:     "description",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Human-readable description shown on the consent screen",
				},
				&cli.BoolFlag{
					Name:  "default",
					Value: false,
					Usage: "Grant this scope when an authorization request omits scope",
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

				scopeUseCase, err := container.ScopeUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateScope(
					ctx,
					scopeUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.String("description"),
					cmd.Bool("default"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "create-client",
			Usage: "Register a new OAuth2 client owned by a developer account",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "owner-email",
					Required: true,
					Usage:    "Email of the developer account that owns the client",
				},
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Human-readable client name shown on the consent screen",
				},
				&cli.StringSliceFlag{
					Name:     "redirect-uri",
					Required: true,
					Usage:    "Allowed redirect URI (repeat for multiple)",
				},
				&cli.BoolFlag{
					Name:  "public",
					Value: false,
					Usage: "Register a public client (no client secret)",
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

				clientUseCase, err := container.ClientUseCase()
				if err != nil {
					return err
				}
				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateClient(
					ctx,
					clientUseCase,
					userUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("owner-email"),
					cmd.String("name"),
					cmd.StringSlice("redirect-uri"),
					cmd.Bool("public"),
					cmd.String("format"),
				)
			},
		},
	}
}
