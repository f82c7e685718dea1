package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/peereval/internal/bootstrap"
	"github.com/okian/peereval/internal/domain/model"
)

var tokenCmd = &cobra.Command{
	Use:   "token ROLE USER_ID",
	Short: "Mint a bearer token for an existing user",
	Long: `Mint a bearer token for a user listed in the users file, signed with the
configured secret. Useful for scripting against the HTTP API.`,
	Args: cobra.ExactArgs(2),
	RunE: runToken,
}

func runToken(cmd *cobra.Command, args []string) error {
	role, ok := model.ParseRole(args[0])
	if !ok {
		return fmt.Errorf("unknown role %q", args[0])
	}
	userID := args[1]
	return withApp(cmd, func(_ context.Context, app *bootstrap.App) error {
		if _, ok := app.Directory.User(role, userID); !ok {
			return fmt.Errorf("no %s with id %q", role, userID)
		}
		tok, err := app.Identity.Mint(role, userID)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"access_token": tok.Value,
			"token_type":   "bearer",
			"expires_at":   tok.ExpiresAt,
		})
	})
}
