package main

import (
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/tui"
	"github.com/Veraticus/spice-ledger/internal/tui/themes"
	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the ledger from the terminal",
		Long: `Open an interactive console that sends events straight to the
conversation engine, as the webhook would. The user id must be on the
allow-list (users.allowed).`,
		RunE: runChat,
	}

	cmd.Flags().Int64("user", 0, "user id to chat as (default: first allowed user)")
	cmd.Flags().String("theme", "default", "color theme (default, catppuccin)")

	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	app, err := loadApp()
	if err != nil {
		return err
	}

	userID, _ := cmd.Flags().GetInt64("user")
	if userID == 0 {
		userID = app.Users.Allowed[0]
	}
	if !app.IsAllowed(userID) {
		return fmt.Errorf("user %d is not in users.allowed", userID)
	}
	themeName, _ := cmd.Flags().GetString("theme")

	l, err := newLedger(ctx, app)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	l.engine.Sessions().Start(ctx)

	return tui.Run(ctx, l.engine, userID, tui.WithTheme(themes.ByName(themeName)))
}
