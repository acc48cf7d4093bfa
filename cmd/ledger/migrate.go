package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the local SQLite schema (tables and sessions)
to the latest version.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")

	app, err := loadApp()
	if err != nil {
		return err
	}
	dbPath := app.Database.Path

	slog.Info("Starting database migration", "database", dbPath, "status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	before, err := store.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if status {
		_, err = fmt.Fprintln(out, cli.RenderBox("🗄️  Database Migration Status",
			fmt.Sprintf("Database: %s\nCurrent version: %d\nLatest version: %d",
				dbPath, before, storage.ExpectedSchemaVersion)))
		return err
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	after, err := store.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if after == before {
		_, err = fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Database already at version %d", after)))
		return err
	}
	_, err = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database migrated from version %d to %d", before, after)))
	return err
}
