package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the household report",
		Long: `Print spending per person and category for one month, or for a
whole year with --month 0, with budget gauges when a budgets table exists.`,
		RunE: runReport,
	}

	now := time.Now()
	cmd.Flags().Int("year", now.Year(), "report year")
	cmd.Flags().Int("month", int(now.Month()), "report month (1-12, 0 for the whole year)")
	cmd.Flags().Bool("plain", false, "print plain text without styling")

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	year, _ := cmd.Flags().GetInt("year")
	month, _ := cmd.Flags().GetInt("month")
	plain, _ := cmd.Flags().GetBool("plain")

	app, err := loadApp()
	if err != nil {
		return err
	}

	store, db, err := openStore(ctx, app, app.Store.Backend)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}

	text, err := report.NewService(store, report.Options{
		LedgerTable:  app.Tables.Ledger,
		BudgetsTable: app.Tables.Budgets,
		People:       app.People,
		Timeout:      app.Store.Timeout,
	}).Report(ctx, year, month)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if plain {
		_, err = fmt.Fprintln(out, text)
		return err
	}
	_, err = fmt.Fprintln(out, cli.RenderReport(text))
	return err
}
