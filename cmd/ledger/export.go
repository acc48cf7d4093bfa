package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy tables between backends",
		Long: `Copy the ledger tables from one backend to another, e.g. from the
local SQLite file to the spreadsheet.

Rows the destination already has are left alone and only the missing tail is
appended, so an interrupted export can simply be run again. When a destination
table has diverged from the source it is replaced after confirmation (SQLite
destinations only).`,
		RunE: runExport,
	}

	cmd.Flags().String("from", config.BackendSQLite, "source backend (sqlite, sheets)")
	cmd.Flags().String("to", config.BackendSheets, "destination backend (sqlite, sheets)")
	cmd.Flags().StringSlice("table", nil, "tables to copy (default: every configured table)")
	cmd.Flags().BoolP("yes", "y", false, "replace diverged tables without asking")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	tables, _ := cmd.Flags().GetStringSlice("table")
	yes, _ := cmd.Flags().GetBool("yes")

	if from == to {
		return fmt.Errorf("source and destination are both %s", from)
	}

	app, err := loadApp()
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		tables = configuredTables(app)
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.HandleInterrupts(cmd.Context(), "Export", "Rows copied so far are kept; run export again to continue.")

	src, srcDB, err := openStore(ctx, app, from)
	if err != nil {
		return err
	}
	if srcDB != nil {
		defer func() { _ = srcDB.Close() }()
	}
	dst, dstDB, err := openStore(ctx, app, to)
	if err != nil {
		return err
	}
	if dstDB != nil {
		defer func() { _ = dstDB.Close() }()
	}

	reader := cli.NewNonBlockingReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	copier := &tableSync{
		src:      src,
		dst:      dst,
		progress: cmd.ErrOrStderr(),
		confirm: func(ctx context.Context, prompt string) (bool, error) {
			if yes {
				return true, nil
			}
			return cli.Confirm(ctx, reader, out, prompt)
		},
	}

	for _, table := range tables {
		result, err := copier.run(ctx, table)
		if err != nil {
			if interrupts.WasInterrupted() {
				return nil
			}
			return fmt.Errorf("failed to export %s: %w", table, err)
		}
		if _, err := fmt.Fprintln(out, result.summary()); err != nil {
			return err
		}
	}
	return nil
}

// configuredTables lists the tables named in the configuration.
func configuredTables(app *config.App) []string {
	var tables []string
	for _, t := range []string{app.Tables.Lists, app.Tables.Ledger, app.Tables.Shopping, app.Tables.Work, app.Tables.Budgets} {
		if t != "" && !slices.Contains(tables, t) {
			tables = append(tables, t)
		}
	}
	return tables
}

// tableReplacer is implemented by destinations that can swap a whole table.
type tableReplacer interface {
	ReplaceTable(ctx context.Context, table string, rows [][]string) error
}

// tableSync copies one table at a time from src to dst.
type tableSync struct {
	src      service.TabularStore
	dst      service.TabularStore
	confirm  func(ctx context.Context, prompt string) (bool, error)
	progress io.Writer
}

type syncResult struct {
	table    string
	copied   int
	replaced bool
	skipped  bool
}

func (r syncResult) summary() string {
	switch {
	case r.skipped:
		return cli.FormatWarning(fmt.Sprintf("%s: skipped, destination has diverged", r.table))
	case r.replaced:
		return cli.FormatSuccess(fmt.Sprintf("%s: replaced with %d rows", r.table, r.copied))
	case r.copied == 0:
		return cli.FormatInfo(fmt.Sprintf("%s: already up to date", r.table))
	}
	return cli.FormatSuccess(fmt.Sprintf("%s: %d rows copied", r.table, r.copied))
}

func (s *tableSync) run(ctx context.Context, table string) (syncResult, error) {
	result := syncResult{table: table}

	srcRows, err := s.src.ReadAll(ctx, table)
	if err != nil {
		return result, err
	}
	dstRows, err := s.dst.ReadAll(ctx, table)
	if errors.Is(err, common.ErrTableMissing) {
		dstRows, err = nil, nil
	}
	if err != nil {
		return result, err
	}

	if !isPrefix(dstRows, srcRows) {
		return s.replace(ctx, result, srcRows, len(dstRows))
	}

	pending := srcRows[len(dstRows):]
	if len(pending) == 0 {
		return result, nil
	}

	bar := s.newBar(table, len(pending))
	for _, row := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.dst.AppendRow(ctx, table, row); err != nil {
			return result, err
		}
		result.copied++
		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}
	return result, nil
}

func (s *tableSync) replace(ctx context.Context, result syncResult, rows [][]string, existing int) (syncResult, error) {
	replacer, ok := s.dst.(tableReplacer)
	if !ok {
		slog.Warn("Destination table has diverged from the source", "table", result.table)
		result.skipped = true
		return result, nil
	}

	ok, err := s.confirm(ctx, fmt.Sprintf("%s has diverged. Replace its %d rows with the %d source rows?", result.table, existing, len(rows)))
	if err != nil {
		return result, err
	}
	if !ok {
		result.skipped = true
		return result, nil
	}

	if err := replacer.ReplaceTable(ctx, result.table, rows); err != nil {
		return result, err
	}
	result.replaced = true
	result.copied = len(rows)
	return result, nil
}

func (s *tableSync) newBar(table string, total int) *progressbar.ProgressBar {
	w := s.progress
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(table),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}

// isPrefix reports whether every row of head equals the row at the same
// position of rows. Trailing empty cells are not significant.
func isPrefix(head, rows [][]string) bool {
	if len(head) > len(rows) {
		return false
	}
	for i := range head {
		if !slices.Equal(trimRow(head[i]), trimRow(rows[i])) {
			return false
		}
	}
	return true
}

func trimRow(row []string) []string {
	end := len(row)
	for end > 0 && row[end-1] == "" {
		end--
	}
	return row[:end]
}
