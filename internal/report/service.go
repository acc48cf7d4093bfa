package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// Options configures a Service.
type Options struct {
	LedgerTable  string
	BudgetsTable string
	People       []string
	Timeout      time.Duration
}

// Service reads the ledger and budgets tables and renders reports.
type Service struct {
	store service.TabularStore
	opts  Options
}

// NewService creates a Service over store.
func NewService(store service.TabularStore, opts Options) *Service {
	return &Service{store: store, opts: opts}
}

// Report renders the report of year, or of one month when month is 1..12.
func (s *Service) Report(ctx context.Context, year, month int) (string, error) {
	if month < 0 || month > 12 || year <= 0 {
		return "", common.NewValidationError("Pick a month between 1 and 12, or 0 for the whole year.")
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	rows, err := s.store.ReadAll(ctx, s.opts.LedgerTable)
	if err != nil {
		return "", common.Unavailable("read ledger "+s.opts.LedgerTable, err)
	}

	budgets, err := s.budgets(ctx)
	if err != nil {
		return "", err
	}

	scope := Scope{Year: year, Month: month}
	slog.Debug("Building report", "year", year, "month", month, "rows", len(rows), "budget_people", len(budgets))
	return Build(rows, scope, budgets, s.opts.People), nil
}

// budgets loads the budgets table. No table configured, or none present,
// means no targets.
func (s *Service) budgets(ctx context.Context) (Budgets, error) {
	if s.opts.BudgetsTable == "" {
		return Budgets{}, nil
	}
	rows, err := s.store.ReadAll(ctx, s.opts.BudgetsTable)
	if errors.Is(err, common.ErrTableMissing) {
		slog.Debug("Budgets table not found, reporting without targets", "table", s.opts.BudgetsTable)
		return Budgets{}, nil
	}
	if err != nil {
		return nil, common.Unavailable("read budgets "+s.opts.BudgetsTable, err)
	}
	return ParseBudgets(rows), nil
}
