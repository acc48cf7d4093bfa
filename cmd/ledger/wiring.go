package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/conversation"
	"github.com/Veraticus/spice-ledger/internal/metrics"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/Veraticus/spice-ledger/internal/resolver"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/sheets"
	"github.com/Veraticus/spice-ledger/internal/storage"
	"github.com/Veraticus/spice-ledger/internal/taxonomy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
)

// ledger is everything a running command needs, built once from config.App.
type ledger struct {
	app      *config.App
	store    service.TabularStore
	engine   *conversation.Engine
	reports  *report.Service
	registry *prometheus.Registry
	closers  []func() error
}

// openStore opens the configured backend. The SQLite handle is also returned
// so callers can reuse it for sessions.
func openStore(ctx context.Context, app *config.App, backend string) (service.TabularStore, *storage.SQLiteStorage, error) {
	switch backend {
	case config.BackendSQLite:
		db, err := storage.Open(ctx, app.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, db, nil
	case config.BackendSheets:
		sheetsConfig, err := config.LoadSheetsConfig(viper.GetViper())
		if err != nil {
			return nil, nil, fmt.Errorf("google sheets is not configured: %w", err)
		}
		store, err := sheets.NewStore(ctx, *sheetsConfig, slog.Default())
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// newLedger wires the store, caches, report service and conversation engine.
func newLedger(ctx context.Context, app *config.App) (*ledger, error) {
	l := &ledger{app: app, registry: prometheus.NewRegistry()}
	l.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheus(l.registry)

	store, db, err := openStore(ctx, app, app.Store.Backend)
	if err != nil {
		return nil, err
	}
	l.store = store
	if db != nil {
		l.closers = append(l.closers, db.Close)
	}

	var persistence service.SessionPersistence
	if app.Sessions.Persist {
		if db == nil {
			if db, err = storage.Open(ctx, app.Database.Path); err != nil {
				_ = l.Close()
				return nil, fmt.Errorf("failed to open session database: %w", err)
			}
			l.closers = append(l.closers, db.Close)
		}
		persistence = db
	}

	var headers [model.TaxonomyDepth]string
	copy(headers[:], app.Lists.TaxonomyHeaders)
	index := taxonomy.NewIndex(store, taxonomy.Options{
		Metrics: recorder,
		Table:   app.Tables.Lists,
		Headers: headers,
		TTL:     app.Cache.TaxonomyTTL,
		Timeout: app.Store.Timeout,
	})

	l.reports = report.NewService(store, report.Options{
		LedgerTable:  app.Tables.Ledger,
		BudgetsTable: app.Tables.Budgets,
		People:       app.People,
		Timeout:      app.Store.Timeout,
	})

	sessions := conversation.NewSessionStore(conversation.StoreOptions{
		Persistence:     persistence,
		Metrics:         recorder,
		MaxIdle:         app.Sessions.MaxIdle,
		CleanupInterval: app.Sessions.CleanupInterval,
	})
	lists := resolver.NewListCache(app.Cache.CandidatesTTL, recorder)
	l.closers = append(l.closers, func() error {
		sessions.Close()
		lists.Close()
		return nil
	})

	l.engine = conversation.New(conversation.Config{
		Location:            time.Local,
		LedgerTable:         app.Tables.Ledger,
		ShoppingTable:       app.Tables.Shopping,
		WorkTable:           app.Tables.Work,
		PeopleHeader:        app.Lists.PeopleHeader,
		PayerHeader:         app.Lists.PayerHeader,
		EstablishmentHeader: app.Lists.EstablishmentHeader,
		Allowed:             app.Users.Allowed,
		People:              app.People,
		StoreTimeout:        app.Store.Timeout,
	}, conversation.Deps{
		Store:    store,
		Taxonomy: index,
		Reporter: l.reports,
		Notifier: conversation.LogNotifier{Operator: app.Users.Operator},
		Metrics:  recorder,
		Sessions: sessions,
		Lists:    lists,
		Limiter:  conversation.NewLimiter(app.RateLimit.PerSecond, app.RateLimit.Burst),
	})

	return l, nil
}

// Close releases the ledger's resources in reverse order of acquisition.
func (l *ledger) Close() error {
	var errs []error
	for i := len(l.closers) - 1; i >= 0; i-- {
		if err := l.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	l.closers = nil
	return errors.Join(errs...)
}
