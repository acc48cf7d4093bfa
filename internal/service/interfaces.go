// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// TabularStore is the table abstraction the ledger reads from and writes to.
// Tables are addressed by name; rows are ordered cell values as displayed.
type TabularStore interface {
	// ReadAll returns every row of the table, header included.
	ReadAll(ctx context.Context, table string) ([][]string, error)
	// AppendRow appends one row after the last non-empty row.
	AppendRow(ctx context.Context, table string, row []string) error
	// UpdateRange overwrites the cells of an A1 range (e.g. "C5" or "B2:D2").
	UpdateRange(ctx context.Context, table, cellRange string, values [][]string) error
}

// OperatorNotifier receives events an operator should know about.
type OperatorNotifier interface {
	NotifyUnauthorized(ctx context.Context, userID int64, payload string)
}

// SessionPersistence keeps conversation sessions across restarts.
type SessionPersistence interface {
	SaveSession(ctx context.Context, session model.StoredSession) error
	// LoadSession returns common.ErrNotFound when the user has no session.
	LoadSession(ctx context.Context, userID int64) (model.StoredSession, error)
	DeleteSession(ctx context.Context, userID int64) error
	// PurgeSessions removes sessions last updated before cutoff.
	PurgeSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
