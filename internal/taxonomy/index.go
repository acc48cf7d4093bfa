// Package taxonomy answers "which values may come next" over the lists table.
//
// The lists table is column-oriented: its first row holds headers and each
// column holds the values of one list. Five of those columns together form
// the classification tree (type, category, sub1, sub2, sub3), read row-wise;
// the remaining columns are plain lists such as people or payers.
package taxonomy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/metrics"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// DefaultTTL is how long a loaded snapshot is served before a reload.
const DefaultTTL = 60 * time.Second

// Options configures an Index.
type Options struct {
	Metrics metrics.Recorder
	Now     func() time.Time
	Table   string
	Headers [model.TaxonomyDepth]string
	TTL     time.Duration
	Timeout time.Duration
}

// Index is a cached view of the lists table. It is safe for concurrent use.
type Index struct {
	store   service.TabularStore
	metrics metrics.Recorder
	now     func() time.Time
	current *snapshot
	table   string
	headers [model.TaxonomyDepth]string
	ttl     time.Duration
	timeout time.Duration
	mu      sync.RWMutex
}

type snapshot struct {
	expiry  time.Time
	columns map[string][]string
	rows    []model.TaxonomyRow
}

// NewIndex creates an Index reading opts.Table from store.
func NewIndex(store service.TabularStore, opts Options) *Index {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Index{
		store:   store,
		metrics: metrics.OrNop(opts.Metrics),
		now:     opts.Now,
		table:   opts.Table,
		headers: opts.Headers,
		ttl:     opts.TTL,
		timeout: opts.Timeout,
	}
}

// Children returns the distinct values that may follow prefix, sorted
// ascending. The Empty marker is never returned. Children(ctx, nil) lists
// every type. An empty result is not an error: the level does not apply.
func (x *Index) Children(ctx context.Context, prefix []string) ([]string, error) {
	snap, err := x.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	depth := len(prefix)
	if depth >= model.TaxonomyDepth {
		return nil, nil
	}

	seen := make(map[string]struct{})
	children := make([]string, 0)
	for _, row := range snap.rows {
		if !row.HasPrefix(prefix) {
			continue
		}
		value := row[depth]
		if value == model.Empty {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		children = append(children, value)
	}

	sort.Strings(children)
	return children, nil
}

// Column returns the distinct non-blank values of the lists column named
// header, in table order. An unknown header yields an empty list.
func (x *Index) Column(ctx context.Context, header string) ([]string, error) {
	snap, err := x.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	values := snap.columns[normalizeHeader(header)]
	return append([]string(nil), values...), nil
}

// Invalidate drops the cached snapshot so the next call reloads.
func (x *Index) Invalidate() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.current = nil
}

func (x *Index) snapshot(ctx context.Context) (*snapshot, error) {
	x.mu.RLock()
	snap := x.current
	x.mu.RUnlock()

	if snap != nil && x.now().Before(snap.expiry) {
		return snap, nil
	}
	return x.refresh(ctx)
}

// refresh reloads the table. Concurrent refreshes may race; the last one to
// finish wins. A failed reload does not fall back to the stale snapshot.
func (x *Index) refresh(ctx context.Context) (*snapshot, error) {
	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	rows, err := x.store.ReadAll(ctx, x.table)
	x.metrics.CacheRefreshed("taxonomy", err)
	if err != nil {
		return nil, common.Unavailable("load lists "+x.table, err)
	}

	snap, err := x.parse(rows)
	if err != nil {
		return nil, err
	}
	snap.expiry = x.now().Add(x.ttl)

	x.mu.Lock()
	x.current = snap
	x.mu.Unlock()

	slog.Debug("Loaded taxonomy", "table", x.table, "paths", len(snap.rows), "columns", len(snap.columns))
	return snap, nil
}

func (x *Index) parse(rows [][]string) (*snapshot, error) {
	snap := &snapshot{columns: make(map[string][]string)}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: lists table %s has no header row", common.ErrInvalidConfig, x.table)
	}

	header := rows[0]
	positions := make(map[string]int, len(header))
	for i, name := range header {
		key := normalizeHeader(name)
		if key == "" {
			continue
		}
		if _, dup := positions[key]; !dup {
			positions[key] = i
		}
	}

	var levels [model.TaxonomyDepth]int
	for level, name := range x.headers {
		pos, ok := positions[normalizeHeader(name)]
		if !ok {
			return nil, fmt.Errorf("%w: lists table %s has no %q column", common.ErrInvalidConfig, x.table, name)
		}
		levels[level] = pos
	}

	dropped := 0
	for _, raw := range rows[1:] {
		cells := make([]string, model.TaxonomyDepth)
		blank := true
		for level, pos := range levels {
			cells[level] = cell(raw, pos)
			if cells[level] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		row, ok := model.NewTaxonomyRow(cells)
		if !ok {
			dropped++
			continue
		}
		snap.rows = append(snap.rows, row)
	}
	if dropped > 0 {
		slog.Warn("Ignored invalid taxonomy paths", "table", x.table, "count", dropped)
	}

	for key, pos := range positions {
		seen := make(map[string]struct{})
		for _, raw := range rows[1:] {
			value := cell(raw, pos)
			if model.IsEmpty(value) {
				continue
			}
			if _, dup := seen[value]; dup {
				continue
			}
			seen[value] = struct{}{}
			snap.columns[key] = append(snap.columns[key], value)
		}
	}

	return snap, nil
}

func cell(row []string, pos int) string {
	if pos < len(row) {
		return strings.TrimSpace(row[pos])
	}
	return ""
}

func normalizeHeader(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}
