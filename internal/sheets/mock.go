package sheets

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/service"
)

var _ service.TabularStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory service.TabularStore for tests and demos.
type MemoryStore struct {
	ReadErr   error
	AppendErr error
	UpdateErr error
	tables    map[string][][]string
	ReadCount map[string]int
	Appends   []AppendCall
	Updates   []UpdateCall
	mu        sync.Mutex
}

// AppendCall records a single call to AppendRow.
type AppendCall struct {
	Table string
	Row   []string
}

// UpdateCall records a single call to UpdateRange.
type UpdateCall struct {
	Table  string
	Range  string
	Values [][]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:    make(map[string][][]string),
		ReadCount: make(map[string]int),
	}
}

// SetTable replaces the content of table.
func (m *MemoryStore) SetTable(table string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tables[table] = cloneRows(rows)
}

// Table returns a copy of the content of table.
func (m *MemoryStore) Table(table string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return cloneRows(m.tables[table])
}

// ReadAll implements service.TabularStore.
func (m *MemoryStore) ReadAll(_ context.Context, table string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ReadCount[table]++
	if m.ReadErr != nil {
		return nil, common.Unavailable("read "+table, m.ReadErr)
	}
	rows, ok := m.tables[table]
	if !ok {
		return nil, common.Unavailable("read "+table, common.ErrTableMissing)
	}
	return cloneRows(rows), nil
}

// AppendRow implements service.TabularStore.
func (m *MemoryStore) AppendRow(_ context.Context, table string, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AppendErr != nil {
		return common.Unavailable("append "+table, m.AppendErr)
	}
	cp := append([]string(nil), row...)
	m.tables[table] = append(m.tables[table], cp)
	m.Appends = append(m.Appends, AppendCall{Table: table, Row: cp})
	return nil
}

// UpdateRange implements service.TabularStore.
func (m *MemoryStore) UpdateRange(_ context.Context, table, cellRange string, values [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateErr != nil {
		return common.Unavailable("update "+table, m.UpdateErr)
	}
	from, to, err := ParseRange(cellRange)
	if err != nil {
		return err
	}
	if len(values) > to.Row-from.Row+1 {
		return fmt.Errorf("range %s is smaller than %d rows", cellRange, len(values))
	}

	rows := m.tables[table]
	for i, line := range values {
		r := from.Row + i
		for len(rows) <= r {
			rows = append(rows, nil)
		}
		for j, value := range line {
			c := from.Col + j
			for len(rows[r]) <= c {
				rows[r] = append(rows[r], "")
			}
			rows[r][c] = value
		}
	}
	m.tables[table] = rows
	m.Updates = append(m.Updates, UpdateCall{Table: table, Range: cellRange, Values: cloneRows(values)})
	return nil
}

// AppendsTo returns the rows appended to table.
func (m *MemoryStore) AppendsTo(table string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows [][]string
	for _, call := range m.Appends {
		if call.Table == table {
			rows = append(rows, append([]string(nil), call.Row...))
		}
	}
	return rows
}

// Reads returns how many times table was read.
func (m *MemoryStore) Reads(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ReadCount[table]
}

// SetReadError configures the store to fail every read.
func (m *MemoryStore) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ReadErr = err
}

// SetAppendError configures the store to fail every append.
func (m *MemoryStore) SetAppendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendErr = err
}

func cloneRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
