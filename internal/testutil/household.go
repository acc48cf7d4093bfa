// Package testutil builds household fixtures for tests that need a seeded
// table store: the lists table, an empty ledger and a work grid.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/sheets"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

// Default table and column names, matching config.SetDefaults.
const (
	ListsTable    = "LISTAS"
	LedgerTable   = "GASTOS"
	ShoppingTable = "COMPRAS"
	WorkTable     = "GASTOS TRABAJO"
	BudgetsTable  = "PRESUPUESTOS"
)

// TaxonomyHeaders are the five classification columns of the lists table.
var TaxonomyHeaders = [model.TaxonomyDepth]string{"TIPO", "CATEGORIA", "SUBCATEGORIA 1", "SUBCATEGORIA 2", "SUBCATEGORIA 3"}

// Household collects the content of a household's tables.
//
// Example:
//
//	tables := testutil.NewHousehold().
//		WithPath("Gasto", "Ocio", "Restaurantes", "Cena").
//		WithPeople("A", "B").
//		Tables()
type Household struct {
	paths          [][]string
	people         []string
	payers         []string
	establishments []string
	contributors   []string
}

// NewHousehold returns a household with one flat category (Gasto/Casa) and
// two people who are also the payers.
func NewHousehold() *Household {
	return &Household{
		paths:        [][]string{{"Gasto", "Casa"}},
		people:       []string{"A", "B"},
		payers:       []string{"A", "B"},
		contributors: []string{"Ana", "Luis"},
	}
}

// WithPath adds a classification path of up to five levels.
func (h *Household) WithPath(levels ...string) *Household {
	h.paths = append(h.paths, levels)
	return h
}

// WithPeople replaces the people list.
func (h *Household) WithPeople(people ...string) *Household {
	h.people = people
	return h
}

// WithPayers replaces the payer list.
func (h *Household) WithPayers(payers ...string) *Household {
	h.payers = payers
	return h
}

// WithEstablishments sets the establishment list used by the shopping flow.
func (h *Household) WithEstablishments(names ...string) *Household {
	h.establishments = names
	return h
}

// WithContributors replaces the columns of the work grid.
func (h *Household) WithContributors(names ...string) *Household {
	h.contributors = names
	return h
}

// Lists renders the column-oriented lists table: header row, then one row
// per classification path with the plain lists filled in alongside.
func (h *Household) Lists() [][]string {
	header := append(TaxonomyHeaders[:], "PERSONA", "PAGADOR", "ESTABLECIMIENTO")
	n := max(len(h.paths), len(h.people), len(h.payers), len(h.establishments))

	rows := [][]string{header}
	for i := 0; i < n; i++ {
		row := make([]string, len(header))
		if i < len(h.paths) {
			copy(row, h.paths[i])
		}
		row[model.TaxonomyDepth] = at(h.people, i)
		row[model.TaxonomyDepth+1] = at(h.payers, i)
		row[model.TaxonomyDepth+2] = at(h.establishments, i)
		rows = append(rows, row)
	}
	return rows
}

// Work renders an empty work grid: contributors across, months down.
func (h *Household) Work() [][]string {
	months := []string{"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"}

	rows := [][]string{append([]string{"MES"}, h.contributors...)}
	for _, m := range months {
		row := make([]string, len(h.contributors)+1)
		row[0] = m
		rows = append(rows, row)
	}
	return rows
}

// Tables returns every table of the household keyed by name.
func (h *Household) Tables() map[string][][]string {
	return map[string][][]string{
		ListsTable:    h.Lists(),
		LedgerTable:   {model.LedgerColumns},
		ShoppingTable: {{"FECHA", "PERSONA", "ESTABLECIMIENTO", "PRODUCTO"}},
		WorkTable:     h.Work(),
	}
}

// MemoryStore seeds a sheets.MemoryStore with tables.
func MemoryStore(tables map[string][][]string) *sheets.MemoryStore {
	store := sheets.NewMemoryStore()
	for name, rows := range tables {
		store.SetTable(name, rows)
	}
	return store
}

// SetupTestDB creates a migrated in-memory SQLite store seeded with tables.
// It is closed when the test ends.
func SetupTestDB(t *testing.T, tables map[string][][]string) *storage.SQLiteStorage {
	t.Helper()
	return SetupTestDBAt(t, storage.MemoryPath, tables)
}

// SetupTestDBAt is SetupTestDB on a database file at path.
func SetupTestDBAt(t *testing.T, path string, tables map[string][][]string) *storage.SQLiteStorage {
	t.Helper()

	ctx := context.Background()
	db, err := storage.Open(ctx, path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	for name, rows := range tables {
		if err := db.ReplaceTable(ctx, name, rows); err != nil {
			t.Fatalf("failed to seed table %q: %v", name, err)
		}
	}
	return db
}

func at(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}
