package taxonomy

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/sheets"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHeaders = [model.TaxonomyDepth]string{"TIPO", "CATEGORIA", "SUBCATEGORIA 1", "SUBCATEGORIA 2", "SUBCATEGORIA 3"}

func listsFixture() [][]string {
	return [][]string{
		{"TIPO", "CATEGORIA", "SUBCATEGORIA 1", "SUBCATEGORIA 2", "SUBCATEGORIA 3", "PERSONA", "Pagador"},
		{"Gasto", "Casa", "", "", "", "Ana", "Ana"},
		{"Gasto", "Ocio", "Restaurantes", "Cena", "", "Luis", "Luis"},
		{"Gasto", "Ocio", "Restaurantes", "Comida", "-", "", "Común"},
		{"Gasto", "Ocio", "Viajes"},
		{"Gasto", "Coche", "", "Gasolina", "", "Ana", ""},
		{"Gasto", "Ocio", "Restaurantes", "Cena", "", "", ""},
		{"Ingreso", "Nómina", "", "", "", "", ""},
		{"", "", "", "", "", "Marta", ""},
	}
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestIndex(t *testing.T, rows [][]string) (*Index, *sheets.MemoryStore, *clock) {
	t.Helper()
	store := sheets.NewMemoryStore()
	store.SetTable("LISTAS", rows)
	c := &clock{now: time.Date(2024, 3, 17, 12, 0, 0, 0, time.UTC)}
	index := NewIndex(store, Options{
		Table:   "LISTAS",
		Headers: testHeaders,
		TTL:     time.Minute,
		Now:     c.Now,
	})
	return index, store, c
}

func TestIndex_Children(t *testing.T) {
	index, _, _ := newTestIndex(t, listsFixture())
	ctx := context.Background()

	tests := []struct {
		name   string
		prefix []string
		want   []string
	}{
		{name: "types", prefix: nil, want: []string{"Gasto", "Ingreso"}},
		{name: "categories skip invalid path", prefix: []string{"Gasto"}, want: []string{"Casa", "Ocio"}},
		{name: "leaf category", prefix: []string{"Gasto", "Casa"}, want: []string{}},
		{name: "sub1", prefix: []string{"Gasto", "Ocio"}, want: []string{"Restaurantes", "Viajes"}},
		{name: "sub2 deduplicated", prefix: []string{"Gasto", "Ocio", "Restaurantes"}, want: []string{"Cena", "Comida"}},
		{name: "sub3 all empty", prefix: []string{"Gasto", "Ocio", "Restaurantes", "Cena"}, want: []string{}},
		{name: "unknown prefix", prefix: []string{"Regalo"}, want: []string{}},
		{name: "after auto-filled level", prefix: []string{"Gasto", "Casa", model.Empty}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := index.Children(ctx, tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("full depth", func(t *testing.T) {
		got, err := index.Children(ctx, []string{"a", "b", "c", "d", "e"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestIndex_Column(t *testing.T) {
	index, _, _ := newTestIndex(t, listsFixture())
	ctx := context.Background()

	people, err := index.Column(ctx, "persona")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana", "Luis", "Marta"}, people)

	payers, err := index.Column(ctx, "PAGADOR")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana", "Luis", "Común"}, payers)

	missing, err := index.Column(ctx, "ESTABLECIMIENTO")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestIndex_CachesUntilExpiry(t *testing.T) {
	index, store, c := newTestIndex(t, listsFixture())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := index.Children(ctx, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.Reads("LISTAS"))

	store.SetTable("LISTAS", append(listsFixture(), []string{"Ahorro", "Fondo"}))
	c.now = c.now.Add(30 * time.Second)
	types, err := index.Children(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gasto", "Ingreso"}, types, "still within TTL")

	c.now = c.now.Add(31 * time.Second)
	types, err = index.Children(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ahorro", "Gasto", "Ingreso"}, types)
	assert.Equal(t, 2, store.Reads("LISTAS"))

	index.Invalidate()
	_, err = index.Children(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Reads("LISTAS"))
}

func TestIndex_FailedRefreshIsNotMasked(t *testing.T) {
	index, store, c := newTestIndex(t, listsFixture())
	ctx := context.Background()

	_, err := index.Children(ctx, nil)
	require.NoError(t, err)

	store.SetReadError(errors.New("quota exceeded"))
	c.now = c.now.Add(2 * time.Minute)

	_, err = index.Children(ctx, []string{"Gasto"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrSourceUnavailable))

	store.SetReadError(nil)
	got, err := index.Children(ctx, []string{"Gasto"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Casa", "Ocio"}, got)
}

func TestIndex_MissingHeader(t *testing.T) {
	index, _, _ := newTestIndex(t, [][]string{{"TIPO", "CATEGORIA"}, {"Gasto", "Casa"}})

	_, err := index.Children(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidConfig))
}

func TestIndex_ChildrenProperties(t *testing.T) {
	faker := gofakeit.New(42)
	ctx := context.Background()

	for round := 0; round < 25; round++ {
		rows := [][]string{testHeaders[:]}
		for i := 0; i < 40; i++ {
			row := make([]string, model.TaxonomyDepth)
			for level := range row {
				row[level] = faker.RandomString([]string{"", model.Empty, faker.Word(), faker.Word(), "Gasto", "Ocio"})
			}
			rows = append(rows, row)
		}

		index, _, _ := newTestIndex(t, rows)

		var walk func(prefix []string)
		walk = func(prefix []string) {
			children, err := index.Children(ctx, prefix)
			require.NoError(t, err)

			assert.NotContains(t, children, model.Empty)
			assert.NotContains(t, children, "")
			assert.True(t, sort.StringsAreSorted(children))
			seen := make(map[string]bool)
			for _, child := range children {
				assert.False(t, seen[child], "duplicate child %q under %v", child, prefix)
				seen[child] = true
				walk(append(append([]string(nil), prefix...), child))
			}
		}
		walk(nil)
	}
}
