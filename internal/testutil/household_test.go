package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHousehold_Lists(t *testing.T) {
	rows := NewHousehold().
		WithPath("Gasto", "Ocio", "Restaurantes", "Cena").
		WithPeople("A", "B", "C").
		WithEstablishments("Mercadona").
		Lists()

	require.Len(t, rows, 4, "header plus the longest list")
	assert.Equal(t, []string{"Gasto", "Casa", "", "", "", "A", "A", "Mercadona"}, rows[1])
	assert.Equal(t, []string{"Gasto", "Ocio", "Restaurantes", "Cena", "", "B", "B", ""}, rows[2])
	assert.Equal(t, []string{"", "", "", "", "", "C", "", ""}, rows[3])
}

func TestHousehold_Work(t *testing.T) {
	rows := NewHousehold().WithContributors("Ana").Work()

	require.Len(t, rows, 13)
	assert.Equal(t, []string{"MES", "Ana"}, rows[0])
	assert.Equal(t, []string{"Marzo", ""}, rows[3])
}

func TestSetupTestDB(t *testing.T) {
	tables := NewHousehold().Tables()
	db := SetupTestDB(t, tables)

	for name, want := range tables {
		got, err := db.ReadAll(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}
