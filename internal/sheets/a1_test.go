package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnName(t *testing.T) {
	tests := map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"}
	for col, want := range tests {
		assert.Equal(t, want, ColumnName(col), "column %d", col)
	}
}

func TestParseCell(t *testing.T) {
	cell, err := ParseCell("C5")
	require.NoError(t, err)
	assert.Equal(t, Cell{Row: 4, Col: 2}, cell)
	assert.Equal(t, "C5", cell.A1())

	cell, err = ParseCell("aa10")
	require.NoError(t, err)
	assert.Equal(t, Cell{Row: 9, Col: 26}, cell)

	for _, bad := range []string{"", "5", "C", "C0", "C-1", "5C"} {
		_, err := ParseCell(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseRange(t *testing.T) {
	from, to, err := ParseRange("B2:D4")
	require.NoError(t, err)
	assert.Equal(t, Cell{Row: 1, Col: 1}, from)
	assert.Equal(t, Cell{Row: 3, Col: 3}, to)

	from, to, err = ParseRange("C5")
	require.NoError(t, err)
	assert.Equal(t, from, to)

	_, _, err = ParseRange("D4:B2")
	assert.Error(t, err)
}

func TestQualifiedRange(t *testing.T) {
	assert.Equal(t, "'LISTAS'", QualifiedRange("LISTAS", ""))
	assert.Equal(t, "'GASTOS TRABAJO'!C5", QualifiedRange("GASTOS TRABAJO", "C5"))
	assert.Equal(t, "'Ana''s'!A1", QualifiedRange("Ana's", "A1"))
}
