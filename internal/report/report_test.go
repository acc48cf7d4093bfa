package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/sheets"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "1.550,00", want: "1550"},
		{in: "150,50", want: "150.5"},
		{in: "12.5", want: "12.5"},
		{in: "", want: "0"},
		{in: "45,00 €", want: "45"},
		{in: "$ 3.20", want: "3.2"},
		{in: "1.234", want: "1.234"},
		{in: "12,50", want: "12.5"},
		{in: "abc", want: "0"},
		{in: "-7,25", want: "7.25"},
		{in: "-12,50", want: "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAmount(tt.in).String())
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"05/03/2024", "05/03/24", "2024-03-05", " 05/03/2024 "} {
		got, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}

	for _, in := range []string{"05-03-2024", "", "FECHA", "32/01/2024"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, in)
	}
}

func ledgerRow(date, person, category, sub1, sub2, amount string) []string {
	row := make([]string, len(model.LedgerColumns))
	row[model.ColDate] = date
	row[model.ColPerson] = person
	row[model.ColPayer] = person
	row[model.ColType] = "Gasto"
	row[model.ColCategory] = category
	row[model.ColSub1] = sub1
	row[model.ColSub2] = sub2
	row[model.ColSub3] = model.Empty
	row[model.ColAmount] = amount
	return row
}

func TestAggregate(t *testing.T) {
	rows := [][]string{
		model.LedgerColumns,
		ledgerRow("01/03/2024", "Ana", "Ocio", "Restaurantes", "Cena", "30,00"),
		ledgerRow("02/03/2024", "Ana", "Ocio", "Restaurantes", "Cena", "10,50"),
		ledgerRow("03/03/24", "Ana", "Ocio", "Restaurantes", model.Empty, "5"),
		ledgerRow("2024-03-04", "Ana", "Ocio", "Restaurantes", "", "1.000,00"),
		ledgerRow("05/03/2024", "Ana", "Casa", model.Empty, model.Empty, "0"),
		ledgerRow("06/03/2024", "Ana", "Casa", model.Empty, model.Empty, "-3,00"),
		ledgerRow("07-03-2024", "Ana", "Casa", model.Empty, model.Empty, "99"),
		ledgerRow("07/04/2024", "Ana", "Casa", model.Empty, model.Empty, "20"),
		ledgerRow("07/03/2023", "Luis", "Casa", model.Empty, model.Empty, "20"),
	}

	t.Run("month", func(t *testing.T) {
		totals := Aggregate(rows, Scope{Year: 2024, Month: 3})
		assert.Equal(t, "40.5", totals.Amount("Ana", "Ocio", "Restaurantes", "Cena").String())
		assert.Equal(t, "1005", totals.Amount("Ana", "Ocio", "Restaurantes", SubtotalKey).String())
		assert.Equal(t, "1045.5", totals.CategoryTotal("Ana", "Ocio").String())
		assert.Equal(t, "3", totals.CategoryTotal("Ana", "Casa").String(), "the minus sign is dropped")
		assert.NotContains(t, totals, "Luis")
	})

	t.Run("year", func(t *testing.T) {
		totals := Aggregate(rows, Scope{Year: 2024})
		assert.Equal(t, "23", totals.CategoryTotal("Ana", "Casa").String())
		assert.Equal(t, "1068.5", totals.PersonTotal("Ana").String())
	})
}

func TestAggregate_SignedCell(t *testing.T) {
	rows := [][]string{
		model.LedgerColumns,
		ledgerRow("05/03/2024", "A", "Casa", "Luz", model.Empty, "-12,50"),
	}

	totals := Aggregate(rows, Scope{Year: 2024, Month: 3})
	assert.Equal(t, "12.5", totals.Amount("A", "Casa", "Luz", SubtotalKey).String())
}

func TestRecordRoundTrip(t *testing.T) {
	record := model.Record{
		Date:     time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
		Amount:   decimal.RequireFromString("12.50"),
		Person:   "Ana",
		Payer:    "Luis",
		Type:     "Gasto",
		Category: "Ocio",
		Sub1:     "Restaurantes",
		Sub2:     model.Empty,
		Sub3:     model.Empty,
	}
	require.NoError(t, record.Validate())

	totals := Aggregate([][]string{model.LedgerColumns, record.Row()}, Scope{Year: 2024, Month: 3})

	assert.True(t, totals.Amount("Ana", "Ocio", "Restaurantes", SubtotalKey).Equal(decimal.RequireFromString("12.50")))
	assert.Len(t, totals["Ana"]["Ocio"]["Restaurantes"], 1, "no sub2 leaf")

	text := Render(totals, Scope{Year: 2024, Month: 3}, nil, nil)
	assert.Contains(t, text, "• Restaurantes: 12,50 €")
	assert.NotContains(t, text, SubtotalKey)
	assert.NotContains(t, text, "      - ")
}

func TestGauge(t *testing.T) {
	tests := []struct {
		name   string
		spent  string
		target string
		want   string
	}{
		{name: "empty", spent: "0", target: "100", want: "⬜⬜⬜⬜⬜⬜⬜⬜⬜⬜ 0% of 100,00 €"},
		{name: "low", spent: "50", target: "100", want: "🟩🟩🟩🟩🟩⬜⬜⬜⬜⬜ 50% of 100,00 €"},
		{name: "near", spent: "80", target: "100", want: "🟨🟨🟨🟨🟨🟨🟨🟨⬜⬜ 80% of 100,00 €"},
		{name: "full", spent: "100", target: "100", want: "🟨🟨🟨🟨🟨🟨🟨🟨🟨🟨 100% of 100,00 €"},
		{name: "over", spent: "150", target: "100", want: "🟥🟥🟥🟥🟥🟥🟥🟥🟥🟥 150% of 100,00 € ⚠️"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Gauge(decimal.RequireFromString(tt.spent), decimal.RequireFromString(tt.target))
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Empty(t, Gauge(decimal.NewFromInt(5), decimal.Zero))
}

func TestBudgets(t *testing.T) {
	budgets := ParseBudgets([][]string{
		{"PERSONA", "CATEGORIA", "OBJETIVO"},
		{"", "Ocio", "100"},
		{"Ana", "ocio", "150,00"},
		{"*", "Casa", "400"},
		{"Luis", "Coche", "no"},
	})

	target, ok := budgets.Target("Ana", "Ocio", Scope{Year: 2024, Month: 3})
	require.True(t, ok)
	assert.Equal(t, "150", target.String())

	target, ok = budgets.Target("Luis", "Ocio", Scope{Year: 2024, Month: 3})
	require.True(t, ok)
	assert.Equal(t, "100", target.String())

	target, ok = budgets.Target("Luis", "Casa", Scope{Year: 2024})
	require.True(t, ok)
	assert.Equal(t, "4800", target.String())

	_, ok = budgets.Target("Luis", "Coche", Scope{Year: 2024, Month: 3})
	assert.False(t, ok)
}

func TestRender(t *testing.T) {
	rows := [][]string{
		ledgerRow("01/03/2024", "Luis", "Casa", "Luz", model.Empty, "60"),
		ledgerRow("01/03/2024", "Ana", "Ocio", "Restaurantes", "Cena", "30"),
		ledgerRow("01/03/2024", "Ana", "Ocio", "Viajes", model.Empty, "90"),
		ledgerRow("01/03/2024", "Ana", "Casa", model.Empty, model.Empty, "200"),
		ledgerRow("01/03/2024", "Zoe", "Casa", model.Empty, model.Empty, "5"),
		ledgerRow("01/03/2024", "Bea", "Casa", model.Empty, model.Empty, "5"),
	}
	budgets := Budgets{Everyone: {"Ocio": decimal.NewFromInt(100)}}

	text := Build(rows, Scope{Year: 2024, Month: 3}, budgets, []string{"Luis", "Ana", "Marta"})

	want := strings.Join([]string{
		"📊 Report 03/2024",
		"",
		"👤 Luis: 60,00 €",
		"  📁 Casa: 60,00 €",
		"    • Luz: 60,00 €",
		"",
		"👤 Ana: 320,00 €",
		"  📁 Casa: 200,00 €",
		"    • General: 200,00 €",
		"  📁 Ocio: 120,00 €",
		"  🟥🟥🟥🟥🟥🟥🟥🟥🟥🟥 120% of 100,00 € ⚠️",
		"    • Viajes: 90,00 €",
		"    • Restaurantes: 30,00 €",
		"      - Cena: 30,00 €",
		"",
		"👤 Bea: 5,00 €",
		"  📁 Casa: 5,00 €",
		"    • General: 5,00 €",
		"",
		"👤 Zoe: 5,00 €",
		"  📁 Casa: 5,00 €",
		"    • General: 5,00 €",
		"",
	}, "\n")
	assert.Equal(t, want, text)

	empty := Build(nil, Scope{Year: 2024}, nil, []string{"Ana"})
	assert.Equal(t, "📊 Report 2024\n\nNo expenses recorded.\n", empty)
}

func TestService_Report(t *testing.T) {
	ctx := context.Background()
	store := sheets.NewMemoryStore()
	store.SetTable("GASTOS", [][]string{
		model.LedgerColumns,
		ledgerRow("01/03/2024", "Ana", "Ocio", "Viajes", model.Empty, "90"),
	})
	svc := NewService(store, Options{
		LedgerTable:  "GASTOS",
		BudgetsTable: "PRESUPUESTOS",
		People:       []string{"Ana"},
		Timeout:      time.Second,
	})

	t.Run("without budgets table", func(t *testing.T) {
		text, err := svc.Report(ctx, 2024, 3)
		require.NoError(t, err)
		assert.Contains(t, text, "📁 Ocio: 90,00 €")
		assert.NotContains(t, text, "% of")
	})

	t.Run("with budgets", func(t *testing.T) {
		store.SetTable("PRESUPUESTOS", [][]string{{"PERSONA", "CATEGORIA", "OBJETIVO"}, {"Ana", "Ocio", "100"}})
		text, err := svc.Report(ctx, 2024, 3)
		require.NoError(t, err)
		assert.Contains(t, text, "🟨🟨🟨🟨🟨🟨🟨🟨🟨⬜ 90% of 100,00 €")
	})

	t.Run("bad month", func(t *testing.T) {
		_, err := svc.Report(ctx, 2024, 13)
		assert.True(t, errors.Is(err, common.ErrValidation))
	})

	t.Run("store down", func(t *testing.T) {
		store.SetReadError(errors.New("boom"))
		defer store.SetReadError(nil)
		_, err := svc.Report(ctx, 2024, 3)
		assert.True(t, errors.Is(err, common.ErrSourceUnavailable))
	})
}
