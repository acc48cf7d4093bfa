package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// Gauge glyphs, one per usage tier.
const (
	GaugeCells = 10
	glyphLow   = "🟩"
	glyphNear  = "🟨"
	glyphOver  = "🟥"
	glyphFree  = "⬜"
	overMark   = "⚠️"
)

var (
	hundred   = decimal.NewFromInt(100)
	nearUsage = decimal.NewFromInt(80)
)

// Build renders the report of scope for the given ledger rows. People are
// listed in order first; anyone else found in the rows follows, sorted.
func Build(rows [][]string, scope Scope, budgets Budgets, order []string) string {
	return Render(Aggregate(rows, scope), scope, budgets, order)
}

// Render formats totals.
func Render(totals Totals, scope Scope, budgets Budgets, order []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s\n", Title(scope))

	people := displayOrder(totals, order)
	if len(people) == 0 {
		b.WriteString("\nNo expenses recorded.\n")
		return b.String()
	}

	for _, person := range people {
		total := totals.PersonTotal(person)
		fmt.Fprintf(&b, "\n👤 %s: %s\n", person, money(total))

		for _, category := range ranked(totals[person], func(c string) decimal.Decimal {
			return totals.CategoryTotal(person, c)
		}) {
			fmt.Fprintf(&b, "  📁 %s: %s\n", category, money(totals.CategoryTotal(person, category)))
			if target, ok := budgets.Target(person, category, scope); ok {
				fmt.Fprintf(&b, "  %s\n", Gauge(totals.CategoryTotal(person, category), target))
			}

			subs := totals[person][category]
			for _, sub1 := range ranked(subs, func(s string) decimal.Decimal {
				return totals.Sub1Total(person, category, s)
			}) {
				label := sub1
				if sub1 == model.Empty {
					label = "General"
				}
				fmt.Fprintf(&b, "    • %s: %s\n", label, money(totals.Sub1Total(person, category, sub1)))

				leaves := subs[sub1]
				for _, sub2 := range ranked(leaves, func(s string) decimal.Decimal { return leaves[s] }) {
					if sub2 == SubtotalKey {
						continue
					}
					fmt.Fprintf(&b, "      - %s: %s\n", sub2, money(leaves[sub2]))
				}
			}
		}
	}
	return b.String()
}

// Gauge renders spent against target as a fixed-width block bar with the
// usage percentage. Below 80% the bar is green, up to 100% yellow, and above
// that red with a warning mark.
func Gauge(spent, target decimal.Decimal) string {
	if !target.IsPositive() {
		return ""
	}
	pct := spent.Div(target).Mul(hundred)

	glyph := glyphLow
	switch {
	case pct.GreaterThan(hundred):
		glyph = glyphOver
	case pct.GreaterThanOrEqual(nearUsage):
		glyph = glyphNear
	}

	filled := int(pct.Div(decimal.NewFromInt(GaugeCells)).Round(0).IntPart())
	if filled > GaugeCells {
		filled = GaugeCells
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat(glyph, filled) + strings.Repeat(glyphFree, GaugeCells-filled)
	line := fmt.Sprintf("%s %s%% of %s", bar, pct.Round(0).String(), money(target))
	if glyph == glyphOver {
		line += " " + overMark
	}
	return line
}

// Title names the period of scope, e.g. "Report 03/2024" or "Report 2024".
func Title(scope Scope) string {
	if scope.Month == 0 {
		return fmt.Sprintf("Report %d", scope.Year)
	}
	return fmt.Sprintf("Report %02d/%d", scope.Month, scope.Year)
}

func money(amount decimal.Decimal) string {
	return model.FormatAmount(amount) + " €"
}

// displayOrder lists the people of order that have a positive total, then
// the remaining people with a positive total, sorted.
func displayOrder(totals Totals, order []string) []string {
	listed := make(map[string]bool, len(order))
	var people []string
	for _, person := range order {
		if listed[person] {
			continue
		}
		listed[person] = true
		if totals.PersonTotal(person).IsPositive() {
			people = append(people, person)
		}
	}

	var rest []string
	for person := range totals {
		if !listed[person] && totals.PersonTotal(person).IsPositive() {
			rest = append(rest, person)
		}
	}
	sort.Strings(rest)
	return append(people, rest...)
}

// ranked returns the keys with a positive total, largest first, ties by name.
func ranked[V any](m map[string]V, total func(string) decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if total(k).IsPositive() {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, tj := total(keys[i]), total(keys[j])
		if !ti.Equal(tj) {
			return ti.GreaterThan(tj)
		}
		return keys[i] < keys[j]
	})
	return keys
}
