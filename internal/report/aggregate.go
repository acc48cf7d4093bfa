package report

import (
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// SubtotalKey collects amounts that have no second sub-level. It is counted
// in the sub1 total but never listed as a line of its own.
const SubtotalKey = "_subtotal"

// Totals is person → category → sub1 → sub2 → sum.
type Totals map[string]map[string]map[string]map[string]decimal.Decimal

// Scope selects the rows of one month, or of a whole year when Month is 0.
type Scope struct {
	Year  int
	Month int
}

// Contains reports whether a date falls in the scope.
func (s Scope) Contains(year, month int) bool {
	return year == s.Year && (s.Month == 0 || month == s.Month)
}

// Aggregate sums ledger rows in scope. Rows without a readable date, such
// as the header, are skipped, as are amounts that are not strictly positive.
func Aggregate(rows [][]string, scope Scope) Totals {
	agg := make(Totals)
	for _, row := range rows {
		date, ok := ParseDate(cell(row, model.ColDate))
		if !ok || !scope.Contains(date.Year(), int(date.Month())) {
			continue
		}
		amount := ParseAmount(cell(row, model.ColAmount))
		if !amount.IsPositive() {
			continue
		}

		person := cell(row, model.ColPerson)
		category := cell(row, model.ColCategory)
		if person == "" || category == "" {
			continue
		}
		sub1 := cell(row, model.ColSub1)
		if sub1 == "" {
			sub1 = model.Empty
		}
		sub2 := cell(row, model.ColSub2)
		if model.IsEmpty(sub2) {
			sub2 = SubtotalKey
		}

		agg.add(person, category, sub1, sub2, amount)
	}
	return agg
}

func (a Totals) add(person, category, sub1, sub2 string, amount decimal.Decimal) {
	categories, ok := a[person]
	if !ok {
		categories = make(map[string]map[string]map[string]decimal.Decimal)
		a[person] = categories
	}
	subs, ok := categories[category]
	if !ok {
		subs = make(map[string]map[string]decimal.Decimal)
		categories[category] = subs
	}
	leaves, ok := subs[sub1]
	if !ok {
		leaves = make(map[string]decimal.Decimal)
		subs[sub1] = leaves
	}
	leaves[sub2] = leaves[sub2].Add(amount)
}

// Amount returns the sum at one leaf, zero when absent.
func (a Totals) Amount(person, category, sub1, sub2 string) decimal.Decimal {
	return a[person][category][sub1][sub2]
}

// PersonTotal sums everything recorded for person.
func (a Totals) PersonTotal(person string) decimal.Decimal {
	total := decimal.Zero
	for category := range a[person] {
		total = total.Add(a.CategoryTotal(person, category))
	}
	return total
}

// CategoryTotal sums one category of person.
func (a Totals) CategoryTotal(person, category string) decimal.Decimal {
	total := decimal.Zero
	for sub1 := range a[person][category] {
		total = total.Add(a.Sub1Total(person, category, sub1))
	}
	return total
}

// Sub1Total sums one sub-level of a category, subtotal bucket included.
func (a Totals) Sub1Total(person, category, sub1 string) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range a[person][category][sub1] {
		total = total.Add(amount)
	}
	return total
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
