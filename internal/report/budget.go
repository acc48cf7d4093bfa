package report

import (
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// Everyone is the budget person matching any person. A blank cell means the same.
const Everyone = "*"

// Budgets maps person → category → monthly target.
type Budgets map[string]map[string]decimal.Decimal

// ParseBudgets reads rows of [person, category, monthly target]. Rows whose
// target does not parse to a positive amount, including the header, are ignored.
func ParseBudgets(rows [][]string) Budgets {
	budgets := make(Budgets)
	skipped := 0
	for _, row := range rows {
		category := cell(row, 1)
		target := ParseAmount(cell(row, 2))
		if category == "" || !target.IsPositive() {
			skipped++
			continue
		}
		person := cell(row, 0)
		if person == "" {
			person = Everyone
		}
		if budgets[person] == nil {
			budgets[person] = make(map[string]decimal.Decimal)
		}
		budgets[person][category] = target
	}
	if skipped > 1 {
		slog.Debug("Ignored budget rows without a target", "count", skipped)
	}
	return budgets
}

// Target returns the budget of a category for person over scope. A target
// set for person wins over one set for everyone; yearly scopes multiply the
// monthly target by twelve.
func (b Budgets) Target(person, category string, scope Scope) (decimal.Decimal, bool) {
	target, ok := b.lookup(person, category)
	if !ok {
		return decimal.Zero, false
	}
	if scope.Month == 0 {
		target = target.Mul(decimal.NewFromInt(12))
	}
	return target, true
}

func (b Budgets) lookup(person, category string) (decimal.Decimal, bool) {
	for _, who := range []string{person, Everyone} {
		for name, target := range b[who] {
			if strings.EqualFold(name, category) {
				return target, true
			}
		}
	}
	return decimal.Zero, false
}
