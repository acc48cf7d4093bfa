package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/Veraticus/spice-ledger/internal/resolver"
	"github.com/Veraticus/spice-ledger/internal/sheets"
	"github.com/shopspring/decimal"
)

// monthNames are matched against the first column of the work grid after
// normalization, so "Marzo", "MARZO" and "march" all name month 3.
var monthNames = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4, "mayo": 5, "junio": 6,
	"julio": 7, "agosto": 8, "septiembre": 9, "setiembre": 9, "octubre": 10, "noviembre": 11, "diciembre": 12,
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
}

// addWorkExpense adds expense to the grid cell of its month and contributor
// and returns the new cell total. The grid has contributors across the first
// row from column B and months down the first column.
func (e *Engine) addWorkExpense(ctx context.Context, expense model.WorkExpense) (decimal.Decimal, error) {
	table := e.cfg.WorkTable
	rows, err := e.store.ReadAll(ctx, table)
	if err != nil {
		return decimal.Zero, common.Unavailable("read "+table, err)
	}
	if len(rows) == 0 {
		return decimal.Zero, fmt.Errorf("%w: work table %s has no header row", common.ErrInvalidConfig, table)
	}

	col := -1
	for i := 1; i < len(rows[0]); i++ {
		if strings.EqualFold(strings.TrimSpace(rows[0][i]), expense.Contributor) {
			col = i
			break
		}
	}
	if col < 0 {
		return decimal.Zero, fmt.Errorf("%w: %q is not a column of %s", common.ErrInvalidConfig, expense.Contributor, table)
	}

	row := monthRow(rows, int(expense.Date.Month()))
	current := decimal.Zero
	if row < len(rows) && col < len(rows[row]) {
		current = report.ParseAmount(rows[row][col])
	}
	total := current.Add(expense.Amount)

	ref := sheets.Cell{Row: row, Col: col}.A1()
	if err := e.store.UpdateRange(ctx, table, ref, [][]string{{model.FormatAmount(total)}}); err != nil {
		return decimal.Zero, common.Unavailable("update "+table+"!"+ref, err)
	}
	return total, nil
}

// monthRow finds the row labelled with month, by number or name. Without a
// matching label the grid is assumed to list January to December from row 2.
func monthRow(rows [][]string, month int) int {
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) == 0 {
			continue
		}
		label := strings.TrimSpace(rows[i][0])
		if n, err := strconv.Atoi(label); err == nil && n == month {
			return i
		}
		if monthNames[resolver.Normalize(label)] == month {
			return i
		}
	}
	return month
}
