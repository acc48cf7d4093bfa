package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is how dates are written to every table.
const DateLayout = "02/01/2006"

// LedgerColumns is the fixed column order of the ledger table.
var LedgerColumns = []string{
	"FECHA", "PERSONA", "PAGADOR", "TIPO", "CATEGORIA",
	"SUBCATEGORIA 1", "SUBCATEGORIA 2", "SUBCATEGORIA 3", "OBSERVACIONES", "IMPORTE",
}

// Ledger column positions.
const (
	ColDate = iota
	ColPerson
	ColPayer
	ColType
	ColCategory
	ColSub1
	ColSub2
	ColSub3
	ColNote
	ColAmount
)

// Record is one ledger entry.
type Record struct {
	Date     time.Time
	Amount   decimal.Decimal
	Person   string
	Payer    string
	Type     string
	Category string
	Sub1     string
	Sub2     string
	Sub3     string
	Note     string
}

// Validate checks the invariants a record must hold before it is persisted.
func (r Record) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("record: missing date")
	}
	if strings.TrimSpace(r.Person) == "" {
		return fmt.Errorf("record: missing person")
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("record: amount must be positive, got %s", r.Amount)
	}
	for name, value := range map[string]string{
		"type": r.Type, "category": r.Category, "sub1": r.Sub1, "sub2": r.Sub2, "sub3": r.Sub3,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("record: %s is blank, use %q for levels that do not apply", name, Empty)
		}
	}
	return nil
}

// Row renders the record in ledger column order.
func (r Record) Row() []string {
	return []string{
		r.Date.Format(DateLayout),
		r.Person,
		r.Payer,
		r.Type,
		r.Category,
		r.Sub1,
		r.Sub2,
		r.Sub3,
		r.Note,
		FormatAmount(r.Amount),
	}
}

// FormatAmount renders an amount with two decimals and a decimal comma.
func FormatAmount(amount decimal.Decimal) string {
	return strings.Replace(amount.StringFixed(2), ".", ",", 1)
}

// ShoppingItem is one entry of the shopping list.
type ShoppingItem struct {
	Date          time.Time
	Person        string
	Establishment string
	Item          string
}

// Row renders the item in shopping table column order.
func (s ShoppingItem) Row() []string {
	return []string{s.Date.Format(DateLayout), s.Person, s.Establishment, s.Item}
}

// WorkExpense is an amount a contributor adds to the work expense grid.
type WorkExpense struct {
	Date        time.Time
	Amount      decimal.Decimal
	Contributor string
}
