package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// Cell is a zero-based grid coordinate.
type Cell struct {
	Row int
	Col int
}

// A1 renders the cell in A1 notation.
func (c Cell) A1() string {
	return ColumnName(c.Col) + strconv.Itoa(c.Row+1)
}

// ColumnName converts a zero-based column index to letters (0 → A, 26 → AA).
func ColumnName(col int) string {
	name := ""
	for col >= 0 {
		name = string(rune('A'+col%26)) + name
		col = col/26 - 1
	}
	return name
}

// ParseCell parses a single A1 cell reference such as "C5".
func ParseCell(ref string) (Cell, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	i := 0
	col := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(ref) {
		return Cell{}, fmt.Errorf("invalid cell reference %q", ref)
	}
	row, err := strconv.Atoi(ref[i:])
	if err != nil || row < 1 {
		return Cell{}, fmt.Errorf("invalid cell reference %q", ref)
	}
	return Cell{Row: row - 1, Col: col - 1}, nil
}

// ParseRange parses "C5" or "B2:D4" into its top-left and bottom-right cells.
func ParseRange(ref string) (Cell, Cell, error) {
	start, end, found := strings.Cut(ref, ":")
	from, err := ParseCell(start)
	if err != nil {
		return Cell{}, Cell{}, err
	}
	if !found {
		return from, from, nil
	}
	to, err := ParseCell(end)
	if err != nil {
		return Cell{}, Cell{}, err
	}
	if to.Row < from.Row || to.Col < from.Col {
		return Cell{}, Cell{}, fmt.Errorf("invalid range %q", ref)
	}
	return from, to, nil
}

// QualifiedRange prefixes a range with a quoted sheet name.
func QualifiedRange(table, cellRange string) string {
	quoted := "'" + strings.ReplaceAll(table, "'", "''") + "'"
	if cellRange == "" {
		return quoted
	}
	return quoted + "!" + cellRange
}
