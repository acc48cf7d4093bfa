package model

import "strings"

// Empty marks a taxonomy level that does not apply to a record.
// It is distinct from a blank cell, which means "not recorded".
const Empty = "-"

// TaxonomyDepth is the number of levels in a taxonomy path.
const TaxonomyDepth = 5

// TaxonomyRow is one path of the classification hierarchy:
// type, category, sub-level 1, sub-level 2, sub-level 3.
type TaxonomyRow [TaxonomyDepth]string

// NewTaxonomyRow builds a row from raw cells, normalizing blank trailing
// levels to Empty. The second return value is false when the cells do not
// form a valid path (a blank level followed by a non-blank one, or no type).
func NewTaxonomyRow(cells []string) (TaxonomyRow, bool) {
	var row TaxonomyRow
	ended := false
	for i := 0; i < TaxonomyDepth; i++ {
		value := ""
		if i < len(cells) {
			value = strings.TrimSpace(cells[i])
		}
		if value == "" || value == Empty {
			ended = true
			row[i] = Empty
			continue
		}
		if ended {
			return TaxonomyRow{}, false
		}
		row[i] = value
	}
	return row, row[0] != Empty
}

// HasPrefix reports whether the leading fields of r equal prefix.
func (r TaxonomyRow) HasPrefix(prefix []string) bool {
	if len(prefix) > TaxonomyDepth {
		return false
	}
	for i, value := range prefix {
		if r[i] != value {
			return false
		}
	}
	return true
}

// IsEmpty reports whether value is the Empty marker or blank.
func IsEmpty(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || value == Empty
}
