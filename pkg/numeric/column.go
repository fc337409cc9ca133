package numeric

import (
	"fmt"
	"strings"

	"github.com/DrSkyle/balanco/pkg/table"
)

// Policy decides what a bad cell does to a column conversion.
type Policy string

const (
	// PolicyStrict aborts the conversion on the first bad cell.
	PolicyStrict Policy = "strict"
	// PolicySkip sets bad cells to nil and keeps going.
	PolicySkip Policy = "skip"
)

// ParsePolicy maps a config string to a Policy. Unknown values are strict.
func ParsePolicy(s string) Policy {
	if Policy(strings.ToLower(strings.TrimSpace(s))) == PolicySkip {
		return PolicySkip
	}
	return PolicyStrict
}

// CellError records a cell that could not be converted.
type CellError struct {
	Row   int
	Value string
	Err   error
}

// ConvertColumn replaces the text cells of column with their normalized
// float value. Nil and numeric cells pass through. The table is left
// untouched when the column is absent.
func ConvertColumn(t *table.Table, column string, policy Policy) ([]CellError, error) {
	if !t.HasColumn(column) {
		return nil, nil
	}

	var skipped []CellError
	for i, row := range t.Rows {
		switch v := row[column].(type) {
		case nil, float64:
			continue
		case int64:
			row[column] = float64(v)
		default:
			raw := table.Text(v)
			f, err := Normalize(raw)
			if err != nil {
				if policy != PolicySkip {
					return skipped, fmt.Errorf("column %s row %d: %w", column, i, err)
				}
				skipped = append(skipped, CellError{Row: i, Value: raw, Err: err})
				row[column] = nil
				continue
			}
			row[column] = f
		}
	}
	return skipped, nil
}
