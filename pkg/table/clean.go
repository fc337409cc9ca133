package table

import "strings"

// ColumnDescription is trimmed and coerced to text by Clean.
const ColumnDescription = "descricao"

// Clean drops rows whose every field is nil and, when the description column
// is present, coerces its values to trimmed text (nil becomes ""). An empty
// table is returned unchanged. Clean mutates t and returns it.
func Clean(t *Table) *Table {
	if t.Empty() {
		return t
	}

	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if !allNil(row) {
			kept = append(kept, row)
		}
	}
	// Release trailing references.
	for i := len(kept); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = kept

	if t.HasColumn(ColumnDescription) {
		for _, row := range t.Rows {
			row[ColumnDescription] = strings.TrimSpace(Text(row[ColumnDescription]))
		}
	}
	return t
}

func allNil(row Record) bool {
	for _, v := range row {
		if v != nil {
			return false
		}
	}
	return true
}
