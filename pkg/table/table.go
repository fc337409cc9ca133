// Package table holds the in-memory tabular model shared by the pipeline:
// an ordered column list plus rows keyed by column name.
package table

import (
	"sort"
	"strconv"
)

// Provenance columns added to every row fetched from a resource.
const (
	ColumnSourceName = "source_resource_name"
	ColumnSourceID   = "source_resource_id"
)

// Record maps a column name to a scalar: nil, string, int64, float64 or bool.
type Record map[string]any

// Table is an ordered set of rows sharing a column set.
type Table struct {
	Columns []string
	Rows    []Record
}

// New builds a table. When columns is empty the column set is the sorted
// union of the row keys.
func New(columns []string, rows []Record) *Table {
	if len(columns) == 0 {
		columns = unionKeys(rows)
	}
	return &Table{Columns: columns, Rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// HasColumn reports whether name is part of the column set.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends name to the column set if missing.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// Tag sets the provenance columns on every row.
func (t *Table) Tag(name, id string) {
	t.AddColumn(ColumnSourceName)
	t.AddColumn(ColumnSourceID)
	for _, row := range t.Rows {
		row[ColumnSourceName] = name
		row[ColumnSourceID] = id
	}
}

// Head returns a table with at most n leading rows sharing the same records.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > t.Len() {
		n = t.Len()
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Concat stacks tables vertically. Columns are the union in first-seen order;
// cells a table does not have are nil.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	seen := make(map[string]bool)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, row := range t.Rows {
			rec := make(Record, len(out.Columns))
			for _, c := range out.Columns {
				rec[c] = row[c]
			}
			out.Rows = append(out.Rows, rec)
		}
	}
	return out
}

// Text renders a cell value as text. Nil renders as the empty string.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case interface{ String() string }:
		return x.String()
	}
	return ""
}

func unionKeys(rows []Record) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
