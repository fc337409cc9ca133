// Package columnar encodes tables as snappy-compressed Parquet.
package columnar

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go/common"

	"github.com/DrSkyle/balanco/pkg/table"
)

// Physical is the Parquet physical type chosen for a column.
type Physical string

const (
	Boolean Physical = "BOOLEAN"
	Int64   Physical = "INT64"
	Double  Physical = "DOUBLE"
	Text    Physical = "BYTE_ARRAY"
)

// Column is one inferred schema entry. Field is the name the column is
// written under; it differs from Name only when Name is not tag-safe or
// folds onto an earlier column.
type Column struct {
	Name  string
	Field string
	Type  Physical
}

// InferSchema picks a physical type per column from the non-nil values:
// all bools → BOOLEAN, all ints → INT64, ints and floats → DOUBLE, anything
// else (or no values at all) → UTF8 text.
func InferSchema(t *table.Table) []Column {
	cols := make([]Column, 0, len(t.Columns))
	for _, name := range t.Columns {
		cols = append(cols, Column{Name: name, Type: inferColumn(t.Rows, name)})
	}
	assignFields(cols)
	return cols
}

// assignFields gives every column a distinct field name. parquet-go keys
// columns by a Go identifier derived from the name, so "valor" and "Valor"
// (or "a,b" and "a_b") would share one column; later ones get a "_2", "_3"
// suffix.
func assignFields(cols []Column) {
	used := make(map[string]bool, len(cols))
	for i := range cols {
		base := fieldName(cols[i].Name)
		if base == "" {
			base = "column"
		}
		field := base
		for n := 2; used[common.StringToVariableName(field)]; n++ {
			field = fmt.Sprintf("%s_%d", base, n)
		}
		used[common.StringToVariableName(field)] = true
		cols[i].Field = field
	}
}

func inferColumn(rows []table.Record, name string) Physical {
	var bools, ints, floats, others int
	for _, row := range rows {
		switch row[name].(type) {
		case nil:
		case bool:
			bools++
		case int64, int:
			ints++
		case float64:
			floats++
		default:
			others++
		}
	}
	switch {
	case others > 0:
		return Text
	case bools > 0 && ints+floats == 0:
		return Boolean
	case bools > 0:
		return Text
	case floats > 0:
		return Double
	case ints > 0:
		return Int64
	}
	return Text
}

var tagEscaper = strings.NewReplacer(",", "_", "=", "_")

// fieldName keeps a column name safe inside a parquet-go tag.
func fieldName(name string) string {
	return tagEscaper.Replace(strings.TrimSpace(name))
}

func buildSchema(cols []Column) (string, error) {
	fields := make([]map[string]string, 0, len(cols))
	for _, c := range cols {
		tag := fmt.Sprintf("name=%s, type=%s, repetitiontype=OPTIONAL", c.Field, c.Type)
		if c.Type == Text {
			tag = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", c.Field)
		}
		fields = append(fields, map[string]string{"Tag": tag})
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": fields,
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// projectRow renders a row as the JSON document the parquet-go JSON writer
// consumes, coercing every value to its column type.
func projectRow(row table.Record, cols []Column) (string, error) {
	doc := make(map[string]any, len(cols))
	for _, c := range cols {
		v := row[c.Name]
		if v == nil {
			doc[c.Field] = nil
			continue
		}
		switch c.Type {
		case Text:
			doc[c.Field] = table.Text(v)
		case Double:
			switch x := v.(type) {
			case int64:
				doc[c.Field] = float64(x)
			case int:
				doc[c.Field] = float64(x)
			default:
				doc[c.Field] = v
			}
		default:
			doc[c.Field] = v
		}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
