package columnar

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/DrSkyle/balanco/pkg/table"
)

const parallelism = 4

// Encode writes t as a single snappy-compressed Parquet file.
func Encode(t *table.Table) (data []byte, err error) {
	if t == nil || len(t.Columns) == 0 {
		return nil, errors.New("columnar: table has no columns")
	}

	// parquet-go panics on some malformed rows.
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("columnar: parquet writer panic: %v", r)
		}
	}()

	cols := InferSchema(t)
	schemaDef, err := buildSchema(cols)
	if err != nil {
		return nil, fmt.Errorf("columnar: build schema: %w", err)
	}

	buf := &bytes.Buffer{}
	pfw := writerfile.NewWriterFile(buf)
	pw, err := writer.NewJSONWriter(schemaDef, pfw, parallelism)
	if err != nil {
		return nil, fmt.Errorf("columnar: create writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, row := range t.Rows {
		doc, err := projectRow(row, cols)
		if err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("columnar: row %d: %w", i, err)
		}
		if err := pw.Write(doc); err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("columnar: write row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("columnar: finish: %w", err)
	}
	if err := pfw.Close(); err != nil {
		return nil, fmt.Errorf("columnar: close: %w", err)
	}
	return buf.Bytes(), nil
}

// Info summarizes an encoded file.
type Info struct {
	Rows    int64
	Columns []string
	Codecs  []string
}

// Inspect reads the footer of an encoded file. Columns are reported under
// the names stored in the file.
func Inspect(data []byte) (*Info, error) {
	pf, err := buffer.NewBufferFile(data)
	if err != nil {
		return nil, fmt.Errorf("columnar: open: %w", err)
	}
	pr, err := reader.NewParquetColumnReader(pf, 1)
	if err != nil {
		return nil, fmt.Errorf("columnar: open: %w", err)
	}
	defer pr.ReadStop()

	info := &Info{Rows: pr.GetNumRows(), Columns: fileColumns(pr)}
	seen := map[string]bool{}
	for _, rg := range pr.Footer.RowGroups {
		for _, cc := range rg.Columns {
			if cc.MetaData == nil {
				continue
			}
			codec := cc.MetaData.Codec.String()
			if !seen[codec] {
				seen[codec] = true
				info.Codecs = append(info.Codecs, codec)
			}
		}
	}
	return info, nil
}

// Decode reads an encoded file back into a table whose columns carry the
// stored names.
func Decode(data []byte) (*table.Table, error) {
	pf, err := buffer.NewBufferFile(data)
	if err != nil {
		return nil, fmt.Errorf("columnar: open: %w", err)
	}
	pr, err := reader.NewParquetReader(pf, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("columnar: open: %w", err)
	}
	defer pr.ReadStop()

	columns := fileColumns(pr)
	external := make(map[string]string, len(columns))
	for i := 1; i < len(pr.SchemaHandler.Infos); i++ {
		external[pr.SchemaHandler.GetInName(i)] = pr.SchemaHandler.GetExName(i)
	}

	n := int(pr.GetNumRows())
	if n == 0 {
		return table.New(columns, nil), nil
	}
	rows, err := pr.ReadByNumber(n)
	if err != nil {
		return nil, fmt.Errorf("columnar: read rows: %w", err)
	}

	records := make([]table.Record, 0, len(rows))
	for _, row := range rows {
		v := reflect.Indirect(reflect.ValueOf(row))
		rec := make(table.Record, v.NumField())
		for i := 0; i < v.NumField(); i++ {
			name, ok := external[v.Type().Field(i).Name]
			if !ok {
				continue
			}
			rec[name] = fieldValue(v.Field(i))
		}
		records = append(records, rec)
	}
	return table.New(columns, records), nil
}

// fileColumns lists the leaf columns under their stored names. The reader
// rewrites footer names into Go identifiers, so they come from the schema
// handler instead.
func fileColumns(pr *reader.ParquetReader) []string {
	cols := make([]string, 0, len(pr.SchemaHandler.Infos))
	for i := 1; i < len(pr.SchemaHandler.Infos); i++ {
		cols = append(cols, pr.SchemaHandler.GetExName(i))
	}
	return cols
}

func fieldValue(f reflect.Value) any {
	if f.Kind() == reflect.Ptr {
		if f.IsNil() {
			return nil
		}
		f = f.Elem()
	}
	return f.Interface()
}
