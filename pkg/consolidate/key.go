package consolidate

import (
	"fmt"
	"path"
	"time"
)

// ObjectKey builds {prefix}/{yyyy}/{mm}/{dd}/balanco_patrimonial_{year}_consolidado.parquet
// from the UTC date of now.
func ObjectKey(prefix string, now time.Time, year string) string {
	filename := fmt.Sprintf("balanco_patrimonial_%s_consolidado.parquet", year)
	return path.Join(prefix, now.UTC().Format("2006/01/02"), filename)
}
