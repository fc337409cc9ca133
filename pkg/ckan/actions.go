package ckan

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/DrSkyle/balanco/pkg/table"
)

// Resource describes one fetchable table of a dataset.
type Resource struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DatastoreActive bool   `json:"datastore_active"`
	Format          string `json:"format,omitempty"`
	URL             string `json:"url,omitempty"`
}

// Package is the subset of package_show the pipeline reads.
type Package struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Title     string     `json:"title"`
	Resources []Resource `json:"resources"`
}

// Field is a datastore column declaration.
type Field struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// DatastoreResult is the subset of datastore_search the pipeline reads.
type DatastoreResult struct {
	ResourceID string           `json:"resource_id"`
	Fields     []Field          `json:"fields"`
	Records    []map[string]any `json:"records"`
	Total      int              `json:"total"`
}

// PackageShow fetches dataset metadata.
func (c *Client) PackageShow(ctx context.Context, datasetID string) (*Package, error) {
	var pkg Package
	if err := c.call(ctx, "package_show", url.Values{"id": {datasetID}}, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// DatastoreSearch fetches up to limit records of a resource.
func (c *Client) DatastoreSearch(ctx context.Context, resourceID string, limit int) (*DatastoreResult, error) {
	q := url.Values{"resource_id": {resourceID}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var res DatastoreResult
	if err := c.call(ctx, "datastore_search", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Table converts the result into a table. Columns follow the declared field
// order; when no fields are declared they are the sorted union of keys.
func (r *DatastoreResult) Table() *table.Table {
	rows := make([]table.Record, 0, len(r.Records))
	for _, rec := range r.Records {
		row := make(table.Record, len(rec))
		for k, v := range rec {
			row[k] = scalar(v)
		}
		rows = append(rows, row)
	}

	var columns []string
	for _, f := range r.Fields {
		columns = append(columns, f.ID)
	}
	t := table.New(columns, rows)
	if len(columns) == 0 {
		return t
	}
	// Keys the field list did not announce.
	var extra []string
	for _, k := range table.New(nil, rows).Columns {
		if !t.HasColumn(k) {
			extra = append(extra, k)
		}
	}
	t.Columns = append(t.Columns, extra...)
	return t
}

// scalar maps decoded JSON onto the table value set.
func scalar(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return nil
		}
		return string(b)
	}
	return v
}
