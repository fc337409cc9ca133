package ckan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/balanco/pkg/faults"
	"github.com/DrSkyle/balanco/pkg/table"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", RequestsPerSecond: 1000})
}

func TestPackageShow(t *testing.T) {
	var gotPath, gotID, gotUA string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotID = r.URL.Query().Get("id")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"success": true, "result": {"name": "balanco-patrimonial", "resources": [
			{"id": "res-1", "name": "Balanço 2023", "datastore_active": true, "format": "CSV"},
			{"id": "res-3", "name": "Balanço 2023 (PDF)", "datastore_active": false}
		]}}`))
	})

	pkg, err := c.PackageShow(context.Background(), "balanco-patrimonial")
	require.NoError(t, err)

	assert.Equal(t, "/package_show", gotPath)
	assert.Equal(t, "balanco-patrimonial", gotID)
	assert.Contains(t, gotUA, "balanco/")
	require.Len(t, pkg.Resources, 2)
	assert.Equal(t, Resource{ID: "res-1", Name: "Balanço 2023", DatastoreActive: true, Format: "CSV"}, pkg.Resources[0])
	assert.False(t, pkg.Resources[1].DatastoreActive)
}

func TestDatastoreSearch(t *testing.T) {
	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/datastore_search", r.URL.Path)
		gotQuery = map[string]string{
			"resource_id": r.URL.Query().Get("resource_id"),
			"limit":       r.URL.Query().Get("limit"),
		}
		_, _ = w.Write([]byte(`{"success": true, "result": {
			"fields": [{"id": "_id", "type": "int"}, {"id": "col", "type": "text"}],
			"records": [{"_id": 1, "col": "val1", "nota": 1.5}, {"_id": 2, "col": "val2", "nota": null}],
			"total": 2
		}}`))
	})

	res, err := c.DatastoreSearch(context.Background(), "res-1", 50000)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"resource_id": "res-1", "limit": "50000"}, gotQuery)

	tbl := res.Table()
	assert.Equal(t, []string{"_id", "col", "nota"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, table.Record{"_id": int64(1), "col": "val1", "nota": 1.5}, tbl.Rows[0])
	assert.Nil(t, tbl.Rows[1]["nota"])
}

func TestDatastoreResultTableWithoutFields(t *testing.T) {
	res := &DatastoreResult{Records: []map[string]any{{"b": "x", "a": map[string]any{"k": "v"}}}}
	tbl := res.Table()

	assert.Equal(t, []string{"a", "b"}, tbl.Columns)
	assert.Equal(t, `{"k":"v"}`, tbl.Rows[0]["a"])
}

func TestCallErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   faults.Kind
	}{
		{"http status", http.StatusInternalServerError, "oops", faults.KindTransport},
		{"ckan failure", http.StatusOK, `{"success": false, "error": {"__type": "Not Found Error", "message": "Not found"}}`, faults.KindTransport},
		{"bad json", http.StatusOK, `{"success": tr`, faults.KindParse},
		{"missing result", http.StatusOK, `{"success": true}`, faults.KindParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.PackageShow(context.Background(), "x")
			require.Error(t, err)
			assert.Equal(t, tt.kind, faults.KindOf(err))
		})
	}
}

func TestHTTPErrorCarriesStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})

	_, err := c.DatastoreSearch(context.Background(), "res", 0)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusGone, httpErr.StatusCode)
}

func TestTransportFailure(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1", RequestsPerSecond: 1000})
	_, err := c.PackageShow(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindTransport))
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.PackageShow(ctx, "x")
	assert.True(t, faults.Is(err, faults.KindTransport))
}
