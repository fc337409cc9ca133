package locator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/balanco/pkg/ckan"
	"github.com/DrSkyle/balanco/pkg/faults"
	"github.com/DrSkyle/balanco/pkg/table"
)

type fakeAPI struct {
	pkg        *ckan.Package
	pkgErr     error
	records    map[string][]map[string]any
	searchErrs map[string]error

	searched []string
	limits   []int
}

func (f *fakeAPI) PackageShow(ctx context.Context, datasetID string) (*ckan.Package, error) {
	if f.pkgErr != nil {
		return nil, f.pkgErr
	}
	return f.pkg, nil
}

func (f *fakeAPI) DatastoreSearch(ctx context.Context, resourceID string, limit int) (*ckan.DatastoreResult, error) {
	f.searched = append(f.searched, resourceID)
	f.limits = append(f.limits, limit)
	if err := f.searchErrs[resourceID]; err != nil {
		return nil, err
	}
	return &ckan.DatastoreResult{ResourceID: resourceID, Records: f.records[resourceID]}, nil
}

func balancoPackage() *ckan.Package {
	return &ckan.Package{Resources: []ckan.Resource{
		{ID: "res-1", Name: "Balanço 2023", DatastoreActive: true},
		{ID: "res-2", Name: "Balanço 2020", DatastoreActive: true},
		{ID: "res-3", Name: "Balanço 2023 (PDF)", DatastoreActive: false},
	}}
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type pair struct {
	name string
	tbl  *table.Table
}

func collect(s *Search) []pair {
	var out []pair
	for name, tbl := range s.Tables() {
		out = append(out, pair{name, tbl})
	}
	return out
}

func TestLocateFiltersByYearAndDatastore(t *testing.T) {
	api := &fakeAPI{
		pkg: balancoPackage(),
		records: map[string][]map[string]any{
			"res-1": {{"id": int64(1), "col": "val1"}, {"id": int64(2), "col": "val2"}},
			"res-2": {{"id": int64(3), "col": "val3"}},
		},
	}
	l := New(api, WithLogger(quietLogger()))

	search := l.Locate(context.Background(), Year("2023"), "balanco-patrimonial")
	got := collect(search)

	require.Len(t, got, 1)
	assert.Equal(t, "Balanço 2023", got[0].name)
	require.Equal(t, 2, got[0].tbl.Len())
	assert.Equal(t, "val1", got[0].tbl.Rows[0]["col"])
	assert.True(t, got[0].tbl.HasColumn(table.ColumnSourceName))
	assert.Equal(t, "res-1", got[0].tbl.Rows[1][table.ColumnSourceID])

	assert.Equal(t, []string{"res-1"}, api.searched)
	assert.Equal(t, []int{DefaultRecordLimit}, api.limits)
	assert.Equal(t, 1, search.Matched())
	assert.NoError(t, search.Err())
	assert.Empty(t, search.Skipped())
}

func TestLocateNoMatchYieldsEmptySequence(t *testing.T) {
	api := &fakeAPI{pkg: balancoPackage()}
	search := New(api, WithLogger(quietLogger())).Locate(context.Background(), Year("2099"), "")

	assert.Empty(t, collect(search))
	assert.NoError(t, search.Err())
	assert.Empty(t, api.searched)
}

func TestLocateIsLazy(t *testing.T) {
	api := &fakeAPI{
		pkg: &ckan.Package{Resources: []ckan.Resource{
			{ID: "a", Name: "Balanço 2023 T1", DatastoreActive: true},
			{ID: "b", Name: "Balanço 2023 T2", DatastoreActive: true},
		}},
		records: map[string][]map[string]any{
			"a": {{"x": "1"}},
			"b": {{"x": "2"}},
		},
	}
	search := New(api, WithLogger(quietLogger())).Locate(context.Background(), Year("2023"), "")
	assert.Empty(t, api.searched, "nothing is fetched before iteration")

	for name := range search.Tables() {
		assert.Equal(t, "Balanço 2023 T1", name)
		break
	}
	assert.Equal(t, []string{"a"}, api.searched)
}

func TestLocateIsNotRestartable(t *testing.T) {
	api := &fakeAPI{
		pkg:     balancoPackage(),
		records: map[string][]map[string]any{"res-1": {{"x": "1"}}},
	}
	search := New(api, WithLogger(quietLogger())).Locate(context.Background(), Year("2023"), "")

	assert.Len(t, collect(search), 1)
	assert.Empty(t, collect(search))
	assert.Len(t, api.searched, 1)
}

func TestLocateSkipsEmptyResources(t *testing.T) {
	api := &fakeAPI{
		pkg: &ckan.Package{Resources: []ckan.Resource{
			{ID: "empty", Name: "Balanço 2023 vazio", DatastoreActive: true},
			{ID: "full", Name: "Balanço 2023", DatastoreActive: true},
		}},
		records: map[string][]map[string]any{"full": {{"x": "1"}}},
	}
	search := New(api, WithLogger(quietLogger())).Locate(context.Background(), Year("2023"), "")

	got := collect(search)
	require.Len(t, got, 1)
	assert.Equal(t, "Balanço 2023", got[0].name)

	require.Len(t, search.Skipped(), 1)
	assert.Equal(t, "empty", search.Skipped()[0].ResourceID)
	assert.Equal(t, "no records", search.Skipped()[0].Reason)
	assert.Empty(t, search.Failures())
}

func TestLocateContinuesPastResourceFailure(t *testing.T) {
	api := &fakeAPI{
		pkg: &ckan.Package{Resources: []ckan.Resource{
			{ID: "bad", Name: "Balanço 2023 A", DatastoreActive: true},
			{ID: "good", Name: "Balanço 2023 B", DatastoreActive: true},
		}},
		records:    map[string][]map[string]any{"good": {{"x": "1"}}},
		searchErrs: map[string]error{"bad": faults.Transport("datastore_search", errors.New("HTTP 500"))},
	}
	search := New(api, WithLogger(quietLogger())).Locate(context.Background(), Year("2023"), "")

	got := collect(search)
	require.Len(t, got, 1)
	assert.Equal(t, "Balanço 2023 B", got[0].name)

	failures := search.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "bad", failures[0].ResourceID)
	assert.True(t, faults.Is(failures[0].Err, faults.KindTransport))
	assert.NoError(t, search.Err())
}

func TestLocateMetadataFailureEndsSequence(t *testing.T) {
	api := &fakeAPI{pkgErr: faults.Parse("package_show", errors.New("decode response"))}
	search := New(api, WithLogger(quietLogger())).Locate(context.Background(), Year("2023"), "")

	assert.Empty(t, collect(search))
	require.Error(t, search.Err())
	assert.True(t, faults.Is(search.Err(), faults.KindParse))
}

func TestLocateStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	api := &fakeAPI{
		pkg:        balancoPackage(),
		searchErrs: map[string]error{"res-1": context.Canceled},
	}
	cancel()

	search := New(api, WithLogger(quietLogger())).Locate(ctx, Year("2023"), "")
	assert.Empty(t, collect(search))
	assert.ErrorIs(t, search.Err(), context.Canceled)
	assert.Empty(t, search.Skipped())
}

func TestWithRecordLimit(t *testing.T) {
	api := &fakeAPI{pkg: balancoPackage(), records: map[string][]map[string]any{"res-1": {{"x": "1"}}}}
	collect(New(api, WithRecordLimit(10), WithLogger(quietLogger())).Locate(context.Background(), Year("2023"), ""))

	assert.Equal(t, []int{10}, api.limits)
}

func TestLocateMatchesDecomposedNames(t *testing.T) {
	api := &fakeAPI{
		pkg: &ckan.Package{Resources: []ckan.Resource{
			{ID: "res-nfd", Name: "Balanc\u0327o 2023", DatastoreActive: true},
		}},
		records: map[string][]map[string]any{
			"res-nfd": {{"col": "v"}},
		},
	}

	got := collect(New(api, WithLogger(quietLogger())).Locate(context.Background(), Year("2023"), ""))

	require.Len(t, got, 1)
	assert.Equal(t, "res-nfd", got[0].tbl.Rows[0][table.ColumnSourceID])
}
