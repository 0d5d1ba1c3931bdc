package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgengine.dev/searchstore"
)

func TestSearchReturnsLatestIndexOnlyWhenVersionNil(t *testing.T) {
	d := &Database{name: "specimens"}
	session := d.Search(nil)
	assert.Equal(t, []string{"data-specimens-latest"}, session.Indices)
	assert.Nil(t, session.VersionFilter)
}

func TestSearchReturnsWildcardFamilyWhenVersionSet(t *testing.T) {
	d := &Database{name: "specimens"}
	v := int64(150)
	session := d.Search(&v)
	assert.Equal(t, []string{"data-specimens-*"}, session.Indices)
	require.NotNil(t, session.VersionFilter)
	assert.Equal(t, int64(150), *session.VersionFilter)
}

func TestWithVersionFilterAddsRangeWhenNoExistingQuery(t *testing.T) {
	out := withVersionFilter(map[string]any{"size": 10}, 150)
	query := out["query"].(map[string]any)
	boolClause := query["bool"].(map[string]any)
	assert.Nil(t, boolClause["must"])
	filters := boolClause["filter"].([]any)
	assert.Len(t, filters, 1)
}

func TestWithVersionFilterPreservesExistingQueryAsMust(t *testing.T) {
	existing := map[string]any{"term": map[string]any{"id": "r1"}}
	out := withVersionFilter(map[string]any{"query": existing}, 150)
	query := out["query"].(map[string]any)
	boolClause := query["bool"].(map[string]any)
	must := boolClause["must"].([]any)
	assert.Equal(t, []any{existing}, must)
}

func newTestSearchClient(t *testing.T, handler http.HandlerFunc) *searchstore.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := searchstore.NewClient(searchstore.Config{URLs: []string{server.URL}})
	require.NoError(t, err)
	return client
}

func TestGetRoundedVersionReturnsAggregatedValue(t *testing.T) {
	client := newTestSearchClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"aggregations":{"rounded":{"value":180}}}`))
	})
	d := &Database{name: "specimens", search: client}

	rounded, err := d.GetRoundedVersion(context.Background(), 200)
	require.NoError(t, err)
	require.NotNil(t, rounded)
	assert.Equal(t, int64(180), *rounded)
}

func TestGetRoundedVersionReturnsNilWhenNoMatch(t *testing.T) {
	client := newTestSearchClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"aggregations":{"rounded":{"value":null}}}`))
	})
	d := &Database{name: "specimens", search: client}

	rounded, err := d.GetRoundedVersion(context.Background(), 200)
	require.NoError(t, err)
	assert.Nil(t, rounded)
}

func TestGetVersionsPagesUntilBucketsRunOut(t *testing.T) {
	calls := 0
	client := newTestSearchClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			_, _ = w.Write([]byte(`{"aggregations":{"page":{"buckets":[
				{"key":{"version":300}},
				{"key":{"version":100}}
			],"after_key":{"version":100}}}}`))
			return
		}
		_, _ = w.Write([]byte(`{"aggregations":{"page":{"buckets":[]}}}`))
	})
	d := &Database{name: "specimens", search: client}

	versions, err := d.GetVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 300}, versions)
	assert.Equal(t, 2, calls)
}
