package database

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgengine.dev/searchstore"
)

func TestIndexWildcardMatchesDatabaseFamily(t *testing.T) {
	d := &Database{name: "specimens"}
	assert.Equal(t, "data-specimens-*", d.indexWildcard())
}

func TestMaxOfAggsPicksHigherOfVersionAndNext(t *testing.T) {
	resp := map[string]any{
		"aggregations": map[string]any{
			"max_version": map[string]any{"value": float64(200)},
			"max_next":    map[string]any{"value": float64(350)},
		},
	}
	assert.Equal(t, int64(350), maxOfAggs(resp, "max_version", "max_next"))
}

func TestMaxOfAggsIgnoresMissingAggs(t *testing.T) {
	resp := map[string]any{"aggregations": map[string]any{}}
	assert.Equal(t, int64(0), maxOfAggs(resp, "max_version", "max_next"))
}

func newTestDatabase(t *testing.T, handler http.Handler) *Database {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := searchstore.NewClient(searchstore.Config{URLs: []string{server.URL}})
	require.NoError(t, err)
	return &Database{name: "specimens", search: client}
}

func TestSeedArcStateStartsFreshWhenNoArchivesExist(t *testing.T) {
	d := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	arc, err := d.seedArcState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "data-specimens-arc-0", arc.Next("specimens", 10))
}

func TestSeedArcStateResumesFromHighestArchiveIndexCount(t *testing.T) {
	d := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/_cat/indices/data-specimens-arc-*":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"index": "data-specimens-arc-0"},
				{"index": "data-specimens-arc-1"},
			})
		case r.URL.Path == "/data-specimens-arc-1/_count":
			_ = json.NewEncoder(w).Encode(map[string]any{"count": 7})
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))

	arc, err := d.seedArcState(context.Background())
	require.NoError(t, err)

	// 7 docs already in arc-1 with a cap of 10: three more fit before rotating.
	assert.Equal(t, "data-specimens-arc-1", arc.Next("specimens", 10))
	assert.Equal(t, "data-specimens-arc-1", arc.Next("specimens", 10))
	assert.Equal(t, "data-specimens-arc-1", arc.Next("specimens", 10))
	assert.Equal(t, "data-specimens-arc-2", arc.Next("specimens", 10))
}
