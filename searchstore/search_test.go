package searchstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchPostsBodyAndDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data-specimens-latest/_search", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(10), body["size"])
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"hits": map[string]any{"total": map[string]any{"value": 1}}})
	}))
	defer server.Close()

	client, err := NewClient(Config{URLs: []string{server.URL}})
	require.NoError(t, err)

	resp, err := client.Search(context.Background(), []string{"data-specimens-latest"}, map[string]any{"size": 10})
	require.NoError(t, err)
	hits := resp["hits"].(map[string]any)
	total := hits["total"].(map[string]any)
	assert.Equal(t, float64(1), total["value"])
}

func TestIndexExistsReflectsHeadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/present" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(Config{URLs: []string{server.URL}})
	require.NoError(t, err)

	present, err := client.IndexExists(context.Background(), "present")
	require.NoError(t, err)
	assert.True(t, present)

	absent, err := client.IndexExists(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, absent)
}

func TestCreateIndexSkipsWhenAlreadyPresent(t *testing.T) {
	var putCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		putCalls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(Config{URLs: []string{server.URL}})
	require.NoError(t, err)

	require.NoError(t, client.CreateIndex(context.Background(), "data-specimens-latest", map[string]any{}))
	assert.Equal(t, 0, putCalls)
}

func TestDeleteIndexToleratesNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(Config{URLs: []string{server.URL}})
	require.NoError(t, err)

	assert.NoError(t, client.DeleteIndex(context.Background(), "data-specimens-arc-9"))
}

func TestListIndicesParsesCatResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_cat/indices/data-specimens-arc-*", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"index": "data-specimens-arc-0"},
			{"index": "data-specimens-arc-1"},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{URLs: []string{server.URL}})
	require.NoError(t, err)

	names, err := client.ListIndices(context.Background(), "data-specimens-arc-*")
	require.NoError(t, err)
	assert.Equal(t, []string{"data-specimens-arc-0", "data-specimens-arc-1"}, names)
}

func TestListIndicesReturnsEmptyWhenNoneMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(Config{URLs: []string{server.URL}})
	require.NoError(t, err)

	names, err := client.ListIndices(context.Background(), "data-specimens-arc-*")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCountDocsParsesCountField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data-specimens-latest/_count", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"count": 3})
	}))
	defer server.Close()

	client, err := NewClient(Config{URLs: []string{server.URL}})
	require.NoError(t, err)

	count, err := client.CountDocs(context.Background(), "data-specimens-latest")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
