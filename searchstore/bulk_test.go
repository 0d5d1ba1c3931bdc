package searchstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgengine.dev/engineerr"
	"sgengine.dev/indexplanner"
)

func TestSerializeBulkIndexOpEmitsTwoLines(t *testing.T) {
	ops := []indexplanner.Op{
		{Kind: indexplanner.OpIndex, Index: "data-specimens-latest", DocID: "rec-1", Document: map[string]any{"version": int64(100)}},
	}
	body, err := SerializeBulk(ops)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	require.Len(t, lines, 2)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &meta))
	index, ok := meta["index"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "data-specimens-latest", index["_index"])
	assert.Equal(t, "rec-1", index["_id"])

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, float64(100), doc["version"])
}

func TestSerializeBulkArchiveIndexOmitsDocID(t *testing.T) {
	ops := []indexplanner.Op{
		{Kind: indexplanner.OpIndex, Index: "data-specimens-arc-0", Document: map[string]any{"version": int64(50)}},
	}
	body, err := SerializeBulk(ops)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &meta))
	index := meta["index"].(map[string]any)
	assert.NotContains(t, index, "_id")
}

func TestSerializeBulkDeleteOpEmitsOneLine(t *testing.T) {
	ops := []indexplanner.Op{
		{Kind: indexplanner.OpDelete, Index: "data-specimens-latest", DocID: "rec-1"},
	}
	body, err := SerializeBulk(ops)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	require.Len(t, lines, 1)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &meta))
	del, ok := meta["delete"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "rec-1", del["_id"])
}

func TestBulkTalliesSuccessesByKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_bulk?refresh=false", r.URL.RequestURI())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": false,
			"items": []map[string]any{
				{"index": map[string]any{"_id": "rec-1", "status": 201}},
				{"delete": map[string]any{"_id": "rec-2", "status": 200}},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{URLs: []string{server.URL}})
	require.NoError(t, err)

	result, err := client.Bulk(context.Background(), []indexplanner.Op{
		{Kind: indexplanner.OpIndex, Index: "data-specimens-latest", DocID: "rec-1", Document: map[string]any{}},
		{Kind: indexplanner.OpDelete, Index: "data-specimens-latest", DocID: "rec-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Indexed)
	assert.Equal(t, 1, result.Deleted)
}

func TestBulkReturnsBulkOpExceptionOnItemError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": true,
			"items": []map[string]any{
				{"index": map[string]any{
					"_id":    "rec-1",
					"status": 400,
					"error":  map[string]any{"type": "mapper_parsing_exception", "reason": "bad value"},
				}},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{URLs: []string{server.URL}})
	require.NoError(t, err)

	_, err = client.Bulk(context.Background(), []indexplanner.Op{
		{Kind: indexplanner.OpIndex, Index: "data-specimens-latest", DocID: "rec-1", Document: map[string]any{}},
	})
	require.Error(t, err)

	var bulkErr *engineerr.BulkOpException
	require.ErrorAs(t, err, &bulkErr)
	require.Len(t, bulkErr.Items, 1)
	assert.Equal(t, "rec-1", bulkErr.Items[0].ID)
}

func TestBulkWithNoOpsIsANoOp(t *testing.T) {
	client, err := NewClient(Config{URLs: []string{"http://unused.invalid"}})
	require.NoError(t, err)

	result, err := client.Bulk(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &BulkResult{}, result)
}
