package searchstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sgengine.dev/engineerr"
)

// Search issues a query DSL body against indices and returns the decoded
// response. The query DSL itself belongs to the search store (spec.md
// §4.8's search(version) note: "The query DSL itself is the search store's")
// — this method is a thin transport, not a query builder.
func (c *Client) Search(ctx context.Context, indices []string, body map[string]any) (map[string]any, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("searchstore: failed to encode search body: %w", err)
	}

	path := "/" + strings.Join(indices, ",") + "/_search"
	resp, err := c.do(ctx, "POST", path, "application/json", encoded)
	if err != nil {
		return nil, &engineerr.TransportError{ErrorType: "search_failed", Reason: err.Error(), Timeout: isTimeoutErr(err)}
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, resp.Body)
		return nil, &engineerr.TransportError{StatusCode: resp.StatusCode, ErrorType: "search_failed", Reason: buf.String()}
	}

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("searchstore: failed to decode search response: %w", err)
	}
	return decoded, nil
}

// IndexExists reports whether an index is present in the search store.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	resp, err := c.do(ctx, "HEAD", "/"+index, "", nil)
	if err != nil {
		return false, &engineerr.TransportError{ErrorType: "index_exists_failed", Reason: err.Error(), Timeout: isTimeoutErr(err)}
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()
	return resp.StatusCode == 200, nil
}

// CreateIndex creates an index with the given mapping/settings body if it
// does not already exist.
func (c *Client) CreateIndex(ctx context.Context, index string, body map[string]any) error {
	exists, err := c.IndexExists(ctx, index)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("searchstore: failed to encode index body: %w", err)
	}
	resp, err := c.do(ctx, "PUT", "/"+index, "application/json", encoded)
	if err != nil {
		return &engineerr.TransportError{ErrorType: "create_index_failed", Reason: err.Error(), Timeout: isTimeoutErr(err)}
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 && resp.StatusCode != 400 {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, resp.Body)
		return &engineerr.TransportError{StatusCode: resp.StatusCode, ErrorType: "create_index_failed", Reason: buf.String()}
	}
	return nil
}

// DeleteIndex removes an index, tolerating it already being absent.
func (c *Client) DeleteIndex(ctx context.Context, index string) error {
	resp, err := c.do(ctx, "DELETE", "/"+index, "", nil)
	if err != nil {
		return &engineerr.TransportError{ErrorType: "delete_index_failed", Reason: err.Error(), Timeout: isTimeoutErr(err)}
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 && resp.StatusCode != 404 {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, resp.Body)
		return &engineerr.TransportError{StatusCode: resp.StatusCode, ErrorType: "delete_index_failed", Reason: buf.String()}
	}
	return nil
}

// ListIndices returns the names of every index matching pattern (an index
// name or wildcard, e.g. "data-specimens-arc-*"), via the cat indices API.
// A pattern matching nothing returns an empty slice, not an error.
func (c *Client) ListIndices(ctx context.Context, pattern string) ([]string, error) {
	resp, err := c.do(ctx, "GET", "/_cat/indices/"+pattern+"?format=json&h=index", "", nil)
	if err != nil {
		return nil, &engineerr.TransportError{ErrorType: "list_indices_failed", Reason: err.Error(), Timeout: isTimeoutErr(err)}
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()
	if resp.StatusCode == 404 {
		return nil, nil
	}
	if resp.StatusCode >= 400 {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, resp.Body)
		return nil, &engineerr.TransportError{StatusCode: resp.StatusCode, ErrorType: "list_indices_failed", Reason: buf.String()}
	}

	var decoded []struct {
		Index string `json:"index"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("searchstore: failed to decode cat indices response: %w", err)
	}
	names := make([]string, 0, len(decoded))
	for _, entry := range decoded {
		names = append(names, entry.Index)
	}
	return names, nil
}

// CountDocs returns the number of documents currently in index.
func (c *Client) CountDocs(ctx context.Context, index string) (int, error) {
	resp, err := c.do(ctx, "GET", "/"+index+"/_count", "", nil)
	if err != nil {
		return 0, &engineerr.TransportError{ErrorType: "count_failed", Reason: err.Error(), Timeout: isTimeoutErr(err)}
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return 0, &engineerr.TransportError{StatusCode: resp.StatusCode, ErrorType: "count_failed"}
	}
	var decoded struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("searchstore: failed to decode count response: %w", err)
	}
	return decoded.Count, nil
}
