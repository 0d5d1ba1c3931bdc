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

// SuspendVisibility disables refresh and replication on indices for the
// duration of a sync run (spec.md §4.7's visibility discipline):
// refresh_interval=-1, number_of_replicas=0.
func (c *Client) SuspendVisibility(ctx context.Context, indices []string) error {
	return c.putSettings(ctx, indices, map[string]any{
		"index": map[string]any{
			"refresh_interval":   "-1",
			"number_of_replicas": 0,
		},
	})
}

// RestoreVisibility resets refresh_interval and number_of_replicas to the
// server defaults (null resets to the cluster default in both
// Elasticsearch and OpenSearch).
func (c *Client) RestoreVisibility(ctx context.Context, indices []string) error {
	return c.putSettings(ctx, indices, map[string]any{
		"index": map[string]any{
			"refresh_interval":   nil,
			"number_of_replicas": nil,
		},
	})
}

// Refresh explicitly refreshes indices, making all prior writes visible to
// search atomically from the caller's perspective.
func (c *Client) Refresh(ctx context.Context, indices []string) error {
	if len(indices) == 0 {
		return nil
	}
	resp, err := c.do(ctx, "POST", "/"+strings.Join(indices, ",")+"/_refresh", "", nil)
	if err != nil {
		return &engineerr.TransportError{ErrorType: "refresh_failed", Reason: err.Error()}
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return &engineerr.TransportError{StatusCode: resp.StatusCode, ErrorType: "refresh_failed", Reason: resp.Status}
	}
	return nil
}

func (c *Client) putSettings(ctx context.Context, indices []string, settings map[string]any) error {
	if len(indices) == 0 {
		return nil
	}
	body, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("searchstore: failed to encode index settings: %w", err)
	}
	path := "/" + strings.Join(indices, ",") + "/_settings"
	resp, err := c.do(ctx, "PUT", path, "application/json", body)
	if err != nil {
		return &engineerr.TransportError{ErrorType: "settings_update_failed", Reason: err.Error()}
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, resp.Body)
		return &engineerr.TransportError{StatusCode: resp.StatusCode, ErrorType: "settings_update_failed", Reason: buf.String()}
	}
	return nil
}
