package searchstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"sgengine.dev/engineerr"
)

// IndexTemplateExists reports whether an index template is registered.
func (c *Client) IndexTemplateExists(ctx context.Context, name string) (bool, error) {
	resp, err := c.do(ctx, "HEAD", "/_index_template/"+name, "", nil)
	if err != nil {
		return false, &engineerr.TransportError{ErrorType: "index_template_exists_failed", Reason: err.Error(), Timeout: isTimeoutErr(err)}
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()
	return resp.StatusCode == 200, nil
}

// EnsureIndexTemplate registers an index template mapping indexPatterns to
// body if one by this name does not already exist — the mandatory mapping
// applied once and picked up by every subsequently created data index
// (spec.md §6's "A status/template index `data-template` is created once,
// matching `data-*`").
func (c *Client) EnsureIndexTemplate(ctx context.Context, name string, indexPatterns []string, body map[string]any) error {
	exists, err := c.IndexTemplateExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	payload := map[string]any{
		"index_patterns": indexPatterns,
		"template":       body,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("searchstore: failed to encode index template body: %w", err)
	}

	resp, err := c.do(ctx, "PUT", "/_index_template/"+name, "application/json", encoded)
	if err != nil {
		return &engineerr.TransportError{ErrorType: "create_index_template_failed", Reason: err.Error(), Timeout: isTimeoutErr(err)}
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, resp.Body)
		return &engineerr.TransportError{StatusCode: resp.StatusCode, ErrorType: "create_index_template_failed", Reason: buf.String()}
	}
	return nil
}
