package searchstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"sgengine.dev/engineerr"
	"sgengine.dev/indexplanner"
)

// BulkResult tallies the per-kind outcome of one bulk request.
type BulkResult struct {
	Indexed int
	Deleted int
}

// SerializeBulk renders ops as a newline-delimited bulk request body:
// index ops are two lines (action metadata then document), delete ops are
// one line, matching spec.md §4.7's per-chunk wire format.
func SerializeBulk(ops []indexplanner.Op) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for _, op := range ops {
		switch op.Kind {
		case indexplanner.OpIndex:
			meta := map[string]any{"index": indexMeta(op)}
			if err := enc.Encode(meta); err != nil {
				return nil, fmt.Errorf("searchstore: failed to encode bulk meta: %w", err)
			}
			if err := enc.Encode(op.Document); err != nil {
				return nil, fmt.Errorf("searchstore: failed to encode bulk document: %w", err)
			}
		case indexplanner.OpDelete:
			meta := map[string]any{"delete": map[string]any{"_index": op.Index, "_id": op.DocID}}
			if err := enc.Encode(meta); err != nil {
				return nil, fmt.Errorf("searchstore: failed to encode bulk meta: %w", err)
			}
		default:
			return nil, fmt.Errorf("searchstore: unknown op kind %q", op.Kind)
		}
	}

	return buf.Bytes(), nil
}

func indexMeta(op indexplanner.Op) map[string]any {
	meta := map[string]any{"_index": op.Index}
	if op.DocID != "" {
		meta["_id"] = op.DocID
	}
	return meta
}

type bulkResponse struct {
	Errors bool             `json:"errors"`
	Items  []bulkResponseItem `json:"items"`
}

type bulkResponseItem struct {
	Index  *bulkItemResult `json:"index"`
	Delete *bulkItemResult `json:"delete"`
}

type bulkItemResult struct {
	ID     string         `json:"_id"`
	Status int            `json:"status"`
	Error  *bulkItemError `json:"error"`
}

type bulkItemError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// Bulk issues one bulk request for ops against the search store, with
// index-refresh disabled on the request itself (the sync driver controls
// refresh visibility at the index-settings level around the whole sync, not
// per chunk). It tallies per-kind successes and returns
// engineerr.BulkOpException if any item failed.
func (c *Client) Bulk(ctx context.Context, ops []indexplanner.Op) (*BulkResult, error) {
	if len(ops) == 0 {
		return &BulkResult{}, nil
	}

	body, err := SerializeBulk(ops)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, "POST", "/_bulk?refresh=false", "application/x-ndjson", body)
	if err != nil {
		return nil, &engineerr.TransportError{ErrorType: "bulk_request_failed", Reason: err.Error(), Timeout: isTimeoutErr(err)}
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return nil, &engineerr.TransportError{StatusCode: resp.StatusCode, ErrorType: "bulk_server_error", Reason: resp.Status}
	}

	var decoded bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("searchstore: failed to decode bulk response: %w", err)
	}

	result := &BulkResult{}
	var itemErrors []engineerr.BulkItemError

	for i, item := range decoded.Items {
		switch {
		case item.Index != nil:
			if item.Index.Error != nil {
				itemErrors = append(itemErrors, engineerr.BulkItemError{
					ID:     item.Index.ID,
					Error:  item.Index.Error.Type,
					Reason: item.Index.Error.Reason,
				})
				continue
			}
			result.Indexed++
		case item.Delete != nil:
			if item.Delete.Error != nil {
				itemErrors = append(itemErrors, engineerr.BulkItemError{
					ID:     item.Delete.ID,
					Error:  item.Delete.Error.Type,
					Reason: item.Delete.Error.Reason,
				})
				continue
			}
			result.Deleted++
		default:
			itemErrors = append(itemErrors, engineerr.BulkItemError{
				ID:     fmt.Sprintf("item-%d", i),
				Error:  "unknown_item_shape",
				Reason: "bulk response item had neither an index nor a delete result",
			})
		}
	}

	if len(itemErrors) > 0 {
		return result, &engineerr.BulkOpException{Items: itemErrors}
	}
	return result, nil
}
