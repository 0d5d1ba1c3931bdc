package recordstore

import (
	"context"
	"encoding/json"
	"fmt"

	kivik "github.com/go-kivik/kivik/v4"

	"sgengine.dev/engineerr"
)

// BulkResult is the per-item outcome of a bulk write, mirroring CouchDB's
// _bulk_docs response shape.
type BulkResult struct {
	ID     string
	Rev    string
	Error  string
	Reason string
	OK     bool
}

// BulkPut saves multiple documents in a single request. Used by the commit
// pass to write a batch of StoredRecords at once instead of one PUT per
// record.
func (c *Client) BulkPut(ctx context.Context, docs []any) ([]BulkResult, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	results, err := c.database.BulkDocs(ctx, docs)
	if err != nil {
		return nil, asTransportErr(err, "bulk_put_failed")
	}
	return toBulkResults(results), nil
}

// BulkDeleteDoc identifies one document to remove within a bulk delete
// request.
type BulkDeleteDoc struct {
	ID      string `json:"_id"`
	Rev     string `json:"_rev"`
	Deleted bool   `json:"_deleted"`
}

// BulkDelete removes multiple documents in a single request.
func (c *Client) BulkDelete(ctx context.Context, docs []BulkDeleteDoc) ([]BulkResult, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	interfaceDocs := make([]any, len(docs))
	for i, d := range docs {
		interfaceDocs[i] = d
	}
	results, err := c.database.BulkDocs(ctx, interfaceDocs)
	if err != nil {
		return nil, asTransportErr(err, "bulk_delete_failed")
	}
	return toBulkResults(results), nil
}

func toBulkResults(results []kivik.BulkResult) []BulkResult {
	out := make([]BulkResult, 0, len(results))
	for _, r := range results {
		br := BulkResult{ID: r.ID}
		if r.Error != nil {
			br.OK = false
			br.Error = "operation_failed"
			br.Reason = r.Error.Error()
		} else {
			br.OK = true
			br.Rev = r.Rev
		}
		out = append(out, br)
	}
	return out
}

// BulkGet retrieves multiple documents by ID in a single request, returning
// the successfully decoded documents keyed by ID and a separate map of
// per-ID errors for the ones that could not be retrieved.
func BulkGet[T any](ctx context.Context, c *Client, ids []string) (map[string]*T, map[string]error, error) {
	if len(ids) == 0 {
		return map[string]*T{}, map[string]error{}, nil
	}

	docs := make(map[string]*T)
	errs := make(map[string]error)

	rows := c.database.AllDocs(ctx, kivik.Params(map[string]any{
		"include_docs": true,
		"keys":         ids,
	}))
	defer rows.Close()

	for rows.Next() {
		id, err := rows.ID()
		if err != nil {
			continue
		}
		var doc T
		if err := rows.ScanDoc(&doc); err != nil {
			errs[id] = fmt.Errorf("failed to scan document %q: %w", id, err)
			continue
		}
		docs[id] = &doc
	}
	if err := rows.Err(); err != nil {
		return docs, errs, fmt.Errorf("error in bulk get: %w", err)
	}
	return docs, errs, nil
}

// BulkUpsertRecords writes a batch of StoredRecords, attaching the current
// revision for any record that already exists so the write does not spuriously
// conflict. This is the shape the commit pass uses: a record may be brand
// new (no existing revision) or a reconciled update to an existing one.
func (c *Client) BulkUpsertRecords(ctx context.Context, records []*StoredRecord) ([]BulkResult, error) {
	if len(records) == 0 {
		return nil, nil
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	existing, _, err := BulkGet[StoredRecord](ctx, c, ids)
	if err != nil {
		return nil, err
	}

	docs := make([]any, len(records))
	for i, r := range records {
		if prior, ok := existing[r.ID]; ok {
			r.Rev = prior.Rev
		}
		raw, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record %q: %w", r.ID, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to prepare record %q for write: %w", r.ID, err)
		}
		docs[i] = doc
	}

	results, err := c.BulkPut(ctx, docs)
	if err != nil {
		return nil, err
	}

	var failed []engineerr.BulkItemError
	for _, res := range results {
		if !res.OK {
			failed = append(failed, engineerr.BulkItemError{ID: res.ID, Error: res.Error, Reason: res.Reason})
		}
	}
	if len(failed) > 0 {
		return results, &engineerr.BulkOpException{Items: failed}
	}
	return results, nil
}
