package database

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"sgengine.dev/diffing"
	"sgengine.dev/normalize"
	"sgengine.dev/recordstore"
)

// IngestRecord is one caller-supplied record to reconcile against the
// stored current state: Data is normalized before it is compared or
// stored.
type IngestRecord struct {
	ID   string
	Data map[string]any
}

// Ingest batches records through the normalizer and differ against their
// existing stored state (spec.md §4.8's ingest contract), writes whatever
// changed, and optionally commits immediately afterward.
func (d *Database) Ingest(ctx context.Context, records []IngestRecord, commit bool, modifiedField string, now func() int64) (*recordstore.IngestResult, error) {
	result := &recordstore.IngestResult{}
	if len(records) == 0 {
		if commit {
			version, err := d.Commit(ctx, now)
			if err != nil {
				return nil, err
			}
			if version != nil {
				result.Version = *version
			}
		}
		return result, nil
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	existing, _, err := recordstore.BulkGet[recordstore.StoredRecord](ctx, d.records, ids)
	if err != nil {
		return nil, fmt.Errorf("database: failed to look up existing records for ingest: %w", err)
	}

	currentOptions, err := d.registry.LatestCommittedOptions(ctx, d.name)
	if err != nil {
		return nil, fmt.Errorf("database: failed to load current options for ingest: %w", err)
	}

	var toWrite []*recordstore.StoredRecord

	for _, rec := range records {
		normalized, ok := normalize.Value(rec.Data, currentOptions.FloatFormat).(map[string]any)
		if !ok {
			normalized = map[string]any{}
		}

		stored, hasExisting := existing[rec.ID]
		if !hasExisting {
			if len(normalized) == 0 {
				continue // deleting a record that was never stored is a no-op
			}
			toWrite = append(toWrite, recordstore.NewStoredRecord(rec.ID, normalized))
			result.Inserted++
			continue
		}

		changeOps, err := diffing.Diff(normalized, stored.Data)
		if err != nil {
			return nil, fmt.Errorf("database: failed to diff record %q: %w", rec.ID, err)
		}
		if onlyTouchesModifiedField(changeOps, modifiedField) {
			continue
		}
		if len(changeOps) == 0 {
			continue
		}

		if undone, err := revertsStagedChange(stored, normalized); err != nil {
			return nil, fmt.Errorf("database: failed to evaluate staged rollback for record %q: %w", rec.ID, err)
		} else if undone {
			toWrite = append(toWrite, stored)
			continue
		}

		if stored.Version != 0 {
			if stored.Diffs == nil {
				stored.Diffs = map[string][]diffing.Op{}
			}
			stored.Diffs[strconv.FormatInt(stored.Version, 10)] = changeOps
		} else if len(stored.Diffs) > 0 {
			// Re-staging: keep the latest diff pointing back at the last
			// committed state rather than at the data being replaced.
			latestKey := latestDiffKey(stored.Diffs)
			committedData, err := diffing.Patch(stored.Data, stored.Diffs[latestKey])
			if err != nil {
				return nil, fmt.Errorf("database: failed to rebuild committed data for record %q: %w", rec.ID, err)
			}
			if stored.Diffs[latestKey], err = diffing.Diff(normalized, committedData); err != nil {
				return nil, fmt.Errorf("database: failed to diff record %q: %w", rec.ID, err)
			}
		}
		stored.Data = normalized
		stored.Version = 0
		toWrite = append(toWrite, stored)

		if len(normalized) == 0 {
			result.Deleted++
		} else {
			result.Updated++
		}
	}

	if len(toWrite) > 0 {
		if _, err := d.records.BulkUpsertRecords(ctx, toWrite); err != nil {
			return nil, fmt.Errorf("database: failed to write ingested records: %w", err)
		}
	}

	if commit {
		version, err := d.Commit(ctx, now)
		if err != nil {
			return nil, err
		}
		if version != nil {
			result.Version = *version
		}
	}

	return result, nil
}

// onlyTouchesModifiedField reports whether every op in changeOps touches
// nothing but the single top-level modifiedField path — the "last-modified
// timestamp changed but nothing else did" no-op rule. A blank
// modifiedField disables the check entirely.
func onlyTouchesModifiedField(changeOps []diffing.Op, modifiedField string) bool {
	if modifiedField == "" || len(changeOps) == 0 {
		return false
	}
	for _, op := range changeOps {
		if len(op.Path) != 1 {
			return false
		}
		if field, ok := op.Path[0].(string); !ok || field != modifiedField {
			return false
		}
	}
	return true
}

// revertsStagedChange handles "staged-then-undone": stored is a still-
// staged record (version 0) carrying a diff back to its last committed
// state, and normalized turns out to equal that committed state again. In
// that case the staged change is discarded entirely rather than written as
// a new diff, per spec.md §4.8's no-op-undo rule.
func revertsStagedChange(stored *recordstore.StoredRecord, normalized map[string]any) (bool, error) {
	if stored.Version != 0 || len(stored.Diffs) == 0 {
		return false, nil
	}

	latestKey := latestDiffKey(stored.Diffs)
	committedData, err := diffing.Patch(stored.Data, stored.Diffs[latestKey])
	if err != nil {
		return false, err
	}
	if !mapsEqual(normalized, committedData) {
		return false, nil
	}

	committedVersion, err := strconv.ParseInt(latestKey, 10, 64)
	if err != nil {
		return false, fmt.Errorf("malformed diff key %q: %w", latestKey, err)
	}
	delete(stored.Diffs, latestKey)
	stored.Data = committedData
	stored.Version = committedVersion
	return true, nil
}

func latestDiffKey(diffs map[string][]diffing.Op) string {
	keys := make([]string, 0, len(diffs))
	for k := range diffs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		vi, _ := strconv.ParseInt(keys[i], 10, 64)
		vj, _ := strconv.ParseInt(keys[j], 10, 64)
		return vi > vj
	})
	return keys[0]
}

func mapsEqual(a, b map[string]any) bool {
	opsAB, err := diffing.Diff(a, b)
	return err == nil && len(opsAB) == 0
}
