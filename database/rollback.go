package database

import (
	"context"
	"fmt"

	"sgengine.dev/diffing"
	"sgengine.dev/recordstore"
)

// RollbackRecords discards every staged (version 0) record: a record with
// no diff history (never committed) is deleted outright; one with history
// is reconstructed at its most recent committed version and its newest
// diff is dropped, per spec.md §4.8.
func (d *Database) RollbackRecords(ctx context.Context) error {
	staged, err := recordstore.FindTyped[recordstore.StoredRecord](ctx, d.records, stagedRecordsQuery())
	if err != nil {
		return fmt.Errorf("database: failed to load staged records for rollback: %w", err)
	}

	var toDelete []recordstore.BulkDeleteDoc
	var toRestore []*recordstore.StoredRecord

	for i := range staged {
		record := &staged[i]
		if len(record.Diffs) == 0 {
			toDelete = append(toDelete, recordstore.BulkDeleteDoc{ID: record.ID, Rev: record.Rev, Deleted: true})
			continue
		}

		key := latestDiffKey(record.Diffs)
		restored, err := diffing.Patch(record.Data, record.Diffs[key])
		if err != nil {
			return fmt.Errorf("database: failed to reconstruct committed state for record %q: %w", record.ID, err)
		}
		committedVersion, ok := parseVersionKey(key)
		if !ok {
			return fmt.Errorf("database: malformed diff key %q on record %q", key, record.ID)
		}

		delete(record.Diffs, key)
		record.Data = restored
		record.Version = committedVersion
		toRestore = append(toRestore, record)
	}

	if len(toDelete) > 0 {
		if _, err := d.records.BulkDelete(ctx, toDelete); err != nil {
			return fmt.Errorf("database: failed to delete staged records during rollback: %w", err)
		}
	}
	if len(toRestore) > 0 {
		if _, err := d.records.BulkUpsertRecords(ctx, toRestore); err != nil {
			return fmt.Errorf("database: failed to restore committed records during rollback: %w", err)
		}
	}
	return nil
}

// RollbackOptions discards every staged (version 0) options entry for this
// database outright — options carry no diff history, so there is nothing
// to reconstruct.
func (d *Database) RollbackOptions(ctx context.Context) error {
	staged, err := recordstore.FindTyped[recordstore.OptionEntry](ctx, d.options, stagedOptionsQuery(d.name))
	if err != nil {
		return fmt.Errorf("database: failed to load staged options for rollback: %w", err)
	}
	if len(staged) == 0 {
		return nil
	}

	docs := make([]recordstore.BulkDeleteDoc, len(staged))
	for i, entry := range staged {
		docs[i] = recordstore.BulkDeleteDoc{ID: entry.ID, Rev: entry.Rev, Deleted: true}
	}
	if _, err := d.options.BulkDelete(ctx, docs); err != nil {
		return fmt.Errorf("database: failed to delete staged options during rollback: %w", err)
	}
	return nil
}

func parseVersionKey(key string) (int64, bool) {
	var v int64
	_, err := fmt.Sscanf(key, "%d", &v)
	return v, err == nil
}
