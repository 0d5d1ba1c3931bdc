package database

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"sgengine.dev/indexplanner"
	"sgengine.dev/optionsreg"
	"sgengine.dev/recordstore"
	"sgengine.dev/searchstore"
	"sgengine.dev/syncdriver"
	"sgengine.dev/valueparse"
)

// dataIndexTemplateName is the engine-wide index template created once
// and matching every database's data indices (spec.md §6).
const dataIndexTemplateName = "data-template"

func (d *Database) indexWildcard() string {
	return fmt.Sprintf("data-%s-*", d.name)
}

// lastSyncWatermark returns the maximum of the "version" and "next"
// aggregations across this database's search indices, which together
// cover both updates (version) and deletes (next, carried on the archive
// doc covering a deleted interval). 0 means nothing has ever been synced.
func (d *Database) lastSyncWatermark(ctx context.Context) (int64, error) {
	body := map[string]any{
		"size": 0,
		"aggs": map[string]any{
			"max_version": map[string]any{"max": map[string]any{"field": "version"}},
			"max_next":    map[string]any{"max": map[string]any{"field": "next"}},
		},
	}
	resp, err := d.search.Search(ctx, []string{d.indexWildcard()}, body)
	if err != nil {
		return 0, fmt.Errorf("database: failed to read sync watermark for %q: %w", d.name, err)
	}
	return maxOfAggs(resp, "max_version", "max_next"), nil
}

func maxOfAggs(resp map[string]any, keys ...string) int64 {
	var highest int64
	aggs, _ := resp["aggregations"].(map[string]any)
	for _, key := range keys {
		agg, ok := aggs[key].(map[string]any)
		if !ok {
			continue
		}
		value, ok := agg["value"].(float64)
		if !ok {
			continue
		}
		if v := int64(value); v > highest {
			highest = v
		}
	}
	return highest
}

// Sync brings this database's search indices up to date with its record
// store history (spec.md §4.8): it determines the sync watermark, selects
// the records that need re-indexing, plans the bulk ops, and runs them.
// resync forces a full re-index of every committed record.
func (d *Database) Sync(ctx context.Context, resync bool) (syncdriver.Stats, error) {
	var lastSync int64
	if !resync {
		watermark, err := d.lastSyncWatermark(ctx)
		if err != nil {
			return syncdriver.Stats{}, err
		}
		lastSync = watermark
	} else {
		lastSync = math.MinInt64
	}

	committedVersion, err := d.latestCommittedVersion(ctx)
	if err != nil {
		return syncdriver.Stats{}, err
	}
	if lastSync >= committedVersion {
		return syncdriver.Stats{}, nil
	}

	optionHistory, err := d.registry.GetOptions(ctx, d.name, false)
	if err != nil {
		return syncdriver.Stats{}, fmt.Errorf("database: failed to load option history for sync: %w", err)
	}
	if len(optionHistory) == 0 {
		optionHistory = []optionsreg.Entry{{Version: 0, Options: valueparse.DefaultOptions()}}
	}

	selectAll := false
	for _, entry := range optionHistory {
		if entry.Version > lastSync {
			selectAll = true
			break
		}
	}

	var query recordstore.Query
	if selectAll {
		query = recordstore.NewQueryBuilder().Where("version", "gt", int64(0)).Build()
	} else {
		query = recordstore.NewQueryBuilder().Where("version", "gt", lastSync).Build()
	}

	records, err := recordstore.FindTyped[recordstore.StoredRecord](ctx, d.records, query)
	if err != nil {
		return syncdriver.Stats{}, fmt.Errorf("database: failed to select records to sync: %w", err)
	}
	if len(records) == 0 {
		return syncdriver.Stats{}, nil
	}

	recordPtrs := make([]*recordstore.StoredRecord, len(records))
	for i := range records {
		recordPtrs[i] = &records[i]
	}

	if err := d.search.EnsureIndexTemplate(ctx, dataIndexTemplateName, []string{"data-*"}, searchstore.DefaultIndexTemplate()); err != nil {
		return syncdriver.Stats{}, fmt.Errorf("database: failed to ensure index template: %w", err)
	}

	if err := d.search.CreateIndex(ctx, indexplanner.LatestIndexName(d.name), map[string]any{}); err != nil {
		return syncdriver.Stats{}, fmt.Errorf("database: failed to ensure latest index exists for %q: %w", d.name, err)
	}

	arc, err := d.seedArcState(ctx)
	if err != nil {
		return syncdriver.Stats{}, err
	}

	planCtx, cancelPlan := context.WithCancel(ctx)
	defer cancelPlan()

	stream, planErr := indexplanner.Plan(planCtx, d.name, recordPtrs, optionHistory, lastSync, arc, d.maxDocsPerArc)

	stats, err := d.sync.Run(ctx, []string{d.indexWildcard()}, stream)
	cancelPlan()
	if err != nil {
		return stats, err
	}
	if err := planErr(); err != nil {
		return stats, fmt.Errorf("database: failed to plan index ops for %q: %w", d.name, err)
	}

	d.deleteEmptyArchiveIndices(ctx)
	return stats, nil
}

// seedArcState recomputes archive rotation state at the start of a sync run
// by counting documents already routed to this database's highest-numbered
// archive index, rather than restarting rotation at data-<name>-arc-0 on
// every run (which would re-pack and exceed the archive-cap invariant on a
// second sync). An archive-free database starts from a fresh ArcState.
func (d *Database) seedArcState(ctx context.Context) (*indexplanner.ArcState, error) {
	prefix := fmt.Sprintf("data-%s-arc-", d.name)
	names, err := d.search.ListIndices(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("database: failed to list archive indices for %q: %w", d.name, err)
	}

	highest := -1
	for _, name := range names {
		n, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	if highest < 0 {
		return &indexplanner.ArcState{}, nil
	}

	index := indexplanner.ArchiveIndexName(d.name, highest)
	count, err := d.search.CountDocs(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("database: failed to count docs in %q: %w", index, err)
	}
	return indexplanner.NewArcState(highest, count), nil
}

// deleteEmptyArchiveIndices removes any archive index that a sync emptied
// out entirely (every doc in it was superseded or its covered record was
// permanently deleted), per spec.md §4.8's "on success, delete any indices
// that became empty." Failures here are ignored, not fatal to the sync
// itself, since the sync's
// correctness does not depend on pruning empty indices.
func (d *Database) deleteEmptyArchiveIndices(ctx context.Context) {
	names, err := d.search.ListIndices(ctx, fmt.Sprintf("data-%s-arc-*", d.name))
	if err != nil {
		return
	}
	for _, index := range names {
		count, err := d.search.CountDocs(ctx, index)
		if err != nil || count > 0 {
			continue
		}
		_ = d.search.DeleteIndex(ctx, index)
	}
}
