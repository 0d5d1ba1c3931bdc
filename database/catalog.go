package database

import (
	"context"
	"fmt"

	"sgengine.dev/fieldcatalog"
)

// catalogAggSize bounds how many distinct data_types/parsed_types terms a
// single catalog query will aggregate; databases with a pathologically
// wide schema would need paging here, which spec.md does not ask for.
const catalogAggSize = 10000

// GetDataFields aggregates the data_types catalog across documents
// matching (versionFilter, query), decomposing each compacted
// "<path>.<tag1>,<tag2>" term into per-path, per-type counts and returning
// the resulting fields sorted by total count descending then path
// ascending, with parent/child links populated (spec.md §4.8/§4.11).
func (d *Database) GetDataFields(ctx context.Context, versionFilter *int64, query map[string]any) ([]*fieldcatalog.DataField, error) {
	catalog, err := d.buildCatalog(ctx, "data_types", versionFilter, query)
	if err != nil {
		return nil, err
	}
	return catalog.DataFields(), nil
}

// GetParsedFields is GetDataFields' counterpart over the parsed_types
// catalog.
func (d *Database) GetParsedFields(ctx context.Context, versionFilter *int64, query map[string]any) ([]*fieldcatalog.ParsedField, error) {
	catalog, err := d.buildCatalog(ctx, "parsed_types", versionFilter, query)
	if err != nil {
		return nil, err
	}
	return catalog.ParsedFields(), nil
}

func (d *Database) buildCatalog(ctx context.Context, typesField string, versionFilter *int64, query map[string]any) (*fieldcatalog.Catalog, error) {
	body := map[string]any{
		"size":  0,
		"query": catalogQuery(versionFilter, query),
		"aggs": map[string]any{
			"types": map[string]any{
				"terms": map[string]any{"field": typesField, "size": catalogAggSize},
			},
		},
	}

	resp, err := d.search.Search(ctx, []string{d.indexWildcard()}, body)
	if err != nil {
		return nil, fmt.Errorf("database: failed to aggregate %s for %q: %w", typesField, d.name, err)
	}

	catalog := fieldcatalog.NewCatalog()
	for _, bucket := range aggBuckets(resp, "types") {
		for _, full := range fieldcatalog.DecompactTypes(bucket.key) {
			if typesField == "data_types" {
				catalog.AddDataType(full, bucket.count)
			} else {
				catalog.AddParsedType(full, bucket.count)
			}
		}
	}
	return catalog, nil
}

func catalogQuery(versionFilter *int64, extra map[string]any) map[string]any {
	var filters []any
	if versionFilter != nil {
		filters = append(filters, map[string]any{
			"range": map[string]any{"version": map[string]any{"lte": *versionFilter}},
		})
	}
	if len(extra) > 0 {
		filters = append(filters, extra)
	}
	if len(filters) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}
	return map[string]any{"bool": map[string]any{"filter": filters}}
}

type aggBucket struct {
	key   string
	count int
}

func aggBuckets(resp map[string]any, aggName string) []aggBucket {
	aggs, _ := resp["aggregations"].(map[string]any)
	agg, _ := aggs[aggName].(map[string]any)
	raw, _ := agg["buckets"].([]any)

	buckets := make([]aggBucket, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		key, _ := m["key"].(string)
		count, _ := m["doc_count"].(float64)
		buckets = append(buckets, aggBucket{key: key, count: int(count)})
	}
	return buckets
}
