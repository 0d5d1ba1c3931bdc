package database

import (
	"context"
	"fmt"
	"sort"

	"sgengine.dev/indexplanner"
	"sgengine.dev/searchstore"
)

// GetRoundedVersion returns the greatest available indexed version ≤
// target, or nil if none exists — used to pin a search to a concrete
// indexed version instead of "whatever is latest" (spec.md §4.8).
func (d *Database) GetRoundedVersion(ctx context.Context, target int64) (*int64, error) {
	body := map[string]any{
		"size":  0,
		"query": map[string]any{"range": map[string]any{"version": map[string]any{"lte": target}}},
		"aggs": map[string]any{
			"rounded": map[string]any{"max": map[string]any{"field": "version"}},
		},
	}
	resp, err := d.search.Search(ctx, []string{d.indexWildcard()}, body)
	if err != nil {
		return nil, fmt.Errorf("database: failed to round version for %q: %w", d.name, err)
	}

	aggs, _ := resp["aggregations"].(map[string]any)
	rounded, _ := aggs["rounded"].(map[string]any)
	value, ok := rounded["value"].(float64)
	if !ok {
		return nil, nil
	}
	v := int64(value)
	return &v, nil
}

// GetVersions returns every distinct indexed version across this
// database's indices, ascending, via a composite terms aggregation
// (spec.md §4.8's "paged composite aggregation over the version field").
func (d *Database) GetVersions(ctx context.Context) ([]int64, error) {
	var versions []int64
	var after map[string]any

	for {
		composite := map[string]any{
			"size":    1000,
			"sources": []any{map[string]any{"version": map[string]any{"terms": map[string]any{"field": "version"}}}},
		}
		if after != nil {
			composite["after"] = after
		}

		body := map[string]any{
			"size": 0,
			"aggs": map[string]any{"page": map[string]any{"composite": composite}},
		}
		resp, err := d.search.Search(ctx, []string{d.indexWildcard()}, body)
		if err != nil {
			return nil, fmt.Errorf("database: failed to page versions for %q: %w", d.name, err)
		}

		aggs, _ := resp["aggregations"].(map[string]any)
		page, _ := aggs["page"].(map[string]any)
		buckets, _ := page["buckets"].([]any)
		if len(buckets) == 0 {
			break
		}

		for _, raw := range buckets {
			bucket, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			key, _ := bucket["key"].(map[string]any)
			if v, ok := key["version"].(float64); ok {
				versions = append(versions, int64(v))
			}
		}

		nextAfter, ok := page["after_key"].(map[string]any)
		if !ok {
			break
		}
		after = nextAfter
	}

	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

// Session is a configured search-store query scope: the right index
// (latest, or the whole index family for a historical lookup) plus an
// optional version filter, ready for the caller to attach their own query
// DSL body — spec.md §4.8's "the query DSL itself is the search store's".
type Session struct {
	Indices       []string
	VersionFilter *int64
}

// Search returns a Session bound to this database. Passing nil searches
// only the latest index; passing a version searches the whole index
// family (latest plus archives) with a version range filter, since a
// historical value may live in an archive index.
func (d *Database) Search(version *int64) *Session {
	if version == nil {
		return &Session{Indices: []string{indexplanner.LatestIndexName(d.name)}}
	}
	return &Session{Indices: []string{d.indexWildcard()}, VersionFilter: version}
}

// Run executes body against the session's indices, merging in the version
// filter (if any) as an additional bool-filter clause.
func (s *Session) Run(ctx context.Context, client *searchstore.Client, body map[string]any) (map[string]any, error) {
	merged := body
	if s.VersionFilter != nil {
		merged = withVersionFilter(body, *s.VersionFilter)
	}
	return client.Search(ctx, s.Indices, merged)
}

func withVersionFilter(body map[string]any, version int64) map[string]any {
	out := make(map[string]any, len(body)+1)
	for k, v := range body {
		out[k] = v
	}
	filter := map[string]any{"range": map[string]any{"version": map[string]any{"lte": version}}}
	if existing, ok := out["query"]; ok {
		out["query"] = map[string]any{"bool": map[string]any{"must": []any{existing}, "filter": []any{filter}}}
	} else {
		out["query"] = map[string]any{"bool": map[string]any{"filter": []any{filter}}}
	}
	return out
}
