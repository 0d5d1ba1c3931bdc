package recordstore

import (
	"context"
	"fmt"
)

// FieldIndex describes a CouchDB Mango index used to keep lookups by id,
// version, or name efficient on the data/options/locks collections.
type FieldIndex struct {
	Name   string
	Fields []string
	Type   string // "json" (default) or "text"
}

// IndexInfo describes an index already present on the database.
type IndexInfo struct {
	Name      string
	Type      string
	DesignDoc string
}

// CreateIndex creates a Mango index for query optimization.
func (c *Client) CreateIndex(ctx context.Context, index FieldIndex) error {
	if index.Type == "" {
		index.Type = "json"
	}

	indexDef := map[string]any{
		"index": map[string]any{"fields": index.Fields},
		"type":  index.Type,
	}
	if index.Name != "" {
		indexDef["name"] = index.Name
	}

	if err := c.database.CreateIndex(ctx, "", "", indexDef); err != nil {
		return asTransportErr(err, "create_index_failed")
	}
	return nil
}

// ListIndexes returns all indexes present on the database.
func (c *Client) ListIndexes(ctx context.Context) ([]IndexInfo, error) {
	indexes, err := c.database.GetIndexes(ctx)
	if err != nil {
		return nil, asTransportErr(err, "list_indexes_failed")
	}

	out := make([]IndexInfo, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, IndexInfo{Name: idx.Name, Type: idx.Type, DesignDoc: idx.DesignDoc})
	}
	return out, nil
}

// EnsureIndex creates the given index unless an index with the same name
// already exists; field lists and types are not compared. It reports whether
// it created a new index.
func (c *Client) EnsureIndex(ctx context.Context, index FieldIndex) (bool, error) {
	existing, err := c.ListIndexes(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list indexes: %w", err)
	}

	for _, idx := range existing {
		if idx.Name == index.Name {
			return false, nil
		}
	}

	if err := c.CreateIndex(ctx, index); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureRecordIndexes creates the standard indexes a `data-<name>`
// collection needs: a lookup on version, used when reconstructing historical
// versions and when the index planner streams records in version order.
func (c *Client) EnsureRecordIndexes(ctx context.Context) error {
	_, err := c.EnsureIndex(ctx, FieldIndex{Name: "version-index", Fields: []string{"version"}})
	return err
}

// EnsureOptionIndexes creates the standard indexes an `options` collection
// needs: a compound lookup on (name, version) for resolving the parsing
// options in force at a given version.
func (c *Client) EnsureOptionIndexes(ctx context.Context) error {
	_, err := c.EnsureIndex(ctx, FieldIndex{Name: "name-version-index", Fields: []string{"name", "version"}})
	return err
}
