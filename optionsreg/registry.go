package optionsreg

import (
	"context"
	"fmt"

	"sgengine.dev/recordstore"
	"sgengine.dev/valueparse"
)

// Entry is one committed (or staged) parsing-options version.
type Entry struct {
	Version int64 // 0 for a staged, not-yet-committed entry
	Options *valueparse.Options
}

// Registry reads a named database's parsing-options history out of the
// record store's options collection.
type Registry struct {
	client *recordstore.Client
}

// NewRegistry builds a Registry over an already-connected record store
// client pointed at the options collection.
func NewRegistry(client *recordstore.Client) *Registry {
	return &Registry{client: client}
}

// GetOptions returns every options entry for name, ordered by version
// descending (staged entries, which carry Version 0, sort last).
// includeUncommitted controls whether the staged entry (if any) is
// included at all.
func (r *Registry) GetOptions(ctx context.Context, name string, includeUncommitted bool) ([]Entry, error) {
	query := recordstore.NewQueryBuilder().
		Where("name", "$eq", name).
		SortBy("version", "desc").
		Build()

	docs, err := recordstore.FindTyped[recordstore.OptionEntry](ctx, r.client, query)
	if err != nil {
		return nil, fmt.Errorf("optionsreg: failed to load options for %q: %w", name, err)
	}

	entries := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		if doc.Version == 0 && !includeUncommitted {
			continue
		}
		opts, err := FromDoc(doc.Options)
		if err != nil {
			return nil, fmt.Errorf("optionsreg: malformed options entry %q: %w", doc.ID, err)
		}
		entries = append(entries, Entry{Version: doc.Version, Options: opts})
	}

	return entries, nil
}

// LatestCommittedOptions returns the highest-versioned committed entry, or
// DefaultOptions if none has ever been committed - mirroring ingest's
// fallback when nothing has been staged for a database yet.
func (r *Registry) LatestCommittedOptions(ctx context.Context, name string) (*valueparse.Options, error) {
	entries, err := r.GetOptions(ctx, name, false)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return valueparse.DefaultOptions(), nil
	}
	return entries[0].Options, nil
}
