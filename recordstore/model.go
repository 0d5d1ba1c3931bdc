// Package recordstore is the engine's record store facade: a CouchDB-backed
// document store holding staged and committed records, parsing options, and
// advisory locks. It is adapted from the teacher repo's generic CouchDB
// client rather than its flow-process-tracking CouchDB service, since the
// documents it manages are versioned, diffed records rather than workflow
// state.
package recordstore

import (
	"time"

	"sgengine.dev/diffing"
)

// Config describes how to reach the record store and which database (data
// collection, options collection, or locks collection) a Client talks to.
type Config struct {
	URL             string
	Database        string
	Username        string
	Password        string
	Timeout         time.Duration
	CreateIfMissing bool
}

// DefaultConfig returns a Config with sensible defaults for local development.
func DefaultConfig() Config {
	return Config{
		URL:             "http://localhost:5984",
		Timeout:         30 * time.Second,
		CreateIfMissing: true,
	}
}

// StoredRecord is the document shape for a record held in a `data-<name>`
// collection: the current normalized value plus enough diff history to
// reconstruct any earlier committed version. Diffs is keyed by the decimal
// string of the version being patched *back to* (the version immediately
// before the one a given diff set was produced for), mirroring the
// original's version-keyed diff map.
type StoredRecord struct {
	ID      string           `json:"_id"`
	Rev     string           `json:"_rev,omitempty"`
	Data    map[string]any       `json:"data"`
	Version int64                `json:"version"`
	Diffs   map[string][]diffing.Op `json:"diffs,omitempty"`
}

// IsDeleted reports whether the current version of the record is a
// tombstone (empty data).
func (r *StoredRecord) IsDeleted() bool {
	return len(r.Data) == 0
}

// IsUncommitted reports whether the record's current data is not yet
// committed (version is the zero value used for staged-only records).
func (r *StoredRecord) IsUncommitted() bool {
	return r.Version == 0
}

// HasHistory reports whether the record carries any prior versions.
func (r *StoredRecord) HasHistory() bool {
	return len(r.Diffs) > 0
}

// NewStoredRecord builds a fresh StoredRecord for ingest, with no version
// assigned yet (assignment happens at commit time) and no diff history.
func NewStoredRecord(id string, data map[string]any) *StoredRecord {
	return &StoredRecord{ID: id, Data: data}
}

// DeletedStoredRecord builds the tombstone form of a record: same ID, empty
// data, so the commit pass sees a transition to deletion and the planner
// deletes the record's document from the latest index, keeping its earlier
// versions in the archive indices.
func DeletedStoredRecord(id string) *StoredRecord {
	return &StoredRecord{ID: id, Data: map[string]any{}}
}

// OptionEntry is the document shape for the `options` collection: one
// version of the ParsingOptions used to parse a named data collection at and
// after that version.
type OptionEntry struct {
	ID      string         `json:"_id"`
	Rev     string         `json:"_rev,omitempty"`
	Name    string         `json:"name"`
	Version int64          `json:"version"`
	Options map[string]any `json:"options"`
}

// LockDoc is the document shape for the `locks` collection: one advisory
// lock held by a named owner, with an optional expiry for TTL-based locks
// and an optional caller-supplied metadata payload (e.g. {"stage":
// "commit"}).
type LockDoc struct {
	ID         string         `json:"_id"`
	Rev        string         `json:"_rev,omitempty"`
	Owner      string         `json:"owner"`
	AcquiredAt time.Time      `json:"acquired_at"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
	Meta       map[string]any `json:"data,omitempty"`
}

// IngestResult tallies the outcome of a bulk ingest pass: how many records
// were freshly inserted, how many had a changed value and were updated, and
// how many were tombstoned. Grounded on the original's IngestResult, which
// this facade preserves because callers need more than pass/fail to decide
// whether an ingest was a no-op.
type IngestResult struct {
	Version  int64
	Inserted int
	Updated  int
	Deleted  int
}

// WasNoOp reports whether the ingest pass touched nothing at all, meaning
// every candidate record's normalized value matched what was already
// stored.
func (r *IngestResult) WasNoOp() bool {
	return r.Inserted == 0 && r.Updated == 0 && r.Deleted == 0
}
