// Package database implements the engine's per-database facade (spec.md
// §4.8): the commit lifecycle, ingest no-op detection, rollback, sync
// orchestration, and the schema/search query surface, all bound to one
// named database (a record-store collection `data-<name>` plus a family of
// search-store indices).
package database

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sgengine.dev/engineerr"
	"sgengine.dev/enginelog"
	"sgengine.dev/indexplanner"
	"sgengine.dev/locking"
	"sgengine.dev/optionsreg"
	"sgengine.dev/recordstore"
	"sgengine.dev/searchstore"
	"sgengine.dev/syncdriver"
	"sgengine.dev/valueparse"
)

// Config names a database and bounds the tunables that are per-database
// rather than per-cluster (everything else lives on the clients passed to
// New).
type Config struct {
	Name          string
	MaxDocsPerArc int
	LockOwner     string // defaults to os.Hostname() when empty
}

// Database is the facade bound to one named record-store collection and
// its search-store index family.
type Database struct {
	name          string
	owner         string
	maxDocsPerArc int

	records *recordstore.Client // data-<name> collection
	options *recordstore.Client // shared options collection
	search  *searchstore.Client

	registry *optionsreg.Registry
	locker   locking.Locker
	sync     *syncdriver.Driver
	log      *logrus.Entry
}

// New builds a Database facade. records must be bound to the `data-<name>`
// collection; options to the shared options collection; locker to the
// shared locks collection (or a RedisLocker, for callers that want native
// TTL expiry). logger may be nil, in which case a logger with enginelog's
// defaults is created.
func New(config Config, records, options *recordstore.Client, search *searchstore.Client, locker locking.Locker, syncConfig syncdriver.Config, logger *logrus.Logger) *Database {
	owner := config.LockOwner
	if owner == "" {
		owner, _ = os.Hostname()
	}
	maxDocsPerArc := config.MaxDocsPerArc
	if maxDocsPerArc <= 0 {
		maxDocsPerArc = 10000
	}
	if logger == nil {
		logger = enginelog.New(enginelog.DefaultConfig())
	}

	return &Database{
		name:          config.Name,
		owner:         owner,
		maxDocsPerArc: maxDocsPerArc,
		records:       records,
		options:       options,
		search:        search,
		registry:      optionsreg.NewRegistry(options),
		locker:        locker,
		sync:          syncdriver.New(search, syncConfig),
		log:           enginelog.WithService(logger, enginelog.Config{Service: "database"}),
	}
}

func (d *Database) lockID() string {
	return "db:" + d.name
}

// Commit acquires the database's advisory lock (stage "commit"), assigns a
// fresh version to every staged data and options row, and returns it. It
// returns (nil, nil) when nothing was staged, and propagates
// engineerr.LockContentionError unchanged when the lock is already held —
// spec.md §4.8's "fails fast with AlreadyLocked if busy".
func (d *Database) Commit(ctx context.Context, now func() int64) (*int64, error) {
	if err := d.locker.Acquire(ctx, d.lockID(), d.owner, map[string]any{"stage": "commit"}, 0); err != nil {
		fields := enginelog.OpFields(d.name, "commit")
		if lockErr, ok := asLockContentionError(err); ok {
			d.log.WithFields(fields).WithField("holder", lockErr.Holder).Warn("commit skipped: database already locked")
		} else {
			d.log.WithFields(fields).WithError(err).Error("commit failed to acquire lock")
		}
		return nil, err
	}
	defer func() { _ = d.locker.Release(ctx, d.lockID()) }()

	d.log.WithFields(enginelog.OpFields(d.name, "commit")).Debug("commit started")

	staged, err := recordstore.FindTyped[recordstore.StoredRecord](ctx, d.records, stagedRecordsQuery())
	if err != nil {
		return nil, fmt.Errorf("database: failed to load staged records: %w", err)
	}
	if len(staged) == 0 {
		return nil, nil
	}

	committedOptions, err := d.registry.GetOptions(ctx, d.name, false)
	if err != nil {
		return nil, fmt.Errorf("database: failed to load committed options for %q: %w", d.name, err)
	}
	if len(committedOptions) == 0 {
		defaultEntry := recordstore.OptionEntry{
			ID:      uuid.NewString(),
			Name:    d.name,
			Version: 0,
			Options: optionsreg.ToDoc(valueparse.DefaultOptions()),
		}
		if _, err := d.options.Put(ctx, defaultEntry.ID, defaultEntry); err != nil {
			return nil, fmt.Errorf("database: failed to auto-stage default options for %q: %w", d.name, err)
		}
	}

	stagedOptions, err := recordstore.FindTyped[recordstore.OptionEntry](ctx, d.options, stagedOptionsQuery(d.name))
	if err != nil {
		return nil, fmt.Errorf("database: failed to load staged options for %q: %w", d.name, err)
	}

	version := now()

	recordPtrs := make([]*recordstore.StoredRecord, len(staged))
	for i := range staged {
		staged[i].Version = version
		recordPtrs[i] = &staged[i]
	}
	if _, err := d.records.BulkUpsertRecords(ctx, recordPtrs); err != nil {
		return nil, fmt.Errorf("database: failed to commit staged records for %q: %w", d.name, err)
	}

	if len(stagedOptions) > 0 {
		optionDocs := make([]any, len(stagedOptions))
		for i := range stagedOptions {
			stagedOptions[i].Version = version
			optionDocs[i] = stagedOptions[i]
		}
		if _, err := d.options.BulkPut(ctx, optionDocs); err != nil {
			return nil, fmt.Errorf("database: failed to commit staged options for %q: %w", d.name, err)
		}
	}

	d.log.WithFields(enginelog.WithVersion(enginelog.OpFields(d.name, "commit"), version)).
		WithField("record_count", len(staged)).Info("commit completed")
	return &version, nil
}

func stagedRecordsQuery() recordstore.Query {
	return recordstore.NewQueryBuilder().Where("version", "eq", int64(0)).Build()
}

func stagedOptionsQuery(name string) recordstore.Query {
	return recordstore.NewQueryBuilder().
		Where("name", "eq", name).
		Where("version", "eq", int64(0)).
		Build()
}

// latestCommittedVersion returns the highest committed version among this
// database's records, or 0 if nothing has ever been committed.
func (d *Database) latestCommittedVersion(ctx context.Context) (int64, error) {
	query := recordstore.NewQueryBuilder().
		Where("version", "gt", int64(0)).
		SortBy("version", "desc").
		Limit(1).
		Build()
	top, err := recordstore.FindTyped[recordstore.StoredRecord](ctx, d.records, query)
	if err != nil {
		return 0, fmt.Errorf("database: failed to read latest committed version for %q: %w", d.name, err)
	}
	if len(top) == 0 {
		return 0, nil
	}
	return top[0].Version, nil
}

// asLockContentionError narrows err to *engineerr.LockContentionError if
// it is one, for callers that want to distinguish "busy" from other
// failures without importing engineerr themselves.
func asLockContentionError(err error) (*engineerr.LockContentionError, bool) {
	lockErr, ok := err.(*engineerr.LockContentionError)
	return lockErr, ok
}
