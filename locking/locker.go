// Package locking implements the engine's advisory locking contract
// (spec.md §4.9): acquire/release/scoped-lock over a single named
// resource, with a record-store-backed primary implementation and an
// optional Redis-backed secondary one for callers that want real TTL
// expiry.
package locking

import "context"

// Locker is an advisory lock keyed by an arbitrary lock id (e.g. a
// database name being committed or synced).
type Locker interface {
	// Acquire takes the lock for owner, recording an arbitrary meta payload
	// alongside it. ttl of zero means no automatic expiry. Returns
	// engineerr.LockContentionError if the lock is already held.
	Acquire(ctx context.Context, lockID, owner string, meta map[string]any, ttl int64) error
	// Release gives up a lock previously acquired by this process. Releasing
	// a lock that isn't held is not an error (idempotent, matching the
	// record store's delete-by-id semantics).
	Release(ctx context.Context, lockID string) error
	// IsLocked reports whether lockID is currently held.
	IsLocked(ctx context.Context, lockID string) (bool, error)
}

// WithLock acquires lockID, runs fn, and releases the lock on both normal
// and error return — the scoped `lock(id, **meta)` helper from spec.md
// §4.9.
func WithLock(ctx context.Context, l Locker, lockID, owner string, meta map[string]any, ttl int64, fn func(context.Context) error) error {
	if err := l.Acquire(ctx, lockID, owner, meta, ttl); err != nil {
		return err
	}
	defer l.Release(ctx, lockID)
	return fn(ctx)
}
