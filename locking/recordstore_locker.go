package locking

import (
	"context"
	"time"

	"sgengine.dev/engineerr"
	"sgengine.dev/recordstore"
)

// RecordStoreLocker is the primary Locker implementation: an advisory lock
// held as a single document per lock id in the record store's locks
// collection (spec.md §4.9, §6). A duplicate-key error on insert means the
// lock is already held by someone else.
type RecordStoreLocker struct {
	client *recordstore.Client
	now    func() time.Time
}

// NewRecordStoreLocker builds a RecordStoreLocker over an already-connected
// client pointed at the locks collection.
func NewRecordStoreLocker(client *recordstore.Client) *RecordStoreLocker {
	return &RecordStoreLocker{client: client, now: time.Now}
}

// Acquire inserts a lock document at lockID. If a prior lock document is
// present but its TTL has expired, it is swept (deleted) first so the new
// acquisition can proceed — the record store has no native TTL index, so
// expiry is enforced by this housekeeping check rather than automatically.
func (l *RecordStoreLocker) Acquire(ctx context.Context, lockID, owner string, meta map[string]any, ttl int64) error {
	l.sweepIfExpired(ctx, lockID)

	doc := recordstore.LockDoc{
		ID:         lockID,
		Owner:      owner,
		AcquiredAt: l.now(),
		Meta:       meta,
	}
	if ttl > 0 {
		expiresAt := doc.AcquiredAt.Add(time.Duration(ttl) * time.Second)
		doc.ExpiresAt = &expiresAt
	}

	_, err := l.client.Put(ctx, lockID, doc)
	if err == nil {
		return nil
	}

	if te, ok := err.(*engineerr.TransportError); ok && te.IsConflict() {
		holder := ""
		var existing recordstore.LockDoc
		if getErr := l.client.Get(ctx, lockID, &existing); getErr == nil {
			holder = existing.Owner
		}
		return &engineerr.LockContentionError{LockID: lockID, Holder: holder}
	}
	return err
}

// Release deletes the lock document for lockID. Absence is not an error.
func (l *RecordStoreLocker) Release(ctx context.Context, lockID string) error {
	var existing recordstore.LockDoc
	if err := l.client.Get(ctx, lockID, &existing); err != nil {
		if te, ok := err.(*engineerr.TransportError); ok && te.IsNotFound() {
			return nil
		}
		return err
	}
	if err := l.client.Delete(ctx, lockID, existing.Rev); err != nil {
		if te, ok := err.(*engineerr.TransportError); ok && (te.IsNotFound() || te.IsConflict()) {
			return nil
		}
		return err
	}
	return nil
}

// IsLocked reports whether lockID currently holds an unexpired lock
// document.
func (l *RecordStoreLocker) IsLocked(ctx context.Context, lockID string) (bool, error) {
	var existing recordstore.LockDoc
	if err := l.client.Get(ctx, lockID, &existing); err != nil {
		if te, ok := err.(*engineerr.TransportError); ok && te.IsNotFound() {
			return false, nil
		}
		return false, err
	}
	if existing.ExpiresAt != nil && !existing.ExpiresAt.After(l.now()) {
		return false, nil
	}
	return true, nil
}

// sweepIfExpired deletes lockID's document if it carries an expiry that has
// already passed. Best-effort: any error is swallowed, since the Put below
// will surface a conflict if the sweep lost a race with another acquirer.
func (l *RecordStoreLocker) sweepIfExpired(ctx context.Context, lockID string) {
	var existing recordstore.LockDoc
	if err := l.client.Get(ctx, lockID, &existing); err != nil {
		return
	}
	if existing.ExpiresAt != nil && !existing.ExpiresAt.After(l.now()) {
		_ = l.client.Delete(ctx, lockID, existing.Rev)
	}
}
