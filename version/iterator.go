// Package version reconstructs a record's historical states from a stored
// record's current data and its chain of backward diffs.
package version

import (
	"fmt"
	"sort"
	"strconv"

	"sgengine.dev/diffing"
	"sgengine.dev/engineerr"
	"sgengine.dev/recordstore"
)

// Data is one (version, data) pair yielded while walking a record's history.
// Version is the staged sentinel (0) only for the very first pair of an
// uncommitted record; every pair produced from Diffs carries a real
// timestamp. Data must not be mutated by the caller: the underlying maps
// may be shared between pairs produced by different calls, though never
// between pairs within the same call since Patch always copies.
type Data struct {
	Version int64
	Data    map[string]any
}

// Iterator walks a record's (version, data) pairs one at a time, patching
// backwards only as far as the caller actually asks: a pair further back in
// history is never computed until Next is called to reach it. This is the
// lazy stream a caller like indexplanner.PlanRecord consumes incrementally
// rather than Iterate's eager, fully-materialized slice.
type Iterator struct {
	record  *recordstore.StoredRecord
	diffs   []int64 // descending, remaining diff versions not yet visited
	running map[string]any
	current Data
}

// NewIterator returns an Iterator positioned at record's current (committed
// or staged) state. Call Next to step backwards through its diff history.
func NewIterator(record *recordstore.StoredRecord) (*Iterator, error) {
	versions, err := sortedDiffVersions(record.Diffs)
	if err != nil {
		return nil, err
	}
	return &Iterator{
		record:  record,
		diffs:   versions,
		running: record.Data,
		current: Data{Version: record.Version, Data: record.Data},
	}, nil
}

// Current returns the pair the iterator is positioned at.
func (it *Iterator) Current() Data {
	return it.current
}

// Next patches one step further back in the record's history and reports
// whether a pair was produced; false means the chain is exhausted and
// Current no longer advances.
func (it *Iterator) Next() (bool, error) {
	if len(it.diffs) == 0 {
		return false, nil
	}
	v := it.diffs[0]
	it.diffs = it.diffs[1:]

	key := strconv.FormatInt(v, 10)
	patched, err := diffing.Patch(it.running, it.record.Diffs[key])
	if err != nil {
		return false, &engineerr.PatchError{Version: int(v), Path: nil, Reason: err.Error()}
	}
	it.running = patched
	it.current = Data{Version: v, Data: patched}
	return true, nil
}

// Iterate yields the record's (version, data) pairs in descending version
// order: first the current committed value (or the staged value, with
// Version 0, if the record has never been committed), then one pair per
// entry in Diffs, patching backwards from the running value. Callers that
// can stop early - notably indexplanner.PlanRecord - should drive
// NewIterator directly instead, since Iterate always patches the entire
// chain up front.
func Iterate(record *recordstore.StoredRecord) ([]Data, error) {
	it, err := NewIterator(record)
	if err != nil {
		return nil, err
	}

	result := make([]Data, 0, 1+len(record.Diffs))
	result = append(result, it.Current())
	for {
		ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		result = append(result, it.Current())
	}
	return result, nil
}

// sortedDiffVersions parses every key of diffs as a version timestamp and
// returns them sorted in descending order, matching the contract that diffs
// are walked newest-to-oldest.
func sortedDiffVersions(diffs map[string][]diffing.Op) ([]int64, error) {
	versions := make([]int64, 0, len(diffs))
	for key := range diffs {
		v, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("version: diff key %q is not a valid version timestamp: %w", key, err)
		}
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })
	return versions, nil
}

// At returns the record's data at exactly the requested version, or ok=false
// if no pair in the record's history carries that version. Stops walking as
// soon as the target is found instead of reconstructing the rest of the
// record's history.
func At(record *recordstore.StoredRecord, target int64) (data map[string]any, ok bool, err error) {
	it, err := NewIterator(record)
	if err != nil {
		return nil, false, err
	}
	if it.Current().Version == target {
		return it.Current().Data, true, nil
	}
	for {
		hasNext, err := it.Next()
		if err != nil {
			return nil, false, err
		}
		if !hasNext {
			return nil, false, nil
		}
		if it.Current().Version == target {
			return it.Current().Data, true, nil
		}
	}
}
