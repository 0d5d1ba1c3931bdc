// Package indexplanner streams the minimal set of search-store bulk
// operations needed to bring one record's indexed history in sync with its
// record-store history and the parsing-options history in force across it.
package indexplanner

import (
	"context"
	"reflect"

	"sgengine.dev/optionsreg"
	"sgengine.dev/recordstore"
	"sgengine.dev/valueparse"
	"sgengine.dev/version"
)

// Plan streams the bulk ops needed across every record in a sync batch into
// the returned channel, threading a single ArcState so archive rotation is
// a property of the whole run and not reset per record. Ops are produced
// lazily, one record's version/diff history at a time, as the channel is
// drained - a consumer that stops early (or whose send blocks on
// back-pressure) never forces the remaining records to be planned, per
// spec.md §9's "lazy streams... interleaves with the sync driver's
// back-pressure." The channel closes once every record has been planned,
// a record fails to plan, or ctx is cancelled; Err must only be called
// after the channel is observed closed; calling it earlier races with the
// producer goroutine.
func Plan(
	ctx context.Context,
	dbName string,
	records []*recordstore.StoredRecord,
	optionHistory []optionsreg.Entry,
	after int64,
	arc *ArcState,
	maxDocsPerArc int,
) (ops <-chan Op, Err func() error) {
	out := make(chan Op)
	var planErr error

	go func() {
		defer close(out)
		emit := func(op Op) error {
			select {
			case out <- op:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		for _, record := range records {
			if err := PlanRecord(dbName, record, optionHistory, after, arc, maxDocsPerArc, emit); err != nil {
				planErr = err
				return
			}
		}
	}()

	return out, func() error { return planErr }
}

// PlanRecord streams the bulk ops needed to bring dbName's search indices
// up to date for one record, given its full version history, the database's
// parsing-options history, the sync watermark "after" (the version above
// which the search store needs updating; pass the minimum possible int64 to
// mean "everything"), and the archive rotation state shared across the
// whole sync run. Each op is handed to emit as soon as it is computed;
// PlanRecord never builds its own op slice, and the record's diff chain is
// walked one step at a time via version.Iterator so a record with deep
// history is not fully reconstructed unless every step actually changes
// what's indexed.
func PlanRecord(
	dbName string,
	record *recordstore.StoredRecord,
	optionHistory []optionsreg.Entry,
	after int64,
	arc *ArcState,
	maxDocsPerArc int,
	emit func(Op) error,
) error {
	entries := optionHistory
	if len(entries) == 0 {
		entries = []optionsreg.Entry{{Options: valueparse.DefaultOptions()}}
	}
	optCursor := optionsreg.NewCursor(entries)

	if record.Version <= after && optCursor.Latest() <= after {
		return nil
	}

	dataIter, err := version.NewIterator(record)
	if err != nil {
		return err
	}

	var lastParsed *valueparse.ParsedData

	dV := dataIter.Current().Version
	oV := optCursor.Current().Version
	v := maxInt64(dV, oV)

	var nextV int64
	hasNext := false
	stopAfterThisRound := false

	for {
		dData := dataIter.Current().Data
		opts := optCursor.Current().Options

		if len(dData) == 0 {
			if !hasNext {
				if err := emit(Op{
					Kind:  OpDelete,
					Index: LatestIndexName(dbName),
					DocID: record.ID,
				}); err != nil {
					return err
				}
			}
			lastParsed = nil
		} else {
			parsed := valueparse.Parse(dData, opts)
			if !parsedEqual(lastParsed, &parsed) {
				doc := buildDocument(record.ID, v, nextV, hasNext, &parsed)
				if !hasNext {
					if err := emit(Op{
						Kind:     OpIndex,
						Index:    LatestIndexName(dbName),
						DocID:    record.ID,
						Document: doc,
					}); err != nil {
						return err
					}
				} else {
					if err := emit(Op{
						Kind:     OpIndex,
						Index:    arc.Next(dbName, maxDocsPerArc),
						Document: doc,
					}); err != nil {
						return err
					}
				}
				lastParsed = &parsed
			}
		}

		if stopAfterThisRound {
			break
		}

		// advance: pop whichever stream(s) produced this round's v
		if v == dV {
			ok, err := dataIter.Next()
			if err != nil {
				return err
			}
			if !ok {
				break // termination (a): no more data
			}
			dV = dataIter.Current().Version
		}

		if v == oV {
			if !optCursor.Exhausted() {
				optCursor.Advance()
			}
			oV = optCursor.Current().Version
		}

		newV := maxInt64(dV, oV)
		if newV == v {
			break // termination (b): both streams exhausted, nothing changed
		}

		nextV = v
		hasNext = true
		v = newV

		if nextV <= after {
			// the previous emission already covers the watermark boundary;
			// run exactly one more round so the record that was latest as
			// of the prior sync gets correctly demoted to an archive doc,
			// then stop.
			stopAfterThisRound = true
		}
	}

	return nil
}

func buildDocument(id string, v, nextV int64, hasNext bool, parsed *valueparse.ParsedData) map[string]any {
	versions := map[string]any{"gte": v}
	doc := map[string]any{
		"id":           id,
		"version":      v,
		"data":         parsed.Parsed,
		"data_types":   parsed.DataTypes,
		"parsed_types": parsed.ParsedTypes,
	}
	if hasNext {
		doc["next"] = nextV
		versions["lt"] = nextV
	}
	doc["versions"] = versions
	return doc
}

func parsedEqual(a, b *valueparse.ParsedData) bool {
	if a == nil || b == nil {
		return a == b
	}
	return reflect.DeepEqual(a.Parsed, b.Parsed) &&
		reflect.DeepEqual(a.DataTypes, b.DataTypes) &&
		reflect.DeepEqual(a.ParsedTypes, b.ParsedTypes)
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
