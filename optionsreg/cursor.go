package optionsreg

import "sort"

// Cursor walks a pre-sorted option history backwards (highest version
// first), the shape the index planner's state machine needs: it repeatedly
// peeks the current entry and, when the data-side iterator has moved past
// it, advances - except advancing past the oldest entry has no effect,
// since data older than the oldest known options version is still parsed
// with those oldest options.
type Cursor struct {
	entries []Entry // descending by version
	idx     int
}

// NewCursor sorts entries descending by version and returns a Cursor
// positioned at the newest one. entries must be non-empty; callers without
// any staged options should seed it with a single Entry{Options:
// valueparse.DefaultOptions()}.
func NewCursor(entries []Entry) *Cursor {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version > sorted[j].Version })
	return &Cursor{entries: sorted}
}

// Current returns the entry the cursor is positioned at.
func (c *Cursor) Current() Entry {
	return c.entries[c.idx]
}

// Exhausted reports whether the cursor is already sitting on the oldest
// entry, i.e. Advance would be a no-op.
func (c *Cursor) Exhausted() bool {
	return c.idx == len(c.entries)-1
}

// Advance moves to the next-older entry, unless already at the oldest one,
// in which case it keeps the current (oldest) entry in place - the "keep
// the last options" rule for data history that predates the option
// history's earliest commit.
func (c *Cursor) Advance() {
	if !c.Exhausted() {
		c.idx++
	}
}

// Latest returns the highest version across the whole history (not just
// the cursor's current position), used to decide whether an options change
// touches the sync watermark at all.
func (c *Cursor) Latest() int64 {
	return c.entries[0].Version
}
