package indexplanner

import "fmt"

// LatestIndexName returns the name of the "latest" index for a database:
// one doc per live record, keyed by record id.
func LatestIndexName(dbName string) string {
	return fmt.Sprintf("data-%s-latest", dbName)
}

// ArchiveIndexName returns the name of the n-th archive index for a
// database, holding superseded historical documents with engine-generated
// ids.
func ArchiveIndexName(dbName string, n int) string {
	return fmt.Sprintf("data-%s-arc-%d", dbName, n)
}

// ArcState tracks the active archive index and how many documents have
// been routed to it so far across an entire planning run (shared by every
// record the planner visits, since rotation is a property of the sync run
// as a whole, not of any one record).
type ArcState struct {
	index int
	count int
}

// NewArcState returns an ArcState already positioned at index with count
// documents already routed to it, so a sync run resumes filling the
// archive index a prior run left off in rather than restarting rotation
// from data-<name>-arc-0 every time.
func NewArcState(index, count int) *ArcState {
	return &ArcState{index: index, count: count}
}

// Next returns the archive index name to route the next archive document
// to, rotating to a fresh archive once the current one would exceed
// maxDocsPerArc.
func (s *ArcState) Next(dbName string, maxDocsPerArc int) string {
	s.count++
	if s.count > maxDocsPerArc {
		s.index++
		s.count = 1
	}
	return ArchiveIndexName(dbName, s.index)
}
