package indexplanner

// OpKind distinguishes the two bulk operations the planner emits.
type OpKind string

const (
	OpIndex  OpKind = "index"
	OpDelete OpKind = "delete"
)

// Op is one bulk operation destined for the search store: either index a
// document or delete one by id.
type Op struct {
	Kind OpKind
	// Index is the target index name: the database's latest index or one
	// of its archive indices.
	Index string
	// DocID is the document id to write/delete. Empty means the search
	// store should generate one, which only ever happens for archive index
	// ops (latest-index and delete ops always address the record id).
	DocID string
	// Document is the body of an index op; nil for delete ops.
	Document map[string]any
}
