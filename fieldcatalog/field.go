// Package fieldcatalog aggregates the data_types/parsed_types catalogs
// produced by valueparse across many records into a per-path, per-type
// count catalog describing the current schema surface of a database.
package fieldcatalog

import "strings"

// Field is the shared shape behind DataField and ParsedField: a path into
// the record structure, plus a count of how many records carry each type T
// at that path.
type Field[T comparable] struct {
	Path     string
	Counts   map[T]int
	Parent   *Field[T]
	Children []*Field[T]
}

func newField[T comparable](path string) *Field[T] {
	return &Field[T]{Path: path, Counts: map[T]int{}}
}

// AddType records count records that have this field with values of the
// given type.
func (f *Field[T]) AddType(fieldType T, count int) {
	f.Counts[fieldType] = count
}

// Count returns the number of records that have this field as the given
// type, or 0 if the type isn't represented at all.
func (f *Field[T]) Count(fieldType T) int {
	return f.Counts[fieldType]
}

// IsTypes reports whether this field has a non-zero count for at least one
// of the given types.
func (f *Field[T]) IsTypes(types ...T) bool {
	for _, t := range types {
		if f.Count(t) > 0 {
			return true
		}
	}
	return false
}

// Depth returns the field's nesting depth: root fields are depth 0.
func (f *Field[T]) Depth() int {
	return strings.Count(f.Path, ".")
}

// Name returns the last path segment.
func (f *Field[T]) Name() string {
	if idx := strings.LastIndex(f.Path, "."); idx >= 0 {
		return f.Path[idx+1:]
	}
	return f.Path
}

// Types returns the types this field has been recorded as, in no
// particular order.
func (f *Field[T]) Types() []T {
	types := make([]T, 0, len(f.Counts))
	for t := range f.Counts {
		types = append(types, t)
	}
	return types
}

// TotalCount sums the counts across every type recorded for this field.
func (f *Field[T]) TotalCount() int {
	total := 0
	for _, c := range f.Counts {
		total += c
	}
	return total
}

// isListMember reports whether path contains an empty segment, the
// convention valueparse uses to mark "this path is a direct element of a
// list", e.g. "tags." for a list of scalars under "tags".
func isListMember(path string) bool {
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			return true
		}
	}
	return false
}
