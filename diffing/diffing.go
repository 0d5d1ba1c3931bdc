// Package diffing implements structural diffing and patching over
// normalized record values. It is grounded directly on the original
// implementation's diffing module: the same breadth-first traversal, the
// same six op codes, and the same missing-value sentinel trick for
// telling "absent" apart from "present but nil/empty".
//
// Diff and Patch only ever see the four shapes normalize.Value produces:
// nil, string, map[string]any, and []any. Anything else is a caller error.
package diffing

import (
	"fmt"
)

// Op is one structural diff operation: Ops maps a short op code to its
// payload, scoped to Path within the value being diffed.
//
// Op codes:
//
//	dn - dict new: keys present in the new value but absent from the base
//	dd - dict deleted: keys present in the base but absent from the new value
//	dc - dict changed: keys present in both whose values differ and are not
//	     both maps or both slices (those are diffed recursively instead)
//	tn - tuple new: elements appended to a sequence (payload is the tail)
//	td - tuple deleted: the sequence was truncated (payload is the new length)
//	tc - tuple changed: (index, value) pairs for elements that changed in place
type Op struct {
	Path []any          `json:"path"`
	Ops  map[string]any `json:"ops"`
}

// TypeMismatchError reports that Diff was asked to compare a map against a
// slice (or vice versa).
type TypeMismatchError struct {
	Path []any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch diffing/patching at path %v: base and new must both be maps or both be slices", e.Path)
}

type missingT struct{}

var missing = missingT{}

type queueItem struct {
	path []any
	base any
	new  any
}

// Diff finds the differences between base and new, returning the sequence
// of Ops that, applied via Patch to base, reproduce new. base and new must
// both be map[string]any (the record root is always a dict); nested
// map[string]any and []any values are compared recursively.
func Diff(base, new map[string]any) ([]Op, error) {
	var result []Op
	queue := []queueItem{{path: []any{}, base: base, new: new}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		ops := map[string]any{}

		leftMap, leftIsMap := item.base.(map[string]any)
		rightMap, rightIsMap := item.new.(map[string]any)
		leftSlice, leftIsSlice := item.base.([]any)
		rightSlice, rightIsSlice := item.new.([]any)

		switch {
		case leftIsMap && rightIsMap:
			diffDict(leftMap, rightMap, item.path, ops, &queue)
		case leftIsSlice && rightIsSlice:
			diffSlice(leftSlice, rightSlice, item.path, ops, &queue)
		default:
			return nil, &TypeMismatchError{Path: item.path}
		}

		if len(ops) > 0 {
			result = append(result, Op{Path: item.path, Ops: ops})
		}
	}

	return result, nil
}

func diffDict(left, right map[string]any, path []any, ops map[string]any, queue *[]queueItem) {
	newValues := map[string]any{}
	for key, value := range right {
		if _, ok := left[key]; !ok {
			newValues[key] = value
		}
	}
	if len(newValues) > 0 {
		ops["dn"] = newValues
	}

	var deletedKeys []string
	for key := range left {
		if _, ok := right[key]; !ok {
			deletedKeys = append(deletedKeys, key)
		}
	}
	if len(deletedKeys) > 0 {
		ops["dd"] = deletedKeys
	}

	changes := map[string]any{}
	for key, leftValue := range left {
		rightValue, ok := right[key]
		if !ok || deepEqual(leftValue, rightValue) {
			continue
		}

		leftChildMap, leftIsMap := leftValue.(map[string]any)
		rightChildMap, rightIsMap := rightValue.(map[string]any)
		leftChildSlice, leftIsSlice := leftValue.([]any)
		rightChildSlice, rightIsSlice := rightValue.([]any)

		switch {
		case leftIsMap && rightIsMap:
			*queue = append(*queue, queueItem{path: appendPath(path, key), base: leftChildMap, new: rightChildMap})
		case leftIsSlice && rightIsSlice:
			*queue = append(*queue, queueItem{path: appendPath(path, key), base: leftChildSlice, new: rightChildSlice})
		default:
			changes[key] = rightValue
		}
	}
	if len(changes) > 0 {
		ops["dc"] = changes
	}
}

func diffSlice(left, right []any, path []any, ops map[string]any, queue *[]queueItem) {
	var changes [][2]any
	length := len(left)
	if len(right) > length {
		length = len(right)
	}

	for index := 0; index < length; index++ {
		var leftValue, rightValue any = missing, missing
		if index < len(left) {
			leftValue = left[index]
		}
		if index < len(right) {
			rightValue = right[index]
		}

		if deepEqual(leftValue, rightValue) {
			continue
		}

		if leftValue == missing {
			ops["tn"] = append([]any{}, right[index:]...)
			return
		}
		if rightValue == missing {
			ops["td"] = index
			return
		}

		leftChildMap, leftIsMap := leftValue.(map[string]any)
		rightChildMap, rightIsMap := rightValue.(map[string]any)
		if leftIsMap && rightIsMap {
			*queue = append(*queue, queueItem{path: appendPath(path, index), base: leftChildMap, new: rightChildMap})
		} else {
			changes = append(changes, [2]any{index, rightValue})
		}
	}

	if len(changes) > 0 {
		ops["tc"] = changes
	}
}

func appendPath(path []any, next any) []any {
	out := make([]any, len(path)+1)
	copy(out, path)
	out[len(path)] = next
	return out
}

// deepEqual compares two normalized values (nil, string, map[string]any, or
// []any) for equality.
func deepEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !deepEqual(v, bvv) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
