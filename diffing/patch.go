package diffing

import "fmt"

// Patch applies ops to base and returns a new map reflecting the result.
// base is never mutated in place; Patch always returns a fresh top-level
// map, mirroring the original's patch() contract so callers can safely
// patch the same base repeatedly while walking version history backwards.
func Patch(base map[string]any, ops []Op) (map[string]any, error) {
	result := deepCopyValue(base).(map[string]any)

	for _, op := range ops {
		if err := applyOp(result, op); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func applyOp(base map[string]any, op Op) error {
	if dc, ok := op.Ops["dc"]; ok {
		target, err := getMapIn(base, op.Path)
		if err != nil {
			return err
		}
		changes, ok := dc.(map[string]any)
		if !ok {
			return fmt.Errorf("dc payload at path %v is not a map", op.Path)
		}
		for k, v := range changes {
			target[k] = v
		}
	}

	if dn, ok := op.Ops["dn"]; ok {
		target, err := getMapIn(base, op.Path)
		if err != nil {
			return err
		}
		newValues, ok := dn.(map[string]any)
		if !ok {
			return fmt.Errorf("dn payload at path %v is not a map", op.Path)
		}
		for k, v := range newValues {
			target[k] = v
		}
	}

	if dd, ok := op.Ops["dd"]; ok {
		target, err := getMapIn(base, op.Path)
		if err != nil {
			return err
		}
		keys, ok := dd.([]string)
		if !ok {
			return fmt.Errorf("dd payload at path %v is not a string slice", op.Path)
		}
		for _, k := range keys {
			delete(target, k)
		}
	}

	if tc, ok := op.Ops["tc"]; ok {
		current, err := getSliceIn(base, op.Path)
		if err != nil {
			return err
		}
		target := append([]any{}, current...)
		changes, ok := tc.([][2]any)
		if !ok {
			return fmt.Errorf("tc payload at path %v is not an index/value list", op.Path)
		}
		for _, pair := range changes {
			index, ok := pair[0].(int)
			if !ok || index < 0 || index >= len(target) {
				return fmt.Errorf("tc payload at path %v has an out-of-range index", op.Path)
			}
			target[index] = pair[1]
		}
		if err := setIn(base, op.Path, target); err != nil {
			return err
		}
	}

	if tn, ok := op.Ops["tn"]; ok {
		current, err := getSliceIn(base, op.Path)
		if err != nil {
			return err
		}
		tail, ok := tn.([]any)
		if !ok {
			return fmt.Errorf("tn payload at path %v is not a slice", op.Path)
		}
		target := append(append([]any{}, current...), tail...)
		if err := setIn(base, op.Path, target); err != nil {
			return err
		}
	}

	if td, ok := op.Ops["td"]; ok {
		current, err := getSliceIn(base, op.Path)
		if err != nil {
			return err
		}
		cut, ok := td.(int)
		if !ok || cut < 0 || cut > len(current) {
			return fmt.Errorf("td payload at path %v is out of range", op.Path)
		}
		if err := setIn(base, op.Path, append([]any{}, current[:cut]...)); err != nil {
			return err
		}
	}

	return nil
}

// getMapIn navigates to the map located at path within base, which must
// itself be a map (dict ops address the container directly, not a
// parent+key pair, since maps are mutated in place).
func getMapIn(base map[string]any, path []any) (map[string]any, error) {
	var current any = base
	for _, segment := range path {
		next, err := step(current, segment)
		if err != nil {
			return nil, err
		}
		current = next
	}
	target, ok := current.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("path %v does not address a map", path)
	}
	return target, nil
}

// getSliceIn navigates to the slice located at path within base.
func getSliceIn(base map[string]any, path []any) ([]any, error) {
	var current any = base
	for _, segment := range path {
		next, err := step(current, segment)
		if err != nil {
			return nil, err
		}
		current = next
	}
	target, ok := current.([]any)
	if !ok {
		return nil, fmt.Errorf("path %v does not address a slice", path)
	}
	return target, nil
}

// setIn replaces the value at path within base with replacement. path must
// be non-empty: slices cannot be mutated in place, so a tuple op always
// writes through the parent container at path[:len-1] using the final
// segment as the key or index.
func setIn(base map[string]any, path []any, replacement any) error {
	if len(path) == 0 {
		return fmt.Errorf("cannot set the root value in place")
	}

	parent, err := stepAll(base, path[:len(path)-1])
	if err != nil {
		return err
	}

	last := path[len(path)-1]
	switch p := parent.(type) {
	case map[string]any:
		key, ok := last.(string)
		if !ok {
			return fmt.Errorf("path %v addresses a map with a non-string key", path)
		}
		p[key] = replacement
		return nil
	case []any:
		index, ok := last.(int)
		if !ok || index < 0 || index >= len(p) {
			return fmt.Errorf("path %v addresses a slice with an invalid index", path)
		}
		p[index] = replacement
		return nil
	default:
		return fmt.Errorf("path %v does not address a map or slice", path)
	}
}

func stepAll(base map[string]any, path []any) (any, error) {
	var current any = base
	for _, segment := range path {
		next, err := step(current, segment)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

func step(current any, segment any) (any, error) {
	switch c := current.(type) {
	case map[string]any:
		key, ok := segment.(string)
		if !ok {
			return nil, fmt.Errorf("cannot index a map with %v", segment)
		}
		next, ok := c[key]
		if !ok {
			return nil, fmt.Errorf("path segment %q not found", key)
		}
		return next, nil
	case []any:
		index, ok := segment.(int)
		if !ok || index < 0 || index >= len(c) {
			return nil, fmt.Errorf("cannot index a slice with %v", segment)
		}
		return c[index], nil
	default:
		return nil, fmt.Errorf("cannot step into %T with segment %v", current, segment)
	}
}

// deepCopyValue clones a normalized value (nil, string, map[string]any, or
// []any) recursively. Patch deep-copies base instead of shallow-copying it
// like the original implementation does, because the engine's version
// iterator patches the same stored value backwards through many diff sets
// in sequence; a shallow copy would let an in-place nested mutation from
// one patch step corrupt the snapshot an earlier step already returned.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = deepCopyValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = deepCopyValue(vv)
		}
		return out
	default:
		return v
	}
}
