// Package normalize implements the engine's canonical value form: the
// recursive reduction every record's data is put through before it is
// diffed, stored, or parsed. Normalizing first means the differ and parser
// only ever see four shapes - nil, string, map, and slice - instead of the
// full range of JSON-decoded Go types.
//
// Grounded on the diffing module's prepare() function: scalars collapse to
// their string form, control characters other than tab/newline/carriage
// return are stripped from strings, and maps/slices recurse.
package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// defaultFloatFormat is used when Value is called with a blank
// floatFormat, matching valueparse.Options' own default.
const defaultFloatFormat = "%.15g"

// Value walks data and returns its canonical form:
//
//   - nil stays nil
//   - bool becomes "true" or "false"
//   - integer kinds become their decimal string form
//   - float kinds are rendered with floatFormat (a fmt verb, e.g. "%.15g" -
//     see valueparse.Options.FloatFormat; a blank floatFormat falls back to
//     that same default)
//   - time.Time becomes its RFC 3339 string form
//   - string is stripped of disallowed control characters
//   - map[string]any recurses over its values, keys are sorted on output
//     only implicitly through Go's own map iteration at marshal time
//   - []any recurses element-wise; other slice/array types fall through to
//     the default case below
//
// Any other concrete type is rendered via fmt.Sprintf("%v", ...) and then
// stripped like a string, so unrecognized scalar types degrade gracefully
// instead of panicking.
func Value(data any, floatFormat string) any {
	if floatFormat == "" {
		floatFormat = defaultFloatFormat
	}
	switch v := data.(type) {
	case nil:
		return nil
	case string:
		return stripControl(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return fmt.Sprintf(floatFormat, float64(v))
	case float64:
		return fmt.Sprintf(floatFormat, v)
	case time.Time:
		return v.Format(time.RFC3339)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = Value(val, floatFormat)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = Value(val, floatFormat)
		}
		return out
	default:
		return stripControl(fmt.Sprintf("%v", v))
	}
}

// stripControl removes Unicode control characters (category C*) from s,
// keeping \t, \n, and \r since those are common in free-text fields and the
// original data this engine ingests relies on them for formatting.
func stripControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' {
			b.WriteRune(r)
			continue
		}
		if unicode.Is(unicode.C, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SortedKeys returns the keys of a normalized map in sorted order, used
// wherever the differ or planner needs deterministic traversal order over a
// map's fields.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
