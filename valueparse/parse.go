package valueparse

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"sgengine.dev/geo"
)

// ParsedData is the result of parsing one record's data: the typed
// projection tree to index, plus the compacted per-path type catalogs.
type ParsedData struct {
	Parsed      map[string]any
	DataTypes   []string
	ParsedTypes []string
}

// Parse walks data depth-first and builds its indexable projection. data
// must be normalized (nil, string, map[string]any, or []any at every level);
// passing anything else is a programmer error since the record store never
// holds anything else.
func Parse(data map[string]any, opts *Options) ParsedData {
	parsed, dataTypes, parsedTypes := parseDict(data, opts, true)

	return ParsedData{
		Parsed:      parsed,
		DataTypes:   compactTypes(dataTypes),
		ParsedTypes: compactTypes(parsedTypes),
	}
}

// compactTypes groups "<path>.<tag>" entries by path into a single
// "<path>.<tag1>,<tag2>,..." entry per path, so downstream aggregation
// counts each path's presence of a type exactly once per record.
func compactTypes(entries []string) []string {
	if len(entries) == 0 {
		return nil
	}
	sorted := append([]string(nil), entries...)
	sort.Strings(sorted)

	byPath := make(map[string][]string)
	var order []string
	for _, entry := range sorted {
		idx := strings.LastIndex(entry, ".")
		if idx < 0 {
			continue
		}
		path, tag := entry[:idx], entry[idx+1:]
		if _, seen := byPath[path]; !seen {
			order = append(order, path)
		}
		byPath[path] = append(byPath[path], tag)
	}

	out := make([]string, 0, len(order))
	for _, path := range order {
		out = append(out, path+"."+strings.Join(byPath[path], ","))
	}
	return out
}

func dataTypeFor(value any) DataType {
	switch v := value.(type) {
	case nil:
		return DataNull
	case map[string]any:
		return DataDict
	case []any:
		return DataList
	case string:
		return dataTypeForString(v)
	default:
		return DataStr
	}
}

// dataTypeForString re-infers the apparent source kind of an already
// normalized scalar. Normalization collapses bool/int/float into strings
// ("true"/"false", decimal digits), so by the time data reaches the parser
// the concrete Go type is always string; this sniffs the string's shape to
// recover the same per-path type cataloging the un-normalized value would
// have produced.
func dataTypeForString(s string) DataType {
	switch s {
	case "true", "false":
		return DataBool
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return DataInt
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return DataFloat
	}
	return DataStr
}

func parseDict(data map[string]any, opts *Options, checkGeoJSON bool) (map[string]any, []string, []string) {
	parsed := make(map[string]any, len(data))
	dataTypes := make([]string, 0, len(data))
	var parsedTypes []string

	for key, value := range data {
		dataTypes = append(dataTypes, key+"."+string(dataTypeFor(value)))
	}

	if checkGeoJSON {
		if shape, ok := geo.ParseGeoJSON(data); ok {
			// the dict itself is a GeoJSON geometry: its point/shape
			// projection lives alongside its own fields, not nested under
			// one of them.
			for tag, v := range shapeToParsed(shape) {
				parsed[string(tag)] = v
				parsedTypes = append(parsedTypes, string(tag))
			}
		}
	}

	for key, value := range data {
		switch v := value.(type) {
		case map[string]any:
			if len(v) == 0 {
				continue
			}
			p, dts, pts := parseDict(v, opts, true)
			parsed[key] = p
			for _, dt := range dts {
				dataTypes = append(dataTypes, key+"."+dt)
			}
			for _, pt := range pts {
				parsedTypes = append(parsedTypes, key+"."+pt)
			}
		case []any:
			if len(v) == 0 {
				continue
			}
			p, dts, pts := parseList(v, opts)
			parsed[key] = p
			for _, dt := range dts {
				// dt already carries a leading "." (no index name for list
				// members), so this produces "key..<type>" - the empty
				// path segment the field catalog reads as "list element".
				dataTypes = append(dataTypes, key+"."+dt)
			}
			for _, pt := range pts {
				parsedTypes = append(parsedTypes, key+"."+pt)
			}
		case nil:
			continue
		default:
			s := scalarToString(v)
			if s == "" {
				continue
			}
			pv := parseValue(s, opts)
			parsed[key] = pv
			for tag := range pv {
				parsedTypes = append(parsedTypes, key+"."+string(tag))
			}
		}
	}

	hintMatches := geo.MatchHints(data, opts.GeoHints)
	for field, match := range hintMatches {
		geoData := matchToParsed(match)
		merged := mergeGeoMaps(asGeoMap(parsed[field]), geoData)
		parsed[field] = merged
		for tag := range geoData {
			parsedTypes = append(parsedTypes, field+"."+string(tag))
		}
	}

	return parsed, dataTypes, parsedTypes
}

func parseList(data []any, opts *Options) ([]any, []string, []string) {
	parsed := make([]any, len(data))
	var dataTypes []string
	parsedTypesSeen := make(map[string]struct{})

	for _, value := range data {
		dataTypes = append(dataTypes, "."+string(dataTypeFor(value)))
	}

	for i, value := range data {
		switch v := value.(type) {
		case map[string]any:
			if len(v) == 0 {
				continue
			}
			p, dts, pts := parseDict(v, opts, true)
			parsed[i] = p
			for _, dt := range dts {
				dataTypes = append(dataTypes, "."+dt)
			}
			// ES flattens arrays: ignore hierarchy, just record the tags present
			for _, pt := range pts {
				parsedTypesSeen[pt] = struct{}{}
			}
		case []any:
			if len(v) == 0 {
				continue
			}
			p, dts, pts := parseList(v, opts)
			parsed[i] = p
			for _, dt := range dts {
				dataTypes = append(dataTypes, "."+dt)
			}
			for _, pt := range pts {
				parsedTypesSeen[pt] = struct{}{}
			}
		case nil:
			continue
		default:
			s := scalarToString(v)
			if s == "" {
				continue
			}
			pv := parseValue(s, opts)
			parsed[i] = pv
			for tag := range pv {
				parsedTypesSeen[string(tag)] = struct{}{}
			}
		}
	}

	parsedTypes := make([]string, 0, len(parsedTypesSeen))
	for pt := range parsedTypesSeen {
		parsedTypes = append(parsedTypes, pt)
	}
	sort.Strings(parsedTypes)

	return parsed, dataTypes, parsedTypes
}

func scalarToString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	// defensive: normalized data should only ever hand us strings here, but
	// format anything else rather than silently dropping it
	return fmt.Sprintf("%v", v)
}

// parseValue computes every applicable tagged projection of a single
// normalized scalar, memoized per (options, value).
func parseValue(value string, opts *Options) map[ParsedType]any {
	key := cacheKey{opts: opts, kind: kindOf(value), repr: value}
	cache := getValueCache()
	if cached, ok := cache.Get(key); ok {
		return cached
	}

	parsed := map[ParsedType]any{
		ParsedText:                   value,
		ParsedKeywordCaseInsensitive: truncate(value, opts.KeywordLength),
		ParsedKeywordCaseSensitive:   truncate(value, opts.KeywordLength),
	}

	if shape, ok := geo.ParseWKT(value); ok && shape.IsValid() {
		for tag, v := range shapeToParsed(shape) {
			parsed[tag] = v
		}
	}

	lower := strings.ToLower(value)
	if opts.isTrue(lower) {
		parsed[ParsedBoolean] = true
	} else if opts.isFalse(lower) {
		parsed[ParsedBoolean] = false
	}

	if n, err := strconv.ParseFloat(value, 64); err == nil && !isInfOrNaN(n) {
		parsed[ParsedNumber] = n
	}

	if millis, ok := parseDate(value, opts.DateFormats); ok {
		parsed[ParsedDate] = millis
	}

	cache.Add(key, parsed)
	return parsed
}

func isInfOrNaN(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}

func truncate(s string, length int) string {
	if length < 0 || len(s) <= length {
		return s
	}
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length])
}

func shapeToParsed(shape *geo.Shape) map[ParsedType]any {
	centroid := &geo.Shape{Kind: geo.KindPoint, Point: shape.Centroid()}
	return map[ParsedType]any{
		ParsedGeoPoint: centroid.WKT(),
		ParsedGeoShape: shape.WKT(),
	}
}

func matchToParsed(match geo.Match) map[ParsedType]any {
	out := map[ParsedType]any{
		ParsedGeoPoint: match.Point.WKT(),
	}
	if match.Circle != nil {
		out[ParsedGeoShape] = match.Circle.WKT()
	} else {
		out[ParsedGeoShape] = match.Point.WKT()
	}
	return out
}

func asGeoMap(v any) map[ParsedType]any {
	if m, ok := v.(map[ParsedType]any); ok {
		return m
	}
	return nil
}

func mergeGeoMaps(base, overlay map[ParsedType]any) map[ParsedType]any {
	merged := make(map[ParsedType]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}
