// Package optionsreg holds the append-only history of parsing-options
// versions for a database and resolves which entry is in force at a given
// data version. Writes happen through the database facade's commit path;
// this package only reads and serializes.
package optionsreg

import (
	"fmt"
	"sort"

	"sgengine.dev/geo"
	"sgengine.dev/valueparse"
)

// ToDoc serializes Options into the plain-JSON shape recordstore.OptionEntry
// stores, so the record store never needs to know about valueparse types.
func ToDoc(opts *valueparse.Options) map[string]any {
	trueValues := make([]string, 0, len(opts.TrueValues))
	for v := range opts.TrueValues {
		trueValues = append(trueValues, v)
	}
	sort.Strings(trueValues)

	falseValues := make([]string, 0, len(opts.FalseValues))
	for v := range opts.FalseValues {
		falseValues = append(falseValues, v)
	}
	sort.Strings(falseValues)

	asList := func(values []string) []any {
		out := make([]any, len(values))
		for i, v := range values {
			out[i] = v
		}
		return out
	}

	geoHints := make([]any, 0, len(opts.GeoHints))
	for _, h := range opts.GeoHints {
		geoHints = append(geoHints, map[string]any{
			"lat_field":    h.LatField,
			"lon_field":    h.LonField,
			"radius_field": h.RadiusField,
			"segments":     h.Segments,
		})
	}

	return map[string]any{
		"true_values":    asList(trueValues),
		"false_values":   asList(falseValues),
		"date_formats":   asList(opts.DateFormats),
		"geo_hints":      geoHints,
		"keyword_length": opts.KeywordLength,
		"float_format":   opts.FloatFormat,
	}
}

// FromDoc is the inverse of ToDoc.
func FromDoc(doc map[string]any) (*valueparse.Options, error) {
	trueValues, err := stringList(doc, "true_values")
	if err != nil {
		return nil, err
	}
	falseValues, err := stringList(doc, "false_values")
	if err != nil {
		return nil, err
	}
	dateFormats, err := stringList(doc, "date_formats")
	if err != nil {
		return nil, err
	}

	hintsRaw, _ := doc["geo_hints"].([]any)
	hints := make([]geo.FieldHint, 0, len(hintsRaw))
	for _, raw := range hintsRaw {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("optionsreg: geo_hints entry is not an object: %v", raw)
		}
		hints = append(hints, geo.FieldHint{
			LatField:    stringField(m, "lat_field"),
			LonField:    stringField(m, "lon_field"),
			RadiusField: stringField(m, "radius_field"),
			Segments:    intField(m, "segments"),
		})
	}

	keywordLength := intField(doc, "keyword_length")
	floatFormat := stringField(doc, "float_format")
	if floatFormat == "" {
		floatFormat = "%.15g"
	}

	return valueparse.NewOptions(
		valueparse.WithTrueValues(trueValues...),
		valueparse.WithFalseValues(falseValues...),
		valueparse.WithDateFormats(dateFormats...),
		valueparse.WithGeoHints(hints...),
		valueparse.WithKeywordLength(keywordLength),
		valueparse.WithFloatFormat(floatFormat),
	), nil
}

func stringList(doc map[string]any, key string) ([]string, error) {
	raw, ok := doc[key].([]any)
	if !ok {
		if _, present := doc[key]; present {
			return nil, fmt.Errorf("optionsreg: %s is not a list", key)
		}
		return nil, nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("optionsreg: %s contains a non-string entry: %v", key, v)
		}
		out = append(out, s)
	}
	return out, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
