package geo

import "fmt"

// FieldHint names the fields in a record's data that together describe a
// point, and optionally a radius around that point, so the value parser can
// recognize geo data expressed as separate lat/lon fields rather than a
// single WKT or GeoJSON field. Grounded on the original's GeoFieldHint.
type FieldHint struct {
	LatField    string
	LonField    string
	RadiusField string
	// Segments is this hint's quad_segs value for Circle; zero means the
	// package default (16).
	Segments int
}

// Key identifies a FieldHint by its latitude field alone, matching the
// original's decision to hash/compare GeoFieldHint solely on lat_field: two
// hints naming the same latitude field are the same hint even if their
// radius field differs, since a record can only be interpreted one way.
func (h FieldHint) Key() string {
	return h.LatField
}

// Match is the result of one FieldHint matching a record's data: both the
// bare point and, if a radius field was present and valid, the circle
// approximation around it.
type Match struct {
	Field  string
	Point  *Shape
	Circle *Shape
}

// MatchHints tries each hint against data in turn and returns every hint
// that matches, keyed by the hint's latitude field (matching match_hints'
// use of lat_field as the geo root key).
func MatchHints(data map[string]any, hints []FieldHint) map[string]Match {
	matches := make(map[string]Match)

	for _, hint := range hints {
		lonRaw, hasLon := data[hint.LonField]
		latRaw, hasLat := data[hint.LatField]
		if !hasLon || !hasLat {
			continue
		}
		lon, ok := coerceFloat(lonRaw)
		if !ok {
			continue
		}
		lat, ok := coerceFloat(latRaw)
		if !ok {
			continue
		}

		point := &Shape{Kind: KindPoint, Point: Point{Lon: lon, Lat: lat}}
		if !point.IsValid() {
			continue
		}

		match := Match{Field: hint.LatField, Point: point}

		if hint.RadiusField != "" {
			if radiusRaw, ok := data[hint.RadiusField]; ok {
				if radius, ok := coerceFloat(radiusRaw); ok && radius > 0 {
					if circle, err := Circle(lat, lon, radius, hint.Segments); err == nil {
						match.Circle = circle
					}
				}
			}
		}

		matches[hint.LatField] = match
	}

	return matches
}

func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
