package geo

import "fmt"

// ParseGeoJSON recognizes a map as a GeoJSON Point, LineString, or Polygon
// geometry object and converts it to a Shape. Returns ok=false when
// candidate is not shaped like a geometry object, is not one of the three
// primitives this package supports, or fails validity/winding checks - the
// same "quietly not a match" behaviour as the original's match_geojson.
func ParseGeoJSON(candidate map[string]any) (shape *Shape, ok bool) {
	typ, hasType := candidate["type"].(string)
	coords, hasCoords := candidate["coordinates"]
	if !hasType || !hasCoords {
		return nil, false
	}

	switch typ {
	case "Point":
		pair, ok := asCoordPair(coords)
		if !ok {
			return nil, false
		}
		shape := &Shape{Kind: KindPoint, Point: pair}
		return validated(shape)

	case "LineString":
		points, ok := asCoordList(coords)
		if !ok || len(points) == 0 {
			return nil, false
		}
		shape := &Shape{Kind: KindLineString, Line: points}
		return validated(shape)

	case "Polygon":
		rawRings, ok := coords.([]any)
		if !ok || len(rawRings) == 0 {
			return nil, false
		}
		rings := make([][]Point, 0, len(rawRings))
		for _, rawRing := range rawRings {
			points, ok := asCoordList(rawRing)
			if !ok || len(points) == 0 {
				return nil, false
			}
			rings = append(rings, points)
		}
		shape := &Shape{Kind: KindPolygon, Exterior: rings[0]}
		if len(rings) > 1 {
			shape.Interiors = rings[1:]
		}
		return validated(shape)

	default:
		// multipart and other geometry types are intentionally unsupported
		return nil, false
	}
}

func validated(shape *Shape) (*Shape, bool) {
	if !shape.IsValid() {
		return nil, false
	}
	if shape.Kind == KindPolygon && !shape.IsWindingValid() {
		return nil, false
	}
	return shape, true
}

func asCoordPair(v any) (Point, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) < 2 {
		return Point{}, false
	}
	lon, ok := asFloat(arr[0])
	if !ok {
		return Point{}, false
	}
	lat, ok := asFloat(arr[1])
	if !ok {
		return Point{}, false
	}
	return Point{Lon: lon, Lat: lat}, true
}

func asCoordList(v any) ([]Point, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	points := make([]Point, 0, len(arr))
	for _, item := range arr {
		p, ok := asCoordPair(item)
		if !ok {
			return nil, false
		}
		points = append(points, p)
	}
	return points, true
}

// asFloat coerces a coordinate value to float64. Coordinates normally arrive
// as strings here, since normalize.Value stringifies every scalar before
// valueparse ever calls ParseGeoJSON - mirrors hints.go's coerceFloat.
func asFloat(v any) (float64, bool) {
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
