package geo

import "errors"

var (
	errInvalidRadius = errors.New("geo: radius must be greater than 0")
	errInvalidCircle  = errors.New("geo: generated circle failed validity or winding checks")
)

// IsValid reports whether every coordinate in the shape falls within the
// ranges Elasticsearch accepts for geo_point/geo_shape fields: longitude in
// [-180, 180] and latitude in [-90, 90]. It does not check ring winding;
// that is IsWindingValid's job, since winding only matters for GeoJSON
// polygons.
func (s *Shape) IsValid() bool {
	switch s.Kind {
	case KindPoint:
		return inRange(s.Point)
	case KindLineString:
		if len(s.Line) == 0 {
			return false
		}
		return allInRange(s.Line)
	case KindPolygon:
		if len(s.Exterior) == 0 {
			return false
		}
		if !allInRange(s.Exterior) {
			return false
		}
		for _, ring := range s.Interiors {
			if !allInRange(ring) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func inRange(p Point) bool {
	return p.Lon >= -180 && p.Lon <= 180 && p.Lat >= -90 && p.Lat <= 90
}

func allInRange(points []Point) bool {
	for _, p := range points {
		if !inRange(p) {
			return false
		}
	}
	return true
}

// IsWindingValid checks the polygon's ring orientations against the GeoJSON
// right-hand rule using the shoelace edge-sum trick: the exterior ring must
// be wound counter-clockwise (a negative edge sum) and every interior ring
// must be wound clockwise (a non-negative edge sum). Non-polygon shapes
// always pass, since only polygons have an orientation rule to satisfy.
func (s *Shape) IsWindingValid() bool {
	if s.Kind != KindPolygon {
		return true
	}

	if edgeSum(s.Exterior) >= 0 {
		return false
	}
	for _, interior := range s.Interiors {
		if edgeSum(interior) < 0 {
			return false
		}
	}
	return true
}

// edgeSum computes sum((x2-x1)*(y2+y1)) over the ring's consecutive vertex
// pairs. The sign of this sum is -2x the standard CCW-positive signed area,
// so a negative sum means the ring winds counter-clockwise.
func edgeSum(ring []Point) float64 {
	var sum float64
	for i := 0; i+1 < len(ring); i++ {
		x1, y1 := ring[i].Lon, ring[i].Lat
		x2, y2 := ring[i+1].Lon, ring[i+1].Lat
		sum += (x2 - x1) * (y2 + y1)
	}
	return sum
}
