package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// WKT renders the shape in Well-Known Text form.
func (s *Shape) WKT() string {
	switch s.Kind {
	case KindPoint:
		return fmt.Sprintf("POINT (%s)", formatCoord(s.Point))
	case KindLineString:
		return fmt.Sprintf("LINESTRING (%s)", formatCoords(s.Line))
	case KindPolygon:
		rings := make([]string, 0, 1+len(s.Interiors))
		rings = append(rings, "("+formatCoords(s.Exterior)+")")
		for _, interior := range s.Interiors {
			rings = append(rings, "("+formatCoords(interior)+")")
		}
		return fmt.Sprintf("POLYGON (%s)", strings.Join(rings, ", "))
	default:
		return ""
	}
}

func formatCoord(p Point) string {
	return strconv.FormatFloat(p.Lon, 'g', -1, 64) + " " + strconv.FormatFloat(p.Lat, 'g', -1, 64)
}

func formatCoords(points []Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = formatCoord(p)
	}
	return strings.Join(parts, ", ")
}

// ParseWKT parses a WKT string into a Shape, recognizing POINT, LINESTRING,
// and POLYGON. Returns ok=false (not an error) if candidate is not
// recognizable as WKT at all, matching the original's from_wkt(...,
// on_invalid="ignore") behaviour of treating unparseable input as "not a
// match" rather than a hard failure.
func ParseWKT(candidate string) (shape *Shape, ok bool) {
	trimmed := strings.TrimSpace(candidate)
	upper := strings.ToUpper(trimmed)

	switch {
	case strings.HasPrefix(upper, "POINT"):
		body, ok := extractParen(trimmed, len("POINT"))
		if !ok {
			return nil, false
		}
		p, ok := parsePoint(body)
		if !ok {
			return nil, false
		}
		return &Shape{Kind: KindPoint, Point: p}, true

	case strings.HasPrefix(upper, "LINESTRING"):
		body, ok := extractParen(trimmed, len("LINESTRING"))
		if !ok {
			return nil, false
		}
		points, ok := parsePointList(body)
		if !ok || len(points) == 0 {
			return nil, false
		}
		return &Shape{Kind: KindLineString, Line: points}, true

	case strings.HasPrefix(upper, "POLYGON"):
		body, ok := extractParen(trimmed, len("POLYGON"))
		if !ok {
			return nil, false
		}
		rings, ok := parseRingList(body)
		if !ok || len(rings) == 0 {
			return nil, false
		}
		shape := &Shape{Kind: KindPolygon, Exterior: rings[0]}
		if len(rings) > 1 {
			shape.Interiors = rings[1:]
		}
		return shape, true

	default:
		return nil, false
	}
}

// extractParen returns the text between the outermost matching parentheses
// that follow the keyword at the start of s.
func extractParen(s string, keywordLen int) (string, bool) {
	rest := strings.TrimSpace(s[keywordLen:])
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return "", false
	}
	return rest[1 : len(rest)-1], true
}

func parsePoint(s string) (Point, bool) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return Point{}, false
	}
	lon, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Point{}, false
	}
	lat, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Point{}, false
	}
	return Point{Lon: lon, Lat: lat}, true
}

func parsePointList(s string) ([]Point, bool) {
	parts := strings.Split(s, ",")
	points := make([]Point, 0, len(parts))
	for _, part := range parts {
		p, ok := parsePoint(part)
		if !ok {
			return nil, false
		}
		points = append(points, p)
	}
	return points, true
}

// parseRingList splits a polygon body like "(x y, x y), (x y, x y)" into its
// constituent rings.
func parseRingList(s string) ([][]Point, bool) {
	var rings [][]Point
	depth := 0
	start := -1
	for i, r := range s {
		switch r {
		case '(':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ')':
			depth--
			if depth == 0 {
				points, ok := parsePointList(s[start:i])
				if !ok {
					return nil, false
				}
				rings = append(rings, points)
			}
		}
	}
	return rings, len(rings) > 0
}
