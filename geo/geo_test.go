package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgengine.dev/normalize"
)

func TestWKTPointRoundTrip(t *testing.T) {
	shape, ok := ParseWKT("POINT (-0.1276 51.5072)")
	require.True(t, ok)
	assert.Equal(t, KindPoint, shape.Kind)
	assert.InDelta(t, -0.1276, shape.Point.Lon, 1e-9)
	assert.InDelta(t, 51.5072, shape.Point.Lat, 1e-9)
}

func TestWKTPolygonRoundTrip(t *testing.T) {
	shape, ok := ParseWKT("POLYGON ((0 0, 4 0, 4 4, 0 4, 0 0))")
	require.True(t, ok)
	assert.Equal(t, KindPolygon, shape.Kind)
	assert.Len(t, shape.Exterior, 5)
}

func TestWKTRejectsGarbage(t *testing.T) {
	_, ok := ParseWKT("not a shape")
	assert.False(t, ok)
}

func TestGeoJSONPointMatch(t *testing.T) {
	candidate := map[string]any{
		"type":        "Point",
		"coordinates": []any{-0.1, 51.5},
	}
	shape, ok := ParseGeoJSON(candidate)
	require.True(t, ok)
	assert.Equal(t, KindPoint, shape.Kind)
}

// Real records pass through normalize.Value before ParseGeoJSON ever sees
// them, which stringifies every coordinate - asFloat must accept those
// strings, not just the raw float64 literals the other tests hand-construct.
func TestGeoJSONPointMatchAfterNormalization(t *testing.T) {
	candidate := map[string]any{
		"type":        "Point",
		"coordinates": []any{-0.1, 51.5},
	}
	normalized := normalize.Value(candidate, "").(map[string]any)

	shape, ok := ParseGeoJSON(normalized)
	require.True(t, ok)
	assert.Equal(t, KindPoint, shape.Kind)
	assert.InDelta(t, -0.1, shape.Point.Lon, 1e-9)
	assert.InDelta(t, 51.5, shape.Point.Lat, 1e-9)
}

func TestGeoJSONRejectsBadWinding(t *testing.T) {
	// clockwise exterior ring violates the GeoJSON right-hand rule
	candidate := map[string]any{
		"type": "Polygon",
		"coordinates": []any{
			[]any{
				[]any{0.0, 0.0},
				[]any{0.0, 4.0},
				[]any{4.0, 4.0},
				[]any{4.0, 0.0},
				[]any{0.0, 0.0},
			},
		},
	}
	_, ok := ParseGeoJSON(candidate)
	assert.False(t, ok)
}

func TestGeoJSONRejectsOutOfRangeCoords(t *testing.T) {
	candidate := map[string]any{
		"type":        "Point",
		"coordinates": []any{200.0, 51.5},
	}
	_, ok := ParseGeoJSON(candidate)
	assert.False(t, ok)
}

func TestCircleIsValidAndWound(t *testing.T) {
	shape, err := Circle(51.5, -0.1, 1000, 16)
	require.NoError(t, err)
	assert.True(t, shape.IsValid())
	assert.True(t, shape.IsWindingValid())
	assert.Equal(t, 16*4+1, len(shape.Exterior))
	assert.Equal(t, shape.Exterior[0], shape.Exterior[len(shape.Exterior)-1])
}

func TestCircleVerticesAreApproximatelyEquidistant(t *testing.T) {
	lat, lon, radius := 10.0, 20.0, 5000.0
	shape, err := Circle(lat, lon, radius, 16)
	require.NoError(t, err)

	for _, p := range shape.Exterior[:len(shape.Exterior)-1] {
		d := haversine(lat, lon, p.Lat, p.Lon)
		assert.InDelta(t, radius, d, radius*0.01)
	}
}

func TestCircleRejectsNonPositiveRadius(t *testing.T) {
	_, err := Circle(0, 0, 0, 16)
	assert.Error(t, err)
}

func TestMatchHintsFindsPointAndCircle(t *testing.T) {
	data := map[string]any{
		"decimalLatitude":  51.5,
		"decimalLongitude": -0.1,
		"coordinateUncertaintyInMeters": 500.0,
	}
	hints := []FieldHint{
		{LatField: "decimalLatitude", LonField: "decimalLongitude", RadiusField: "coordinateUncertaintyInMeters"},
	}

	matches := MatchHints(data, hints)
	require.Contains(t, matches, "decimalLatitude")
	match := matches["decimalLatitude"]
	assert.NotNil(t, match.Point)
	assert.NotNil(t, match.Circle)
}

func TestMatchHintsSkipsMissingFields(t *testing.T) {
	data := map[string]any{"decimalLatitude": 51.5}
	hints := []FieldHint{{LatField: "decimalLatitude", LonField: "decimalLongitude"}}
	assert.Empty(t, MatchHints(data, hints))
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMetres * c
}
