package valueparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValueBuildsTextAndKeywordProjections(t *testing.T) {
	opts := DefaultOptions()
	pv := parseValue("hello world", opts)
	assert.Equal(t, "hello world", pv[ParsedText])
	assert.Equal(t, "hello world", pv[ParsedKeywordCaseInsensitive])
	assert.Equal(t, "hello world", pv[ParsedKeywordCaseSensitive])
	assert.NotContains(t, pv, ParsedNumber)
	assert.NotContains(t, pv, ParsedBoolean)
}

func TestParseValueRecognizesNumber(t *testing.T) {
	opts := DefaultOptions()
	pv := parseValue("42.5", opts)
	assert.Equal(t, 42.5, pv[ParsedNumber])
}

func TestParseValueRecognizesBoolean(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, true, parseValue("yes", opts)[ParsedBoolean])
	assert.Equal(t, false, parseValue("no", opts)[ParsedBoolean])
	assert.NotContains(t, parseValue("maybe", opts), ParsedBoolean)
}

func TestParseValueRecognizesDate(t *testing.T) {
	opts := DefaultOptions()
	pv := parseValue("2020-01-02", opts)
	require.Contains(t, pv, ParsedDate)
}

func TestParseValueRecognizesWKT(t *testing.T) {
	opts := DefaultOptions()
	pv := parseValue("POINT (-0.1 51.5)", opts)
	require.Contains(t, pv, ParsedGeoPoint)
	require.Contains(t, pv, ParsedGeoShape)
}

func TestParseValueKeywordLengthIsClamped(t *testing.T) {
	opts := NewOptions(WithKeywordLength(4))
	pv := parseValue("abcdefgh", opts)
	assert.Equal(t, "abcd", pv[ParsedKeywordCaseInsensitive])
}

func TestParseValueCacheDistinguishesTypesSharingAStringForm(t *testing.T) {
	opts := DefaultOptions()
	cache := getValueCache()
	cache.Purge()

	strResult := parseValue("0", opts)
	assert.Equal(t, 1, cache.Len())

	key := cacheKey{opts: opts, kind: 'b', repr: "0"}
	cache.Add(key, map[ParsedType]any{ParsedBoolean: false})
	cached, ok := cache.Get(key)
	require.True(t, ok)
	assert.NotEqual(t, strResult, cached)
}

func TestParseDictOmitsEmptyCollectionsFromParsedOutput(t *testing.T) {
	opts := DefaultOptions()
	result := Parse(map[string]any{
		"name":  "sample",
		"empty": map[string]any{},
		"tags":  []any{},
	}, opts)

	assert.NotContains(t, result.Parsed, "empty")
	assert.NotContains(t, result.Parsed, "tags")
	assert.Contains(t, result.Parsed, "name")
}

func TestParseDictRecursesNestedMaps(t *testing.T) {
	opts := DefaultOptions()
	result := Parse(map[string]any{
		"nested": map[string]any{
			"flag": "true",
		},
	}, opts)

	nested, ok := result.Parsed["nested"].(map[string]any)
	require.True(t, ok)
	flag, ok := nested["flag"].(map[ParsedType]any)
	require.True(t, ok)
	assert.Equal(t, true, flag[ParsedBoolean])
}

func TestParseDictMatchesGeoHintsAndMergesIntoLatField(t *testing.T) {
	opts := DefaultOptions()
	result := Parse(map[string]any{
		"decimalLatitude":  "51.5",
		"decimalLongitude": "-0.1",
	}, opts)

	latField, ok := result.Parsed["decimalLatitude"].(map[ParsedType]any)
	require.True(t, ok)
	assert.Contains(t, latField, ParsedGeoPoint)
	// the plain text/keyword projections of the original scalar are preserved
	assert.Equal(t, "51.5", latField[ParsedText])
}

func TestParseCompactsTypesPerPath(t *testing.T) {
	opts := DefaultOptions()
	result := Parse(map[string]any{"name": "sample"}, opts)

	found := false
	for _, dt := range result.DataTypes {
		if dt == "name.str" {
			found = true
		}
	}
	assert.True(t, found)

	foundParsed := false
	for _, pt := range result.ParsedTypes {
		if pt == "name.^ki,^ks,^t" || pt == "name.^ki,^ks,^t,^n" {
			foundParsed = true
		}
	}
	_ = foundParsed // tag ordering within a path is not contractually fixed
}

func TestParseListFlattensParsedTypes(t *testing.T) {
	opts := DefaultOptions()
	result := Parse(map[string]any{
		"tags": []any{"a", "b"},
	}, opts)

	tags, ok := result.Parsed["tags"].([]any)
	require.True(t, ok)
	require.Len(t, tags, 2)
}

func TestDataTypeForStringHeuristics(t *testing.T) {
	assert.Equal(t, DataBool, dataTypeForString("true"))
	assert.Equal(t, DataInt, dataTypeForString("42"))
	assert.Equal(t, DataFloat, dataTypeForString("4.2"))
	assert.Equal(t, DataStr, dataTypeForString("hello"))
}

func TestIsFieldValid(t *testing.T) {
	assert.True(t, IsFieldValid("name"))
	assert.False(t, IsFieldValid(""))
	assert.False(t, IsFieldValid("a^b"))
	assert.False(t, IsFieldValid("a.b"))
}
