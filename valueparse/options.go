package valueparse

import (
	"strings"

	"sgengine.dev/geo"
)

// defaultTrueValues, defaultFalseValues, defaultDateFormats, and
// defaultGeoHints mirror the defaults a fresh options set is built with when
// a database has never had any parsing options staged for it.
var (
	defaultTrueValues  = []string{"true", "yes", "y"}
	defaultFalseValues = []string{"false", "no", "n"}
	defaultDateFormats = []string{
		"%Y",
		"%Y-%m-%d",
		"%Y-%m",
		"%Y%m%d",
		"%Y-%m-%dT%H:%M:%S",
		"%Y-%m-%dT%H:%M:%S.%f",
		"%Y-%m-%dT%H:%M:%S%z",
		"%Y-%m-%dT%H:%M:%S.%f%z",
		"%Y-%m-%d %H:%M:%S",
		"%Y-%m-%d %H:%M:%S.%f",
		"%Y-%m-%d %H:%M:%S%z",
		"%Y-%m-%d %H:%M:%S.%f%z",
	}
)

// DefaultGeoHints returns the hint set a fresh options entry is built with:
// a handful of common lat/lon field name conventions, including Darwin Core's.
func DefaultGeoHints() []geo.FieldHint {
	return []geo.FieldHint{
		{LatField: "lat", LonField: "lon"},
		{LatField: "latitude", LonField: "longitude"},
		{LatField: "latitude", LonField: "longitude", RadiusField: "radius"},
		{LatField: "decimalLatitude", LonField: "decimalLongitude"},
		{LatField: "decimalLatitude", LonField: "decimalLongitude", RadiusField: "coordinateUncertaintyInMeters"},
	}
}

const maxKeywordLength = 2147483647

// Options is the immutable set of rules governing how a record's values are
// parsed into searchable projections. Two options with equal fields parse
// any given value identically, which is what lets parseValue's memoization
// cache be keyed on an Options pointer.
type Options struct {
	TrueValues    map[string]struct{}
	FalseValues   map[string]struct{}
	DateFormats   []string // strftime-style, tried in order
	GeoHints      []geo.FieldHint
	KeywordLength int
	FloatFormat   string // a fmt verb, e.g. "%.15g"
}

// DefaultOptions returns the options a database gets when none have ever
// been staged: the standard true/false spellings, a broad set of common date
// layouts, Darwin Core-ish geo hints, no keyword truncation, and a
// reasonably precise float rendering.
func DefaultOptions() *Options {
	return NewOptions(
		WithTrueValues(defaultTrueValues...),
		WithFalseValues(defaultFalseValues...),
		WithDateFormats(defaultDateFormats...),
		WithGeoHints(DefaultGeoHints()...),
		WithKeywordLength(maxKeywordLength),
		WithFloatFormat("%.15g"),
	)
}

// Option configures an Options value built by NewOptions.
type Option func(*Options)

// WithTrueValues adds strings (lowercased) that count as boolean true.
func WithTrueValues(values ...string) Option {
	return func(o *Options) {
		for _, v := range values {
			if v != "" {
				o.TrueValues[strings.ToLower(v)] = struct{}{}
			}
		}
	}
}

// WithFalseValues adds strings (lowercased) that count as boolean false.
func WithFalseValues(values ...string) Option {
	return func(o *Options) {
		for _, v := range values {
			if v != "" {
				o.FalseValues[strings.ToLower(v)] = struct{}{}
			}
		}
	}
}

// WithDateFormats adds strftime-style date formats, tried in the order they
// were added across all calls.
func WithDateFormats(formats ...string) Option {
	return func(o *Options) {
		for _, f := range formats {
			if f != "" {
				o.DateFormats = append(o.DateFormats, f)
			}
		}
	}
}

// WithGeoHints adds lat/lon(/radius) field-name hints to try during parsing.
func WithGeoHints(hints ...geo.FieldHint) Option {
	return func(o *Options) {
		o.GeoHints = append(o.GeoHints, hints...)
	}
}

// WithKeywordLength sets the maximum length of the keyword projections,
// clamped to [0, 2147483647].
func WithKeywordLength(length int) Option {
	return func(o *Options) {
		if length < 0 {
			length = 0
		}
		if length > maxKeywordLength {
			length = maxKeywordLength
		}
		o.KeywordLength = length
	}
}

// WithFloatFormat sets the fmt verb used to stringify float values
// (default "%.15g").
func WithFloatFormat(format string) Option {
	return func(o *Options) {
		o.FloatFormat = format
	}
}

// NewOptions builds an Options from scratch; callers generally want
// DefaultOptions instead, customized with additional Option values.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		TrueValues:  make(map[string]struct{}),
		FalseValues: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Options) isTrue(s string) bool {
	_, ok := o.TrueValues[strings.ToLower(s)]
	return ok
}

func (o *Options) isFalse(s string) bool {
	_, ok := o.FalseValues[strings.ToLower(s)]
	return ok
}
