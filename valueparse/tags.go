// Package valueparse turns a normalized record's scalars into the multi-typed
// projections the search store indexes: text, case-sensitive and
// case-insensitive keyword, number, boolean, date, and geo point/shape. It
// also builds the per-path type catalogs (data_types, parsed_types) used by
// the field catalog.
package valueparse

import "strings"

// ParsedType is the tag under which a parsed representation of a value is
// stored. The string values match the wire tags the original indexer used so
// that a reader familiar with either can recognize them.
type ParsedType string

const (
	ParsedNumber                 ParsedType = "^n"
	ParsedDate                   ParsedType = "^d"
	ParsedBoolean                ParsedType = "^b"
	ParsedText                   ParsedType = "^t"
	ParsedKeywordCaseInsensitive ParsedType = "^ki"
	ParsedKeywordCaseSensitive   ParsedType = "^ks"
	ParsedGeoPoint               ParsedType = "^gp"
	ParsedGeoShape               ParsedType = "^gs"
)

// DataType describes the kind of value found in the source data at a given
// path, independent of how it was subsequently parsed.
type DataType string

const (
	DataNull  DataType = "nonetype"
	DataStr   DataType = "str"
	DataInt   DataType = "int"
	DataFloat DataType = "float"
	DataBool  DataType = "bool"
	DataList  DataType = "list"
	DataDict  DataType = "dict"
)

// DocumentField names the top-level fields of an indexed document.
type DocumentField string

const (
	FieldID          DocumentField = "id"
	FieldVersion     DocumentField = "version"
	FieldNext        DocumentField = "next"
	FieldVersions    DocumentField = "versions"
	FieldData        DocumentField = "data"
	FieldParsed      DocumentField = "parsed"
	FieldDataTypes   DocumentField = "data_types"
	FieldParsedTypes DocumentField = "parsed_types"
	FieldAllText     DocumentField = "all_text"
	FieldAllPoints   DocumentField = "all_points"
	FieldAllShapes   DocumentField = "all_shapes"
)

// IsFieldValid reports whether name is usable as a field in user-supplied
// data: non-empty, and free of the characters this package reserves for its
// own path syntax ("^" separates a field from its parsed-type tag, "."
// separates path segments).
func IsFieldValid(name string) bool {
	return name != "" && !strings.Contains(name, "^") && !strings.Contains(name, ".")
}

// ParsedPath builds the dotted path to a field's parsed representation,
// optionally under a specific parsed type tag. With full=true the "parsed."
// prefix is included, matching how paths are expressed against an indexed
// document.
func ParsedPath(field string, tag ParsedType, full bool) string {
	path := field
	if tag != "" {
		path = field + "." + string(tag)
	}
	if full {
		return string(FieldParsed) + "." + path
	}
	return path
}
