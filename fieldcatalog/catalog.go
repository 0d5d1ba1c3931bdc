package fieldcatalog

import (
	"sort"
	"strconv"
	"strings"

	"sgengine.dev/valueparse"
)

// DataField describes one path in a database's source data, with a count
// of how many records hold a value of each source kind (null, str, int,
// float, bool, list, dict) at that path.
type DataField struct {
	Field[valueparse.DataType]
}

// IsListMember reports whether this field is a direct member of a list
// (its path contains an empty segment).
func (f *DataField) IsListMember() bool {
	return isListMember(f.Path)
}

// ParsedField describes one path in a database's parsed (indexed) data,
// with a count of how many records hold each parsed-type tag at that path.
type ParsedField struct {
	Field[valueparse.ParsedType]
}

// Catalog aggregates data-type and parsed-type counts across a scan of a
// database's indexed documents, keyed by field path.
type Catalog struct {
	dataFields   map[string]*DataField
	parsedFields map[string]*ParsedField
}

// NewCatalog returns an empty Catalog ready to accumulate counts.
func NewCatalog() *Catalog {
	return &Catalog{
		dataFields:   map[string]*DataField{},
		parsedFields: map[string]*ParsedField{},
	}
}

// AddDataType records count occurrences of one "<path>.<type>" data-type
// entry (a single type, already decomposed from a compacted
// "<path>.<tag1>,<tag2>" string via DecompactTypes).
func (c *Catalog) AddDataType(fullPath string, count int) {
	path, dataType := rsplitLast(fullPath)
	field, ok := c.dataFields[path]
	if !ok {
		field = &DataField{Field: *newField[valueparse.DataType](path)}
		c.dataFields[path] = field
	}
	field.AddType(valueparse.DataType(dataType), field.Count(valueparse.DataType(dataType))+count)
}

// AddParsedType records count occurrences of one "<path>.<tag>" parsed-type
// entry (a single tag, already decomposed from a compacted string).
func (c *Catalog) AddParsedType(fullPath string, count int) {
	path, tag := rsplitLast(fullPath)
	field, ok := c.parsedFields[path]
	if !ok {
		field = &ParsedField{Field: *newField[valueparse.ParsedType](path)}
		c.parsedFields[path] = field
	}
	field.AddType(valueparse.ParsedType(tag), field.Count(valueparse.ParsedType(tag))+count)
}

// rsplitLast splits s on its last "." into (path, suffix), matching
// Python's str.rsplit(".", 1).
func rsplitLast(s string) (string, string) {
	idx := strings.LastIndex(s, ".")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}

// GetDataField returns the DataField at path, or nil if nothing was ever
// recorded there.
func (c *Catalog) GetDataField(path string) *DataField {
	return c.dataFields[path]
}

// GetParsedField returns the ParsedField at path, or nil if nothing was
// ever recorded there.
func (c *Catalog) GetParsedField(path string) *ParsedField {
	return c.parsedFields[path]
}

// DataFields builds the full data-field hierarchy (Parent/Children links
// populated from path structure) and returns it sorted by total record
// count descending, then path ascending.
func (c *Catalog) DataFields() []*DataField {
	fields := make([]*DataField, 0, len(c.dataFields))
	for _, f := range c.dataFields {
		fields = append(fields, f)
	}
	linkDataHierarchy(c.dataFields, fields)
	sort.Slice(fields, func(i, j int) bool {
		return lessByCountThenPath(fields[i].TotalCount(), fields[i].Path, fields[j].TotalCount(), fields[j].Path)
	})
	return fields
}

// ParsedFields builds the full parsed-field hierarchy and returns it
// sorted by total record count descending, then path ascending.
func (c *Catalog) ParsedFields() []*ParsedField {
	fields := make([]*ParsedField, 0, len(c.parsedFields))
	for _, f := range c.parsedFields {
		fields = append(fields, f)
	}
	linkParsedHierarchy(c.parsedFields, fields)
	sort.Slice(fields, func(i, j int) bool {
		return lessByCountThenPath(fields[i].TotalCount(), fields[i].Path, fields[j].TotalCount(), fields[j].Path)
	})
	return fields
}

func lessByCountThenPath(countI int, pathI string, countJ int, pathJ string) bool {
	if countI != countJ {
		return countI > countJ
	}
	return pathI < pathJ
}

// GetDataFieldChildren returns parent's direct children (fields one depth
// deeper whose path is prefixed by parent's), or the root fields (depth 0)
// if parent is nil. A parent with no list/dict occurrences has no
// children by construction (scalars can't contain nested fields).
func (c *Catalog) GetDataFieldChildren(parent *DataField) []*DataField {
	if parent == nil {
		var roots []*DataField
		for _, f := range c.dataFields {
			if f.Depth() == 0 {
				roots = append(roots, f)
			}
		}
		return roots
	}
	if !parent.IsTypes(valueparse.DataList, valueparse.DataDict) {
		return nil
	}
	var children []*DataField
	prefix := parent.Path + "."
	for _, f := range c.dataFields {
		if f.Depth() == parent.Depth()+1 && strings.HasPrefix(f.Path, prefix) {
			children = append(children, f)
		}
	}
	return children
}

func linkDataHierarchy(byPath map[string]*DataField, fields []*DataField) {
	for _, f := range fields {
		f.Parent = nil
		f.Children = nil
	}
	for _, f := range fields {
		if parentPath, ok := parentOf(f.Path); ok {
			if parent, ok := byPath[parentPath]; ok {
				f.Parent = &parent.Field
				parent.Children = append(parent.Children, &f.Field)
			}
		}
	}
}

func linkParsedHierarchy(byPath map[string]*ParsedField, fields []*ParsedField) {
	for _, f := range fields {
		f.Parent = nil
		f.Children = nil
	}
	for _, f := range fields {
		if parentPath, ok := parentOf(f.Path); ok {
			if parent, ok := byPath[parentPath]; ok {
				f.Parent = &parent.Field
				parent.Children = append(parent.Children, &f.Field)
			}
		}
	}
}

// parentOf returns the path one level up (everything before the last "."),
// or ok=false for a root path.
func parentOf(path string) (string, bool) {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "", false
	}
	return path[:idx], true
}

// DecompactTypes expands a compacted "<path>.<tag1>,<tag2>,..." entry (the
// form valueparse.Parse emits) into one "<path>.<tag>" entry per tag, for
// feeding into AddDataType/AddParsedType.
func DecompactTypes(entry string) []string {
	path, tags := rsplitLast(entry)
	if tags == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, tag := range parts {
		out = append(out, path+"."+tag)
	}
	return out
}

// ParseCount is a convenience for callers decoding aggregation bucket
// counts that arrive as strings from the search store's response JSON.
func ParseCount(s string) (int, error) {
	return strconv.Atoi(s)
}
