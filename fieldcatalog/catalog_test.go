package fieldcatalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgengine.dev/valueparse"
)

func TestDecompactTypesExpandsCommaSeparatedTags(t *testing.T) {
	assert.Equal(t, []string{"name.str", "name.int"}, DecompactTypes("name.str,int"))
	assert.Equal(t, []string{"tags..str"}, DecompactTypes("tags..str"))
	assert.Nil(t, DecompactTypes("name"))
}

func TestCatalogAddDataTypeAccumulatesAcrossCalls(t *testing.T) {
	c := NewCatalog()
	c.AddDataType("name.str", 3)
	c.AddDataType("name.str", 4)
	c.AddDataType("name.int", 1)

	field := c.GetDataField("name")
	require.NotNil(t, field)
	assert.Equal(t, 7, field.Count(valueparse.DataStr))
	assert.Equal(t, 1, field.Count(valueparse.DataInt))
	assert.Equal(t, 8, field.TotalCount())
}

func TestDataFieldIsListMember(t *testing.T) {
	c := NewCatalog()
	c.AddDataType("tags..str", 5)

	field := c.GetDataField("tags.")
	require.NotNil(t, field)
	assert.True(t, field.IsListMember())
	assert.Equal(t, "", field.Name())
	assert.Equal(t, 1, field.Depth())
}

func TestDataFieldsSortedByCountDescendingThenPathAscending(t *testing.T) {
	c := NewCatalog()
	c.AddDataType("b.str", 1)
	c.AddDataType("a.str", 5)
	c.AddDataType("c.str", 5)

	fields := c.DataFields()
	require.Len(t, fields, 3)
	assert.Equal(t, "a", fields[0].Path)
	assert.Equal(t, "c", fields[1].Path)
	assert.Equal(t, "b", fields[2].Path)
}

func TestDataFieldsPopulatesParentChildLinks(t *testing.T) {
	c := NewCatalog()
	c.AddDataType("owner.dict", 4)
	c.AddDataType("owner.name.str", 4)

	fields := c.DataFields()

	var owner, ownerName *DataField
	for _, f := range fields {
		switch f.Path {
		case "owner":
			owner = f
		case "owner.name":
			ownerName = f
		}
	}
	require.NotNil(t, owner)
	require.NotNil(t, ownerName)

	require.Len(t, owner.Children, 1)
	assert.Equal(t, "owner.name", owner.Children[0].Path)
	require.NotNil(t, ownerName.Parent)
	assert.Equal(t, "owner", ownerName.Parent.Path)
}

func TestGetDataFieldChildrenRequiresListOrDictParent(t *testing.T) {
	c := NewCatalog()
	c.AddDataType("owner.str", 4)
	c.AddDataType("owner.name.str", 4)

	owner := c.GetDataField("owner")
	require.NotNil(t, owner)
	assert.Empty(t, c.GetDataFieldChildren(owner), "a scalar-only field has no children even if a path happens to nest under it")
}

func TestGetDataFieldChildrenReturnsRootsWhenParentNil(t *testing.T) {
	c := NewCatalog()
	c.AddDataType("a.str", 1)
	c.AddDataType("owner.dict", 1)
	c.AddDataType("owner.name.str", 1)

	roots := c.GetDataFieldChildren(nil)
	paths := map[string]bool{}
	for _, f := range roots {
		paths[f.Path] = true
	}
	assert.True(t, paths["a"])
	assert.True(t, paths["owner"])
	assert.False(t, paths["owner.name"])
}

func TestCatalogParsedTypes(t *testing.T) {
	c := NewCatalog()
	// AddParsedType expects a single already-decomposed "<path>.<tag>" entry;
	// a compacted "<path>.<tag1>,<tag2>" string must go through
	// DecompactTypes first.
	for _, full := range DecompactTypes("name.^t,^ki,^ks") {
		c.AddParsedType(full, 2)
	}

	field := c.GetParsedField("name")
	require.NotNil(t, field)
	assert.True(t, field.IsTypes(valueparse.ParsedText, valueparse.ParsedKeywordCaseInsensitive, valueparse.ParsedKeywordCaseSensitive))
	assert.Equal(t, 6, field.TotalCount())
}
