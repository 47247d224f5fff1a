package api

import (
	"debug/dwarf"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarfsym/dwarfsym/pkg/symtab"
)

func pointUnit() *symtab.Unit {
	return &symtab.Unit{
		Name:   "point.c",
		Offset: 0xb,
		Types: symtab.NewTable(
			symtab.Descriptor{Key: 0x20, Name: "int", Next: symtab.NoRef, Tag: dwarf.TagBaseType},
			symtab.Descriptor{Key: 0x30, Name: "struct", Next: symtab.NoRef, Tag: dwarf.TagStructType},
			symtab.Descriptor{Key: 0x60, Name: "pointer", Next: 0x30, Tag: dwarf.TagPointerType},
		),
		Structs: symtab.Registry{
			0x30: {Key: 0x30, Name: "Point", Members: []symtab.Member{{Name: "x", Type: "int"}, {Name: "y", Type: "int"}}},
		},
		Tally: symtab.Tally{"pointer": 1},
		Functions: []symtab.Function{
			{Name: "distance", Params: []symtab.Variable{
				{Function: "distance", Name: "p", Type: "struct pointer", Struct: "Point", Location: "0x9168", Loc: []byte{0x91, 0x68}},
			}},
			{Name: "noargs"},
		},
	}
}

func TestConvertUnit(t *testing.T) {
	u := ConvertUnit(pointUnit(), nil, ConvertOptions{})
	assert.Equal(t, "point.c", u.Name)
	assert.Equal(t, uint64(0xb), u.Offset)
	assert.Empty(t, u.Err)
	assert.Nil(t, u.Types)
	assert.Equal(t, []Struct{{Key: 0x30, Name: "Point", Members: []Member{{"x", "int"}, {"y", "int"}}}}, u.Structs)
	assert.Equal(t, []TallyEntry{{"pointer", 1}}, u.Tally)
	require.Len(t, u.Functions, 2)
	assert.Equal(t, Variable{Name: "p", Type: "struct pointer", Struct: "Point", Location: "0x9168"}, u.Functions[0].Params[0])
	assert.Empty(t, u.Functions[1].Params)
}

func TestConvertUnitOptions(t *testing.T) {
	u := ConvertUnit(pointUnit(), errors.New("boom"), ConvertOptions{Types: true, LocationExpr: true})
	assert.Equal(t, "boom", u.Err)
	assert.Equal(t, "DW_OP_fbreg -24", u.Functions[0].Params[0].LocationExpr)

	require.Len(t, u.Types, 3)
	assert.Equal(t, "int", u.Types[0].Resolved)
	assert.Nil(t, u.Types[0].Next)
	assert.Equal(t, "BaseType", u.Types[0].Tag)
	require.NotNil(t, u.Types[2].Next)
	assert.Equal(t, uint64(0x30), *u.Types[2].Next)
	assert.Equal(t, "struct pointer", u.Types[2].Resolved)
}

func TestConvertTypesCycle(t *testing.T) {
	tab := symtab.NewTable(
		symtab.Descriptor{Key: 1, Name: "pointer", Next: 2},
		symtab.Descriptor{Key: 2, Name: "const", Next: 1},
	)
	types := ConvertTypes(tab)
	require.Len(t, types, 2)
	for _, typ := range types {
		assert.Empty(t, typ.Resolved)
		assert.NotEmpty(t, typ.Err)
	}
}

func TestUnitJSON(t *testing.T) {
	buf, err := json.Marshal(ConvertUnit(pointUnit(), nil, ConvertOptions{}))
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(buf, &m))
	assert.Equal(t, "point.c", m["name"])
	assert.NotContains(t, m, "types")
	assert.NotContains(t, m, "error")
	fns := m["functions"].([]interface{})
	p := fns[0].(map[string]interface{})["params"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Point", p["struct"])
	assert.Equal(t, "0x9168", p["location"])
}
