// Package symtab resolves type names, structure layouts and function
// parameters out of the debug_info entries of a single compile unit.
//
// Analysis happens in four passes over the entry tree of the unit: a type
// table keyed by entry identity is built first (BuildTable), type names are
// composed by following reference chains through it (Resolve), structure
// members are collected into a registry (BuildStructs) and finally the
// formal parameters of every function are extracted (Extract). Analyze runs
// all of them in order.
package symtab

import (
	"debug/dwarf"
	"sort"

	"github.com/dwarfsym/dwarfsym/pkg/dwarf/godwarf"
)

// NoRef is the terminal sentinel of a reference chain.
const NoRef = ^dwarf.Offset(0)

// Descriptor describes one entry of the type table.
type Descriptor struct {
	Key dwarf.Offset
	// Name is the primitive type name for base types, the declared name of
	// members, parameters and enumerators, a label for modifiers ("pointer",
	// "const", "struct"...) and empty for typedefs.
	Name string
	// Next is the key of the entry referenced by this one, or NoRef.
	Next dwarf.Offset
	Tag  dwarf.Tag
	// Typedef is the declared name of a typedef entry.
	Typedef string
}

// Table maps identity keys to type descriptors.
type Table struct {
	m map[dwarf.Offset]*Descriptor
}

// NewTable returns a table containing descs. Later descriptors replace
// earlier ones with the same key.
func NewTable(descs ...Descriptor) *Table {
	tab := &Table{m: make(map[dwarf.Offset]*Descriptor, len(descs))}
	for i := range descs {
		d := descs[i]
		tab.m[d.Key] = &d
	}
	return tab
}

// BuildTable walks the tree rooted at root in pre-order and returns the
// type table of every entry that carries type information. Entries of other
// kinds are skipped, their children are still visited.
func BuildTable(root *godwarf.Tree) *Table {
	tab := NewTable()
	root.Walk(func(n *godwarf.Tree) {
		if d, ok := classify(n); ok {
			tab.m[d.Key] = d
		}
	})
	return tab
}

// Len returns the number of descriptors in the table.
func (tab *Table) Len() int {
	return len(tab.m)
}

// Lookup returns the descriptor with the specified key.
func (tab *Table) Lookup(key dwarf.Offset) (Descriptor, bool) {
	d, ok := tab.m[key]
	if !ok {
		return Descriptor{}, false
	}
	return *d, true
}

// Keys returns all keys of the table in ascending order.
func (tab *Table) Keys() []dwarf.Offset {
	keys := make([]dwarf.Offset, 0, len(tab.m))
	for k := range tab.m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// modifierLabels contains the names used for the less common type
// modifiers, which terminate a reference chain.
var modifierLabels = map[dwarf.Tag]string{
	dwarf.TagClassType:       "class",
	dwarf.TagReferenceType:   "reference",
	dwarf.TagStringType:      "string",
	dwarf.TagPtrToMemberType: "ptr",
	dwarf.TagSetType:         "set",
	dwarf.TagConstant:        "constant",
	dwarf.TagFileType:        "file",
	dwarf.TagNamelist:        "namelist",
	dwarf.TagPackedType:      "packed",
	dwarf.TagVolatileType:    "volatile",
	dwarf.TagInterfaceType:   "interface",
	dwarf.TagUnspecifiedType: "unspecified",
	dwarf.TagSharedType:      "shared",
}

// classify returns the descriptor of n, or false if n does not describe
// type information or has no attribute to derive its identity from.
func classify(n *godwarf.Tree) (*Descriptor, bool) {
	var (
		keyAttr dwarf.Attr
		name    string
		next    = NoRef
	)

	switch n.Tag {
	case dwarf.TagBaseType:
		keyAttr = dwarf.AttrByteSize
		name, _ = n.Name()
	case dwarf.TagPointerType:
		name = "pointer"
		next = typeRef(n)
	case dwarf.TagStructType:
		keyAttr = dwarf.AttrName
		name = "struct"
	case dwarf.TagTypedef:
		keyAttr = dwarf.AttrName
		next = typeRef(n)
	case dwarf.TagMember, dwarf.TagFormalParameter:
		keyAttr = dwarf.AttrName
		name, _ = n.Name()
		next = typeRef(n)
	case dwarf.TagConstType:
		name = "const"
		next = typeRef(n)
	case dwarf.TagArrayType:
		keyAttr = dwarf.AttrType
		name = "array"
		next = typeRef(n)
	case dwarf.TagSubrangeType:
		keyAttr = dwarf.AttrType
		name = "subrange"
		next = typeRef(n)
	case dwarf.TagSubroutineType:
		keyAttr = dwarf.AttrType
		name = "function"
		next = typeRef(n)
	case dwarf.TagUnionType:
		name = "union"
	case dwarf.TagEnumerationType:
		keyAttr = dwarf.AttrType
		name = "enum"
		next = typeRef(n)
	case dwarf.TagEnumerator:
		name, _ = n.Name()
	case dwarf.TagRestrictType:
		keyAttr = dwarf.AttrType
		name = "restrict"
		next = typeRef(n)
	case dwarf.TagClassType, dwarf.TagReferenceType, dwarf.TagStringType,
		dwarf.TagPtrToMemberType, dwarf.TagSetType, dwarf.TagConstant,
		dwarf.TagFileType, dwarf.TagNamelist, dwarf.TagPackedType,
		dwarf.TagVolatileType, dwarf.TagInterfaceType, dwarf.TagUnspecifiedType,
		dwarf.TagSharedType:
		name = modifierLabels[n.Tag]
	default:
		return nil, false
	}

	key, ok := identity(n, keyAttr)
	if !ok {
		return nil, false
	}
	d := &Descriptor{Key: key, Name: name, Next: next, Tag: n.Tag}
	if n.Tag == dwarf.TagTypedef {
		d.Typedef, _ = n.Name()
	}
	return d, true
}

// identity returns the identity key of n, derived from the field with the
// specified attribute or, if n doesn't have it, from its first field.
func identity(n *godwarf.Tree, attr dwarf.Attr) (dwarf.Offset, bool) {
	if attr != 0 {
		if f, ok := n.AttrField(attr); ok {
			if key, ok := godwarf.IdentityKey(f); ok {
				return key, true
			}
		}
	}
	if len(n.Field) == 0 {
		return 0, false
	}
	return godwarf.IdentityKey(n.Field[0])
}

func typeRef(n *godwarf.Tree) dwarf.Offset {
	if off, ok := n.TypeRef(); ok {
		return off
	}
	return NoRef
}
