package symtab

import (
	"debug/dwarf"
	"errors"
	"fmt"
	"sort"

	"github.com/dwarfsym/dwarfsym/pkg/dwarf/godwarf"
)

// ErrMemberOutsideStruct is returned when a member entry is found inside a
// structure whose registry slot could not be opened.
var ErrMemberOutsideStruct = errors.New("member outside of structure scope")

// Member is a member of a structure and its resolved type name.
type Member struct {
	Name string
	Type string
}

// Struct is the layout of a structure type.
type Struct struct {
	Key     dwarf.Offset
	Name    string
	Members []Member
}

// Registry maps the identity key of structure types to their layout.
type Registry map[dwarf.Offset]*Struct

// Sorted returns the structures of reg ordered by key, which is the order
// in which they appear in the compile unit.
func (reg Registry) Sorted() []*Struct {
	r := make([]*Struct, 0, len(reg))
	for _, s := range reg {
		r = append(r, s)
	}
	sort.Slice(r, func(i, j int) bool { return r[i].Key < r[j].Key })
	return r
}

// structScope is the walk state of BuildStructs: whether the current entry
// is inside the body of a structure and which registry slot it belongs to.
type structScope struct {
	open    bool
	hasSlot bool
	key     dwarf.Offset
}

// BuildStructs walks the tree rooted at root and returns the registry of
// all structure types found in it, with their members in document order.
// Member types are resolved against tab.
func BuildStructs(root *godwarf.Tree, tab *Table) (Registry, error) {
	return buildStructs(root, NewResolver(tab, 0))
}

func buildStructs(root *godwarf.Tree, r *Resolver) (Registry, error) {
	reg := make(Registry)
	if err := reg.collect(root, r, structScope{}); err != nil {
		return nil, err
	}
	return reg, nil
}

func (reg Registry) collect(n *godwarf.Tree, r *Resolver, sc structScope) error {
	switch n.Tag {
	case dwarf.TagStructType:
		sc = structScope{open: true}
		if key, ok := identity(n, dwarf.AttrName); ok {
			name, _ := n.Name()
			reg[key] = &Struct{Key: key, Name: name}
			sc.hasSlot, sc.key = true, key
		}

	case dwarf.TagMember:
		if !sc.open {
			// member of a union or class
			break
		}
		name, _ := n.Name()
		s := reg[sc.key]
		if !sc.hasSlot || s == nil {
			return fmt.Errorf("%w: member %q at %#x", ErrMemberOutsideStruct, name, n.Offset)
		}
		var typ string
		if ref, ok := n.TypeRef(); ok {
			var err error
			typ, err = r.Resolve(ref)
			if err != nil {
				return fmt.Errorf("member %s.%s: %w", s.Name, name, err)
			}
		}
		s.Members = append(s.Members, Member{Name: name, Type: typ})

	default:
		sc = structScope{}
	}

	for _, child := range n.Children {
		if err := reg.collect(child, r, sc); err != nil {
			return err
		}
	}
	return nil
}
