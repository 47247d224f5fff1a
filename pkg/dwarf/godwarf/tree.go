package godwarf

import (
	"debug/dwarf"
	"fmt"
)

// Field is a single attribute of a debug_info entry together with the
// position marker of its encoded value.
type Field struct {
	Attr dwarf.Attr
	Val  interface{}
	Pos  dwarf.Offset
}

// Tree represents a tree of dwarf objects.
type Tree struct {
	Tag      dwarf.Tag
	Offset   dwarf.Offset
	Field    []Field
	Children []*Tree
}

// IdentityKey returns the identity of the entry that owns f, recovered
// from the position of f: every position marker points one past the start
// of its entry.
// This is the only place where position markers are translated into the
// offset space used by type references. The second return value is false
// when f does not carry a position.
func IdentityKey(f Field) (dwarf.Offset, bool) {
	if f.Pos == 0 {
		return 0, false
	}
	return f.Pos - 1, true
}

// AttrField returns the first field of n with the specified attribute.
func (n *Tree) AttrField(attr dwarf.Attr) (Field, bool) {
	for _, f := range n.Field {
		if f.Attr == attr {
			return f, true
		}
	}
	return Field{}, false
}

// Val returns the value of the first field of n with the specified
// attribute, or nil.
func (n *Tree) Val(attr dwarf.Attr) interface{} {
	if f, ok := n.AttrField(attr); ok {
		return f.Val
	}
	return nil
}

// Name returns the DW_AT_name attribute of n.
func (n *Tree) Name() (string, bool) {
	name, ok := n.Val(dwarf.AttrName).(string)
	return name, ok
}

// TypeRef returns the DW_AT_type attribute of n.
func (n *Tree) TypeRef() (dwarf.Offset, bool) {
	off, ok := n.Val(dwarf.AttrType).(dwarf.Offset)
	return off, ok
}

// LoadTree returns the tree of DIE rooted at offset 'off'.
func LoadTree(off dwarf.Offset, dw *dwarf.Data) (*Tree, error) {
	rdr := dw.Reader()
	rdr.Seek(off)

	e, err := rdr.Next()
	if err != nil {
		return nil, fmt.Errorf("could not read entry at %#x: %v", off, err)
	}
	if e == nil {
		return nil, fmt.Errorf("no entry at %#x", off)
	}
	r := EntryToTree(e)
	r.Children, err = loadTreeChildren(e, rdr)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// EntryToTree converts a single entry, without children to a *Tree object.
// debug/dwarf does not report where each attribute was encoded, so the
// position of every field is set to one past the entry offset. With this
// convention IdentityKey maps any field back to the entry offset, which is
// the value other entries use in their DW_AT_type references.
func EntryToTree(entry *dwarf.Entry) *Tree {
	n := &Tree{Offset: entry.Offset, Tag: entry.Tag}
	if len(entry.Field) > 0 {
		n.Field = make([]Field, len(entry.Field))
	}
	for i, f := range entry.Field {
		n.Field[i] = Field{Attr: f.Attr, Val: f.Val, Pos: entry.Offset + 1}
	}
	return n
}

func loadTreeChildren(e *dwarf.Entry, rdr *dwarf.Reader) ([]*Tree, error) {
	if !e.Children {
		return nil, nil
	}
	children := []*Tree{}
	for {
		e, err := rdr.Next()
		if err != nil {
			return nil, fmt.Errorf("could not read children: %v", err)
		}
		if e == nil || e.Tag == 0 {
			break
		}
		child := EntryToTree(e)
		child.Children, err = loadTreeChildren(e, rdr)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// Walk visits n and all its descendants in pre-order, children in
// document order.
func (n *Tree) Walk(fn func(*Tree)) {
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}
