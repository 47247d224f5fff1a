package reader

import (
	"debug/dwarf"

	"github.com/dwarfsym/dwarfsym/pkg/dwarf/godwarf"
)

// Subprograms returns the DW_TAG_subprogram entries that are direct
// children of root, in document order.
func Subprograms(root *godwarf.Tree) []*godwarf.Tree {
	return childrenWithTag(root, dwarf.TagSubprogram)
}

// FormalParameters returns the DW_TAG_formal_parameter entries that are
// direct children of fn, in document order. Parameters of nested lexical
// blocks and inlined calls are not returned.
func FormalParameters(fn *godwarf.Tree) []*godwarf.Tree {
	return childrenWithTag(fn, dwarf.TagFormalParameter)
}

func childrenWithTag(n *godwarf.Tree, tag dwarf.Tag) []*godwarf.Tree {
	var r []*godwarf.Tree
	for _, child := range n.Children {
		if child.Tag == tag {
			r = append(r, child)
		}
	}
	return r
}
