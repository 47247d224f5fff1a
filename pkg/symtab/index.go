package symtab

import (
	"sort"

	"github.com/derekparker/trie"
)

// StructRef is a structure together with the unit that declares it.
type StructRef struct {
	Unit   *Unit
	Struct *Struct
}

// FunctionRef is a function together with the unit that declares it.
type FunctionRef struct {
	Unit     *Unit
	Function *Function
}

// Index supports prefix searches over the structure and function names of
// a set of units. The same name can be declared by more than one unit.
type Index struct {
	structs *trie.Trie
	funcs   *trie.Trie
}

// NewIndex returns an index of units.
func NewIndex(units ...*Unit) *Index {
	idx := &Index{structs: trie.New(), funcs: trie.New()}
	for _, u := range units {
		if u == nil {
			continue
		}
		for _, s := range u.Structs.Sorted() {
			add(idx.structs, s.Name, StructRef{Unit: u, Struct: s})
		}
		for i := range u.Functions {
			add(idx.funcs, u.Functions[i].Name, FunctionRef{Unit: u, Function: &u.Functions[i]})
		}
	}
	return idx
}

func add(t *trie.Trie, key string, ref interface{}) {
	if key == "" {
		return
	}
	if node, ok := t.Find(key); ok {
		refs := node.Meta().(*[]interface{})
		*refs = append(*refs, ref)
		return
	}
	t.Add(key, &[]interface{}{ref})
}

func lookup(t *trie.Trie, prefix string) []interface{} {
	keys := t.PrefixSearch(prefix)
	sort.Strings(keys)
	var r []interface{}
	for _, key := range keys {
		node, ok := t.Find(key)
		if !ok {
			continue
		}
		r = append(r, *node.Meta().(*[]interface{})...)
	}
	return r
}

// Structs returns all named structures whose name starts with prefix,
// sorted by name.
func (idx *Index) Structs(prefix string) []StructRef {
	var r []StructRef
	for _, ref := range lookup(idx.structs, prefix) {
		r = append(r, ref.(StructRef))
	}
	return r
}

// Functions returns all functions whose name starts with prefix, sorted by
// name.
func (idx *Index) Functions(prefix string) []FunctionRef {
	var r []FunctionRef
	for _, ref := range lookup(idx.funcs, prefix) {
		r = append(r, ref.(FunctionRef))
	}
	return r
}
