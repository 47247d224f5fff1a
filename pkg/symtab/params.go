package symtab

import (
	"debug/dwarf"
	"fmt"
	"sort"

	"github.com/dwarfsym/dwarfsym/pkg/dwarf/godwarf"
	"github.com/dwarfsym/dwarfsym/pkg/dwarf/op"
	"github.com/dwarfsym/dwarfsym/pkg/dwarf/reader"
)

// Variable is a formal parameter of a function.
type Variable struct {
	// Function is the name of the enclosing subprogram.
	Function string
	Name     string
	// Type is the composed type name.
	Type string
	// Struct is the name of the structure the type refers to, if any.
	Struct string
	// Location is the location expression rendered by op.Hex.
	Location string
	// Loc is the raw location expression.
	Loc []byte
}

// Function is a subprogram and its reportable parameters.
type Function struct {
	Name   string
	Params []Variable
}

// Tally counts how many parameters have a given direct type name.
type Tally map[string]int

// TallyEntry is one row of a Tally.
type TallyEntry struct {
	Type  string
	Count int
}

// Sorted returns the rows of t ordered by descending count, then by type
// name.
func (t Tally) Sorted() []TallyEntry {
	r := make([]TallyEntry, 0, len(t))
	for typ, n := range t {
		r = append(r, TallyEntry{typ, n})
	}
	sort.Slice(r, func(i, j int) bool {
		if r[i].Count != r[j].Count {
			return r[i].Count > r[j].Count
		}
		return r[i].Type < r[j].Type
	})
	return r
}

// Extract returns the parameters of every function declared directly
// under root, except the function named entryPoint, and the tally of their
// direct type names. Parameters without a name are omitted.
func Extract(root *godwarf.Tree, tab *Table, structs Registry, entryPoint string) (Tally, []Variable, error) {
	tally, fns, err := extractFunctions(root, tab, structs, entryPoint)
	if err != nil {
		return nil, nil, err
	}
	var vars []Variable
	for _, fn := range fns {
		vars = append(vars, fn.Params...)
	}
	return tally, vars, nil
}

func extractFunctions(root *godwarf.Tree, tab *Table, structs Registry, entryPoint string) (Tally, []Function, error) {
	tally := make(Tally)
	var fns []Function
	for _, sp := range reader.Subprograms(root) {
		fnname, ok := sp.Name()
		if !ok || fnname == entryPoint {
			continue
		}
		fn := Function{Name: fnname}
		for _, param := range reader.FormalParameters(sp) {
			v, ok, err := parameter(param, tab, structs, tally)
			if err != nil {
				return nil, nil, fmt.Errorf("function %s: %w", fnname, err)
			}
			if !ok {
				continue
			}
			v.Function = fnname
			fn.Params = append(fn.Params, v)
		}
		fns = append(fns, fn)
	}
	return tally, fns, nil
}

// parameter returns the variable record of a formal parameter entry and
// updates tally with its direct type name. Returns false if the parameter
// has no name.
func parameter(n *godwarf.Tree, tab *Table, structs Registry, tally Tally) (Variable, bool, error) {
	name, _ := n.Name()
	if name == "" {
		return Variable{}, false, nil
	}
	v := Variable{Name: name}

	if ref, ok := n.TypeRef(); ok {
		if d, ok := tab.Lookup(ref); ok {
			v.Type = d.Name
			tally[d.Name]++
		}
		var err error
		v.Type, err = tab.walk(ref, v.Type, func(d Descriptor) {
			if d.Name != "struct" {
				return
			}
			if s, ok := structs[d.Key]; ok {
				v.Struct = s.Name
			}
		})
		if err != nil {
			return Variable{}, false, fmt.Errorf("parameter %s: %w", name, err)
		}
	}

	if loc, ok := n.Val(dwarf.AttrLocation).([]byte); ok {
		v.Loc = loc
		v.Location = op.Hex(loc)
	}
	return v, true, nil
}
