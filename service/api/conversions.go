package api

import (
	"github.com/dwarfsym/dwarfsym/pkg/dwarf/op"
	"github.com/dwarfsym/dwarfsym/pkg/symtab"
)

// ConvertUnit converts the result of symtab.Analyze. If err is not nil it
// is recorded in the returned Unit.
func ConvertUnit(u *symtab.Unit, err error, opts ConvertOptions) Unit {
	r := Unit{Name: u.Name, Offset: uint64(u.Offset)}
	if err != nil {
		r.Err = err.Error()
	}

	for _, s := range u.Structs.Sorted() {
		r.Structs = append(r.Structs, ConvertStruct(s))
	}
	for _, fn := range u.Functions {
		r.Functions = append(r.Functions, ConvertFunction(fn, opts.LocationExpr))
	}
	for _, e := range u.Tally.Sorted() {
		r.Tally = append(r.Tally, TallyEntry{Type: e.Type, Count: e.Count})
	}
	if opts.Types && u.Types != nil {
		r.Types = ConvertTypes(u.Types)
	}
	return r
}

// ConvertStruct converts a structure layout.
func ConvertStruct(s *symtab.Struct) Struct {
	r := Struct{Key: uint64(s.Key), Name: s.Name, Members: make([]Member, 0, len(s.Members))}
	for _, m := range s.Members {
		r.Members = append(r.Members, Member{Name: m.Name, Type: m.Type})
	}
	return r
}

// ConvertFunction converts a function and its parameters.
func ConvertFunction(fn symtab.Function, locationExpr bool) Function {
	r := Function{Name: fn.Name, Params: make([]Variable, 0, len(fn.Params))}
	for _, v := range fn.Params {
		r.Params = append(r.Params, ConvertVar(v, locationExpr))
	}
	return r
}

// ConvertVar converts a parameter record.
func ConvertVar(v symtab.Variable, locationExpr bool) Variable {
	r := Variable{
		Name:     v.Name,
		Type:     v.Type,
		Struct:   v.Struct,
		Location: v.Location,
	}
	if locationExpr && len(v.Loc) > 0 {
		r.LocationExpr = op.String(v.Loc)
	}
	return r
}

// ConvertTypes converts a type table, resolving the name of every entry.
func ConvertTypes(tab *symtab.Table) []Type {
	keys := tab.Keys()
	r := make([]Type, 0, len(keys))
	for _, key := range keys {
		d, _ := tab.Lookup(key)
		t := Type{
			Key:     uint64(d.Key),
			Tag:     d.Tag.String(),
			Name:    d.Name,
			Typedef: d.Typedef,
		}
		if d.Next != symtab.NoRef {
			next := uint64(d.Next)
			t.Next = &next
		}
		resolved, err := symtab.Resolve(tab, key)
		if err != nil {
			t.Err = err.Error()
		} else {
			t.Resolved = resolved
		}
		r = append(r, t)
	}
	return r
}
