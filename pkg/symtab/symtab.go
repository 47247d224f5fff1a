package symtab

import (
	"debug/dwarf"
	"fmt"

	"github.com/dwarfsym/dwarfsym/pkg/dwarf/godwarf"
	"github.com/dwarfsym/dwarfsym/pkg/logflags"
)

// DefaultEntryPoint is the name of the function whose parameters are not
// extracted unless Config says otherwise.
const DefaultEntryPoint = "main"

// Config controls Analyze.
type Config struct {
	// EntryPoint is the name of the program entry point, defaults to
	// DefaultEntryPoint.
	EntryPoint string
	// CacheSize is the number of resolved type names remembered while
	// building the struct registry. Zero disables the cache.
	CacheSize int
}

func (cfg Config) entryPoint() string {
	if cfg.EntryPoint == "" {
		return DefaultEntryPoint
	}
	return cfg.EntryPoint
}

// Unit is the result of analyzing one compile unit.
type Unit struct {
	Name   string
	Offset dwarf.Offset

	Types     *Table
	Structs   Registry
	Tally     Tally
	Functions []Function
}

// Vars returns the parameters of all functions of u, in order.
func (u *Unit) Vars() []Variable {
	var vars []Variable
	for _, fn := range u.Functions {
		vars = append(vars, fn.Params...)
	}
	return vars
}

// UnitError is returned when the struct or parameter data of a compile unit
// could not be resolved.
type UnitError struct {
	Unit   string
	Offset dwarf.Offset
	Err    error
}

func (err *UnitError) Error() string {
	return fmt.Sprintf("compile unit %q at %#x: %v", err.Unit, err.Offset, err.Err)
}

func (err *UnitError) Unwrap() error {
	return err.Err
}

// Analyze builds the type table, struct registry and parameter records of
// the compile unit rooted at root. Every call uses its own tables, so
// different units can be analyzed concurrently.
// If the struct registry or the parameter records can not be built the
// returned unit only contains the type table and the error is a *UnitError.
func Analyze(root *godwarf.Tree, cfg Config) (*Unit, error) {
	u := &Unit{Offset: root.Offset}
	u.Name, _ = root.Name()

	log := logflags.SymtabLogger().WithUnit(u.Name, u.Offset)

	u.Types = BuildTable(root)
	log.Debugf("type table: %d descriptors", u.Types.Len())

	structs, err := buildStructs(root, NewResolver(u.Types, cfg.CacheSize))
	if err != nil {
		log.WithError(err).Warn("struct registry")
		return u, &UnitError{Unit: u.Name, Offset: u.Offset, Err: err}
	}
	log.Debugf("struct registry: %d structures", len(structs))

	tally, fns, err := extractFunctions(root, u.Types, structs, cfg.entryPoint())
	if err != nil {
		log.WithError(err).Warn("parameters")
		return u, &UnitError{Unit: u.Name, Offset: u.Offset, Err: err}
	}
	u.Structs, u.Tally, u.Functions = structs, tally, fns
	log.Debugf("%d functions, %d distinct parameter types", len(fns), len(tally))

	return u, nil
}
