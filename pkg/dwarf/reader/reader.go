package reader

import (
	"debug/dwarf"
	"fmt"
)

// Reader iterates over the entries of the debug_info section.
type Reader struct {
	*dwarf.Reader
}

// New returns a reader for the specified dwarf data.
func New(data *dwarf.Data) *Reader {
	return &Reader{data.Reader()}
}

// NextCompileUnit moves the reader to the next compile unit and returns its
// top entry. The children of the compile unit are skipped.
func (reader *Reader) NextCompileUnit() (*dwarf.Entry, error) {
	for entry, err := reader.Next(); entry != nil; entry, err = reader.Next() {
		if err != nil {
			return nil, err
		}

		if entry.Tag == dwarf.TagCompileUnit || entry.Tag == dwarf.TagPartialUnit {
			reader.SkipChildren()
			return entry, nil
		}
	}

	return nil, nil
}

// CompileUnits returns the offsets of the top entries of all compile units
// in data, in section order.
func CompileUnits(data *dwarf.Data) ([]dwarf.Offset, error) {
	rdr := New(data)
	var offs []dwarf.Offset
	for {
		entry, err := rdr.NextCompileUnit()
		if err != nil {
			return offs, fmt.Errorf("could not read compile unit after %d units: %v", len(offs), err)
		}
		if entry == nil {
			return offs, nil
		}
		offs = append(offs, entry.Offset)
	}
}
