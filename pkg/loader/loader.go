// Package loader opens executable files and runs the analysis of
// package symtab on each of their compile units.
package loader

import (
	"debug/dwarf"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dwarfsym/dwarfsym/pkg/dwarf/godwarf"
	"github.com/dwarfsym/dwarfsym/pkg/dwarf/reader"
	"github.com/dwarfsym/dwarfsym/pkg/logflags"
	"github.com/dwarfsym/dwarfsym/pkg/symtab"
)

var (
	// ErrUnknownFormat is returned by Open when the file is not an ELF,
	// Mach-O or PE executable.
	ErrUnknownFormat = errors.New("unrecognized executable format")
	// ErrNoDebugInfo is returned by Open when the executable does not
	// contain DWARF debug_info.
	ErrNoDebugInfo = errors.New("could not find debug info")
)

// Binary is an executable file and its debug info.
type Binary struct {
	Path   string
	Format string

	dwarf  *dwarf.Data
	closer io.Closer
}

// Config controls Analyze.
type Config struct {
	symtab.Config
	// Concurrency is the maximum number of compile units analyzed at the
	// same time, values less than 1 mean one.
	Concurrency int
}

// Open opens the executable at path.
func Open(path string) (*Binary, error) {
	log := logflags.LoaderLogger().WithField("path", path)

	if exe, err := elf.Open(path); err == nil {
		log.Debug("ELF executable")
		return newBinary(path, "elf", exe, exe.DWARF)
	}
	if exe, err := macho.Open(path); err == nil {
		log.Debug("Mach-O executable")
		return newBinary(path, "macho", exe, exe.DWARF)
	}
	if exe, err := pe.Open(path); err == nil {
		log.Debug("PE executable")
		return newBinary(path, "pe", exe, exe.DWARF)
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
}

func newBinary(path, format string, closer io.Closer, load func() (*dwarf.Data, error)) (*Binary, error) {
	data, err := load()
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("%s: %w: %v", path, ErrNoDebugInfo, err)
	}
	return &Binary{Path: path, Format: format, dwarf: data, closer: closer}, nil
}

// New returns a Binary for debug info that was already loaded.
func New(name string, data *dwarf.Data) *Binary {
	return &Binary{Path: name, dwarf: data}
}

// Close closes the underlying executable file.
func (bin *Binary) Close() error {
	if bin.closer == nil {
		return nil
	}
	return bin.closer.Close()
}

// DwarfReader returns a reader for the dwarf data
func (bin *Binary) DwarfReader() *reader.Reader {
	return reader.New(bin.dwarf)
}

// Units returns the entry trees of every compile unit of the binary, in
// section order.
func (bin *Binary) Units() ([]*godwarf.Tree, error) {
	offs, err := reader.CompileUnits(bin.dwarf)
	if err != nil {
		return nil, err
	}
	units := make([]*godwarf.Tree, 0, len(offs))
	for _, off := range offs {
		root, err := godwarf.LoadTree(off, bin.dwarf)
		if err != nil {
			return nil, err
		}
		units = append(units, root)
	}
	return units, nil
}

// Analyze runs symtab.Analyze on every compile unit of the binary. The
// returned slice has one element per compile unit, in section order. A
// compile unit that fails to analyze does not prevent the analysis of the
// others: its error is appended to the returned errors and its element
// holds whatever Analyze returned with it.
func (bin *Binary) Analyze(cfg Config) ([]*symtab.Unit, []error) {
	log := logflags.LoaderLogger().WithField("path", bin.Path)

	roots, err := bin.Units()
	if err != nil {
		return nil, []error{err}
	}
	log.Debugf("%d compile units", len(roots))

	n := cfg.Concurrency
	if n < 1 {
		n = 1
	}

	units := make([]*symtab.Unit, len(roots))
	errs := make([]error, len(roots))
	sem := make(chan struct{}, n)
	var wg sync.WaitGroup
	for i := range roots {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer func() {
				<-sem
				wg.Done()
			}()
			units[i], errs[i] = symtab.Analyze(roots[i], cfg.Config)
		}(i)
	}
	wg.Wait()

	var r []error
	for _, err := range errs {
		if err != nil {
			log.WithError(err).Warn("analysis failed")
			r = append(r, err)
		}
	}
	return units, r
}
