// Package terminal renders analysis results as text.
package terminal

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/dwarfsym/dwarfsym/service/api"
)

const (
	terminalHighlightEscapeCode string = "\033[%2dm"
	terminalResetEscapeCode     string = "\033[0m"
)

const (
	ansiRed     = 31
	ansiGreen   = 32
	ansiYellow  = 33
	ansiBlue    = 34
	ansiMagenta = 35
)

// Style describes the style of a chunk of text.
type Style uint8

const (
	NormalStyle Style = iota
	HeaderStyle
	NameStyle
	TypeStyle
	LocationStyle
	ErrorStyle
)

var defaultColors = map[Style]int{
	HeaderStyle:   ansiBlue,
	NameStyle:     ansiGreen,
	TypeStyle:     ansiYellow,
	LocationStyle: ansiMagenta,
	ErrorStyle:    ansiRed,
}

// Printer writes analysis results to Out.
type Printer struct {
	Out io.Writer
	// Color enables ANSI color escapes.
	Color bool
	// ShowLocationExpr prints the decoded location expression of
	// parameters, when available.
	ShowLocationExpr bool
}

// Stdout returns a writer for standard output that understands ANSI color
// escapes on every platform, and whether standard output is a terminal.
func Stdout() (io.Writer, bool) {
	return colorable.NewColorableStdout(), isatty.IsTerminal(os.Stdout.Fd())
}

func (p *Printer) colorize(style Style, s string) string {
	if !p.Color {
		return s
	}
	code, ok := defaultColors[style]
	if !ok {
		return s
	}
	return fmt.Sprintf(terminalHighlightEscapeCode, code) + s + terminalResetEscapeCode
}

// UnitHeader prints the line introducing a compile unit.
func (p *Printer) UnitHeader(u *api.Unit) {
	fmt.Fprintf(p.Out, "%s at offset %#x\n", p.colorize(HeaderStyle, "Compile unit "+u.Name), u.Offset)
	if u.Err != "" {
		fmt.Fprintf(p.Out, "%s\n", p.colorize(ErrorStyle, "  error: "+u.Err))
	}
}

// Structs prints the struct registry of u, one block per structure:
//
//	Name: Point :
//	x - int
//	y - int
func (p *Printer) Structs(u *api.Unit) {
	fmt.Fprintln(p.Out, "Struct data")
	for _, s := range u.Structs {
		fmt.Fprintf(p.Out, "Name: %s : \n", p.colorize(NameStyle, s.Name))
		for _, m := range s.Members {
			fmt.Fprintf(p.Out, "%s - %s\n", m.Name, p.colorize(TypeStyle, m.Type))
		}
		fmt.Fprintln(p.Out)
	}
}

// Functions prints the parameters of every function of u.
func (p *Printer) Functions(u *api.Unit) {
	for _, fn := range u.Functions {
		fmt.Fprintf(p.Out, "Function name: %s\n", p.colorize(NameStyle, fn.Name))
		fmt.Fprintln(p.Out, "Parameters of function:")
		for _, v := range fn.Params {
			p.variable(v)
		}
		fmt.Fprintln(p.Out)
	}
}

func (p *Printer) variable(v api.Variable) {
	fmt.Fprintf(p.Out, "%s - %s", v.Name, p.colorize(TypeStyle, v.Type))
	if v.Struct != "" {
		fmt.Fprintf(p.Out, " (%s)", p.colorize(NameStyle, v.Struct))
	}
	if v.Location != "" {
		fmt.Fprintf(p.Out, " @ %s", p.colorize(LocationStyle, v.Location))
	}
	if p.ShowLocationExpr && v.LocationExpr != "" {
		fmt.Fprintf(p.Out, " [%s]", v.LocationExpr)
	}
	fmt.Fprintln(p.Out)
}

// Tally prints the parameter type tally of u, most common types first.
func (p *Printer) Tally(u *api.Unit) {
	w := new(tabwriter.Writer)
	w.Init(p.Out, 0, 8, 2, ' ', 0)
	for _, e := range u.Tally {
		typ := e.Type
		if typ == "" {
			typ = "<unnamed>"
		}
		fmt.Fprintf(w, "%s\t%d\n", typ, e.Count)
	}
	w.Flush()
}

// Types prints the type table of u.
func (p *Printer) Types(u *api.Unit) {
	w := new(tabwriter.Writer)
	w.Init(p.Out, 0, 8, 1, ' ', 0)
	fmt.Fprintln(w, "key\ttag\tname\tnext\tresolved")
	for _, t := range u.Types {
		next := "-"
		if t.Next != nil {
			next = fmt.Sprintf("%#x", *t.Next)
		}
		name := t.Name
		if t.Typedef != "" {
			name = "typedef " + t.Typedef
		}
		resolved := t.Resolved
		if t.Err != "" {
			resolved = "error: " + t.Err
		}
		fmt.Fprintf(w, "%#x\t%s\t%s\t%s\t%s\n", t.Key, t.Tag, name, next, resolved)
	}
	w.Flush()
}
