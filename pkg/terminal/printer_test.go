package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dwarfsym/dwarfsym/service/api"
)

func pointUnit() *api.Unit {
	next := uint64(0x30)
	return &api.Unit{
		Name:   "point.c",
		Offset: 0xb,
		Structs: []api.Struct{
			{Key: 0x30, Name: "Point", Members: []api.Member{{Name: "x", Type: "int"}, {Name: "y", Type: "int"}}},
		},
		Functions: []api.Function{
			{Name: "distance", Params: []api.Variable{
				{Name: "p", Type: "struct pointer", Struct: "Point", Location: "0x9168", LocationExpr: "DW_OP_fbreg -24"},
				{Name: "n", Type: "int"},
			}},
		},
		Tally: []api.TallyEntry{{Type: "pointer", Count: 1}, {Type: "", Count: 1}},
		Types: []api.Type{
			{Key: 0x30, Tag: "StructType", Name: "struct", Resolved: "struct"},
			{Key: 0x60, Tag: "PointerType", Name: "pointer", Next: &next, Resolved: "struct pointer"},
			{Key: 0x70, Tag: "Typedef", Typedef: "point_t", Next: &next, Resolved: "struct "},
		},
	}
}

func TestStructs(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf}
	p.Structs(pointUnit())
	const tgt = "Struct data\nName: Point : \nx - int\ny - int\n\n"
	if buf.String() != tgt {
		t.Errorf("expected:\n%q\ngot:\n%q", tgt, buf.String())
	}
}

func TestFunctions(t *testing.T) {
	for _, showLoc := range []bool{false, true} {
		var buf bytes.Buffer
		p := &Printer{Out: &buf, ShowLocationExpr: showLoc}
		p.Functions(pointUnit())
		tgt := "Function name: distance\nParameters of function:\np - struct pointer (Point) @ 0x9168\nn - int\n\n"
		if showLoc {
			tgt = strings.Replace(tgt, "0x9168\n", "0x9168 [DW_OP_fbreg -24]\n", 1)
		}
		if buf.String() != tgt {
			t.Errorf("showLoc=%v expected:\n%q\ngot:\n%q", showLoc, tgt, buf.String())
		}
	}
}

func TestTally(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf}
	p.Tally(pointUnit())
	const tgt = "pointer    1\n<unnamed>  1\n"
	if buf.String() != tgt {
		t.Errorf("expected:\n%q\ngot:\n%q", tgt, buf.String())
	}
}

func TestTypes(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf}
	p.Types(pointUnit())
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("wrong number of lines:\n%s", buf.String())
	}
	for i, tgt := range [][]string{
		{"key", "tag", "name", "next", "resolved"},
		{"0x30", "StructType", "struct", "-", "struct"},
		{"0x60", "PointerType", "pointer", "0x30", "struct", "pointer"},
		{"0x70", "Typedef", "typedef", "point_t", "0x30", "struct"},
	} {
		if got := strings.Fields(lines[i]); strings.Join(got, " ") != strings.Join(tgt, " ") {
			t.Errorf("line %d: expected %q got %q", i, tgt, got)
		}
	}
}

func TestColor(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Color: true}
	p.UnitHeader(&api.Unit{Name: "point.c", Offset: 0xb, Err: "bad"})
	out := buf.String()
	if !strings.Contains(out, "\033[34mCompile unit point.c\033[0m at offset 0xb") {
		t.Errorf("missing colored header: %q", out)
	}
	if !strings.Contains(out, "\033[31m  error: bad\033[0m") {
		t.Errorf("missing colored error: %q", out)
	}

	buf.Reset()
	p.Color = false
	p.UnitHeader(&api.Unit{Name: "point.c", Offset: 0xb})
	if buf.String() != "Compile unit point.c at offset 0xb\n" {
		t.Errorf("unexpected header %q", buf.String())
	}
}
