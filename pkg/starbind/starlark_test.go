package starbind

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"go.starlark.net/starlark"

	"github.com/dwarfsym/dwarfsym/service/api"
)

type fakeContext struct {
	units []api.Unit
}

func (ctx *fakeContext) Units() []api.Unit { return ctx.units }

func (ctx *fakeContext) FindStructs(prefix string) []api.Struct {
	var r []api.Struct
	for _, u := range ctx.units {
		for _, s := range u.Structs {
			if strings.HasPrefix(s.Name, prefix) {
				r = append(r, s)
			}
		}
	}
	return r
}

func (ctx *fakeContext) FindFunctions(prefix string) []api.Function {
	var r []api.Function
	for _, u := range ctx.units {
		for _, fn := range u.Functions {
			if strings.HasPrefix(fn.Name, prefix) {
				r = append(r, fn)
			}
		}
	}
	return r
}

func newTestEnv() (*Env, *bytes.Buffer) {
	next := uint64(0x30)
	ctx := &fakeContext{units: []api.Unit{{
		Name:   "point.c",
		Offset: 0xb,
		Structs: []api.Struct{
			{Key: 0x30, Name: "Point", Members: []api.Member{{Name: "x", Type: "int"}, {Name: "y", Type: "int"}}},
		},
		Functions: []api.Function{
			{Name: "distance", Params: []api.Variable{{Name: "p", Type: "struct pointer", Struct: "Point", Location: "0x9168"}}},
		},
		Tally: []api.TallyEntry{{Type: "pointer", Count: 1}},
		Types: []api.Type{{Key: 0x60, Tag: "PointerType", Name: "pointer", Next: &next, Resolved: "struct pointer"}},
	}}}
	var buf bytes.Buffer
	return New(ctx, &buf), &buf
}

func TestExecute(t *testing.T) {
	env, out := newTestEnv()
	const script = `
def main():
    for u in units():
        print(u.Name, u.Offset)
        for s in u.Structs:
            print(s.Name, [m.Name + ":" + m.Type for m in s.Members])
        for fn in u.Functions:
            for p in fn.Params:
                print(fn.Name, p.Name, p.Type, p.Struct, p.Location)
        print(u.Tally["pointer"])
        print(u.Types[0].Next, u.Types[0].Resolved)
    print(len(find_structs("Po")), len(find_structs("Q")), find_functions()[0].Name)
`
	_, err := env.Execute("test.star", script, "main", nil)
	if err != nil {
		t.Fatal(err)
	}
	const tgt = `point.c 11
Point ["x:int", "y:int"]
distance p struct pointer Point 0x9168
1
48 struct pointer
1 0 distance
`
	if out.String() != tgt {
		t.Errorf("expected:\n%s\ngot:\n%s", tgt, out.String())
	}
}

func TestExecuteMainArgs(t *testing.T) {
	env, _ := newTestEnv()
	v, err := env.Execute("test.star", "def main(a, b):\n    return a + b\n", "main", []interface{}{"foo", "bar"})
	if err != nil {
		t.Fatal(err)
	}
	if v != starlark.String("foobar") {
		t.Errorf("wrong return value %v", v)
	}

	_, err = env.Execute("test.star", "def main(a):\n    return a\n", "main", nil)
	if err == nil {
		t.Error("expected error for wrong number of arguments")
	}

	v, err = env.Execute("test.star", "x = 1\n", "main", nil)
	if err != nil || v != starlark.None {
		t.Errorf("script without main: %v %v", v, err)
	}
}

func TestExecuteErrors(t *testing.T) {
	env, _ := newTestEnv()
	for _, src := range []string{
		"units(1)",
		"find_structs(1)",
		"units()[0].Nope",
		"syntax error(",
	} {
		if _, err := env.Execute("test.star", src, "", nil); err == nil {
			t.Errorf("expected error executing %q", src)
		}
	}
}

func TestReadWriteFile(t *testing.T) {
	env, out := newTestEnv()
	path := filepath.Join(t.TempDir(), "report.txt")
	script := `
write_file(PATH, "hello")
print(read_file(PATH))
`
	_, err := env.Execute("test.star", strings.Replace(script, "PATH", `"`+filepath.ToSlash(path)+`"`, -1), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.String() != "hello\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestHelp(t *testing.T) {
	env, out := newTestEnv()
	if _, err := env.Execute("test.star", "help()\nhelp(units)\n", "", nil); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"\tfind_functions\n", "\tunits\n", "returns the analysis of every compile unit."} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("help output missing %q:\n%s", name, out.String())
		}
	}
}
