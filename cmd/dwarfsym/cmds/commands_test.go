package cmds

import (
	"bytes"
	"debug/dwarf"
	"encoding/json"
	"errors"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarfsym/dwarfsym/pkg/config"
	"github.com/dwarfsym/dwarfsym/pkg/dwarf/dwarfbuilder"
	"github.com/dwarfsym/dwarfsym/pkg/loader"
	"github.com/dwarfsym/dwarfsym/service/api"
)

// setup replaces the configuration and the executable loader with a binary
// declaring
//
//	struct Point { int x; int y; };
//	struct Polygon { struct Point *points; int n; };
//	double distance(struct Point *p, const int scale);
//	void draw(struct Polygon *poly);
//	int main(int argc);
func setup(t *testing.T) {
	conf = &config.Config{}
	jsonOutput, entryPoint, filter, scriptArgs, concurrency, colorMode = false, "", "", "", 0, ""

	oldOpen := openBinary
	t.Cleanup(func() { openBinary = oldOpen })
	openBinary = func(path string) (*loader.Binary, error) {
		b := dwarfbuilder.New("shapes.c")
		intOff := b.AddBaseType("int", dwarfbuilder.DW_ATE_signed, 4)
		pointOff := b.AddStructType("Point", 8)
		b.AddMember("x", intOff, 0)
		b.AddMember("y", intOff, 4)
		b.TagClose()
		pointPtrOff := b.AddPointerType(pointOff)
		polyOff := b.AddStructType("Polygon", 16)
		b.AddMember("points", pointPtrOff, 0)
		b.AddMember("n", intOff, 8)
		b.TagClose()
		polyPtrOff := b.AddPointerType(polyOff)
		constOff := b.AddModifierType(dwarf.TagConstType, intOff)
		b.AddSubprogram("distance", 0x1000, 0x1040)
		b.AddFormalParameter("p", pointPtrOff, []byte{0x91, 0x68})
		b.AddFormalParameter("scale", constOff, []byte{0x91, 0x64})
		b.TagClose()
		b.AddSubprogram("draw", 0x1040, 0x1080)
		b.AddFormalParameter("poly", polyPtrOff, []byte{0x91, 0x68})
		b.TagClose()
		b.AddSubprogram("main", 0x1080, 0x10c0)
		b.AddFormalParameter("argc", intOff, []byte{0x91, 0x6c})
		b.TagClose()
		data, err := b.Data()
		if err != nil {
			return nil, err
		}
		return loader.New(path, data), nil
	}
}

func TestReportAll(t *testing.T) {
	setup(t)
	var buf bytes.Buffer
	require.NoError(t, report(reportAll, "shapes", &buf, false))
	const tgt = "Processing file: shapes\n" +
		"Compile unit shapes.c at offset 0xb\n" +
		"Struct data\n" +
		"Name: Point : \n" +
		"x - int\n" +
		"y - int\n" +
		"\n" +
		"Name: Polygon : \n" +
		"points - struct pointer\n" +
		"n - int\n" +
		"\n" +
		"Function name: distance\n" +
		"Parameters of function:\n" +
		"p - struct pointer (Point) @ 0x9168\n" +
		"scale - int const @ 0x9164\n" +
		"\n" +
		"Function name: draw\n" +
		"Parameters of function:\n" +
		"poly - struct pointer (Polygon) @ 0x9168\n" +
		"\n"
	assert.Equal(t, tgt, buf.String())
}

func TestReportEntryPoint(t *testing.T) {
	setup(t)
	entryPoint = "draw"
	var buf bytes.Buffer
	require.NoError(t, report(reportParams, "shapes", &buf, false))
	out := buf.String()
	assert.Contains(t, out, "Function name: main\nParameters of function:\nargc - int @ 0x916c\n")
	assert.NotContains(t, out, "Function name: draw")
}

func TestReportTally(t *testing.T) {
	setup(t)
	var buf bytes.Buffer
	require.NoError(t, report(reportTally, "shapes", &buf, false))
	assert.Equal(t, "Compile unit shapes.c at offset 0xb\npointer  2\nconst    1\n", buf.String())
}

func TestReportFilter(t *testing.T) {
	setup(t)
	filter = "Poly"
	var buf bytes.Buffer
	require.NoError(t, report(reportStructs, "shapes", &buf, false))
	out := buf.String()
	assert.Contains(t, out, "Name: Polygon : \n")
	assert.NotContains(t, out, "Name: Point : \n")

	filter = "dist"
	buf.Reset()
	require.NoError(t, report(reportParams, "shapes", &buf, false))
	out = buf.String()
	assert.Contains(t, out, "Function name: distance\n")
	assert.NotContains(t, out, "Function name: draw\n")

	filter = `dist "Poly"`
	buf.Reset()
	require.NoError(t, report(reportAll, "shapes", &buf, false))
	out = buf.String()
	assert.Contains(t, out, "Name: Polygon : \n")
	assert.Contains(t, out, "Function name: distance\n")
	assert.NotContains(t, out, "Name: Point : \n")
	assert.NotContains(t, out, "Function name: draw\n")
}

func TestParseScriptArgs(t *testing.T) {
	args, err := parseScriptArgs("")
	require.NoError(t, err)
	assert.Nil(t, args)

	args, err = parseScriptArgs(`Point 'struct pointer' "a b"`)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{[]string{"Point", "struct pointer", "a b"}}, args)

	_, err = parseScriptArgs("a | b")
	assert.Error(t, err)
	_, err = parseScriptArgs("`ls`")
	assert.Error(t, err)
}

func TestReportJSON(t *testing.T) {
	setup(t)
	jsonOutput = true
	conf.ShowLocationExpr = true
	var buf bytes.Buffer
	require.NoError(t, report(reportTypes, "shapes", &buf, false))

	var units []api.Unit
	require.NoError(t, json.Unmarshal(buf.Bytes(), &units))
	require.Len(t, units, 1)
	u := units[0]
	assert.Equal(t, "shapes.c", u.Name)
	assert.Len(t, u.Structs, 2)
	assert.NotEmpty(t, u.Types)
	require.Len(t, u.Functions, 2)
	assert.Equal(t, "DW_OP_fbreg -24", u.Functions[0].Params[0].LocationExpr)
	assert.Equal(t, []api.TallyEntry{{Type: "pointer", Count: 2}, {Type: "const", Count: 1}}, u.Tally)
}

func TestReportOpenError(t *testing.T) {
	setup(t)
	openBinary = func(path string) (*loader.Binary, error) {
		return nil, loader.ErrNoDebugInfo
	}
	err := report(reportAll, "stripped", &bytes.Buffer{}, false)
	assert.True(t, errors.Is(err, loader.ErrNoDebugInfo))
}

func TestRunScript(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	script := filepath.Join(dir, "report.star")
	err := ioutil.WriteFile(script, []byte(`
def main(args):
    for s in find_structs(args[0]):
        print(s.Name, len(s.Members))
    for fn in find_functions(""):
        print(fn.Name, [p.Type for p in fn.Params])
    print(units()[0].Tally)
`), 0600)
	require.NoError(t, err)

	scriptArgs = `"Po" other`
	var buf bytes.Buffer
	require.NoError(t, runScript(script, "shapes", &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Point 2", lines[0])
	assert.Equal(t, "Polygon 2", lines[1])
	assert.Equal(t, `distance ["struct pointer", "int const"]`, lines[2])
	assert.Equal(t, `draw ["struct pointer"]`, lines[3])
	assert.Equal(t, `{"pointer": 2, "const": 1}`, lines[4])
}

func TestAnalyzeConfig(t *testing.T) {
	setup(t)
	// the default entry point comes from symtab
	assert.Equal(t, "", analyzeConfig().EntryPoint)

	size := 8
	conf = &config.Config{EntryPoint: "start", ResolveCacheSize: &size, Concurrency: 2}
	cfg := analyzeConfig()
	assert.Equal(t, "start", cfg.EntryPoint)
	assert.Equal(t, 8, cfg.CacheSize)
	assert.Equal(t, 2, cfg.Concurrency)

	entryPoint, concurrency = "main2", 6
	cfg = analyzeConfig()
	assert.Equal(t, "main2", cfg.EntryPoint)
	assert.Equal(t, 6, cfg.Concurrency)
}

func TestColorFlag(t *testing.T) {
	setup(t)
	fs := pflag.NewFlagSet("dwarfsym", pflag.ContinueOnError)
	fs.Var(colorFlag{&colorMode}, "color", "")
	require.NoError(t, fs.Set("color", "never"))
	assert.Equal(t, config.ColorNever, colorMode)
	assert.Equal(t, "never", fs.Lookup("color").Value.String())
	assert.Error(t, fs.Set("color", "sometimes"))
	assert.Equal(t, config.ColorNever, colorMode)
}

func TestConfigCommand(t *testing.T) {
	setup(t)
	oldSave := saveConfig
	t.Cleanup(func() { saveConfig = oldSave })

	var saved config.Config
	saveConfig = func(c *config.Config) error {
		saved = *c
		return nil
	}
	conf.ShowLocationExpr = true
	entryPoint, concurrency, colorMode = "start", 3, config.ColorNever
	var buf bytes.Buffer
	require.Equal(t, 0, configCmd(&buf))
	assert.Equal(t, "Configuration saved.\n", buf.String())
	assert.Equal(t, config.Config{EntryPoint: "start", ShowLocationExpr: true, Concurrency: 3, Color: config.ColorNever}, saved)

	saveConfig = func(*config.Config) error {
		return errors.New("read-only file system")
	}
	assert.Equal(t, 1, configCmd(&bytes.Buffer{}))
}
