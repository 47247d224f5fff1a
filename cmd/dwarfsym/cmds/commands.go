package cmds

import (
	"debug/dwarf"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/cosiner/argv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dwarfsym/dwarfsym/pkg/config"
	"github.com/dwarfsym/dwarfsym/pkg/loader"
	"github.com/dwarfsym/dwarfsym/pkg/logflags"
	"github.com/dwarfsym/dwarfsym/pkg/starbind"
	"github.com/dwarfsym/dwarfsym/pkg/symtab"
	"github.com/dwarfsym/dwarfsym/pkg/terminal"
	"github.com/dwarfsym/dwarfsym/pkg/version"
	"github.com/dwarfsym/dwarfsym/service/api"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string
	// jsonOutput selects JSON output instead of text reports.
	jsonOutput bool
	// entryPoint overrides the entry-point configuration option.
	entryPoint string
	// filter is a list of name prefixes restricting the reported structs and
	// functions.
	filter string
	// concurrency overrides the concurrency configuration option.
	concurrency int
	// scriptArgs is passed to the main function of scripts.
	scriptArgs string
	// verbose prints the build info in the version command.
	verbose bool
	// colorMode overrides the color configuration option.
	colorMode config.ColorMode

	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command

	conf *config.Config

	// openBinary opens the executable files passed on the command line.
	openBinary = loader.Open
	// saveConfig writes the configuration file.
	saveConfig = config.SaveConfig
)

const dwarfsymCommandLongDesc = `dwarfsym reconstructs type names, structure layouts and function
parameters from the DWARF debug_info of an executable.

Every compile unit of the executable is analyzed on its own: a type table is
built out of its entries, type names are composed by following type
references, structure members are collected and finally the formal
parameters of every function other than the entry point are reported along
with a tally of their types.

Without a subcommand the structure and parameter reports are printed for
every compile unit.`

// reportKind selects what is printed for each compile unit.
type reportKind uint8

const (
	reportAll reportKind = iota
	reportStructs
	reportParams
	reportTally
	reportTypes
)

// New returns an initialized command tree.
func New() *cobra.Command {
	// Config setup and load.
	conf = config.LoadConfig()

	// Main dwarfsym root command.
	rootCommand = &cobra.Command{
		Use:   "dwarfsym [binary]",
		Short: "dwarfsym resolves types, structures and function parameters from DWARF debug info.",
		Long:  dwarfsymCommandLongDesc,
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				cmd.Help()
				return
			}
			os.Exit(reportCmd(reportAll, args[0]))
		},
	}

	rootCommand.PersistentFlags().BoolVarP(&log, "log", "", false, "Enable logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", `Comma separated list of components that should produce debug output (see 'dwarfsym help log')`)
	rootCommand.PersistentFlags().StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor (see 'dwarfsym help log').")
	rootCommand.PersistentFlags().BoolVarP(&jsonOutput, "json", "", false, "Print results as JSON.")
	rootCommand.PersistentFlags().StringVarP(&entryPoint, "entry-point", "e", "", "Name of the function left out of parameter reports (default from config, or main).")
	rootCommand.PersistentFlags().StringVarP(&filter, "filter", "f", "", "Only report structures and functions whose name starts with one of these space separated prefixes.")
	rootCommand.PersistentFlags().IntVarP(&concurrency, "concurrency", "j", 0, "Number of compile units analyzed in parallel (default from config).")
	rootCommand.PersistentFlags().Var(colorFlag{&colorMode}, "color", "Colorize text reports: auto, always or never (default from config).")

	reportCommands := []struct {
		use, short string
		kind       reportKind
	}{
		{"structs <binary>", "Print the layout of every structure type.", reportStructs},
		{"params <binary>", "Print the parameters of every function.", reportParams},
		{"tally <binary>", "Print how many parameters have each type.", reportTally},
		{"types <binary>", "Print the type table of every compile unit.", reportTypes},
	}
	for _, rc := range reportCommands {
		kind := rc.kind
		rootCommand.AddCommand(&cobra.Command{
			Use:   rc.use,
			Short: rc.short,
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				os.Exit(reportCmd(kind, args[0]))
			},
		})
	}

	// 'script' subcommand.
	scriptCommand := &cobra.Command{
		Use:   "script <file.star> <binary>",
		Short: "Run a starlark script over the analysis of a binary.",
		Long: `Analyzes the binary and executes the specified starlark script.

The script can call units() to retrieve the analysis of every compile unit,
find_structs(prefix) and find_functions(prefix) to search them by name. If
the script defines a main function it is called after the script is loaded,
if --args is specified main receives the list of arguments.
`,
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(scriptCmd(args[0], args[1]))
		},
	}
	scriptCommand.Flags().StringVar(&scriptArgs, "args", "", "Arguments passed to the main function of the script, quoted as in a shell.")
	rootCommand.AddCommand(scriptCommand)

	// 'config' subcommand.
	rootCommand.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Saves command line options to the configuration file.",
		Long: `Writes the values of --entry-point, --concurrency and --color, together
with the options already set, to the configuration file in ~/.dwarfsym.

The comments of the default configuration file are not preserved.
`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(configCmd(os.Stdout))
		},
	})

	// 'version' subcommand.
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dwarfsym\n%s\n", version.DwarfsymVersion)
			if verbose {
				fmt.Printf("Build Details: %s\n", version.BuildInfo())
			}
		},
	}
	versionCommand.Flags().BoolVarP(&verbose, "verbose", "v", false, "print verbose version info")
	rootCommand.AddCommand(versionCommand)

	rootCommand.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Help about logging flags.",
		Long: `Logging can be enabled by specifying the --log flag and using the
--log-output flag to select which components should produce logs.

The argument of --log-output must be a comma separated list of component
names selected from this list:


	symtab		Log construction of type tables, struct registries and parameters
	loader		Log opening of executables and compile unit enumeration
	script		Log execution of starlark scripts
	cache		Log type name cache hits and misses

Additionally --log-dest can be used to specify where the logs should be
written.
If the argument is a number it will be interpreted as a file descriptor,
otherwise as a file path.
`,
	})

	rootCommand.DisableAutoGenTag = true

	return rootCommand
}

// colorFlag parses the argument of --color.
type colorFlag struct {
	mode *config.ColorMode
}

var _ pflag.Value = colorFlag{}

func (f colorFlag) String() string {
	if f.mode == nil {
		return ""
	}
	return string(*f.mode)
}

func (f colorFlag) Set(s string) error {
	switch m := config.ColorMode(s); m {
	case config.ColorAuto, config.ColorAlways, config.ColorNever:
		*f.mode = m
		return nil
	}
	return fmt.Errorf("must be one of %s, %s or %s", config.ColorAuto, config.ColorAlways, config.ColorNever)
}

func (f colorFlag) Type() string {
	return "mode"
}

// applyFlags copies the command line flags that override configuration
// options into c.
func applyFlags(c *config.Config) {
	if entryPoint != "" {
		c.EntryPoint = entryPoint
	}
	if concurrency > 0 {
		c.Concurrency = concurrency
	}
	if colorMode != "" {
		c.Color = colorMode
	}
}

func configCmd(out io.Writer) int {
	applyFlags(conf)
	if err := saveConfig(conf); err != nil {
		fmt.Fprintf(os.Stderr, "Could not save configuration: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, "Configuration saved.")
	return 0
}

// analyzeConfig merges configuration file options and command line flags.
func analyzeConfig() loader.Config {
	cfg := loader.Config{
		Config: symtab.Config{
			EntryPoint: conf.EntryPoint,
			CacheSize:  conf.ResolveCacheSizeOrDefault(),
		},
		Concurrency: conf.Concurrency,
	}
	if entryPoint != "" {
		cfg.EntryPoint = entryPoint
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	return cfg
}

// analyze opens and analyzes the executable at path. Errors of single
// compile units are printed to stderr and do not cause a failure.
func analyze(path string) ([]*symtab.Unit, []error, error) {
	bin, err := openBinary(path)
	if err != nil {
		return nil, nil, err
	}
	defer bin.Close()

	units, errs := bin.Analyze(analyzeConfig())
	if units == nil && len(errs) > 0 {
		return nil, nil, errs[0]
	}
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	return units, errs, nil
}

func reportCmd(kind reportKind, path string) int {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer logflags.Close()

	applyFlags(conf)
	out, isTerminal := terminal.Stdout()
	color, err := conf.UseColor(isTerminal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if err := report(kind, path, out, color); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

// report analyzes the executable at path and writes the selected report to
// out.
func report(kind reportKind, path string, out io.Writer, color bool) error {
	units, errs, err := analyze(path)
	if err != nil {
		return err
	}

	opts := api.ConvertOptions{
		Types:        kind == reportTypes,
		LocationExpr: conf.ShowLocationExpr,
	}
	results := convertUnits(units, errs, newUnitFilter(units, filter), opts)

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	p := &terminal.Printer{Out: out, Color: color, ShowLocationExpr: conf.ShowLocationExpr}
	if kind == reportAll {
		fmt.Fprintf(out, "Processing file: %s\n", path)
	}
	for i := range results {
		u := &results[i]
		p.UnitHeader(u)
		switch kind {
		case reportAll:
			p.Structs(u)
			p.Functions(u)
		case reportStructs:
			p.Structs(u)
		case reportParams:
			p.Functions(u)
		case reportTally:
			p.Tally(u)
		case reportTypes:
			p.Types(u)
		}
	}
	return nil
}

// convertUnits converts the analysis of every unit, errs are matched to
// the units they refer to.
func convertUnits(units []*symtab.Unit, errs []error, f *unitFilter, opts api.ConvertOptions) []api.Unit {
	uerrs := make(map[dwarf.Offset]error)
	for _, err := range errs {
		var uerr *symtab.UnitError
		if errors.As(err, &uerr) {
			uerrs[uerr.Offset] = err
		}
	}
	r := make([]api.Unit, 0, len(units))
	for _, u := range units {
		if u == nil {
			continue
		}
		err := uerrs[u.Offset]
		r = append(r, api.ConvertUnit(f.apply(u), err, opts))
	}
	return r
}

// unitFilter restricts units to the structures and functions found by a
// prefix search.
type unitFilter struct {
	structs map[*symtab.Struct]bool
	funcs   map[*symtab.Function]bool
}

// newUnitFilter returns a filter for the prefixes listed in filter, or nil
// if filter is empty. Prefixes containing spaces must be double quoted.
func newUnitFilter(units []*symtab.Unit, filter string) *unitFilter {
	prefixes := config.SplitQuotedFields(filter, '"')
	if len(prefixes) == 0 {
		return nil
	}
	idx := symtab.NewIndex(units...)
	f := &unitFilter{structs: make(map[*symtab.Struct]bool), funcs: make(map[*symtab.Function]bool)}
	for _, prefix := range prefixes {
		for _, ref := range idx.Structs(prefix) {
			f.structs[ref.Struct] = true
		}
		for _, ref := range idx.Functions(prefix) {
			f.funcs[ref.Function] = true
		}
	}
	return f
}

// apply returns a copy of u that only contains the structures and
// functions selected by f.
func (f *unitFilter) apply(u *symtab.Unit) *symtab.Unit {
	if f == nil {
		return u
	}
	r := *u
	r.Structs = make(symtab.Registry)
	for key, s := range u.Structs {
		if f.structs[s] {
			r.Structs[key] = s
		}
	}
	r.Functions = nil
	for i := range u.Functions {
		if f.funcs[&u.Functions[i]] {
			r.Functions = append(r.Functions, u.Functions[i])
		}
	}
	return &r
}

func scriptCmd(script, path string) int {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer logflags.Close()

	out, _ := terminal.Stdout()
	if err := runScript(script, path, out); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

// runScript analyzes the executable at path and executes the starlark
// script file on the results.
func runScript(script, path string, out io.Writer) error {
	units, errs, err := analyze(path)
	if err != nil {
		return err
	}
	ctx := newScriptContext(units, errs, conf.ShowLocationExpr)
	env := starbind.New(ctx, out)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	done := make(chan struct{})
	defer func() {
		signal.Stop(ch)
		close(done)
	}()
	go func() {
		select {
		case <-ch:
			env.Cancel()
		case <-done:
		}
	}()

	args, err := parseScriptArgs(scriptArgs)
	if err != nil {
		return err
	}
	_, err = env.Execute(script, nil, "main", args)
	return err
}

// parseScriptArgs splits the argument of --args using the quoting rules of
// the shell. The result is passed to main as a single list.
func parseScriptArgs(s string) ([]interface{}, error) {
	if s == "" {
		return nil, nil
	}
	v, err := argv.Argv(s,
		func(s string) (string, error) {
			return "", fmt.Errorf("Backtick not supported in '%s'", s)
		},
		nil)
	if err != nil {
		return nil, err
	}
	if len(v) != 1 {
		return nil, fmt.Errorf("illegal script arguments '%s'", s)
	}
	return []interface{}{v[0]}, nil
}

// scriptContext implements starbind.Context.
type scriptContext struct {
	units        []api.Unit
	idx          *symtab.Index
	locationExpr bool
}

func newScriptContext(units []*symtab.Unit, errs []error, locationExpr bool) *scriptContext {
	opts := api.ConvertOptions{Types: true, LocationExpr: locationExpr}
	return &scriptContext{
		units:        convertUnits(units, errs, nil, opts),
		idx:          symtab.NewIndex(units...),
		locationExpr: locationExpr,
	}
}

func (ctx *scriptContext) Units() []api.Unit {
	return ctx.units
}

func (ctx *scriptContext) FindStructs(prefix string) []api.Struct {
	refs := ctx.idx.Structs(prefix)
	r := make([]api.Struct, 0, len(refs))
	for _, ref := range refs {
		r = append(r, api.ConvertStruct(ref.Struct))
	}
	return r
}

func (ctx *scriptContext) FindFunctions(prefix string) []api.Function {
	refs := ctx.idx.Functions(prefix)
	r := make([]api.Function, 0, len(refs))
	for _, ref := range refs {
		r = append(r, api.ConvertFunction(*ref.Function, ctx.locationExpr))
	}
	return r
}
