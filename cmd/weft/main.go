// Command weft compiles and inspects WEFT program documents.
//
// Usage:
//
//	weft <subcommand> [flags] <file>
//
// Subcommands:
//
//	parse   Decode a program document and print its statements
//	graph   Build the dataflow graph and print nodes, deps, and contexts
//	check   Validate the document and the dependency graph
//	info    Print statement and per-context node statistics
//	run     Compile and tick the program against no-op backends
//
// Examples:
//
//	# Inspect the dataflow graph with execution order
//	weft graph -order program.json
//
//	# Run 120 frames with Prometheus metrics on :9090
//	weft run -frames 120 -metrics-addr :9090 program.json
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/weftlang/weft/pkg/ast"
	"github.com/weftlang/weft/pkg/backend"
	"github.com/weftlang/weft/pkg/config"
	"github.com/weftlang/weft/pkg/coordinator"
	"github.com/weftlang/weft/pkg/env"
	"github.com/weftlang/weft/pkg/graph"
	"github.com/weftlang/weft/pkg/logging"
	"github.com/weftlang/weft/pkg/observer"
	"github.com/weftlang/weft/pkg/program"
	"github.com/weftlang/weft/pkg/telemetry"
	"github.com/weftlang/weft/pkg/types"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "parse":
		err = cmdParse(os.Args[2:])
	case "graph":
		err = cmdGraph(os.Args[2:])
	case "check":
		err = cmdCheck(os.Args[2:])
	case "info":
		err = cmdInfo(os.Args[2:])
	case "run":
		err = cmdRun(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: weft <parse|graph|check|info|run> [flags] <file>")
}

func loadProgram(path string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return program.Decode(data)
}

// ============================================================================
// parse
// ============================================================================

func cmdParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	pretty := fs.Bool("pretty", false, "Print an indented statement tree")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("parse: expected exactly one file")
	}

	prog, err := loadProgram(fs.Arg(0))
	if err != nil {
		return err
	}

	if *pretty {
		printProgram(prog)
		return nil
	}
	fmt.Printf("%d statement(s)\n", len(prog.Statements))
	for _, stmt := range prog.Statements {
		fmt.Println(summarizeStatement(stmt))
	}
	return nil
}

func summarizeStatement(stmt ast.Stmt) string {
	switch s := stmt.(type) {
	case ast.InstanceBinding:
		return fmt.Sprintf("instance %s <%s>", s.Name, joinStrings(s.Outputs))
	case ast.SpindleDef:
		return fmt.Sprintf("spindle %s(%s) :: <%s>", s.Name, joinStrings(s.Inputs), joinStrings(s.Outputs))
	case ast.Assignment:
		return fmt.Sprintf("assign %s %s ...", s.Name, s.Op)
	case ast.BackendStmt:
		return fmt.Sprintf("backend %s (%d args)", s.Keyword, len(s.PositionalArgs))
	default:
		return fmt.Sprintf("%T", stmt)
	}
}

func printProgram(prog *ast.Program) {
	fmt.Printf("Program (%d statements)\n", len(prog.Statements))
	for _, stmt := range prog.Statements {
		printStatement(stmt, 1)
	}
}

func printStatement(stmt ast.Stmt, indent int) {
	ind := indentOf(indent)
	switch s := stmt.(type) {
	case ast.InstanceBinding:
		fmt.Printf("%sInstance: %s <%s>\n", ind, s.Name, joinStrings(s.Outputs))
		printExpr(s.Expr, indent+1)
	case ast.SpindleDef:
		fmt.Printf("%sSpindle: %s(%s) :: <%s>\n", ind, s.Name, joinStrings(s.Inputs), joinStrings(s.Outputs))
		printExpr(s.Body, indent+1)
	case ast.Assignment:
		fmt.Printf("%sAssignment: %s %s\n", ind, s.Name, s.Op)
		printExpr(s.Expr, indent+1)
	case ast.BackendStmt:
		fmt.Printf("%sBackend: %s\n", ind, s.Keyword)
		for _, arg := range s.PositionalArgs {
			printExpr(arg, indent+1)
		}
		for name, value := range s.NamedArgs {
			fmt.Printf("%s  %s:\n", ind, name)
			printExpr(value, indent+2)
		}
	}
}

func printExpr(expr ast.Expr, indent int) {
	ind := indentOf(indent)
	switch e := expr.(type) {
	case ast.Num:
		fmt.Printf("%sNum: %g\n", ind, e.Value)
	case ast.Str:
		fmt.Printf("%sStr: %s\n", ind, e.Value)
	case ast.Var:
		fmt.Printf("%sVar: %s\n", ind, e.Name)
	case ast.Me:
		fmt.Printf("%sMe: @%s\n", ind, e.Field)
	case ast.Binary:
		fmt.Printf("%sBinary: %s\n", ind, e.Op)
		printExpr(e.Left, indent+1)
		printExpr(e.Right, indent+1)
	case ast.Unary:
		fmt.Printf("%sUnary: %s\n", ind, e.Op)
		printExpr(e.Expr, indent+1)
	case ast.Call:
		if name, ok := ast.CalleeName(e); ok {
			fmt.Printf("%sCall: %s\n", ind, name)
		} else {
			fmt.Printf("%sCall: <complex>\n", ind)
			printExpr(e.Callee, indent+1)
		}
		for _, arg := range e.Args {
			printExpr(arg, indent+1)
		}
	case ast.If:
		fmt.Printf("%sIf\n", ind)
		printExpr(e.Cond, indent+1)
		printExpr(e.Then, indent+1)
		printExpr(e.Else, indent+1)
	case ast.Tuple:
		fmt.Printf("%sTuple (%d items)\n", ind, len(e.Items))
		for _, item := range e.Items {
			printExpr(item, indent+1)
		}
	case ast.Index:
		fmt.Printf("%sIndex\n", ind)
		printExpr(e.Base, indent+1)
		printExpr(e.Index, indent+1)
	case ast.StrandAccess:
		if base, ok := e.Base.(ast.Var); ok {
			if out, ok := e.Out.(ast.Var); ok {
				fmt.Printf("%sStrandAccess: %s@%s\n", ind, base.Name, out.Name)
				return
			}
		}
		fmt.Printf("%sStrandAccess\n", ind)
		printExpr(e.Base, indent+1)
		printExpr(e.Out, indent+1)
	case ast.StrandRemap:
		if base, ok := e.Base.(ast.Var); ok {
			fmt.Printf("%sStrandRemap: %s@%s\n", ind, base.Name, e.Strand)
		} else {
			fmt.Printf("%sStrandRemap: @%s\n", ind, e.Strand)
			printExpr(e.Base, indent+1)
		}
		for _, m := range e.Mappings {
			fmt.Printf("%s  %s ~\n", ind, m.Axis)
			printExpr(m.Value, indent+2)
		}
	}
}

func indentOf(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += "  "
	}
	return out
}

func joinStrings(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}

// ============================================================================
// graph
// ============================================================================

func cmdGraph(args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	showOrder := fs.Bool("order", false, "Print per-context execution order")
	verbose := fs.Bool("verbose", false, "Print deps, required outputs, and contexts per node")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("graph: expected exactly one file")
	}

	prog, err := loadProgram(fs.Arg(0))
	if err != nil {
		return err
	}
	e := env.New(0, 0)
	e.ApplyProgram(prog)

	rg := graph.New()
	meta, err := rg.Build(prog, e)
	if err != nil {
		return err
	}

	for _, node := range rg.Nodes() {
		fmt.Printf("%s <%s> (%s)", node.InstanceName, joinStrings(outputNames(node)), node.Kind)
		if len(node.Deps) > 0 {
			fmt.Printf(" <- %s", joinStrings(depNames(node)))
		}
		if node.Typed {
			fmt.Printf(" [%s]", node.Context.Name())
		}
		fmt.Println()

		if *verbose {
			if req := requiredNames(node); len(req) > 0 {
				fmt.Printf("  required outputs: %s\n", joinStrings(req))
			}
		}
	}

	if *showOrder {
		fmt.Println()
		fmt.Println("Context order:", contextNames(meta.ExecutionOrder))
		for _, ctx := range meta.ExecutionOrder {
			sub := meta.Subgraphs[ctx]
			fmt.Printf("  %s:\n", ctx.Name())
			for i, name := range sub.ExecutionOrder {
				fmt.Printf("    %d. %s\n", i+1, name)
			}
		}
	}

	if len(meta.References) > 0 {
		fmt.Println()
		fmt.Println("Cross-context references:")
		for _, ref := range meta.References {
			fmt.Printf("  %s (%s) <- %s (%s)\n",
				ref.FromNode, ref.FromContext.Name(), ref.ToNode, ref.ToContext.Name())
		}
	}
	return nil
}

func outputNames(node *graph.GraphNode) []string {
	names := make([]string, 0, len(node.Outputs))
	for name := range node.Outputs {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

func depNames(node *graph.GraphNode) []string {
	names := make([]string, 0, len(node.Deps))
	for name := range node.Deps {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

func requiredNames(node *graph.GraphNode) []string {
	names := make([]string, 0, len(node.RequiredOutputs))
	for name := range node.RequiredOutputs {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

func sortStrings(arr []string) {
	for i := 1; i < len(arr); i++ {
		key := arr[i]
		j := i - 1
		for j >= 0 && arr[j] > key {
			arr[j+1] = arr[j]
			j--
		}
		arr[j+1] = key
	}
}

func contextNames(contexts []types.Context) string {
	names := make([]string, len(contexts))
	for i, c := range contexts {
		names[i] = c.Name()
	}
	return joinStrings(names)
}

// ============================================================================
// check
// ============================================================================

func cmdCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("check: expected exactly one file")
	}
	path := fs.Arg(0)

	prog, err := loadProgram(path)
	if err != nil {
		return err
	}
	fmt.Println("ok: document is valid")
	fmt.Printf("ok: %d statement(s)\n", len(prog.Statements))

	e := env.New(0, 0)
	e.ApplyProgram(prog)
	rg := graph.New()
	meta, err := rg.Build(prog, e)
	if err != nil {
		return err
	}
	fmt.Println("ok: dependency graph is valid")
	fmt.Printf("ok: %d context(s) in execution order\n", len(meta.ExecutionOrder))
	fmt.Printf("\n%s passes all checks\n", path)
	return nil
}

// ============================================================================
// info
// ============================================================================

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("info: expected exactly one file")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	prog, err := program.Decode(data)
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Printf("File: %s\n", path)
	p.Printf("Size: %d bytes\n\n", len(data))

	var spindles, instances, backends, assignments int
	for _, stmt := range prog.Statements {
		switch stmt.(type) {
		case ast.SpindleDef:
			spindles++
		case ast.InstanceBinding:
			instances++
		case ast.BackendStmt:
			backends++
		case ast.Assignment:
			assignments++
		}
	}

	p.Printf("Statements:\n")
	p.Printf("  Total: %d\n", len(prog.Statements))
	p.Printf("  Spindle definitions: %d\n", spindles)
	p.Printf("  Instance bindings: %d\n", instances)
	p.Printf("  Backend outputs: %d\n", backends)
	p.Printf("  Environment assignments: %d\n", assignments)

	e := env.New(0, 0)
	e.ApplyProgram(prog)
	rg := graph.New()
	meta, err := rg.Build(prog, e)
	if err != nil {
		// info stays best-effort: statement counts were already printed.
		return nil
	}

	counts := make(map[types.Context]int)
	for _, node := range rg.Nodes() {
		if node.Typed {
			counts[node.Context]++
		}
	}
	p.Printf("\nDependency graph:\n")
	p.Printf("  Computation nodes: %d\n", rg.Len())
	for _, c := range types.AllContexts() {
		p.Printf("  %s context nodes: %d\n", c.Name(), counts[c])
	}
	p.Printf("  Cross-context references: %d\n", len(meta.References))
	return nil
}

// ============================================================================
// run
// ============================================================================

// nopBackend satisfies the backend contract without producing output. The
// run subcommand uses it so programs can be compiled and ticked before the
// real sink backends are attached.
type nopBackend struct {
	ctx types.Context
}

func (b *nopBackend) Context() types.Context { return b.ctx }
func (b *nopBackend) SupportsHandles() bool  { return false }

func (b *nopBackend) CompileSubgraph(sub *graph.Subgraph, e *env.Env, host backend.CompileHost) error {
	for _, name := range sub.ExecutionOrder {
		node, _ := sub.Node(name)
		for strand := range node.Outputs {
			host.Expose(name, strand, types.OutputHandle{})
		}
	}
	return nil
}

func (b *nopBackend) ExecuteSubgraph(sub *graph.Subgraph, e *env.Env, host backend.Lookup) error {
	return nil
}

func (b *nopBackend) GetHandle(instance, strand string) (types.OutputHandle, error) {
	return types.OutputHandle{}, types.ErrNoHandle
}

func (b *nopBackend) GetValueAt(instance, strand string, coords map[string]float64, e *env.Env, host backend.Lookup) (float64, error) {
	return 0, nil
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	width := fs.Int("width", 800, "Canvas width")
	height := fs.Int("height", 600, "Canvas height")
	fps := fs.Float64("fps", 60.0, "Target frames per second")
	frames := fs.Int("frames", 0, "Frames to run (0 = until interrupted)")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	logLevel := fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("run: expected exactly one file")
	}
	if *fps <= 0 {
		return fmt.Errorf("run: fps must be positive")
	}

	prog, err := loadProgram(fs.Arg(0))
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{Level: *logLevel, Pretty: true})

	cfg := config.Default()
	cfg.TargetFPS = *fps
	e := env.FromConfig(cfg, *width, *height)
	e.ApplyProgram(prog)

	coord := coordinator.NewWithConfig(cfg)
	coord.SetLogger(logger)
	coord.RegisterObserver(observer.NewLoggingObserver(logger))
	for _, c := range types.AllContexts() {
		if err := coord.RegisterBackend(&nopBackend{ctx: c}); err != nil {
			return err
		}
	}

	if *metricsAddr != "" {
		provider, err := telemetry.NewProvider(context.Background(), telemetry.DefaultConfig())
		if err != nil {
			return err
		}
		defer func() { _ = provider.Shutdown(context.Background()) }()
		coord.RegisterObserver(telemetry.NewObserver(provider))
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				logger.WithError(err).Error("metrics listener failed")
			}
		}()
		logger.Infof("serving metrics on %s/metrics", *metricsAddr)
	}

	if err := coord.Compile(prog, e); err != nil {
		return err
	}
	logger.Infof("compiled %d context(s)", len(coord.MetaGraph().ExecutionOrder))

	interval := time.Second / time.Duration(e.TargetFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for tick := 0; *frames == 0 || tick < *frames; tick++ {
		if err := coord.Execute(e); err != nil {
			return err
		}
		<-ticker.C
	}
	logger.Infof("ran %d frame(s)", *frames)
	return nil
}
