package coordinator

import (
	"errors"
	"testing"

	"github.com/weftlang/weft/pkg/ast"
	"github.com/weftlang/weft/pkg/backend"
	"github.com/weftlang/weft/pkg/env"
	"github.com/weftlang/weft/pkg/graph"
	"github.com/weftlang/weft/pkg/types"
)

// ============================================================================
// Fake backend
// ============================================================================

// fakeBackend records the calls the coordinator makes and serves canned
// handles and values.
type fakeBackend struct {
	ctx            types.Context
	handles        bool
	compiledOrder  []string
	executeCount   int
	compileErr     error
	executeErr     error
	handleByOutput map[string]types.OutputHandle
	valueByOutput  map[string]float64

	// callLog is shared across backends to observe cross-context ordering.
	callLog *[]string
}

func newFakeBackend(ctx types.Context) *fakeBackend {
	return &fakeBackend{
		ctx:            ctx,
		handleByOutput: make(map[string]types.OutputHandle),
		valueByOutput:  make(map[string]float64),
	}
}

func (f *fakeBackend) Context() types.Context { return f.ctx }
func (f *fakeBackend) SupportsHandles() bool  { return f.handles }

func (f *fakeBackend) CompileSubgraph(sub *graph.Subgraph, e *env.Env, host backend.CompileHost) error {
	if f.compileErr != nil {
		return f.compileErr
	}
	f.compiledOrder = append(f.compiledOrder, sub.ExecutionOrder...)
	for _, name := range sub.ExecutionOrder {
		node, _ := sub.Node(name)
		for strand := range node.Outputs {
			host.Expose(name, strand, types.NewBufferHandle(nil))
		}
	}
	if f.callLog != nil {
		*f.callLog = append(*f.callLog, "compile:"+f.ctx.Name())
	}
	return nil
}

func (f *fakeBackend) ExecuteSubgraph(sub *graph.Subgraph, e *env.Env, host backend.Lookup) error {
	if f.executeErr != nil {
		return f.executeErr
	}
	f.executeCount++
	if f.callLog != nil {
		*f.callLog = append(*f.callLog, "execute:"+f.ctx.Name())
	}
	return nil
}

func (f *fakeBackend) GetHandle(instance, strand string) (types.OutputHandle, error) {
	h, ok := f.handleByOutput[instance+"@"+strand]
	if !ok {
		return types.OutputHandle{}, types.ErrNoHandle
	}
	return h, nil
}

func (f *fakeBackend) GetValueAt(instance, strand string, coords map[string]float64, e *env.Env, host backend.Lookup) (float64, error) {
	v, ok := f.valueByOutput[instance+"@"+strand]
	if !ok {
		return 0, types.ErrNotFound
	}
	return v, nil
}

// ============================================================================
// Program helpers
// ============================================================================

func num(v float64) ast.Expr { return ast.Num{Value: v} }

func access(base, out string) ast.Expr {
	return ast.StrandAccess{Base: ast.Var{Name: base}, Out: ast.Var{Name: out}}
}

func bind(name string, outputs []string, expr ast.Expr) ast.Stmt {
	return ast.InstanceBinding{Name: name, Outputs: outputs, Expr: expr}
}

func sink(keyword string, args ...ast.Expr) ast.Stmt {
	return ast.BackendStmt{Keyword: keyword, PositionalArgs: args}
}

func program(stmts ...ast.Stmt) *ast.Program {
	return &ast.Program{Statements: stmts}
}

func visualChainProgram() *ast.Program {
	return program(
		bind("a", []string{"x"}, num(1)),
		bind("b", []string{"y"}, access("a", "x")),
		bind("c", []string{"z"}, access("b", "y")),
		sink("display", access("c", "z")),
	)
}

func crossContextProgram() *ast.Program {
	return program(
		bind("vd", []string{"b"}, num(0.5)),
		bind("ao", []string{"t"}, access("vd", "b")),
		sink("display", access("vd", "b")),
		sink("play", access("ao", "t")),
	)
}

// ============================================================================
// Tests
// ============================================================================

func TestRegisterBackendRejectsDuplicateContext(t *testing.T) {
	c := New()
	if err := c.RegisterBackend(newFakeBackend(types.ContextVisual)); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	err := c.RegisterBackend(newFakeBackend(types.ContextVisual))
	if !errors.Is(err, types.ErrDuplicateBackend) {
		t.Fatalf("want duplicate backend error, got %v", err)
	}
}

func TestExecuteBeforeCompileFails(t *testing.T) {
	c := New()
	err := c.Execute(env.New(64, 64))
	if !errors.Is(err, types.ErrNotCompiled) {
		t.Fatalf("want not-compiled error, got %v", err)
	}
}

func TestCompileWithoutBackendForContextFails(t *testing.T) {
	c := New()
	err := c.Compile(visualChainProgram(), env.New(64, 64))
	if !errors.Is(err, types.ErrNoBackend) {
		t.Fatalf("want missing backend error, got %v", err)
	}
	if c.Running() {
		t.Error("failed compile must leave the coordinator not running")
	}
}

func TestCompileDrivesBackendInOrder(t *testing.T) {
	c := New()
	visual := newFakeBackend(types.ContextVisual)
	if err := c.RegisterBackend(visual); err != nil {
		t.Fatal(err)
	}

	if err := c.Compile(visualChainProgram(), env.New(64, 64)); err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}

	want := []string{"a", "b", "c"}
	if len(visual.compiledOrder) != len(want) {
		t.Fatalf("compiled order = %v, want %v", visual.compiledOrder, want)
	}
	for i := range want {
		if visual.compiledOrder[i] != want[i] {
			t.Errorf("compiled order[%d] = %q, want %q", i, visual.compiledOrder[i], want[i])
		}
	}
	if !c.Running() {
		t.Error("successful compile should transition to running")
	}
	if !c.Registry().Contains("c", "z") {
		t.Error("backend exposures should populate the registry")
	}
}

func TestExecuteRunsContextsInMetaOrder(t *testing.T) {
	c := New()
	var log []string
	visual := newFakeBackend(types.ContextVisual)
	audio := newFakeBackend(types.ContextAudio)
	visual.callLog = &log
	audio.callLog = &log
	if err := c.RegisterBackend(audio); err != nil {
		t.Fatal(err)
	}
	if err := c.RegisterBackend(visual); err != nil {
		t.Fatal(err)
	}

	e := env.New(64, 64)
	if err := c.Compile(crossContextProgram(), e); err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	log = log[:0]
	if err := c.Execute(e); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	want := []string{"execute:Visual", "execute:Audio"}
	if len(log) != len(want) {
		t.Fatalf("call log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("call log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestBackendCompileErrorAbortsCompile(t *testing.T) {
	c := New()
	visual := newFakeBackend(types.ContextVisual)
	visual.compileErr = errors.New("shader compilation failed")
	if err := c.RegisterBackend(visual); err != nil {
		t.Fatal(err)
	}

	err := c.Compile(visualChainProgram(), env.New(64, 64))
	if err == nil || err.Error() != "shader compilation failed" {
		t.Fatalf("want backend error surfaced, got %v", err)
	}
	if c.Running() {
		t.Error("failed compile must leave the coordinator not running")
	}
}

func TestBackendExecuteErrorAbortsTickOnly(t *testing.T) {
	c := New()
	visual := newFakeBackend(types.ContextVisual)
	if err := c.RegisterBackend(visual); err != nil {
		t.Fatal(err)
	}
	e := env.New(64, 64)
	if err := c.Compile(visualChainProgram(), e); err != nil {
		t.Fatal(err)
	}

	visual.executeErr = errors.New("device lost")
	if err := c.Execute(e); err == nil {
		t.Fatal("tick should surface the backend error")
	}
	if !c.Running() {
		t.Error("a failed tick must not stop the coordinator")
	}

	visual.executeErr = nil
	if err := c.Execute(e); err != nil {
		t.Errorf("subsequent tick should succeed: %v", err)
	}
}

func TestRecompileClearsRegistry(t *testing.T) {
	c := New()
	visual := newFakeBackend(types.ContextVisual)
	if err := c.RegisterBackend(visual); err != nil {
		t.Fatal(err)
	}
	e := env.New(64, 64)
	if err := c.Compile(visualChainProgram(), e); err != nil {
		t.Fatal(err)
	}
	if !c.Registry().Contains("a", "x") {
		t.Fatal("first compile should expose a@x")
	}

	second := program(
		bind("solo", []string{"s"}, num(7)),
		sink("display", access("solo", "s")),
	)
	if err := c.Compile(second, e); err != nil {
		t.Fatal(err)
	}
	if c.Registry().Contains("a", "x") {
		t.Error("recompile must clear stale registry entries")
	}
	if !c.Registry().Contains("solo", "s") {
		t.Error("recompile should expose the new program's outputs")
	}
}

func TestExposeOutsideCompileIsDropped(t *testing.T) {
	c := New()
	c.Expose("rogue", "x", types.NewBufferHandle(nil))
	if c.Registry().Len() != 0 {
		t.Error("expose outside the compile phase must not mutate the registry")
	}
}

// ============================================================================
// Lookup
// ============================================================================

func compileSingle(t *testing.T, b *fakeBackend) *Coordinator {
	t.Helper()
	c := New()
	if err := c.RegisterBackend(b); err != nil {
		t.Fatal(err)
	}
	prog := program(
		bind("a", []string{"x"}, num(1)),
		sink("display", access("a", "x")),
	)
	if err := c.Compile(prog, env.New(64, 64)); err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	return c
}

func TestLookupMissReturnsError(t *testing.T) {
	c := compileSingle(t, newFakeBackend(types.ContextVisual))
	_, err := c.Lookup("ghost", "y")
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("want not-found error, got %v", err)
	}
}

func TestLookupReturnsBufferHandle(t *testing.T) {
	b := newFakeBackend(types.ContextVisual)
	b.handles = true
	b.handleByOutput["a@x"] = types.NewBufferHandle("gpu-buffer-0")
	c := compileSingle(t, b)

	ref, err := c.Lookup("a", "x")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if ref.Kind != backend.RefBuffer {
		t.Errorf("ref kind = %v, want buffer", ref.Kind)
	}
	if ref.Handle.Value != "gpu-buffer-0" {
		t.Errorf("handle value = %v", ref.Handle.Value)
	}
}

func TestLookupReturnsTextureHandle(t *testing.T) {
	b := newFakeBackend(types.ContextVisual)
	b.handles = true
	b.handleByOutput["a@x"] = types.NewTextureHandle("tex-1")
	c := compileSingle(t, b)

	ref, err := c.Lookup("a", "x")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if ref.Kind != backend.RefTexture {
		t.Errorf("ref kind = %v, want texture", ref.Kind)
	}
}

func TestLookupSamplerIsNotData(t *testing.T) {
	b := newFakeBackend(types.ContextVisual)
	b.handles = true
	b.handleByOutput["a@x"] = types.NewSamplerHandle("movie.mp4")
	c := compileSingle(t, b)

	_, err := c.Lookup("a", "x")
	if !errors.Is(err, types.ErrSamplerNotData) {
		t.Fatalf("want sampler error, got %v", err)
	}
}

func TestLookupFallsBackToValueGetter(t *testing.T) {
	b := newFakeBackend(types.ContextVisual)
	b.valueByOutput["a@x"] = 0.75
	c := compileSingle(t, b)

	ref, err := c.Lookup("a", "x")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if ref.Kind != backend.RefValueGetter {
		t.Fatalf("ref kind = %v, want value getter", ref.Kind)
	}
	got := ref.Getter(map[string]float64{"x": 0, "y": 0}, env.New(64, 64))
	if got != 0.75 {
		t.Errorf("getter value = %v, want 0.75", got)
	}
}

func TestValueGetterErrorDegradesToZero(t *testing.T) {
	b := newFakeBackend(types.ContextVisual)
	// No canned value: GetValueAt fails, the getter yields 0.
	c := compileSingle(t, b)

	ref, err := c.Lookup("a", "x")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if got := ref.Getter(map[string]float64{"x": 1}, env.New(64, 64)); got != 0 {
		t.Errorf("failed evaluation should yield 0, got %v", got)
	}
}

func TestHandleFailureFallsBackToGetter(t *testing.T) {
	b := newFakeBackend(types.ContextVisual)
	b.handles = true // advertises handles but has none for a@x
	b.valueByOutput["a@x"] = 3.5
	c := compileSingle(t, b)

	ref, err := c.Lookup("a", "x")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if ref.Kind != backend.RefValueGetter {
		t.Fatalf("handle failure should fall back to getter, got %v", ref.Kind)
	}
	if got := ref.Getter(nil, env.New(64, 64)); got != 3.5 {
		t.Errorf("getter value = %v, want 3.5", got)
	}
}

func TestEnvClockAdvancesPerTick(t *testing.T) {
	c := New()
	if err := c.RegisterBackend(newFakeBackend(types.ContextVisual)); err != nil {
		t.Fatal(err)
	}
	e := env.New(64, 64)
	if err := c.Compile(visualChainProgram(), e); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := c.Execute(e); err != nil {
			t.Fatal(err)
		}
	}
	if e.StartTime.IsZero() {
		t.Error("first tick should start the program clock")
	}
	if e.Frame != 2 {
		t.Errorf("frame = %d after 3 ticks, want 2", e.Frame)
	}
}
