// Package coordinator drives compiled WEFT programs: it owns the
// context-typed backends, compiles each subgraph in meta-graph order, runs
// ticks, and routes cross-context lookups through the output registry.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/weftlang/weft/pkg/ast"
	"github.com/weftlang/weft/pkg/backend"
	"github.com/weftlang/weft/pkg/config"
	"github.com/weftlang/weft/pkg/env"
	"github.com/weftlang/weft/pkg/graph"
	"github.com/weftlang/weft/pkg/logging"
	"github.com/weftlang/weft/pkg/observer"
	"github.com/weftlang/weft/pkg/types"
)

// Coordinator owns an ordered list of backends and the output registry, and
// drives per-subgraph compile and execute calls in meta-graph order. It is
// single-threaded: Compile and each Execute tick run on one driver.
type Coordinator struct {
	cfg    *config.Config
	logger *logging.Logger

	backends         []backend.Backend
	contextToBackend map[types.Context]int

	renderGraph *graph.RenderGraph
	meta        *graph.MetaGraph
	registry    *OutputRegistry

	observers *observer.Manager

	compileID string
	running   bool

	// compiling is the index of the backend currently inside
	// CompileSubgraph, -1 outside the compile phase.
	compiling int
}

// New creates a Coordinator with default configuration.
func New() *Coordinator {
	return NewWithConfig(config.Default())
}

// NewWithConfig creates a Coordinator with the given configuration.
func NewWithConfig(cfg *config.Config) *Coordinator {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Coordinator{
		cfg:              cfg,
		logger:           logging.New(logging.DefaultConfig()),
		contextToBackend: make(map[types.Context]int),
		registry:         NewOutputRegistry(),
		observers:        observer.NewManager(),
		compiling:        -1,
	}
}

// SetLogger replaces the coordinator's logger.
func (c *Coordinator) SetLogger(logger *logging.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// RegisterObserver adds a lifecycle observer.
func (c *Coordinator) RegisterObserver(o observer.Observer) {
	c.observers.Register(o)
}

// RegisterBackend appends a backend. Registering two backends for the same
// context is a configuration error.
func (c *Coordinator) RegisterBackend(b backend.Backend) error {
	ctx := b.Context()
	if _, exists := c.contextToBackend[ctx]; exists {
		return fmt.Errorf("%w: %s", types.ErrDuplicateBackend, ctx.Name())
	}
	c.contextToBackend[ctx] = len(c.backends)
	c.backends = append(c.backends, b)
	return nil
}

// Running reports whether a compiled program is loaded.
func (c *Coordinator) Running() bool { return c.running }

// MetaGraph returns the compiled plan, nil before Compile.
func (c *Coordinator) MetaGraph() *graph.MetaGraph { return c.meta }

// RenderGraph returns the graph of the last compile, nil before Compile.
func (c *Coordinator) RenderGraph() *graph.RenderGraph { return c.renderGraph }

// Registry returns the output registry.
func (c *Coordinator) Registry() *OutputRegistry { return c.registry }

// CompileID returns the identifier of the last compile.
func (c *Coordinator) CompileID() string { return c.compileID }

// Compile builds the program's meta-graph and hands each subgraph to its
// context's backend in execution order. Backends expose their outputs
// through the coordinator during this call. A prior registry is cleared and
// rebuilt. On success the coordinator transitions to running.
func (c *Coordinator) Compile(prog *ast.Program, e *env.Env) error {
	c.compileID = uuid.New().String()
	logger := c.logger.WithCompileID(c.compileID)
	start := time.Now()

	c.running = false
	c.registry.Clear()
	c.notify(observer.Event{Type: observer.EventCompileStart, CompileID: c.compileID})

	rg := graph.NewWithConfig(c.cfg)
	meta, err := rg.Build(prog, e)
	if err != nil {
		logger.WithError(err).Error("graph build failed")
		c.notify(observer.Event{Type: observer.EventCompileEnd, CompileID: c.compileID, Error: err})
		return err
	}

	for _, ctx := range meta.ExecutionOrder {
		sub := meta.Subgraphs[ctx]
		idx, ok := c.contextToBackend[ctx]
		if !ok {
			err := fmt.Errorf("%w: %s", types.ErrNoBackend, ctx.Name())
			c.notify(observer.Event{Type: observer.EventCompileEnd, CompileID: c.compileID, Error: err})
			return err
		}

		subStart := time.Now()
		c.compiling = idx
		err := c.backends[idx].CompileSubgraph(sub, e, c)
		c.compiling = -1
		if err != nil {
			logger.WithExecContext(ctx).WithError(err).Error("subgraph compile failed")
			c.notify(observer.Event{Type: observer.EventCompileEnd, CompileID: c.compileID, Error: err})
			return err
		}
		c.notify(observer.Event{
			Type:        observer.EventSubgraphCompile,
			CompileID:   c.compileID,
			Context:     ctx,
			NodeCount:   len(sub.Nodes),
			ElapsedTime: time.Since(subStart),
		})
		logger.WithExecContext(ctx).Debugf("compiled subgraph with %d nodes", len(sub.Nodes))
	}

	c.renderGraph = rg
	c.meta = meta
	c.running = true
	c.notify(observer.Event{
		Type:        observer.EventCompileEnd,
		CompileID:   c.compileID,
		ElapsedTime: time.Since(start),
	})
	logger.Infof("compiled %d contexts, %d outputs exposed", len(meta.ExecutionOrder), c.registry.Len())
	return nil
}

// Execute runs one tick: it refreshes the env clocks and calls every
// backend's ExecuteSubgraph in meta-graph order. A backend error aborts the
// current tick; the coordinator stays running for subsequent calls.
func (c *Coordinator) Execute(e *env.Env) error {
	if !c.running {
		return types.ErrNotCompiled
	}

	e.BeginTick()
	start := time.Now()
	c.notify(observer.Event{Type: observer.EventTickStart, CompileID: c.compileID, Frame: e.Frame})

	for _, ctx := range c.meta.ExecutionOrder {
		sub := c.meta.Subgraphs[ctx]
		idx, ok := c.contextToBackend[ctx]
		if !ok {
			err := fmt.Errorf("%w: %s", types.ErrNoBackend, ctx.Name())
			c.notify(observer.Event{Type: observer.EventTickEnd, CompileID: c.compileID, Frame: e.Frame, Error: err})
			return err
		}
		subStart := time.Now()
		if err := c.backends[idx].ExecuteSubgraph(sub, e, c); err != nil {
			c.notify(observer.Event{Type: observer.EventTickEnd, CompileID: c.compileID, Frame: e.Frame, Error: err})
			return err
		}
		c.notify(observer.Event{
			Type:        observer.EventSubgraphExecute,
			CompileID:   c.compileID,
			Context:     ctx,
			NodeCount:   len(sub.Nodes),
			ElapsedTime: time.Since(subStart),
		})
	}

	c.notify(observer.Event{
		Type:        observer.EventTickEnd,
		CompileID:   c.compileID,
		Frame:       e.Frame,
		ElapsedTime: time.Since(start),
	})
	return nil
}

// Expose registers an output the compiling backend will make available.
// Calls are idempotent with last-write-wins semantics. Outside the compile
// phase the registry is read-only and the call is dropped.
func (c *Coordinator) Expose(instance, strand string, handle types.OutputHandle) {
	if c.compiling < 0 {
		c.logger.WithInstance(instance).Warn("expose outside compile phase dropped")
		return
	}
	c.registry.Register(instance, strand, handle, c.compiling)
}

// Lookup resolves an exposed output into a DataRef. When the owning backend
// shares handles, a buffer or texture handle is returned directly; a sampler
// is not a data source and yields an error. Otherwise the result is a
// ValueGetter calling back into the owning backend per coordinate, with
// evaluation errors degrading to 0.
func (c *Coordinator) Lookup(instance, strand string) (backend.DataRef, error) {
	loc, err := c.registry.Get(instance, strand)
	if err != nil {
		return backend.DataRef{}, err
	}
	if loc.BackendIndex < 0 || loc.BackendIndex >= len(c.backends) {
		return backend.DataRef{}, types.ErrBackendIndex
	}
	b := c.backends[loc.BackendIndex]

	if b.SupportsHandles() {
		if handle, err := b.GetHandle(instance, strand); err == nil {
			switch handle.Kind {
			case types.HandleBuffer:
				return backend.BufferRef(handle), nil
			case types.HandleTexture:
				return backend.TextureRef(handle), nil
			case types.HandleSampler:
				return backend.DataRef{}, fmt.Errorf("%w: %s@%s", types.ErrSamplerNotData, instance, strand)
			}
		}
	}

	getter := func(coords map[string]float64, e *env.Env) float64 {
		v, err := b.GetValueAt(instance, strand, coords, e, c)
		if err != nil {
			return 0
		}
		return v
	}
	return backend.GetterRef(getter), nil
}

func (c *Coordinator) notify(event observer.Event) {
	if !c.observers.HasObservers() {
		return
	}
	event.Timestamp = time.Now()
	c.observers.Notify(context.Background(), event)
}
