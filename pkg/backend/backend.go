// Package backend defines the contract between the WEFT coordinator and its
// context-typed execution backends (visual, audio, compute).
package backend

import (
	"github.com/weftlang/weft/pkg/env"
	"github.com/weftlang/weft/pkg/graph"
	"github.com/weftlang/weft/pkg/types"
)

// Lookup resolves another backend's output into a DataRef. It is the only
// capability backends hold on each other; the coordinator routes the call.
type Lookup interface {
	Lookup(instance, strand string) (DataRef, error)
}

// CompileHost is the coordinator view passed to a backend while compiling.
// Expose registrations are accepted only through this view; execution gets
// the read-only Lookup view instead.
type CompileHost interface {
	Lookup

	// Expose registers an output the backend will make available. Calls are
	// idempotent with last-write-wins semantics.
	Expose(instance, strand string, handle types.OutputHandle)
}

// Backend executes the subgraphs of one context. Implementations own their
// buffers, devices, and command queues; the coordinator owns ordering and
// cross-context routing.
type Backend interface {
	// Context returns the context this backend executes.
	Context() types.Context

	// SupportsHandles reports whether GetHandle can return direct handles.
	SupportsHandles() bool

	// CompileSubgraph prepares the subgraph for execution. The backend must
	// Expose every strand it will make available before returning.
	CompileSubgraph(sub *graph.Subgraph, e *env.Env, host CompileHost) error

	// ExecuteSubgraph runs one tick of the subgraph.
	ExecuteSubgraph(sub *graph.Subgraph, e *env.Env, host Lookup) error

	// GetHandle returns the backend-owned handle for an output, or an error
	// when the output cannot be shared directly.
	GetHandle(instance, strand string) (types.OutputHandle, error)

	// GetValueAt evaluates one output at a coordinate. It is the fallback
	// path when no direct handle is available.
	GetValueAt(instance, strand string, coords map[string]float64, e *env.Env, host Lookup) (float64, error)
}

// ValueGetter lazily evaluates an output per coordinate. Evaluation errors
// degrade to 0 so per-pixel and per-sample evaluation never aborts a tick.
type ValueGetter func(coords map[string]float64, e *env.Env) float64

// DataRefKind discriminates DataRef variants.
type DataRefKind int

const (
	// RefBuffer wraps a direct buffer handle.
	RefBuffer DataRefKind = iota
	// RefTexture wraps a direct texture handle.
	RefTexture
	// RefValueGetter wraps a per-coordinate fallback evaluator.
	RefValueGetter
)

// String implements fmt.Stringer.
func (k DataRefKind) String() string {
	switch k {
	case RefBuffer:
		return "buffer"
	case RefTexture:
		return "texture"
	case RefValueGetter:
		return "value-getter"
	default:
		return "unknown"
	}
}

// DataRef is the resolved form of a cross-backend output: a direct handle
// when the provider can share one, a ValueGetter otherwise.
type DataRef struct {
	Kind   DataRefKind
	Handle types.OutputHandle
	Getter ValueGetter
}

// BufferRef wraps a buffer handle.
func BufferRef(h types.OutputHandle) DataRef {
	return DataRef{Kind: RefBuffer, Handle: h}
}

// TextureRef wraps a texture handle.
func TextureRef(h types.OutputHandle) DataRef {
	return DataRef{Kind: RefTexture, Handle: h}
}

// GetterRef wraps a fallback evaluator.
func GetterRef(g ValueGetter) DataRef {
	return DataRef{Kind: RefValueGetter, Getter: g}
}
