// Package backend defines the contract between the coordinator and the
// concrete execution backends.
//
// # Overview
//
// The core never executes user expressions itself: each context's subgraph
// is handed to a Backend, which compiles and runs it however it likes (CPU
// loops, GPU pipelines, audio callbacks). The coordinator drives the
// per-tick call sequence and routes cross-context data through DataRefs.
//
// # Capability views
//
// During compile a backend receives a CompileHost: it may Expose outputs and
// Lookup other backends' outputs. During execute it receives the narrower
// Lookup view; the output registry is read-only once compilation finishes.
//
// # Data handoff
//
// Lookup resolves to a direct handle (buffer or texture) when the providing
// backend supports handle sharing, and to a ValueGetter otherwise. A sampler
// handle is never a data source; looking one up is an error. ValueGetter
// evaluation errors degrade to 0.
package backend
