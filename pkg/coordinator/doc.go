// Package coordinator drives compiled WEFT programs.
//
// # Overview
//
// The Coordinator owns an ordered list of context-typed backends and the
// output registry. Compile builds the meta-graph and hands each subgraph to
// its backend in execution order; Execute runs one tick through the same
// order. Backends talk back through two capability views: the CompileHost
// view (Expose + Lookup) during compile, and the read-only Lookup view
// during execute.
//
// # Lifecycle
//
//	coord := coordinator.New()
//	coord.RegisterBackend(visualBackend)
//	coord.RegisterBackend(audioBackend)
//	if err := coord.Compile(program, env); err != nil {
//	    // Structural error; coordinator is not running.
//	}
//	for {
//	    if err := coord.Execute(env); err != nil {
//	        // Tick aborted; the coordinator stays running.
//	    }
//	}
//
// # Ordering guarantees
//
// Within a tick, contexts execute in the meta-graph's execution order, and
// within a context, nodes execute in the subgraph's topological order.
// Cross-context references resolve against values produced earlier in the
// same tick by the providing context.
//
// # Registry discipline
//
// The registry is mutated only during compile; during execute it is
// read-only. Recompiling clears and rebuilds it.
package coordinator
