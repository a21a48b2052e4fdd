// Package types provides shared type definitions for the WEFT core.
//
// # Overview
//
// The types package is the dependency root of the core: it defines the
// Context enumeration, the fixed sink and builtin registry tables, the
// type-erased OutputHandle routed between backends, and the sentinel errors
// that make up the core's error surface. Higher-level packages (graph,
// coordinator, backend) all import types and never each other's internals.
//
// # Contexts
//
// A Context is one of Visual, Audio, or Compute. Contexts carry a numeric
// priority (Visual=0, Audio=1, Compute=2; lower = higher priority). It breaks
// a mutual cross-context dependency when building the meta-graph execution
// order, and AllContexts lists contexts in this order, which the typer and
// the context sort use to order ties.
//
// # Registry tables
//
// ContextOfSink maps terminal backend keywords (display, play, compute, ...)
// to contexts. ContextOfBuiltin maps builtins with an inherent execution
// domain (media loaders, capture devices) to contexts. Both tables are fixed;
// they are the wire contract with source programs.
//
// # Errors
//
// Error values follow the standard sentinel pattern: package-level
// errors.New values wrapped with fmt.Errorf("%w") at call sites, matched
// with errors.Is by callers.
package types
