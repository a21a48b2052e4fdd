// Package graph builds the WEFT dataflow graph and its executable plan.
//
// # Overview
//
// The graph package turns a parsed program into a MetaGraph: a per-context
// partition of the dataflow graph into subgraphs, each context-homogeneous
// and topologically ordered, plus the ordered execution of contexts and the
// cross-context data handoffs between them.
//
// # Pipeline
//
// Build runs the phases in a fixed order:
//
//  1. Collect — one GraphNode per instance binding, de-tupling bundle
//     outputs and extracting instance-level and strand-level dependencies.
//  2. Cycle check — a program whose instance graph is cyclic is rejected.
//  3. Required outputs — mark the strands each sink transitively consumes.
//  4. Typing phase 0 — seed contexts from inherent builtins, then from
//     backend statements (sinks win when both apply).
//  5. Typing phase 1 — bidirectional propagation to fixed point.
//  6. Typing phase 2 — untyped components are assigned a single context or
//     duplicated into every consuming context.
//  7. Typing phase 3 — edges are rebuilt against the post-duplication arena
//     and labeled Normal or Reference.
//  8. Meta-graph — partition into subgraphs, topologically order nodes and
//     contexts, break context-level cycles by priority.
//
// # Representation
//
// Nodes live in an arena indexed by integer; edges are (child, parent,
// label) triples; name→index lives in a flat map. All typing phases mutate
// the arena in place. Orders are deterministic: building the same program
// twice yields identical node sets, edge labels, and execution orders.
package graph
