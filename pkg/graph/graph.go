// Package graph builds the WEFT dataflow graph: instance collection, context
// typing, and the per-context meta-graph that drives backend execution.
package graph

import (
	"fmt"

	"github.com/weftlang/weft/pkg/ast"
	"github.com/weftlang/weft/pkg/config"
	"github.com/weftlang/weft/pkg/env"
	"github.com/weftlang/weft/pkg/types"
)

// EdgeLabel classifies a dependency edge after typing.
type EdgeLabel int

const (
	// EdgeNormal connects two nodes of identical context.
	EdgeNormal EdgeLabel = iota
	// EdgeReference connects nodes of differing context and becomes a
	// cross-context data handoff in the meta-graph.
	EdgeReference
)

// String implements fmt.Stringer.
func (l EdgeLabel) String() string {
	if l == EdgeNormal {
		return "normal"
	}
	return "reference"
}

// NodeKind classifies the expression bound to an instance.
type NodeKind int

const (
	KindExpression NodeKind = iota
	KindSpindleCall
	KindBuiltin
)

// String implements fmt.Stringer.
func (k NodeKind) String() string {
	switch k {
	case KindSpindleCall:
		return "spindle"
	case KindBuiltin:
		return "builtin"
	default:
		return "expr"
	}
}

// GraphNode is one instance in the dataflow graph. Nodes are created during
// collection, mutated only during typing, and frozen once edges are rebuilt.
type GraphNode struct {
	// InstanceName is the unique node name. For a context clone it is
	// OriginalName + "$" + the lowercase context name.
	InstanceName string
	// OriginalName is set when the node is a context clone of an original.
	OriginalName string
	Kind         NodeKind

	// Context is valid only when Typed is true.
	Context types.Context
	Typed   bool

	// Outputs maps strand name to the expression producing it.
	Outputs map[string]ast.Expr
	// Deps is the set of instance names referenced anywhere in any output.
	Deps map[string]struct{}
	// OutputDeps maps each strand to the ordered producer strands it reads.
	OutputDeps map[string][]ast.OutputDep
	// RequiredOutputs is the set of strands actually consumed by some sink
	// or downstream required output.
	RequiredOutputs map[string]struct{}

	IsDuplicate bool
}

// setContext assigns a context to the node.
func (n *GraphNode) setContext(c types.Context) {
	n.Context = c
	n.Typed = true
}

// RequiresOutput reports whether strand is consumed downstream.
func (n *GraphNode) RequiresOutput(strand string) bool {
	_, ok := n.RequiredOutputs[strand]
	return ok
}

// edge is a directed child→parent (producer→consumer) arena edge.
type edge struct {
	child  int
	parent int
	label  EdgeLabel
}

// namePair is an original producer→consumer pair recorded before typing.
type namePair struct {
	child  string
	parent string
}

// RenderGraph holds the node arena and drives the build pipeline. The arena
// is indexed by integer; name→index lives in a flat map.
type RenderGraph struct {
	cfg *config.Config

	nodes []*GraphNode
	index map[string]int
	edges []edge

	// originalEdges preserves the pre-typing producer→consumer pairs so the
	// typed edges can be rebuilt after duplication.
	originalEdges []namePair

	// duplicateInto marks original names scheduled for per-context cloning,
	// in priority order.
	duplicateInto map[string][]types.Context
}

// New creates an empty RenderGraph with default configuration.
func New() *RenderGraph {
	return NewWithConfig(config.Default())
}

// NewWithConfig creates an empty RenderGraph enforcing cfg's program limits.
func NewWithConfig(cfg *config.Config) *RenderGraph {
	if cfg == nil {
		cfg = config.Default()
	}
	return &RenderGraph{
		cfg:           cfg,
		index:         make(map[string]int),
		duplicateInto: make(map[string][]types.Context),
	}
}

// Build transforms a program into an executable MetaGraph:
// collect instances, resolve dependencies, reject cycles, assign contexts,
// rebuild typed edges, and partition into per-context subgraphs.
func (g *RenderGraph) Build(prog *ast.Program, e *env.Env) (*MetaGraph, error) {
	if err := g.collectInstances(prog, e); err != nil {
		return nil, err
	}
	if err := g.buildInitialEdges(); err != nil {
		return nil, err
	}
	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}
	g.propagateRequiredOutputs(prog)
	if err := g.phase0InitialTyping(prog); err != nil {
		return nil, err
	}
	g.phase1TypePropagation()
	g.phase2ProcessUntypedComponents()
	g.phase3BuildTypedEdges()
	return g.buildMetaGraph()
}

// Node returns the node with the given instance name.
func (g *RenderGraph) Node(name string) (*GraphNode, bool) {
	idx, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.nodes[idx], true
}

// Nodes returns all nodes in insertion order.
func (g *RenderGraph) Nodes() []*GraphNode {
	out := make([]*GraphNode, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Len returns the number of nodes.
func (g *RenderGraph) Len() int { return len(g.nodes) }

// dependents returns arena indices of nodes consuming idx's outputs.
func (g *RenderGraph) dependents(idx int) []int {
	var out []int
	for _, e := range g.edges {
		if e.child == idx {
			out = append(out, e.parent)
		}
	}
	return out
}

// dependencies returns arena indices of nodes idx consumes.
func (g *RenderGraph) dependencies(idx int) []int {
	var out []int
	for _, e := range g.edges {
		if e.parent == idx {
			out = append(out, e.child)
		}
	}
	return out
}

// neighbors returns the undirected neighborhood of idx.
func (g *RenderGraph) neighbors(idx int) []int {
	var out []int
	for _, e := range g.edges {
		if e.child == idx {
			out = append(out, e.parent)
		}
		if e.parent == idx {
			out = append(out, e.child)
		}
	}
	return out
}

// checkAcyclic rejects programs whose instance graph contains a cycle.
func (g *RenderGraph) checkAcyclic() error {
	names := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		names[i] = n.InstanceName
	}
	pairs := make([][2]string, len(g.originalEdges))
	for i, p := range g.originalEdges {
		pairs[i] = [2]string{p.child, p.parent}
	}
	if _, err := topoSortNames(names, pairs); err != nil {
		return fmt.Errorf("%w in instance graph", types.ErrCircularDependency)
	}
	return nil
}
