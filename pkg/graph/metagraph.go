package graph

import (
	"fmt"

	"github.com/weftlang/weft/pkg/types"
)

// Subgraph is the per-context slice of the dataflow graph handed to a
// backend. Edges holds Normal edges only, as local (child, parent) index
// pairs into Nodes. ExecutionOrder is a topological order of Nodes.
type Subgraph struct {
	Context        types.Context
	Nodes          []*GraphNode
	Edges          [][2]int
	ExecutionOrder []string

	index map[string]int
}

// Node returns the subgraph node with the given instance name.
func (s *Subgraph) Node(name string) (*GraphNode, bool) {
	idx, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.Nodes[idx], true
}

// NodeNames returns the subgraph's node names in insertion order.
func (s *Subgraph) NodeNames() []string {
	names := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		names[i] = n.InstanceName
	}
	return names
}

// Reference is a cross-context data handoff: the node FromNode in
// FromContext consumes data produced by ToNode in ToContext. ToContext must
// be compiled and executed before FromContext on each tick, subject to
// priority cycle-breaking.
type Reference struct {
	FromContext types.Context
	FromNode    string
	ToContext   types.Context
	ToNode      string
}

// MetaGraph is the executable plan: per-context subgraphs, the inter-context
// DAG, the order contexts run in, and every cross-context reference.
type MetaGraph struct {
	Subgraphs      map[types.Context]*Subgraph
	ContextDAG     map[types.Context][]types.Context
	ExecutionOrder []types.Context
	References     []Reference
}

// buildMetaGraph partitions the typed arena into subgraphs and orders them.
func (g *RenderGraph) buildMetaGraph() (*MetaGraph, error) {
	subgraphs, references, err := g.extractSubgraphs()
	if err != nil {
		return nil, err
	}
	dag, order, err := buildContextDAG(subgraphs, references)
	if err != nil {
		return nil, err
	}
	return &MetaGraph{
		Subgraphs:      subgraphs,
		ContextDAG:     dag,
		ExecutionOrder: order,
		References:     references,
	}, nil
}

// extractSubgraphs groups typed nodes by context, assigns Normal edges to
// the owning subgraph, and emits a Reference for every cross-context edge
// whose consumer is typed. Edges into untyped leftovers are dead code and
// dropped.
func (g *RenderGraph) extractSubgraphs() (map[types.Context]*Subgraph, []Reference, error) {
	subgraphs := make(map[types.Context]*Subgraph)

	for _, node := range g.nodes {
		if !node.Typed {
			continue
		}
		sub, ok := subgraphs[node.Context]
		if !ok {
			sub = &Subgraph{Context: node.Context, index: make(map[string]int)}
			subgraphs[node.Context] = sub
		}
		sub.index[node.InstanceName] = len(sub.Nodes)
		sub.Nodes = append(sub.Nodes, node)
	}

	var references []Reference
	for _, e := range g.edges {
		child, parent := g.nodes[e.child], g.nodes[e.parent]
		switch e.label {
		case EdgeNormal:
			if !child.Typed || !parent.Typed {
				continue
			}
			sub := subgraphs[child.Context]
			sub.Edges = append(sub.Edges, [2]int{
				sub.index[child.InstanceName],
				sub.index[parent.InstanceName],
			})
		case EdgeReference:
			if !child.Typed || !parent.Typed {
				continue
			}
			references = append(references, Reference{
				FromContext: parent.Context,
				FromNode:    parent.InstanceName,
				ToContext:   child.Context,
				ToNode:      child.InstanceName,
			})
		}
	}

	for _, c := range types.AllContexts() {
		sub, ok := subgraphs[c]
		if !ok {
			continue
		}
		order, err := topoSortSubgraph(sub)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: cycle in %s subgraph", types.ErrCircularDependency, c.Name())
		}
		sub.ExecutionOrder = order
	}

	return subgraphs, references, nil
}

func topoSortSubgraph(sub *Subgraph) ([]string, error) {
	names := sub.NodeNames()
	edges := make([][2]string, len(sub.Edges))
	for i, e := range sub.Edges {
		edges[i] = [2]string{names[e[0]], names[e[1]]}
	}
	return topoSortNames(names, edges)
}

// buildContextDAG derives the inter-context execution order. Each Reference
// adds a provider→consumer edge. When both directions exist between a pair
// of contexts, only the edge whose provider has higher priority (lower
// ordinal) survives; a cycle that remains after the tie-break is fatal.
func buildContextDAG(subgraphs map[types.Context]*Subgraph, references []Reference) (map[types.Context][]types.Context, []types.Context, error) {
	dag := make(map[types.Context][]types.Context)
	var contexts []types.Context
	for _, c := range types.AllContexts() {
		if _, ok := subgraphs[c]; ok {
			contexts = append(contexts, c)
			dag[c] = nil
		}
	}

	// pair (consumer, provider) → present, for bidirectional detection.
	type pair struct{ from, to types.Context }
	edgeSet := make(map[pair]bool, len(references))
	for _, ref := range references {
		edgeSet[pair{ref.FromContext, ref.ToContext}] = true
	}

	added := make(map[pair]bool)
	for _, ref := range references {
		p := pair{ref.FromContext, ref.ToContext}
		reverse := pair{ref.ToContext, ref.FromContext}
		if added[p] {
			continue
		}
		// Mutual dependency: keep only the direction whose provider has
		// higher priority, so the higher-priority context runs first.
		if edgeSet[reverse] && ref.ToContext.Priority() > ref.FromContext.Priority() {
			continue
		}
		dag[ref.ToContext] = append(dag[ref.ToContext], ref.FromContext)
		added[p] = true
	}

	order, err := topoSortContexts(contexts, dag)
	if err != nil {
		return nil, nil, err
	}
	return dag, order, nil
}

// topoSortContexts orders contexts against the DAG, preferring higher
// priority among simultaneously-ready contexts for stable output.
func topoSortContexts(contexts []types.Context, dag map[types.Context][]types.Context) ([]types.Context, error) {
	inDegree := make(map[types.Context]int, len(contexts))
	for _, c := range contexts {
		inDegree[c] = 0
	}
	for _, consumers := range dag {
		for _, consumer := range consumers {
			inDegree[consumer]++
		}
	}

	order := make([]types.Context, 0, len(contexts))
	remaining := len(contexts)
	done := make(map[types.Context]bool)

	for remaining > 0 {
		progressed := false
		for _, c := range types.AllContexts() {
			if done[c] {
				continue
			}
			if _, present := inDegree[c]; !present {
				continue
			}
			if inDegree[c] != 0 {
				continue
			}
			done[c] = true
			order = append(order, c)
			remaining--
			progressed = true
			for _, consumer := range dag[c] {
				inDegree[consumer]--
			}
		}
		if !progressed {
			return nil, types.ErrContextCycle
		}
	}
	return order, nil
}
