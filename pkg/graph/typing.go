package graph

import (
	"fmt"
	"strings"

	"github.com/weftlang/weft/pkg/ast"
	"github.com/weftlang/weft/pkg/types"
)

// cloneName is the instance name of a context clone.
func cloneName(original string, c types.Context) string {
	return original + "$" + strings.ToLower(c.Name())
}

// ============================================================================
// Phase 0 — seeding
// ============================================================================

// phase0InitialTyping seeds contexts from two sources: builtins with an
// inherent context, then backend statements. A sink assignment overwrites a
// builtin assignment when both apply.
func (g *RenderGraph) phase0InitialTyping(prog *ast.Program) error {
	// 0a: inherent builtin contexts.
	for _, node := range g.nodes {
		if node.Kind != KindBuiltin {
			continue
		}
		name, ok := builtinName(node)
		if !ok {
			continue
		}
		if c, inherent := types.ContextOfBuiltin(name); inherent {
			node.setContext(c)
		}
	}

	// 0b: sink statements pin every instance their positional arguments
	// reference.
	for _, stmt := range prog.Statements {
		sink, ok := stmt.(ast.BackendStmt)
		if !ok {
			continue
		}
		c, known := types.ContextOfSink(sink.Keyword)
		if !known {
			return fmt.Errorf("%w: %s", types.ErrUnknownSink, sink.Keyword)
		}
		for _, arg := range sink.PositionalArgs {
			g.typeExprAs(arg, c)
		}
	}
	return nil
}

// builtinName extracts the callee name from a builtin node's outputs.
func builtinName(node *GraphNode) (string, bool) {
	for _, strand := range sortedOutputNames(node) {
		if name, ok := ast.CalleeName(node.Outputs[strand]); ok {
			return name, true
		}
	}
	return "", false
}

func sortedOutputNames(node *GraphNode) []string {
	names := make([]string, 0, len(node.Outputs))
	for name := range node.Outputs {
		names = append(names, name)
	}
	insertionSort(names)
	return names
}

// typeExprAs recursively assigns c to every instance referenced from expr.
func (g *RenderGraph) typeExprAs(expr ast.Expr, c types.Context) {
	switch e := expr.(type) {
	case ast.StrandAccess:
		if base, ok := e.Base.(ast.Var); ok {
			g.typeNode(base.Name, c)
		}
	case ast.StrandRemap:
		if base, ok := e.Base.(ast.Var); ok {
			g.typeNode(base.Name, c)
		}
		for _, m := range e.Mappings {
			g.typeExprAs(m.Value, c)
		}
	case ast.Binary:
		g.typeExprAs(e.Left, c)
		g.typeExprAs(e.Right, c)
	case ast.Unary:
		g.typeExprAs(e.Expr, c)
	case ast.Call:
		for _, arg := range e.Args {
			g.typeExprAs(arg, c)
		}
	case ast.If:
		g.typeExprAs(e.Cond, c)
		g.typeExprAs(e.Then, c)
		g.typeExprAs(e.Else, c)
	case ast.Tuple:
		for _, item := range e.Items {
			g.typeExprAs(item, c)
		}
	case ast.Index:
		g.typeExprAs(e.Base, c)
		g.typeExprAs(e.Index, c)
	}
}

func (g *RenderGraph) typeNode(name string, c types.Context) {
	if idx, ok := g.index[name]; ok {
		g.nodes[idx].setContext(c)
	}
}

// ============================================================================
// Phase 1 — bidirectional propagation
// ============================================================================

// phase1TypePropagation pushes contexts along edges until fixed point.
// Bottom-up assigns an untyped node the context of its dependents when they
// agree on exactly one; top-down does the same from dependencies. Each pass
// runs to its own fixed point, and the outer loop repeats while either made
// progress.
func (g *RenderGraph) phase1TypePropagation() {
	for {
		progressed := g.propagate(g.dependents)
		progressed = g.propagate(g.dependencies) || progressed
		if !progressed {
			return
		}
	}
}

// propagate runs one direction to fixed point. neighborsOf selects which
// side of the edges drives the assignment.
func (g *RenderGraph) propagate(neighborsOf func(int) []int) bool {
	progressed := false
	for changed := true; changed; {
		changed = false
		for idx, node := range g.nodes {
			if node.Typed {
				continue
			}
			neighbors := neighborsOf(idx)
			if len(neighbors) == 0 {
				continue
			}
			c, unique := uniqueContext(g.nodes, neighbors)
			if !unique {
				continue
			}
			node.setContext(c)
			changed = true
			progressed = true
		}
	}
	return progressed
}

// uniqueContext returns the context shared by every typed node in idxs, and
// whether exactly one distinct context was found.
func uniqueContext(nodes []*GraphNode, idxs []int) (types.Context, bool) {
	var found types.Context
	count := 0
	for _, idx := range idxs {
		n := nodes[idx]
		if !n.Typed {
			continue
		}
		if count == 0 || n.Context != found {
			count++
			found = n.Context
		}
	}
	return found, count == 1
}

// ============================================================================
// Phase 2 — untyped components
// ============================================================================

// phase2ProcessUntypedComponents resolves connected components of untyped
// nodes. A component with no typed dependency and multiple consuming
// contexts is duplicated into each; a component with a typed dependency is
// pinned to a single context (duplicating it would fork dataflow from a
// materialized source); a component with one target context is assigned it.
func (g *RenderGraph) phase2ProcessUntypedComponents() {
	visited := make(map[int]bool)

	for start, node := range g.nodes {
		if node.Typed || visited[start] {
			continue
		}
		component, hasTypedDep := g.untypedComponent(start, visited)
		targets := g.componentTargets(component)

		switch {
		case hasTypedDep:
			chosen := g.pickContext(component, targets)
			for _, idx := range component {
				g.nodes[idx].setContext(chosen)
			}
		case len(targets) > 1:
			for _, idx := range component {
				g.duplicateInto[g.nodes[idx].InstanceName] = targets
			}
		case len(targets) == 1:
			for _, idx := range component {
				g.nodes[idx].setContext(targets[0])
			}
		}
		// A component no typed node depends on is dead code; it stays
		// untyped and is dropped from the meta-graph.
	}

	g.createDuplicates()
}

// untypedComponent walks the undirected view from start collecting the
// connected untyped component, and reports whether any member depends on an
// already-typed node.
func (g *RenderGraph) untypedComponent(start int, visited map[int]bool) ([]int, bool) {
	var component []int
	stack := []int{start}

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[idx] || g.nodes[idx].Typed {
			continue
		}
		visited[idx] = true
		component = append(component, idx)

		for _, neighbor := range g.neighbors(idx) {
			if !visited[neighbor] && !g.nodes[neighbor].Typed {
				stack = append(stack, neighbor)
			}
		}
	}

	for _, idx := range component {
		for _, dep := range g.dependencies(idx) {
			if g.nodes[dep].Typed {
				return component, true
			}
		}
	}
	return component, false
}

// componentTargets returns the contexts of the component's typed dependents
// in priority order.
func (g *RenderGraph) componentTargets(component []int) []types.Context {
	seen := make(map[types.Context]bool)
	for _, idx := range component {
		for _, dependent := range g.dependents(idx) {
			if n := g.nodes[dependent]; n.Typed {
				seen[n.Context] = true
			}
		}
	}
	var targets []types.Context
	for _, c := range types.AllContexts() {
		if seen[c] {
			targets = append(targets, c)
		}
	}
	return targets
}

// pickContext chooses the context of the first typed dependency discovered,
// falling back to the highest-priority target context.
func (g *RenderGraph) pickContext(component []int, targets []types.Context) types.Context {
	for _, idx := range component {
		for _, dep := range g.dependencies(idx) {
			if n := g.nodes[dep]; n.Typed {
				return n.Context
			}
		}
	}
	if len(targets) > 0 {
		return targets[0]
	}
	return types.ContextCompute
}

// createDuplicates rebuilds the arena, replacing each marked node with one
// clone per target context. All other nodes carry over unchanged.
func (g *RenderGraph) createDuplicates() {
	if len(g.duplicateInto) == 0 {
		return
	}

	newNodes := make([]*GraphNode, 0, len(g.nodes))
	newIndex := make(map[string]int)

	for _, node := range g.nodes {
		contexts, duplicated := g.duplicateInto[node.InstanceName]
		if !duplicated {
			newIndex[node.InstanceName] = len(newNodes)
			newNodes = append(newNodes, node)
			continue
		}
		for _, c := range contexts {
			clone := node.cloneFor(c)
			newIndex[clone.InstanceName] = len(newNodes)
			newNodes = append(newNodes, clone)
		}
	}

	g.nodes = newNodes
	g.index = newIndex
}

// cloneFor copies the node into context c under its clone name.
func (n *GraphNode) cloneFor(c types.Context) *GraphNode {
	clone := &GraphNode{
		InstanceName:    cloneName(n.InstanceName, c),
		OriginalName:    n.InstanceName,
		Kind:            n.Kind,
		Outputs:         make(map[string]ast.Expr, len(n.Outputs)),
		Deps:            make(map[string]struct{}, len(n.Deps)),
		OutputDeps:      make(map[string][]ast.OutputDep, len(n.OutputDeps)),
		RequiredOutputs: make(map[string]struct{}, len(n.RequiredOutputs)),
		IsDuplicate:     true,
	}
	clone.setContext(c)
	for k, v := range n.Outputs {
		clone.Outputs[k] = v
	}
	for k := range n.Deps {
		clone.Deps[k] = struct{}{}
	}
	for k, v := range n.OutputDeps {
		deps := make([]ast.OutputDep, len(v))
		copy(deps, v)
		clone.OutputDeps[k] = deps
	}
	for k := range n.RequiredOutputs {
		clone.RequiredOutputs[k] = struct{}{}
	}
	return clone
}

// ============================================================================
// Phase 3 — rebuild edges
// ============================================================================

// phase3BuildTypedEdges discards the collection edges and reconnects the
// original producer→consumer pairs against the post-duplication arena,
// labeling each edge Normal or Reference by endpoint context.
func (g *RenderGraph) phase3BuildTypedEdges() {
	g.edges = g.edges[:0]

	for _, pair := range g.originalEdges {
		childContexts, childDuplicated := g.duplicateInto[pair.child]
		_, parentDuplicated := g.duplicateInto[pair.parent]

		if childDuplicated && parentDuplicated {
			// Both sides were cloned into the same component's contexts;
			// connect matching clones pairwise.
			for _, c := range childContexts {
				childIdx, childOK := g.index[cloneName(pair.child, c)]
				parentIdx, parentOK := g.index[cloneName(pair.parent, c)]
				if childOK && parentOK {
					g.addTypedEdge(childIdx, parentIdx)
				}
			}
			continue
		}

		for _, childIdx := range g.concreteNodes(pair.child) {
			for _, parentIdx := range g.concreteNodes(pair.parent) {
				child, parent := g.nodes[childIdx], g.nodes[parentIdx]
				// A duplicate connects only across matching contexts; other
				// pairings would re-merge the forked dataflow.
				if (childDuplicated || parentDuplicated) && !sameContext(child, parent) {
					continue
				}
				g.addTypedEdge(childIdx, parentIdx)
			}
		}
	}
}

// concreteNodes resolves an original name to its post-duplication arena
// indices: every clone for duplicated names, the single node otherwise.
func (g *RenderGraph) concreteNodes(original string) []int {
	if contexts, duplicated := g.duplicateInto[original]; duplicated {
		var out []int
		for _, c := range contexts {
			if idx, ok := g.index[cloneName(original, c)]; ok {
				out = append(out, idx)
			}
		}
		return out
	}
	if idx, ok := g.index[original]; ok {
		return []int{idx}
	}
	return nil
}

func sameContext(a, b *GraphNode) bool {
	return a.Typed == b.Typed && (!a.Typed || a.Context == b.Context)
}

func (g *RenderGraph) addTypedEdge(childIdx, parentIdx int) {
	label := EdgeNormal
	if !sameContext(g.nodes[childIdx], g.nodes[parentIdx]) {
		label = EdgeReference
	}
	g.edges = append(g.edges, edge{child: childIdx, parent: parentIdx, label: label})
}
