package graph

import (
	"github.com/weftlang/weft/pkg/ast"
)

// propagateRequiredOutputs computes, per node, the set of strands actually
// consumed by any sink. Backend statement arguments seed the requirement;
// the fixed point then walks each required strand's producer dependencies.
// Backends use the result to skip unused strands of bundled producers.
func (g *RenderGraph) propagateRequiredOutputs(prog *ast.Program) {
	for _, stmt := range prog.Statements {
		sink, ok := stmt.(ast.BackendStmt)
		if !ok {
			continue
		}
		for _, arg := range sink.PositionalArgs {
			for _, dep := range ast.OutputDeps(arg) {
				g.markRequired(dep.Instance, dep.Strand)
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for _, node := range g.nodes {
			for strand := range node.RequiredOutputs {
				for _, dep := range node.OutputDeps[strand] {
					if g.markRequired(dep.Instance, dep.Strand) {
						changed = true
					}
				}
			}
		}
	}
}

// markRequired records that strand of instance is consumed downstream.
// Returns true when the mark is new.
func (g *RenderGraph) markRequired(instance, strand string) bool {
	idx, ok := g.index[instance]
	if !ok {
		return false
	}
	node := g.nodes[idx]
	if _, already := node.RequiredOutputs[strand]; already {
		return false
	}
	node.RequiredOutputs[strand] = struct{}{}
	return true
}
