package graph

import (
	"fmt"

	"github.com/weftlang/weft/pkg/ast"
	"github.com/weftlang/weft/pkg/env"
	"github.com/weftlang/weft/pkg/types"
)

// collectInstances creates one GraphNode per InstanceBinding statement,
// de-tupling bundle outputs. A tuple expression pairs items to the declared
// outputs in order; extra outputs beyond the tuple receive no expression.
// Any other expression is shared by every output.
func (g *RenderGraph) collectInstances(prog *ast.Program, e *env.Env) error {
	for _, stmt := range prog.Statements {
		bind, ok := stmt.(ast.InstanceBinding)
		if !ok {
			continue
		}
		if _, exists := g.index[bind.Name]; exists {
			return fmt.Errorf("%w: %s", types.ErrDuplicateInstance, bind.Name)
		}
		if max := g.cfg.MaxOutputsPerNode; max > 0 && len(bind.Outputs) > max {
			return fmt.Errorf("instance %s declares %d outputs, limit is %d",
				bind.Name, len(bind.Outputs), max)
		}

		node := &GraphNode{
			InstanceName:    bind.Name,
			Kind:            classifyNode(bind.Expr, e),
			Outputs:         make(map[string]ast.Expr, len(bind.Outputs)),
			Deps:            make(map[string]struct{}),
			OutputDeps:      make(map[string][]ast.OutputDep, len(bind.Outputs)),
			RequiredOutputs: make(map[string]struct{}),
		}

		if tuple, isTuple := bind.Expr.(ast.Tuple); isTuple {
			for i, outputName := range bind.Outputs {
				if i >= len(tuple.Items) {
					// Outputs beyond the tuple receive no expression;
					// downstream access misses the registry at runtime.
					break
				}
				node.addOutput(outputName, tuple.Items[i])
			}
		} else {
			for _, outputName := range bind.Outputs {
				node.addOutput(outputName, bind.Expr)
			}
		}

		if max := g.cfg.MaxNodes; max > 0 && len(g.nodes) >= max {
			return fmt.Errorf("program exceeds node limit of %d", max)
		}

		g.index[bind.Name] = len(g.nodes)
		g.nodes = append(g.nodes, node)
	}
	return nil
}

// addOutput records one strand expression with its dependency sets.
func (n *GraphNode) addOutput(strand string, expr ast.Expr) {
	n.Outputs[strand] = expr
	n.OutputDeps[strand] = ast.OutputDeps(expr)
	for dep := range ast.InstanceDeps(expr) {
		n.Deps[dep] = struct{}{}
	}
}

// classifyNode determines the node kind: a Call whose callee names a
// user-defined spindle is a spindle call, any other Call is a builtin, and
// everything else is a plain expression.
func classifyNode(expr ast.Expr, e *env.Env) NodeKind {
	name, ok := ast.CalleeName(expr)
	if !ok {
		if _, isCall := expr.(ast.Call); isCall {
			return KindBuiltin
		}
		return KindExpression
	}
	if e != nil && e.IsSpindle(name) {
		return KindSpindleCall
	}
	return KindBuiltin
}

// buildInitialEdges adds one child→parent edge per resolvable dependency and
// records the original name pairs for the post-typing rebuild. Dependencies
// naming instances absent from the program are left dangling; a sink that
// references an undefined instance misses the registry at execute time
// rather than failing the compile.
func (g *RenderGraph) buildInitialEdges() error {
	for parentIdx, node := range g.nodes {
		for _, depName := range sortedKeys(node.Deps) {
			childIdx, ok := g.index[depName]
			if !ok {
				continue
			}
			if max := g.cfg.MaxEdges; max > 0 && len(g.edges) >= max {
				return fmt.Errorf("program exceeds edge limit of %d", max)
			}
			g.originalEdges = append(g.originalEdges, namePair{child: depName, parent: node.InstanceName})
			g.edges = append(g.edges, edge{child: childIdx, parent: parentIdx, label: EdgeNormal})
		}
	}
	return nil
}

// sortedKeys returns map keys in lexical order for deterministic iteration.
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	insertionSort(keys)
	return keys
}
