package graph

import (
	"testing"

	"github.com/weftlang/weft/pkg/ast"
)

func TestRequiredOutputsSeededFromSink(t *testing.T) {
	prog := program(
		bind("a", []string{"x", "y"}, ast.Tuple{Items: []ast.Expr{num(1), num(2)}}),
		sink("display", access("a", "x")),
	)
	g := New()
	if _, err := g.Build(prog, testEnv()); err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	n, _ := g.Node("a")
	if !n.RequiresOutput("x") {
		t.Error("strand x is consumed by the sink and must be required")
	}
	if n.RequiresOutput("y") {
		t.Error("strand y is never consumed and must not be required")
	}
}

func TestRequiredOutputsPropagateThroughChain(t *testing.T) {
	// sink consumes c@z; c reads b@y; b reads a@x. All three strands are
	// required, while unused bundle strands stay unmarked.
	prog := program(
		bind("a", []string{"x", "unused"}, ast.Tuple{Items: []ast.Expr{num(1), num(9)}}),
		bind("b", []string{"y"}, access("a", "x")),
		bind("c", []string{"z"}, access("b", "y")),
		sink("display", access("c", "z")),
	)
	g := New()
	if _, err := g.Build(prog, testEnv()); err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	tests := []struct {
		instance string
		strand   string
		want     bool
	}{
		{"c", "z", true},
		{"b", "y", true},
		{"a", "x", true},
		{"a", "unused", false},
	}
	for _, tt := range tests {
		n, ok := g.Node(tt.instance)
		if !ok {
			t.Fatalf("node %q missing", tt.instance)
		}
		if got := n.RequiresOutput(tt.strand); got != tt.want {
			t.Errorf("%s@%s required = %v, want %v", tt.instance, tt.strand, got, tt.want)
		}
	}
}

func TestRequiredOutputsSurviveDuplication(t *testing.T) {
	prog := program(
		bind("s", []string{"v", "w"}, ast.Tuple{Items: []ast.Expr{num(1), num(2)}}),
		bind("vo", []string{"c"}, access("s", "v")),
		bind("ao", []string{"a"}, access("s", "v")),
		sink("display", access("vo", "c")),
		sink("play", access("ao", "a")),
	)
	g := New()
	meta, err := g.Build(prog, testEnv())
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	for _, sub := range meta.Subgraphs {
		for _, n := range sub.Nodes {
			if n.OriginalName != "s" {
				continue
			}
			if !n.RequiresOutput("v") {
				t.Errorf("clone %s should inherit required strand v", n.InstanceName)
			}
			if n.RequiresOutput("w") {
				t.Errorf("clone %s should not require unused strand w", n.InstanceName)
			}
		}
	}
}

func TestRequiredOutputsMultipleSinks(t *testing.T) {
	prog := program(
		bind("a", []string{"x", "y"}, ast.Tuple{Items: []ast.Expr{num(1), num(2)}}),
		sink("display", access("a", "x")),
		sink("play", access("a", "y")),
	)
	g := New()
	if _, err := g.Build(prog, testEnv()); err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	n, _ := g.Node("a")
	if !n.RequiresOutput("x") || !n.RequiresOutput("y") {
		t.Error("both strands are consumed by sinks and must be required")
	}
}
