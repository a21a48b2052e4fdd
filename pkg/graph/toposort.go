package graph

import (
	"fmt"

	"github.com/weftlang/weft/pkg/types"
)

// topoSortNames performs a topological sort over named nodes using Kahn's
// algorithm. Edges are (child, parent) pairs, child before parent. Returns
// the ordered names, or an error if the graph contains a cycle.
//
// Ordering is deterministic: newly-ready nodes are enqueued in name order so
// repeated builds of the same program yield identical orders.
func topoSortNames(names []string, edges [][2]string) ([]string, error) {
	numNodes := len(names)
	if numNodes == 0 {
		return []string{}, nil
	}

	inDegree := make(map[string]int, numNodes)
	adjacency := make(map[string][]string, numNodes)
	for _, name := range names {
		inDegree[name] = 0
	}

	for _, e := range edges {
		adjacency[e[0]] = append(adjacency[e[0]], e[1])
		inDegree[e[1]]++
	}

	// Seed with nodes that have no dependencies, sorted for determinism.
	ready := make([]string, 0, numNodes)
	for _, name := range names {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	insertionSort(ready)

	order := make([]string, 0, numNodes)
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)

		var unlocked []string
		for _, neighbor := range adjacency[current] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				unlocked = append(unlocked, neighbor)
			}
		}
		insertionSort(unlocked)
		ready = append(ready, unlocked...)
	}

	if len(order) != numNodes {
		return nil, fmt.Errorf("%w: graph contains a cycle", types.ErrCircularDependency)
	}
	return order, nil
}

// insertionSort sorts a slice of strings in place. Ready sets are tiny, so
// insertion sort beats the generic sort for the common case.
func insertionSort(arr []string) {
	for i := 1; i < len(arr); i++ {
		key := arr[i]
		j := i - 1
		for j >= 0 && arr[j] > key {
			arr[j+1] = arr[j]
			j--
		}
		arr[j+1] = key
	}
}
