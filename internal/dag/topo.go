package dag

import (
	"container/heap"
)

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopologicalSort orders every node, or only the given subset, so that each
// node follows all of its dependencies that are also in the result.
// Dependencies outside the subset are treated as already satisfied.
//
// Ties are broken by registration order. An unknown subset name yields
// ErrUnknownNode and a cycle inside the set yields ErrCycle.
func (g *Graph) TopologicalSort(subset ...string) ([]string, error) {
	set, err := g.selection(subset)
	if err != nil {
		return nil, err
	}

	indeg := make(map[string]int, len(set))
	for name := range set {
		for dep := range g.nodes[name].deps {
			if _, ok := set[dep]; ok {
				indeg[name]++
			}
		}
	}

	ready := &intMinHeap{}
	heap.Init(ready)
	for name := range set {
		if indeg[name] == 0 {
			heap.Push(ready, g.nodes[name].index)
		}
	}

	out := make([]string, 0, len(set))
	for ready.Len() > 0 {
		v := g.nodes[g.order[heap.Pop(ready).(int)]]
		out = append(out, v.name)
		for name, dependent := range v.dependents {
			if _, ok := set[name]; !ok {
				continue
			}
			indeg[name]--
			if indeg[name] == 0 {
				heap.Push(ready, dependent.index)
			}
		}
	}

	if len(out) != len(set) {
		placed := make(map[string]struct{}, len(out))
		for _, name := range out {
			placed[name] = struct{}{}
		}
		remaining := make(map[string]struct{}, len(set)-len(out))
		for name := range set {
			if _, ok := placed[name]; !ok {
				remaining[name] = struct{}{}
			}
		}
		return nil, cycleAmong(g.SortedNames(remaining))
	}
	return out, nil
}

// ExecutionLevels partitions all nodes into levels: level k holds exactly
// the nodes whose dependencies all sit in levels below k. Nodes within a
// level are mutually independent and listed in registration order.
func (g *Graph) ExecutionLevels() ([][]string, error) {
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	return g.levelsOf(order), nil
}

// LevelsOf partitions an already planned subset into levels, ignoring
// dependencies outside the subset.
func (g *Graph) LevelsOf(subset []string) ([][]string, error) {
	order, err := g.TopologicalSort(subset...)
	if err != nil {
		return nil, err
	}
	return g.levelsOf(order), nil
}

// levelsOf assigns each node its longest-path depth within order. order
// must be topologically sorted.
func (g *Graph) levelsOf(order []string) [][]string {
	inOrder := make(map[string]struct{}, len(order))
	for _, name := range order {
		inOrder[name] = struct{}{}
	}
	depth := make(map[string]int, len(order))
	var levels [][]string
	for _, name := range order {
		d := 0
		for dep := range g.nodes[name].deps {
			if _, ok := inOrder[dep]; !ok {
				continue
			}
			if depth[dep]+1 > d {
				d = depth[dep] + 1
			}
		}
		depth[name] = d
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], name)
	}
	for _, level := range levels {
		g.sortNames(level)
	}
	return levels
}

func (g *Graph) selection(subset []string) (map[string]struct{}, error) {
	if len(subset) == 0 {
		set := make(map[string]struct{}, len(g.order))
		for _, name := range g.order {
			set[name] = struct{}{}
		}
		return set, nil
	}
	set := make(map[string]struct{}, len(subset))
	for _, name := range subset {
		if _, ok := g.nodes[name]; !ok {
			return nil, unknownNode(name)
		}
		set[name] = struct{}{}
	}
	return set, nil
}
