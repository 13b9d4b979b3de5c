package dag

import (
	"fmt"
	"strings"
)

// DetectCycles returns one entry per cycle found, each listing the member
// names in dependency order (every member depends on the next, the last on
// the first). An empty result means the graph is acyclic. Safe on any
// input, cyclic or not.
//
// The search is a depth-first walk along dependency edges; every back edge
// yields one cycle. Cycles that are rotations of each other are reported
// once, rotated to start at the earliest registered member.
func (g *Graph) DetectCycles() [][]string {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(g.order))
	var stack []*vertex
	var cycles [][]string
	seen := make(map[string]struct{})

	var visit func(v *vertex)
	visit = func(v *vertex) {
		color[v.name] = gray
		stack = append(stack, v)
		for _, depName := range g.sortedKeys(v.deps) {
			dep := v.deps[depName]
			switch color[depName] {
			case white:
				visit(dep)
			case gray:
				cycle := g.cycleFromStack(stack, dep)
				key := strings.Join(cycle, "\x00")
				if _, dup := seen[key]; !dup {
					seen[key] = struct{}{}
					cycles = append(cycles, cycle)
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[v.name] = black
	}

	for _, name := range g.order {
		if color[name] == white {
			visit(g.nodes[name])
		}
	}
	return cycles
}

// cycleFromStack extracts the stack suffix starting at target and rotates it
// so the earliest registered member comes first.
func (g *Graph) cycleFromStack(stack []*vertex, target *vertex) []string {
	start := len(stack) - 1
	for start >= 0 && stack[start] != target {
		start--
	}
	members := stack[start:]
	first := 0
	for i, v := range members {
		if v.index < members[first].index {
			first = i
		}
	}
	cycle := make([]string, 0, len(members))
	for i := range members {
		cycle = append(cycle, members[(first+i)%len(members)].name)
	}
	return cycle
}

// MissingErrors renders one message per missing dependency reference.
func (g *Graph) MissingErrors() []string {
	errs := make([]string, 0, len(g.missing))
	for _, m := range g.missing {
		errs = append(errs, fmt.Sprintf("node %q depends on unknown node %q", m.Node, m.Dependency))
	}
	return errs
}

// Validate combines missing-dependency errors and one error per detected
// cycle. An empty list means the graph is safe to schedule on.
func (g *Graph) Validate() []string {
	errs := g.MissingErrors()
	for _, cycle := range g.DetectCycles() {
		errs = append(errs, fmt.Sprintf("%s: %s", ErrCycle, formatCycle(cycle)))
	}
	return errs
}
