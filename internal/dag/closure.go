package dag

// ChangedSubgraph returns changed plus every node reachable from it by
// following "depends on me" edges. A node whose upstream input changed has
// a stale output even if its own detector saw nothing, so it must run too.
func (g *Graph) ChangedSubgraph(changed ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(changed))
	queue := make([]*vertex, 0, len(changed))
	for _, name := range changed {
		if _, seen := out[name]; seen {
			continue
		}
		out[name] = struct{}{}
		if v, ok := g.nodes[name]; ok {
			queue = append(queue, v)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for name, dependent := range v.dependents {
			if _, seen := out[name]; seen {
				continue
			}
			out[name] = struct{}{}
			queue = append(queue, dependent)
		}
	}
	return out
}

// Upstream returns the members of set that name transitively depends on.
// The engine uses it to explain why a propagated node was pulled into a plan.
func (g *Graph) Upstream(name string, set map[string]struct{}) []string {
	v, ok := g.nodes[name]
	if !ok {
		return nil
	}
	found := make(map[string]struct{})
	visited := map[string]struct{}{name: {}}
	stack := []*vertex{v}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for depName, dep := range cur.deps {
			if _, seen := visited[depName]; seen {
				continue
			}
			visited[depName] = struct{}{}
			if _, ok := set[depName]; ok {
				found[depName] = struct{}{}
			}
			stack = append(stack, dep)
		}
	}
	return g.SortedNames(found)
}
