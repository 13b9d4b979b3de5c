package dag

import (
	"sort"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/node"
)

// New builds a Graph from a snapshot of nodes. A later node with the same
// name replaces an earlier one but keeps the earlier position. References to
// unknown names are recorded as missing dependencies rather than edges.
func New(nodes []node.Node) *Graph {
	g := &Graph{nodes: make(map[string]*vertex, len(nodes))}
	declared := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		name := n.Name()
		if _, ok := g.nodes[name]; !ok {
			g.nodes[name] = &vertex{
				name:       name,
				index:      len(g.order),
				deps:       make(map[string]*vertex),
				dependents: make(map[string]*vertex),
			}
			g.order = append(g.order, name)
		}
		declared[name] = n.Dependencies()
	}
	for _, name := range g.order {
		v := g.nodes[name]
		for _, depName := range declared[name] {
			dep, ok := g.nodes[depName]
			if !ok {
				g.missing = append(g.missing, MissingDependency{Node: name, Dependency: depName})
				continue
			}
			v.deps[depName] = dep
			dep.dependents[name] = v
		}
	}
	return g
}

// Nodes returns every node name in registration order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// Has reports whether name is a node of the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Dependencies returns the known nodes that name depends on, in registration order.
func (g *Graph) Dependencies(name string) ([]string, error) {
	v, ok := g.nodes[name]
	if !ok {
		return nil, unknownNode(name)
	}
	return g.sortedKeys(v.deps), nil
}

// Dependents returns the nodes that depend on name, in registration order.
func (g *Graph) Dependents(name string) ([]string, error) {
	v, ok := g.nodes[name]
	if !ok {
		return nil, unknownNode(name)
	}
	return g.sortedKeys(v.dependents), nil
}

// Missing returns dependency references that name no known node.
func (g *Graph) Missing() []MissingDependency {
	return append([]MissingDependency(nil), g.missing...)
}

// SortedNames orders a set of names by registration order; names unknown to
// the graph sort last, alphabetically.
func (g *Graph) SortedNames(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	g.sortNames(out)
	return out
}

func (g *Graph) sortedKeys(m map[string]*vertex) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	g.sortNames(out)
	return out
}

func (g *Graph) sortNames(names []string) {
	sort.Slice(names, func(i, j int) bool {
		a, aok := g.nodes[names[i]]
		b, bok := g.nodes[names[j]]
		switch {
		case aok && bok:
			return a.index < b.index
		case aok != bok:
			return aok
		default:
			return names[i] < names[j]
		}
	})
}
