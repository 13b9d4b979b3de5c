package dag

// Graph is a collection of nodes and their dependencies.
type Graph struct {
	// order holds node names in registration order; it is the tie-breaker
	// for every deterministic output.
	order []string
	// nodes stores all vertices keyed by name.
	nodes map[string]*vertex
	// missing lists dependency references to names that are not in the graph.
	missing []MissingDependency
}

// vertex is a single node in the graph. Edges only connect known vertices.
type vertex struct {
	name  string
	index int
	// deps holds the vertices this one depends on (predecessors).
	deps map[string]*vertex
	// dependents holds the vertices that depend on this one (successors).
	dependents map[string]*vertex
}

// MissingDependency records a declared dependency that names no known node.
type MissingDependency struct {
	Node       string
	Dependency string
}
