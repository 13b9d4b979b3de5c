package dag

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nodesOf builds a node list from name -> deps pairs, preserving argument order.
func nodesOf(pairs ...any) []node.Node {
	var nodes []node.Node
	for i := 0; i < len(pairs); i += 2 {
		name := pairs[i].(string)
		var deps []string
		if pairs[i+1] != nil {
			deps = pairs[i+1].([]string)
		}
		nodes = append(nodes, node.NewFunc(name, func(context.Context, *flow.Context) (*flow.Result, error) {
			return flow.Succeeded(), nil
		}, deps, nil))
	}
	return nodes
}

func deps(names ...string) []string { return names }

func set(names ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

func diamond() *Graph {
	return New(nodesOf(
		"A", nil,
		"B", deps("A"),
		"C", deps("A"),
		"D", deps("B", "C"),
	))
}

func TestNew(t *testing.T) {
	g := New(nodesOf("A", nil, "B", deps("A", "ghost")))

	assert.Equal(t, []string{"A", "B"}, g.Nodes())
	assert.True(t, g.Has("A"))
	assert.False(t, g.Has("ghost"))

	d, err := g.Dependencies("B")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, d)

	dependents, err := g.Dependents("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, dependents)

	_, err = g.Dependents("ghost")
	assert.ErrorIs(t, err, ErrUnknownNode)

	assert.Equal(t, []MissingDependency{{Node: "B", Dependency: "ghost"}}, g.Missing())
}

func TestDependentsIsTransposeOfDependencies(t *testing.T) {
	g := diamond()
	for _, name := range g.Nodes() {
		ds, err := g.Dependencies(name)
		require.NoError(t, err)
		for _, d := range ds {
			back, err := g.Dependents(d)
			require.NoError(t, err)
			assert.Contains(t, back, name)
		}
		dependents, err := g.Dependents(name)
		require.NoError(t, err)
		for _, dep := range dependents {
			forward, err := g.Dependencies(dep)
			require.NoError(t, err)
			assert.Contains(t, forward, name)
		}
	}
}

func TestTopologicalSort(t *testing.T) {
	t.Run("chain has a single valid order", func(t *testing.T) {
		g := New(nodesOf("C", deps("A", "B"), "B", deps("A"), "A", nil))
		order, err := g.TopologicalSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "C"}, order)
	})

	t.Run("ties follow registration order", func(t *testing.T) {
		order, err := diamond().TopologicalSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "C", "D"}, order)
	})

	t.Run("subset ignores outside dependencies", func(t *testing.T) {
		order, err := diamond().TopologicalSort("D", "B")
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "D"}, order)
	})

	t.Run("unknown subset member", func(t *testing.T) {
		_, err := diamond().TopologicalSort("nope")
		assert.ErrorIs(t, err, ErrUnknownNode)
	})

	t.Run("cycle is reported", func(t *testing.T) {
		g := New(nodesOf("A", deps("B"), "B", deps("A"), "C", nil))
		_, err := g.TopologicalSort()
		require.ErrorIs(t, err, ErrCycle)
		assert.ErrorContains(t, err, "A, B")
	})

	t.Run("empty graph", func(t *testing.T) {
		order, err := New(nil).TopologicalSort()
		require.NoError(t, err)
		assert.Empty(t, order)
	})
}

func TestTopologicalSortRandomGraphs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		n := 2 + rng.Intn(12)
		var pairs []any
		for i := 0; i < n; i++ {
			var ds []string
			for j := 0; j < i; j++ {
				if rng.Intn(3) == 0 {
					ds = append(ds, fmt.Sprintf("n%d", j))
				}
			}
			pairs = append(pairs, fmt.Sprintf("n%d", i), ds)
		}
		// Register in shuffled order so registration order differs from depth.
		rng.Shuffle(len(pairs)/2, func(i, j int) {
			pairs[2*i], pairs[2*j] = pairs[2*j], pairs[2*i]
			pairs[2*i+1], pairs[2*j+1] = pairs[2*j+1], pairs[2*i+1]
		})
		g := New(nodesOf(pairs...))

		order, err := g.TopologicalSort()
		require.NoError(t, err)
		require.Len(t, order, n)
		pos := make(map[string]int, n)
		for i, name := range order {
			pos[name] = i
		}
		for _, name := range order {
			ds, err := g.Dependencies(name)
			require.NoError(t, err)
			for _, d := range ds {
				assert.Less(t, pos[d], pos[name], "%s must follow %s", name, d)
			}
		}

		levels, err := g.ExecutionLevels()
		require.NoError(t, err)
		levelOf := make(map[string]int, n)
		for i, level := range levels {
			for _, name := range level {
				_, dup := levelOf[name]
				require.False(t, dup, "%s appears in more than one level", name)
				levelOf[name] = i
			}
		}
		require.Len(t, levelOf, n)
		for name, lvl := range levelOf {
			ds, err := g.Dependencies(name)
			require.NoError(t, err)
			maxDep := -1
			for _, d := range ds {
				assert.Greater(t, lvl, levelOf[d])
				if levelOf[d] > maxDep {
					maxDep = levelOf[d]
				}
			}
			assert.Equal(t, maxDep+1, lvl, "%s sits on the lowest level its dependencies allow", name)
		}
	}
}

func TestExecutionLevels(t *testing.T) {
	t.Run("chain", func(t *testing.T) {
		g := New(nodesOf("A", nil, "B", deps("A"), "C", deps("A", "B")))
		levels, err := g.ExecutionLevels()
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"A"}, {"B"}, {"C"}}, levels)
	})

	t.Run("diamond", func(t *testing.T) {
		levels, err := diamond().ExecutionLevels()
		require.NoError(t, err)
		require.Len(t, levels, 3)
		assert.Equal(t, []string{"A"}, levels[0])
		assert.ElementsMatch(t, []string{"B", "C"}, levels[1])
		assert.Equal(t, []string{"D"}, levels[2])
	})

	t.Run("subset levels", func(t *testing.T) {
		levels, err := diamond().LevelsOf([]string{"C", "D"})
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"C"}, {"D"}}, levels)
	})

	t.Run("cyclic graph", func(t *testing.T) {
		_, err := New(nodesOf("A", deps("A"))).ExecutionLevels()
		assert.ErrorIs(t, err, ErrCycle)
	})
}

func TestChangedSubgraph(t *testing.T) {
	g := diamond()

	if diff := cmp.Diff(set("B", "D"), g.ChangedSubgraph("B")); diff != "" {
		t.Errorf("ChangedSubgraph(B) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(set("A", "B", "C", "D"), g.ChangedSubgraph("A")); diff != "" {
		t.Errorf("ChangedSubgraph(A) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(set("C", "D"), g.ChangedSubgraph("C", "D")); diff != "" {
		t.Errorf("ChangedSubgraph(C, D) mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, g.ChangedSubgraph())

	// Unknown names are kept so the result is always a superset of the input.
	assert.Equal(t, set("ghost"), g.ChangedSubgraph("ghost"))
}

func TestUpstream(t *testing.T) {
	g := diamond()
	assert.Equal(t, []string{"A", "B"}, g.Upstream("D", set("A", "B")))
	assert.Empty(t, g.Upstream("A", set("B")))
	assert.Nil(t, g.Upstream("ghost", set("A")))
}

func TestDetectCycles(t *testing.T) {
	t.Run("acyclic graph has no cycles", func(t *testing.T) {
		assert.Empty(t, diamond().DetectCycles())
		assert.Empty(t, New(nil).DetectCycles())
	})

	t.Run("self loop", func(t *testing.T) {
		g := New(nodesOf("A", deps("A")))
		assert.Equal(t, [][]string{{"A"}}, g.DetectCycles())
	})

	t.Run("two node cycle is reported once", func(t *testing.T) {
		g := New(nodesOf("A", deps("B"), "B", deps("A")))
		assert.Equal(t, [][]string{{"A", "B"}}, g.DetectCycles())
	})

	t.Run("independent cycles", func(t *testing.T) {
		g := New(nodesOf(
			"A", deps("B"),
			"B", deps("C"),
			"C", deps("A"),
			"X", nil,
			"Y", deps("Z"),
			"Z", deps("Y", "X"),
		))
		assert.Equal(t, [][]string{{"A", "B", "C"}, {"Y", "Z"}}, g.DetectCycles())
	})

	t.Run("missing dependencies do not count as cycles", func(t *testing.T) {
		g := New(nodesOf("A", deps("ghost")))
		assert.Empty(t, g.DetectCycles())
	})
}

func TestValidate(t *testing.T) {
	assert.Empty(t, diamond().Validate())

	g := New(nodesOf("A", deps("B"), "B", deps("A"), "C", deps("ghost")))
	errs := g.Validate()
	require.Len(t, errs, 2)
	assert.Equal(t, `node "C" depends on unknown node "ghost"`, errs[0])
	assert.Equal(t, "dependency cycle detected: A -> B -> A", errs[1])
}
