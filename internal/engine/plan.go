package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/ctxlog"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/dag"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
)

// ForcedReason is the change reason attached to every node of a forced plan.
const ForcedReason = "forced execution"

// Change is one node's answer to "did your inputs change?".
type Change struct {
	Changed bool     `json:"changed" yaml:"changed"`
	Reasons []string `json:"reasons,omitempty" yaml:"reasons,omitempty"`
}

// Plan is the ordered set of nodes a run will consider, with the reasons each
// was included.
type Plan struct {
	Order   []string            `json:"order" yaml:"order"`
	Changes map[string][]string `json:"changes" yaml:"changes"`
}

// Empty reports whether the plan has nothing to run.
func (p Plan) Empty() bool {
	return len(p.Order) == 0
}

// DetectChanges calls CheckChanges on every node in subset, or on every
// registered node when subset is empty. A detector error aborts detection.
func (e *Engine) DetectChanges(ctx context.Context, fc *flow.Context, subset ...string) (map[string]Change, error) {
	ctx = e.withLogger(ctx)
	names, err := e.scope(subset)
	if err != nil {
		return nil, err
	}
	changes := make(map[string]Change, len(names))
	for _, name := range names {
		n, _ := e.registry.Node(name)
		nodeCtx, logger := ctxlog.ForNode(ctx, name)
		changed, reasons, err := n.CheckChanges(nodeCtx, fc)
		if err != nil {
			return nil, fmt.Errorf("checking changes for node %q: %w", name, err)
		}
		logger.Debug("Checked node for changes.", "changed", changed, "reasons", reasons)
		changes[name] = Change{Changed: changed, Reasons: reasons}
	}
	return changes, nil
}

// PlanExecution decides which nodes run and in what order.
//
// A forced run plans every node (or the context's node subset) and tags each
// with ForcedReason followed by whatever its detector reported. Otherwise
// the plan is the directly changed nodes plus everything downstream of them,
// in topological order; nodes pulled in only by propagation get a
// "downstream of ..." reason. When nothing changed the plan is empty.
func (e *Engine) PlanExecution(ctx context.Context, fc *flow.Context) (Plan, error) {
	ctx = e.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)

	detected, err := e.DetectChanges(ctx, fc, fc.Nodes...)
	if err != nil {
		return Plan{}, err
	}

	if fc.Force {
		order, err := e.graph.TopologicalSort(fc.Nodes...)
		if err != nil {
			return Plan{}, err
		}
		changes := make(map[string][]string, len(order))
		for _, name := range order {
			reasons := []string{ForcedReason}
			if c := detected[name]; c.Changed {
				reasons = append(reasons, c.Reasons...)
			}
			changes[name] = reasons
		}
		logger.Info("Planned forced execution.", "nodes", len(order))
		return Plan{Order: order, Changes: changes}, nil
	}

	direct := make(map[string]struct{})
	for name, c := range detected {
		if c.Changed {
			direct[name] = struct{}{}
		}
	}
	if len(direct) == 0 {
		logger.Info("No changes detected, nothing to run.")
		return Plan{Order: []string{}, Changes: map[string][]string{}}, nil
	}

	closure := e.graph.ChangedSubgraph(e.graph.SortedNames(direct)...)
	if len(fc.Nodes) > 0 {
		for name := range closure {
			if !fc.Selected(name) {
				delete(closure, name)
			}
		}
	}
	order, err := e.graph.TopologicalSort(e.graph.SortedNames(closure)...)
	if err != nil {
		return Plan{}, err
	}

	changes := make(map[string][]string, len(order))
	for _, name := range order {
		if _, ok := direct[name]; ok {
			changes[name] = append([]string{}, detected[name].Reasons...)
			continue
		}
		changes[name] = []string{"downstream of " + strings.Join(e.graph.Upstream(name, direct), ", ")}
	}
	logger.Info("Planned execution.", "changed", len(direct), "nodes", len(order))
	return Plan{Order: order, Changes: changes}, nil
}

// scope resolves an optional subset into registered names in registration order.
func (e *Engine) scope(subset []string) ([]string, error) {
	if len(subset) == 0 {
		return e.graph.Nodes(), nil
	}
	set := make(map[string]struct{}, len(subset))
	for _, name := range subset {
		if !e.graph.Has(name) {
			return nil, fmt.Errorf("node %q: %w", name, dag.ErrUnknownNode)
		}
		set[name] = struct{}{}
	}
	return e.graph.SortedNames(set), nil
}
