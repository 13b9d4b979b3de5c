package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/ctxlog"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/dag"
)

// ValidateDependencies returns one error per declared dependency that names
// no registered node, ordered by node registration then declaration order.
func (r *Registry) ValidateDependencies() []string {
	var errs []string
	for _, n := range r.Nodes() {
		for _, dep := range n.Dependencies() {
			if _, ok := r.Node(dep); !ok {
				errs = append(errs, fmt.Sprintf("node %q depends on unknown node %q", n.Name(), dep))
			}
		}
	}
	return errs
}

// DetectCycles returns one entry per dependency cycle. It is safe to call on
// any registry contents.
func (r *Registry) DetectCycles() [][]string {
	return dag.New(r.Nodes()).DetectCycles()
}

// Validate runs every structural check and returns a single error that
// lists all findings, or nil when the registry is safe to schedule.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	errs := dag.New(r.Nodes()).Validate()
	if len(errs) > 0 {
		logger.Debug("Registry validation found problems.", "count", len(errs))
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
