package engine

import (
	"context"
	"sync"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/ctxlog"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
	"golang.org/x/sync/errgroup"
)

// ExecuteFlowParallel executes the same plan as ExecuteFlow, but runs the
// nodes of each execution level concurrently, at most maxParallel at a time
// (no limit when maxParallel <= 0). Levels run one after another and the
// failure rule is applied at each level boundary, so outcomes match the
// serial executor.
func (e *Engine) ExecuteFlowParallel(ctx context.Context, fc *flow.Context, maxParallel int) (map[string]*flow.Execution, error) {
	ctx = e.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)
	plan, err := e.prepare(ctx, fc)
	if err != nil {
		return nil, err
	}
	if fc.DryRun {
		return dryRun(ctx, plan), nil
	}

	executions := make(map[string]*flow.Execution, len(plan.Order))
	if plan.Empty() {
		return executions, nil
	}
	levels, err := e.graph.LevelsOf(plan.Order)
	if err != nil {
		return nil, err
	}

	for i, level := range levels {
		var runnable []string
		for _, name := range level {
			if skipped := e.precheck(ctx, name, fc, executions); skipped != nil {
				executions[name] = skipped
				continue
			}
			runnable = append(runnable, name)
		}
		logger.Debug("Executing level.", "level", i, "nodes", runnable)

		var (
			mu      sync.Mutex
			results = make(map[string]*flow.Execution, len(runnable))
			g       errgroup.Group
		)
		if maxParallel > 0 {
			g.SetLimit(maxParallel)
		}
		for _, name := range runnable {
			g.Go(func() error {
				exec := e.ExecuteNode(ctx, name, fc)
				mu.Lock()
				results[name] = exec
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait() // failures are recorded in the executions
		for name, exec := range results {
			executions[name] = exec
		}
	}
	return executions, nil
}
