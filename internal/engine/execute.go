package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/ctxlog"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/node"
)

// Skip reasons recorded on executions that never ran.
const (
	SkipDryRun   = "dry run"
	SkipCanceled = "run canceled"
)

// DefaultFailureMessage fills in the error of a failed result that carries none.
const DefaultFailureMessage = "node reported failure"

// ExecuteNode runs a single node and returns its terminal execution record.
// Errors, panics and results that break the Result contract all end as a
// FAILED execution; nothing escapes as an error or a panic.
func (e *Engine) ExecuteNode(ctx context.Context, name string, fc *flow.Context) *flow.Execution {
	ctx = e.withLogger(ctx)
	ctx, logger := ctxlog.ForNode(ctx, name)

	exec := flow.NewExecution(name)
	_ = exec.Transition(flow.StatusRunning)
	exec.StartTime = e.clock()
	logger.Info("▶️ Starting node")

	n, ok := e.registry.Node(name)
	if !ok {
		exec.Result = flow.Failed("node %q is not registered", name)
	} else {
		exec.Result = invoke(ctx, n, fc)
	}
	exec.EndTime = e.clock()
	if fc.PerformanceTracking {
		exec.Result.SetExecutionTime(exec.Duration().Seconds())
	}

	if exec.Result.Success {
		_ = exec.Transition(flow.StatusCompleted)
		logger.Info("✅ Finished node", "status", exec.Status, "duration", exec.Duration(), "items", exec.Result.ItemsProcessed)
	} else {
		_ = exec.Transition(flow.StatusFailed)
		logger.Error("❌ Node failed", "status", exec.Status, "duration", exec.Duration(), "error", exec.Result.Error)
	}
	return exec
}

// invoke calls Execute and converts every failure mode into a failed result.
func invoke(ctx context.Context, n node.Node, fc *flow.Context) (res *flow.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = flow.Failed("panic during execution: %v", r)
		}
	}()
	out, err := n.Execute(ctx, fc)
	if err != nil {
		return flow.Failed("%s", err.Error())
	}
	if err := out.Validate(); err != nil {
		return flow.Failed("node returned an invalid result: %v", err)
	}
	if !out.Success && out.Error == "" {
		out.Error = DefaultFailureMessage
	}
	return out
}

// ExecuteFlow plans the run and executes the plan serially in order. The
// returned map holds an execution for every planned node. The error is
// reserved for an invalid graph or a planning failure.
func (e *Engine) ExecuteFlow(ctx context.Context, fc *flow.Context) (map[string]*flow.Execution, error) {
	ctx = e.withLogger(ctx)
	plan, err := e.prepare(ctx, fc)
	if err != nil {
		return nil, err
	}
	if fc.DryRun {
		return dryRun(ctx, plan), nil
	}

	executions := make(map[string]*flow.Execution, len(plan.Order))
	for _, name := range plan.Order {
		if skipped := e.precheck(ctx, name, fc, executions); skipped != nil {
			executions[name] = skipped
			continue
		}
		executions[name] = e.ExecuteNode(ctx, name, fc)
	}
	return executions, nil
}

func (e *Engine) prepare(ctx context.Context, fc *flow.Context) (Plan, error) {
	if fc == nil {
		return Plan{}, fmt.Errorf("engine: flow context is required")
	}
	if err := e.validate(); err != nil {
		return Plan{}, err
	}
	return e.PlanExecution(ctx, fc)
}

// dryRun records every planned node as SKIPPED without invoking it.
func dryRun(ctx context.Context, plan Plan) map[string]*flow.Execution {
	logger := ctxlog.FromContext(ctx)
	executions := make(map[string]*flow.Execution, len(plan.Order))
	for _, name := range plan.Order {
		exec := flow.NewExecution(name)
		_ = exec.Skip(SkipDryRun, flow.DryRun())
		executions[name] = exec
		logger.Info("Dry run, node would execute.", "node", name, "reasons", plan.Changes[name])
	}
	return executions
}

// precheck returns a SKIPPED execution when name must not run: the run was
// canceled, or (unless forced) one of its dependencies failed or was itself
// skipped because of a failure. It returns nil when the node may run.
func (e *Engine) precheck(ctx context.Context, name string, fc *flow.Context, done map[string]*flow.Execution) *flow.Execution {
	logger := ctxlog.FromContext(ctx)
	if err := ctx.Err(); err != nil {
		exec := flow.NewExecution(name)
		_ = exec.Skip(fmt.Sprintf("%s: %v", SkipCanceled, err), nil)
		logger.Warn("Context canceled, skipping node execution.", "node", name)
		return exec
	}
	if fc.Force {
		return nil
	}
	deps, _ := e.graph.Dependencies(name)
	var blockers []string
	for _, dep := range deps {
		if done[dep].Blocking() {
			blockers = append(blockers, dep)
		}
	}
	if len(blockers) == 0 {
		return nil
	}
	exec := flow.NewExecution(name)
	exec.BlockedBy = blockers
	_ = exec.Skip("upstream failure of "+strings.Join(blockers, ", "), nil)
	logger.Warn("Skipping node due to upstream failure.", "node", name, "dependencies", blockers)
	return exec
}
