package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/engine"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/report"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/statestore"
)

// Run plans and executes the flow, writes the report and returns the run
// summary. Node failures are reported through the summary, not the error.
func (a *App) Run(ctx context.Context) (engine.Summary, error) {
	ctx = a.withLogger(ctx)
	a.logger.Debug("App.Run method started.")

	fc, err := a.config.flowContext(a.settings, a.clock())
	if err != nil {
		return engine.Summary{}, err
	}
	if a.registry.Len() == 0 {
		a.logger.Warn("No stages found in flow, execution not required.")
	}

	a.logger.Info("🚀 Starting flow run...", "run_id", fc.RunID, "dry_run", fc.DryRun, "force", fc.Force, "parallel", a.config.Parallel)
	var executions map[string]*flow.Execution
	if a.config.Parallel > 1 {
		executions, err = a.engine.ExecuteFlowParallel(ctx, fc, a.config.Parallel)
	} else {
		executions, err = a.engine.ExecuteFlow(ctx, fc)
	}
	if err != nil {
		return engine.Summary{}, err
	}

	summary := engine.Summarize(executions)
	a.logger.Info("🏁 Flow run finished.", "run_id", fc.RunID, "completed", summary.Completed, "failed", summary.Failed, "skipped", summary.Skipped)
	for _, note := range fc.History() {
		a.logger.Debug("History.", "note", note)
	}

	order, err := a.executionOrder(executions)
	if err != nil {
		return summary, err
	}
	if err := report.Render(a.outW, a.settings.report, order, executions, summary); err != nil {
		return summary, fmt.Errorf("failed to write report: %w", err)
	}
	return summary, nil
}

// Plan reports which nodes a run would execute and why, without running
// anything.
func (a *App) Plan(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	if err := a.Validate(ctx, false); err != nil {
		return err
	}
	fc, err := a.config.flowContext(a.settings, a.clock())
	if err != nil {
		return err
	}
	plan, err := a.engine.PlanExecution(ctx, fc)
	if err != nil {
		return err
	}
	levels := [][]string{}
	if !plan.Empty() {
		if levels, err = a.engine.Graph().LevelsOf(plan.Order); err != nil {
			return err
		}
	}
	return report.RenderPlan(a.outW, a.settings.report, plan, levels)
}

// Validate checks the flow for unknown dependencies and cycles. Problems
// come back as an *engine.ValidationError. When announce is set a valid
// flow is confirmed on the report writer.
func (a *App) Validate(ctx context.Context, announce bool) error {
	if problems := a.engine.ValidateFlow(); len(problems) > 0 {
		a.logger.Error("Flow validation failed.", "problems", len(problems))
		return &engine.ValidationError{Problems: problems}
	}
	a.logger.Debug("Flow validation passed.")
	if announce {
		_, err := fmt.Fprintf(a.outW, "Flow is valid: %d stages.\n", a.registry.Len())
		return err
	}
	return nil
}

// Levels prints the execution levels of the whole flow, one line per level.
// Nodes on the same line have no dependencies on each other.
func (a *App) Levels(ctx context.Context) error {
	if err := a.Validate(ctx, false); err != nil {
		return err
	}
	levels, err := a.engine.Graph().ExecutionLevels()
	if err != nil {
		return err
	}
	for i, level := range levels {
		if _, err := fmt.Fprintf(a.outW, "%d: %s\n", i, strings.Join(level, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// State prints the persisted change-detector state of the named nodes, or
// of every registered node when names is empty.
func (a *App) State(ctx context.Context, names ...string) error {
	ctx = a.withLogger(ctx)
	if len(names) == 0 {
		names = a.registry.Names()
	}
	states := make(map[string]statestore.State, len(names))
	for _, name := range names {
		state, err := statestore.LoadLastCheckState(ctx, a.store, name)
		if err != nil {
			return err
		}
		states[name] = state
	}
	return report.RenderState(a.outW, a.settings.report, names, states)
}

// executionOrder sorts the executed nodes topologically so the report reads
// in the order the engine ran them.
func (a *App) executionOrder(executions map[string]*flow.Execution) ([]string, error) {
	names := make([]string, 0, len(executions))
	for name := range executions {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return names, nil
	}
	return a.engine.Graph().TopologicalSort(names...)
}
