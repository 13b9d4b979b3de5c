package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/app"
	"github.com/spf13/cobra"
)

func newRunCommand(o *options, outW, errW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute every changed stage and everything downstream of it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, outW, errW, func(ctx context.Context, a *app.App) error {
				summary, err := a.Run(ctx)
				if err != nil {
					return err
				}
				if summary.HasFailures() {
					return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d of %d nodes failed", summary.Failed, summary.Total)}
				}
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.BoolVar(&o.dryRun, "dry-run", false, "Plan and report without executing any stage.")
	f.BoolVar(&o.force, "force", false, "Run every stage regardless of detected changes or upstream failures.")
	f.IntVar(&o.parallel, "parallel", 0, "Run up to N independent stages at once (0 or 1 runs serially).")
	o.bindRange(cmd)
	return cmd
}

func newPlanCommand(o *options, outW, errW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which stages would run and why",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, outW, errW, func(ctx context.Context, a *app.App) error {
				return a.Plan(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&o.force, "force", false, "Plan every stage regardless of detected changes.")
	o.bindRange(cmd)
	return cmd
}

func newValidateCommand(o *options, outW, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the flow for unknown dependencies and cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, outW, errW, func(ctx context.Context, a *app.App) error {
				return a.Validate(ctx, true)
			})
		},
	}
}

func newLevelsCommand(o *options, outW, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "Print the execution levels of the flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, outW, errW, func(ctx context.Context, a *app.App) error {
				return a.Levels(ctx)
			})
		},
	}
}

func newStateCommand(o *options, outW, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "state [NODE...]",
		Short: "Show the persisted change-detector state of stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, outW, errW, func(ctx context.Context, a *app.App) error {
				return a.State(ctx, args...)
			})
		},
	}
}
