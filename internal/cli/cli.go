package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/engine"
	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// Version is set at build time via -ldflags.
var Version = "dev"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Execute runs the command tree against args. Reports are written to outW,
// logs and usage errors to errW. Any returned error is an *ExitError.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	return classify(root.ExecuteContext(ctx))
}

// classify maps an error to the exit code it should produce: invalid
// input and invalid flows exit 2, everything else 1.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	var invalid *engine.ValidationError
	if errors.As(err, &invalid) {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return &ExitError{Code: ExitFailure, Message: err.Error()}
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: ExitUsage, Message: fmt.Sprintf(format, args...)}
}

// NewRootCommand builds the finflow command tree.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "finflow",
		Short: "Change-driven orchestration for a personal bookkeeping pipeline",
		Long: "finflow runs the stages declared in a flow file in dependency order,\n" +
			"executing only the stages whose inputs changed and everything downstream of them.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%v", err)
	})
	opts.bindGlobal(root)

	root.AddCommand(
		newRunCommand(opts, outW, errW),
		newPlanCommand(opts, outW, errW),
		newValidateCommand(opts, outW, errW),
		newLevelsCommand(opts, outW, errW),
		newStateCommand(opts, outW, errW),
	)
	return root
}
