package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/cli"
)

// main is the entrypoint for the finflow application.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code. An
// interrupt cancels the context, so stages still pending are skipped and
// the report is written before exiting.
func run(ctx context.Context, outW, errW io.Writer, args []string) int {
	err := cli.Execute(ctx, args, outW, errW)
	if err == nil {
		return 0
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(errW, exitErr.Message)
		return exitErr.Code
	}
	fmt.Fprintln(errW, err)
	return cli.ExitFailure
}
