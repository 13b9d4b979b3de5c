package cli

import (
	"context"
	"io"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/app"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/hcl"
	"github.com/spf13/cobra"
)

// options collects every flag value; each subcommand binds the subset it
// understands.
type options struct {
	configPath   string
	logLevel     string
	logFormat    string
	stateBackend string
	stateDir     string
	report       string
	nodes        []string
	verbose      bool
	interactive  bool

	dryRun      bool
	force       bool
	parallel    int
	start       string
	end         string
	threshold   int
	performance bool
}

func (o *options) bindGlobal(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVarP(&o.configPath, "config", "c", app.DefaultConfigPath, "Path to the flow file or a directory of .hcl files.")
	f.StringVar(&o.logLevel, "log-level", "", "Logging level: 'debug', 'info', 'warn', or 'error' (default from settings, else info).")
	f.StringVar(&o.logFormat, "log-format", "", "Log output format: 'text' or 'json' (default from settings, else text).")
	f.StringVar(&o.stateBackend, "state-backend", "", "Change-detector state backend: 'json', 'sqlite', or 'memory'.")
	f.StringVar(&o.stateDir, "state-dir", "", "Directory holding change-detector state.")
	f.StringVar(&o.report, "report", "text", "Report format: 'text', 'markdown', 'json', or 'yaml'.")
	f.StringArrayVar(&o.nodes, "node", nil, "Restrict the run to this node (repeatable).")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Ask stages for verbose output.")
	f.BoolVar(&o.interactive, "interactive", false, "Mark the run as attended so stages may prompt.")
}

func (o *options) bindRange(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.start, "start", "", "Start of the date range to process (YYYY-MM-DD).")
	f.StringVar(&o.end, "end", "", "End of the date range to process (YYYY-MM-DD).")
	f.IntVar(&o.threshold, "confidence-threshold", 0, "Minimum match confidence in basis points (0..10000).")
	f.BoolVar(&o.performance, "performance", false, "Record execution times in results.")
}

// appConfig converts the parsed flags, leaving unset optional flags nil so
// the flow file's settings apply.
func (o *options) appConfig(cmd *cobra.Command) (*app.Config, error) {
	cfg := app.Config{
		ConfigPath:   o.configPath,
		LogLevel:     o.logLevel,
		LogFormat:    o.logFormat,
		StateBackend: o.stateBackend,
		StateDir:     o.stateDir,
		ReportFormat: o.report,
		DryRun:       o.dryRun,
		Force:        o.force,
		Verbose:      o.verbose,
		Interactive:  o.interactive,
		Nodes:        o.nodes,
		Parallel:     o.parallel,
		Start:        o.start,
		End:          o.end,
	}
	if cmd.Flags().Changed("confidence-threshold") {
		threshold := o.threshold
		cfg.ConfidenceThreshold = &threshold
	}
	if cmd.Flags().Changed("performance") {
		performance := o.performance
		cfg.PerformanceTracking = &performance
	}
	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError("%v", err)
	}
	return validated, nil
}

// withApp builds the App for cmd, runs fn and closes the App.
func (o *options) withApp(cmd *cobra.Command, outW, errW io.Writer, fn func(context.Context, *app.App) error) (err error) {
	cfg, err := o.appConfig(cmd)
	if err != nil {
		return err
	}
	a, err := app.NewApp(cmd.Context(), outW, errW, cfg, hcl.NewLoader())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(cmd.Context(), a)
}
