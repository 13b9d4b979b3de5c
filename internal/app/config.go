package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/config"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/report"
)

// Defaults applied when neither the command line nor the flow file's
// settings block say otherwise.
const (
	DefaultConfigPath = "flow.hcl"
	DefaultStateDir   = ".finflow/state"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// Config holds the invocation settings gathered from the command line.
// Empty strings and nil pointers mean "not given", so the flow file's
// settings block (and then the defaults above) apply.
type Config struct {
	ConfigPath string

	LogFormat    string
	LogLevel     string
	StateBackend string
	StateDir     string
	ReportFormat string

	DryRun      bool
	Force       bool
	Verbose     bool
	Interactive bool
	Nodes       []string
	// Parallel > 1 runs independent nodes of the same level concurrently.
	Parallel int

	Start               string
	End                 string
	ConfidenceThreshold *int
	PerformanceTracking *bool
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.LogLevel != "" {
		if _, ok := logLevels[strings.ToLower(cfg.LogLevel)]; !ok {
			return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
		}
	}
	if f := strings.ToLower(cfg.LogFormat); f != "" && f != "text" && f != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if cfg.StateBackend != "" && !config.ValidBackend(cfg.StateBackend) {
		return nil, fmt.Errorf("invalid state backend %q: must be 'json', 'sqlite', or 'memory'", cfg.StateBackend)
	}
	if cfg.ReportFormat != "" {
		if _, err := report.ParseFormat(cfg.ReportFormat); err != nil {
			return nil, err
		}
	}
	if cfg.Parallel < 0 {
		return nil, fmt.Errorf("invalid parallelism %d: must not be negative", cfg.Parallel)
	}
	if (cfg.Start == "") != (cfg.End == "") {
		return nil, errors.New("start and end dates must be given together")
	}
	if cfg.ConfidenceThreshold != nil {
		if err := flow.BasisPoints(*cfg.ConfidenceThreshold).Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// settings is Config merged over the flow file's settings block.
type settings struct {
	logLevel     string
	logFormat    string
	stateBackend string
	stateDir     string
	report       report.Format
	threshold    flow.BasisPoints
	performance  bool
	dateRange    *config.DateRange
}

// resolve merges c over s. Relative state directories are resolved against
// baseDir, the directory holding the flow file.
func (c *Config) resolve(s config.Settings, baseDir string) (settings, error) {
	out := settings{
		logLevel:     firstNonEmpty(c.LogLevel, s.LogLevel, DefaultLogLevel),
		logFormat:    firstNonEmpty(c.LogFormat, s.LogFormat, DefaultLogFormat),
		stateBackend: firstNonEmpty(c.StateBackend, s.StateBackend, config.BackendJSON),
		stateDir:     firstNonEmpty(c.StateDir, s.StateDir, DefaultStateDir),
		threshold:    flow.DefaultConfidenceThreshold,
		dateRange:    s.DateRange,
	}
	if !config.ValidBackend(out.stateBackend) {
		return settings{}, fmt.Errorf("invalid state backend %q", out.stateBackend)
	}
	if !filepath.IsAbs(out.stateDir) && c.StateDir == "" {
		out.stateDir = filepath.Join(baseDir, out.stateDir)
	}

	format, err := report.ParseFormat(firstNonEmpty(c.ReportFormat, string(report.Text)))
	if err != nil {
		return settings{}, err
	}
	out.report = format

	switch {
	case c.ConfidenceThreshold != nil:
		out.threshold = flow.BasisPoints(*c.ConfidenceThreshold)
	case s.ConfidenceThreshold != nil:
		out.threshold = flow.BasisPoints(*s.ConfidenceThreshold)
	}
	switch {
	case c.PerformanceTracking != nil:
		out.performance = *c.PerformanceTracking
	case s.PerformanceTracking != nil:
		out.performance = *s.PerformanceTracking
	}

	if c.Start != "" {
		start, err := config.ParseDate(c.Start)
		if err != nil {
			return settings{}, err
		}
		end, err := config.ParseDate(c.End)
		if err != nil {
			return settings{}, err
		}
		out.dateRange = &config.DateRange{Start: start, End: end}
	}
	return out, nil
}

// flowContext builds the per-invocation context handed to every node.
func (c *Config) flowContext(s settings, now time.Time) (*flow.Context, error) {
	opts := []flow.Option{
		flow.WithStartTime(now),
		flow.WithDryRun(c.DryRun),
		flow.WithForce(c.Force),
		flow.WithVerbose(c.Verbose),
		flow.WithInteractive(c.Interactive),
		flow.WithPerformanceTracking(s.performance),
		flow.WithConfidenceThreshold(s.threshold),
		flow.WithNodes(c.Nodes...),
	}
	if s.dateRange != nil {
		opts = append(opts, flow.WithDateRange(s.dateRange.Start, s.dateRange.End))
	}
	return flow.NewContext(opts...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
