package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/config"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/ctxlog"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/fsutil"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/node"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/statestore"
)

// State keys written by stages.
const (
	keyFingerprints = "fingerprints"
	keyRuns         = "runs"
)

// ReasonFirstRun is reported by a stage with no recorded successful run.
const ReasonFirstRun = "no previous run recorded"

// stderrTail bounds how much stderr is copied into a failure message.
const stderrTail = 2048

// Stage is a node.Node backed by an external command.
type Stage struct {
	node.Base
	cfg     *config.Stage
	store   statestore.Store
	baseDir string
	clock   func() time.Time
}

var _ node.Node = (*Stage)(nil)

// Option customizes a Stage.
type Option func(*Stage)

// WithBaseDir resolves relative inputs, outputs and workdir against dir.
func WithBaseDir(dir string) Option {
	return func(s *Stage) { s.baseDir = dir }
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *Stage) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New builds a stage node from its configuration. State is kept in store.
func New(cfg *config.Stage, store statestore.Store, opts ...Option) *Stage {
	s := &Stage{
		Base:    node.NewBase(cfg.Name, cfg.DependsOn...),
		cfg:     cfg,
		store:   store,
		baseDir: ".",
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Description is the human-readable summary from the flow file.
func (s *Stage) Description() string {
	return s.cfg.Description
}

// CheckChanges implements node.Node. It records the check time in the
// stage's state but never the fingerprints; those are written only after a
// successful run.
func (s *Stage) CheckChanges(ctx context.Context, _ *flow.Context) (bool, []string, error) {
	state, err := statestore.LoadLastCheckState(ctx, s.store, s.Name())
	if err != nil {
		return false, nil, err
	}
	current, err := s.fingerprint()
	if err != nil {
		return false, nil, err
	}

	var reasons []string
	if _, ran := statestore.TimeValue(state, statestore.KeyLastSuccess); !ran {
		reasons = append(reasons, ReasonFirstRun)
	} else {
		reasons = append(reasons, diff(statestore.StringMap(state, keyFingerprints), current)...)
		reasons = append(reasons, s.missingOutputs()...)
	}

	statestore.SetTime(state, statestore.KeyLastChecked, s.clock())
	if err := statestore.SaveLastCheckState(ctx, s.store, s.Name(), state); err != nil {
		return false, nil, err
	}
	return len(reasons) > 0, reasons, nil
}

func (s *Stage) missingOutputs() []string {
	var reasons []string
	for _, pattern := range s.cfg.Outputs {
		matches, err := fsutil.ExpandGlobs(s.baseDir, []string{pattern})
		if err != nil || len(matches) == 0 {
			reasons = append(reasons, "output missing: "+pattern)
		}
	}
	return reasons
}

// Execute implements node.Node. A non-zero exit is reported as a failed
// result; only failures to set up the run are returned as errors.
func (s *Stage) Execute(ctx context.Context, fc *flow.Context) (*flow.Result, error) {
	logger := ctxlog.FromContext(ctx)

	inputs, err := s.fingerprint()
	if err != nil {
		return nil, err
	}

	resultFile, err := os.CreateTemp("", "finflow-result-*.json")
	if err != nil {
		return nil, fmt.Errorf("create result file: %w", err)
	}
	_ = resultFile.Close()
	defer os.Remove(resultFile.Name())

	cmd := exec.CommandContext(ctx, s.cfg.Command[0], s.cfg.Command[1:]...)
	cmd.Dir = s.workdir()
	cmd.Env = s.environ(fc, resultFile.Name())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Running stage command.", "command", s.cfg.Command, "dir", cmd.Dir)
	runErr := cmd.Run()
	for _, line := range strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n") {
		if line != "" {
			logger.Debug("Stage output.", "line", line)
		}
	}
	if runErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		res := flow.Failed("command %s failed: %v%s", s.cfg.Command[0], runErr, formatTail(stderr.String()))
		res.Metadata = map[string]any{"exit_code": exitCode}
		return res, nil
	}

	res := &flow.Result{
		Success:        true,
		ItemsProcessed: len(inputs),
		Metadata:       map[string]any{"exit_code": 0},
	}
	if outputs, err := fsutil.ExpandGlobs(s.baseDir, s.cfg.Outputs); err == nil {
		res.Outputs = outputs
	}
	if s.cfg.Review != "" {
		res.RequiresReview = true
		res.ReviewInstructions = s.cfg.Review
	}
	if err := applyReport(res, resultFile.Name()); err != nil {
		return flow.Failed("stage %s wrote an unreadable result: %v", s.Name(), err), nil
	}

	state, err := statestore.LoadLastCheckState(ctx, s.store, s.Name())
	if err != nil {
		return nil, err
	}
	state[keyFingerprints] = inputs.toState()
	statestore.SetTime(state, statestore.KeyLastSuccess, s.clock())
	runs, _ := statestore.Int(state, keyRuns)
	state[keyRuns] = runs + 1
	if err := statestore.SaveLastCheckState(ctx, s.store, s.Name(), state); err != nil {
		return nil, err
	}

	fc.AddHistory(fmt.Sprintf("%s: %s completed (%d inputs)", s.clock().Format(time.RFC3339), s.Name(), len(inputs)))
	return res, nil
}

func (s *Stage) workdir() string {
	dir := s.cfg.Workdir
	if dir == "" {
		return s.baseDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(s.baseDir, dir)
}

func (s *Stage) environ(fc *flow.Context, resultFile string) []string {
	env := os.Environ()
	for k, v := range s.cfg.Env {
		env = append(env, k+"="+v)
	}
	env = append(env,
		"FINFLOW_NODE="+s.Name(),
		"FINFLOW_RUN_ID="+fc.RunID,
		"FINFLOW_CONFIDENCE_THRESHOLD="+strconv.Itoa(int(fc.ConfidenceThreshold)),
		"FINFLOW_VERBOSE="+strconv.FormatBool(fc.Verbose),
		"FINFLOW_INTERACTIVE="+strconv.FormatBool(fc.Interactive),
		"FINFLOW_RESULT_FILE="+resultFile,
	)
	if fc.DateRange != nil {
		env = append(env,
			"FINFLOW_START="+fc.DateRange.Start.Format(config.DateLayout),
			"FINFLOW_END="+fc.DateRange.End.Format(config.DateLayout),
		)
	}
	return env
}

// report is the optional JSON a command writes to FINFLOW_RESULT_FILE.
type report struct {
	ItemsProcessed     *int           `json:"items_processed"`
	NewItems           int            `json:"new_items"`
	UpdatedItems       int            `json:"updated_items"`
	Outputs            []string       `json:"outputs"`
	RequiresReview     *bool          `json:"requires_review"`
	ReviewInstructions string         `json:"review_instructions"`
	Metadata           map[string]any `json:"metadata"`
}

func applyReport(res *flow.Result, path string) error {
	data, err := os.ReadFile(path)
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var r report
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.ItemsProcessed != nil {
		res.ItemsProcessed = *r.ItemsProcessed
	}
	res.NewItems = r.NewItems
	res.UpdatedItems = r.UpdatedItems
	res.Outputs = append(res.Outputs, r.Outputs...)
	if r.RequiresReview != nil {
		res.RequiresReview = *r.RequiresReview
	}
	if r.ReviewInstructions != "" {
		res.ReviewInstructions = r.ReviewInstructions
	}
	for k, v := range r.Metadata {
		res.Metadata[k] = v
	}
	return nil
}

func formatTail(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	if len(stderr) > stderrTail {
		stderr = "..." + stderr[len(stderr)-stderrTail:]
	}
	return ": " + stderr
}
