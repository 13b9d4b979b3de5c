package stage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/config"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/ctxlog"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/inmemorystate"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/statestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 8, 1, 6, 0, 0, 0, time.UTC)

type fixture struct {
	dir   string
	store *inmemorystate.Store
	ctx   context.Context
	fc    *flow.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fc, err := flow.NewContext(flow.WithDateRange(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	))
	require.NoError(t, err)
	return &fixture{
		dir:   t.TempDir(),
		store: inmemorystate.New(),
		ctx:   ctxlog.Discard(context.Background()),
		fc:    fc,
	}
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	p := filepath.Join(f.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func (f *fixture) stage(cfg *config.Stage) *Stage {
	return New(cfg, f.store, WithBaseDir(f.dir), WithClock(func() time.Time { return fixedNow }))
}

func shell(script string) []string {
	return []string{"/bin/sh", "-c", script}
}

func TestChangeDetectionLifecycle(t *testing.T) {
	f := newFixture(t)
	f.write(t, "data/bank/jan.csv", "1,coffee,-4.50\n")
	s := f.stage(&config.Stage{
		Name:    "bank_sync",
		Command: shell("mkdir -p out && cat data/bank/*.csv > out/bank.txt"),
		Inputs:  []string{"data/bank/*.csv"},
		Outputs: []string{"out/bank.txt"},
	})

	changed, reasons, err := s.CheckChanges(f.ctx, f.fc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{ReasonFirstRun}, reasons)

	state, err := f.store.Load(f.ctx, "bank_sync")
	require.NoError(t, err)
	checked, ok := statestore.TimeValue(state, statestore.KeyLastChecked)
	require.True(t, ok)
	assert.True(t, checked.Equal(fixedNow))

	res, err := s.Execute(f.ctx, f.fc)
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.ItemsProcessed)
	assert.Equal(t, []string{filepath.Join(f.dir, "out", "bank.txt")}, res.Outputs)
	assert.Len(t, f.fc.History(), 1)

	changed, reasons, err = s.CheckChanges(f.ctx, f.fc)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, reasons)

	f.write(t, "data/bank/jan.csv", "1,coffee,-4.75\n")
	f.write(t, "data/bank/feb.csv", "2,rent,-1200\n")
	_, reasons, err = s.CheckChanges(f.ctx, f.fc)
	require.NoError(t, err)
	assert.Equal(t, []string{"new input data/bank/feb.csv", "input changed: data/bank/jan.csv"}, reasons)

	_, err = s.Execute(f.ctx, f.fc)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(f.dir, "data", "bank", "feb.csv")))
	require.NoError(t, os.Remove(filepath.Join(f.dir, "out", "bank.txt")))
	_, reasons, err = s.CheckChanges(f.ctx, f.fc)
	require.NoError(t, err)
	assert.Equal(t, []string{"input removed: data/bank/feb.csv", "output missing: out/bank.txt"}, reasons)

	state, err = f.store.Load(f.ctx, "bank_sync")
	require.NoError(t, err)
	assert.Equal(t, int64(2), state[keyRuns])
}

func TestFailedCommandKeepsState(t *testing.T) {
	f := newFixture(t)
	f.write(t, "in.csv", "x")
	s := f.stage(&config.Stage{
		Name:    "apple_match",
		Command: shell("echo 'login expired' >&2; exit 3"),
		Inputs:  []string{"in.csv"},
	})

	res, err := s.Execute(f.ctx, f.fc)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "login expired")
	assert.Equal(t, 3, res.Metadata["exit_code"])
	require.NoError(t, res.Validate())

	changed, reasons, err := s.CheckChanges(f.ctx, f.fc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{ReasonFirstRun}, reasons)
}

func TestCommandEnvironment(t *testing.T) {
	f := newFixture(t)
	s := f.stage(&config.Stage{
		Name: "cash_flow",
		Command: shell(`test "$FINFLOW_START" = 2024-01-01 &&
test "$FINFLOW_END" = 2024-06-30 &&
test "$FINFLOW_NODE" = cash_flow &&
test "$FINFLOW_CONFIDENCE_THRESHOLD" = 10000 &&
test -n "$FINFLOW_RUN_ID" &&
test "$TOKEN" = abc &&
test "$(basename "$(pwd -P)")" = work`),
		Env:     map[string]string{"TOKEN": "abc"},
		Workdir: "work",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(f.dir, "work"), 0o755))

	res, err := s.Execute(f.ctx, f.fc)
	require.NoError(t, err)
	assert.True(t, res.Success, res.Error)
}

func TestResultFileAndReview(t *testing.T) {
	f := newFixture(t)
	s := f.stage(&config.Stage{
		Name:    "amazon_match",
		Command: shell(`printf '{"items_processed": 7, "new_items": 2, "metadata": {"unmatched": 1}}' > "$FINFLOW_RESULT_FILE"`),
		Review:  "Approve split transactions",
	})

	res, err := s.Execute(f.ctx, f.fc)
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 7, res.ItemsProcessed)
	assert.Equal(t, 2, res.NewItems)
	assert.True(t, res.RequiresReview)
	assert.Equal(t, "Approve split transactions", res.ReviewInstructions)
	assert.Equal(t, float64(1), res.Metadata["unmatched"])
}

func TestUnreadableResultFile(t *testing.T) {
	f := newFixture(t)
	s := f.stage(&config.Stage{
		Name:    "retirement",
		Command: shell(`echo 'not json' > "$FINFLOW_RESULT_FILE"`),
	})
	res, err := s.Execute(f.ctx, f.fc)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unreadable result")
}

func TestNodeIdentity(t *testing.T) {
	f := newFixture(t)
	s := f.stage(&config.Stage{
		Name:        "amazon_match",
		Description: "Match Amazon orders",
		Command:     []string{"true"},
		DependsOn:   []string{"bank_sync"},
	})
	assert.Equal(t, "amazon_match", s.Name())
	assert.Equal(t, []string{"bank_sync"}, s.Dependencies())
	assert.Equal(t, "Match Amazon orders", s.Description())
}
