package integrationtests

import (
	"testing"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/cli"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const failingMatcherFlow = `
stage "bank_sync" {
  command = ["/bin/sh", "-c", "echo bank_sync >> trace.log"]
}

stage "amazon_match" {
  command    = ["/bin/sh", "-c", "echo amazon_match >> trace.log; echo 'no order export found' >&2; exit 4"]
  depends_on = ["bank_sync"]
}

stage "retirement_update" {
  command    = ["/bin/sh", "-c", "echo retirement_update >> trace.log"]
  depends_on = ["bank_sync"]
}

stage "split_generation" {
  command    = ["/bin/sh", "-c", "echo split_generation >> trace.log"]
  depends_on = ["amazon_match"]
}

stage "cash_flow" {
  command    = ["/bin/sh", "-c", "echo cash_flow >> trace.log"]
  depends_on = ["split_generation", "retirement_update"]
}
`

func TestErrorHandling_FailureSkipsDependentsTransitively(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	w := newWorkspace(t, failingMatcherFlow)

	// --- Act ---
	doc, err := w.run()

	// --- Assert ---
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, cli.ExitFailure, exitErr.Code)

	assert.Equal(t, map[string]flow.Status{
		"bank_sync":         flow.StatusCompleted,
		"amazon_match":      flow.StatusFailed,
		"retirement_update": flow.StatusCompleted,
		"split_generation":  flow.StatusSkipped,
		"cash_flow":         flow.StatusSkipped,
	}, statuses(doc))
	assert.Equal(t, []string{"bank_sync", "amazon_match", "retirement_update"}, w.trace())
	assert.Contains(t, doc.Summary.Failures["amazon_match"], "no order export found")

	for _, e := range doc.Executions {
		if e.Node == "cash_flow" {
			assert.Equal(t, []string{"split_generation"}, e.BlockedBy)
		}
	}
}

func TestErrorHandling_ForceRunsPastFailures(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	w := newWorkspace(t, failingMatcherFlow)

	// --- Act ---
	doc, err := w.run("--force")

	// --- Assert ---
	require.Error(t, err)
	assert.Len(t, w.trace(), 5)
	assert.Equal(t, 4, doc.Summary.Completed)
	assert.Equal(t, 1, doc.Summary.Failed)
}

func TestErrorHandling_FailedStageRerunsNextTime(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	w := newWorkspace(t, failingMatcherFlow)
	_, _ = w.run()
	w.trace()

	// --- Act ---
	_, err := w.run()

	// --- Assert ---
	require.Error(t, err)
	assert.Equal(t, []string{"amazon_match"}, w.trace(),
		"completed stages are up to date; the failed one never recorded a success")
}
