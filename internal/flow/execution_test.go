package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionTransitions(t *testing.T) {
	t.Run("pending to running to completed", func(t *testing.T) {
		e := NewExecution("a")
		require.NoError(t, e.Transition(StatusRunning))
		require.NoError(t, e.Transition(StatusCompleted))
		assert.True(t, e.Status.Terminal())
	})

	t.Run("running to failed", func(t *testing.T) {
		e := NewExecution("a")
		require.NoError(t, e.Transition(StatusRunning))
		require.NoError(t, e.Transition(StatusFailed))
		assert.True(t, e.Blocking())
	})

	t.Run("pending to skipped", func(t *testing.T) {
		e := NewExecution("a")
		require.NoError(t, e.Skip("dry run", DryRun()))
		assert.Equal(t, StatusSkipped, e.Status)
		assert.True(t, e.Result.IsDryRun())
		assert.False(t, e.Blocking())
	})

	t.Run("terminal states are final", func(t *testing.T) {
		for _, terminal := range []Status{StatusCompleted, StatusFailed, StatusSkipped} {
			e := &Execution{Node: "a", Status: terminal}
			for _, to := range []Status{StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusSkipped} {
				assert.ErrorIs(t, e.Transition(to), ErrInvalidTransition, "%s -> %s", terminal, to)
			}
		}
	})

	t.Run("pending cannot complete directly", func(t *testing.T) {
		e := NewExecution("a")
		assert.ErrorIs(t, e.Transition(StatusCompleted), ErrInvalidTransition)
		assert.Equal(t, StatusPending, e.Status)
	})
}

func TestExecutionBlockingPropagatesThroughSkips(t *testing.T) {
	e := NewExecution("b")
	e.BlockedBy = []string{"a"}
	require.NoError(t, e.Skip("upstream failed", nil))
	assert.True(t, e.Blocking())

	var nilExec *Execution
	assert.False(t, nilExec.Blocking())
}

func TestExecutionDuration(t *testing.T) {
	e := NewExecution("a")
	assert.Zero(t, e.Duration())

	e.StartTime = time.Unix(100, 0)
	e.EndTime = time.Unix(102, 0)
	assert.Equal(t, 2*time.Second, e.Duration())
}

func TestResultValidate(t *testing.T) {
	assert.NoError(t, Succeeded().Validate())
	assert.NoError(t, Failed("boom %d", 1).Validate())
	assert.Equal(t, "boom 1", Failed("boom %d", 1).Error)

	var nilResult *Result
	assert.ErrorContains(t, nilResult.Validate(), "nil result")
	assert.ErrorContains(t, (&Result{Success: true, ItemsProcessed: -1}).Validate(), "negative item counts")
	assert.NoError(t, (&Result{Success: false}).Validate(), "the error message is optional")

	r := Succeeded()
	r.SetExecutionTime(-1)
	assert.ErrorContains(t, r.Validate(), "negative execution time")

	r.SetExecutionTime(1.5)
	assert.Equal(t, 1.5, r.Seconds())
	assert.Zero(t, nilResult.Seconds())
}
