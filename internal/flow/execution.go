package flow

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned for a status change the state machine forbids.
var ErrInvalidTransition = errors.New("invalid status transition")

// Status is the lifecycle state of a node within one run.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusSkipped   Status = "SKIPPED"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

func (s Status) allows(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusRunning || to == StatusSkipped
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// Execution records one node's attempted execution during a run.
type Execution struct {
	Node      string    `json:"node" yaml:"node"`
	Status    Status    `json:"status" yaml:"status"`
	Result    *Result   `json:"result,omitempty" yaml:"result,omitempty"`
	StartTime time.Time `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	// SkipReason explains a SKIPPED status.
	SkipReason string `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
	// BlockedBy lists the failed upstream nodes that caused a skip.
	BlockedBy []string `json:"blocked_by,omitempty" yaml:"blocked_by,omitempty"`
}

// NewExecution returns a PENDING execution for name.
func NewExecution(name string) *Execution {
	return &Execution{Node: name, Status: StatusPending}
}

// Transition moves the execution to status to, or returns ErrInvalidTransition.
func (e *Execution) Transition(to Status) error {
	if !e.Status.allows(to) {
		return fmt.Errorf("%w for %q: %s -> %s", ErrInvalidTransition, e.Node, e.Status, to)
	}
	e.Status = to
	return nil
}

// Skip transitions a pending execution to SKIPPED with the given reason.
func (e *Execution) Skip(reason string, result *Result) error {
	if err := e.Transition(StatusSkipped); err != nil {
		return err
	}
	e.SkipReason = reason
	e.Result = result
	return nil
}

// Duration is EndTime-StartTime, or zero if the execution never ran.
func (e *Execution) Duration() time.Duration {
	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		return 0
	}
	return e.EndTime.Sub(e.StartTime)
}

// Blocking reports whether dependents of this execution must not run.
// A node skipped because of an upstream failure blocks its own dependents
// too, so failures propagate transitively.
func (e *Execution) Blocking() bool {
	if e == nil {
		return false
	}
	return e.Status == StatusFailed || (e.Status == StatusSkipped && len(e.BlockedBy) > 0)
}
