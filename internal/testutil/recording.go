package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/node"
)

// RecordingNode is a configurable node.Node that counts its calls. Its
// zero-value behavior is: no changes detected, Execute succeeds.
type RecordingNode struct {
	node.Base

	// Changed and Reasons are returned by CheckChanges.
	Changed bool
	Reasons []string
	// DetectErr, when set, is returned by CheckChanges.
	DetectErr error

	// Result is returned by Execute; nil means flow.Succeeded().
	Result *flow.Result
	// ReturnNil makes Execute return a nil result and nil error.
	ReturnNil bool
	// Err is returned by Execute.
	Err error
	// Panic, when non-nil, is raised from Execute.
	Panic any
	// Sleep delays Execute, for concurrency tests.
	Sleep time.Duration

	checks   atomic.Int32
	executes atomic.Int32

	mu     sync.Mutex
	record ExecutionRecord
}

var _ node.Node = (*RecordingNode)(nil)

// NewRecordingNode creates a node with the given name and dependencies.
func NewRecordingNode(name string, deps ...string) *RecordingNode {
	return &RecordingNode{Base: node.NewBase(name, deps...)}
}

// Changing marks the node as reporting a change with the given reasons.
func (n *RecordingNode) Changing(reasons ...string) *RecordingNode {
	n.Changed = true
	n.Reasons = reasons
	return n
}

// Failing makes Execute return an unsuccessful result with msg.
func (n *RecordingNode) Failing(msg string) *RecordingNode {
	n.Result = flow.Failed("%s", msg)
	return n
}

// CheckChanges implements node.Node.
func (n *RecordingNode) CheckChanges(context.Context, *flow.Context) (bool, []string, error) {
	n.checks.Add(1)
	if n.DetectErr != nil {
		return false, nil, n.DetectErr
	}
	return n.Changed, append([]string(nil), n.Reasons...), nil
}

// Execute implements node.Node.
func (n *RecordingNode) Execute(ctx context.Context, _ *flow.Context) (*flow.Result, error) {
	n.executes.Add(1)
	start := time.Now()
	defer func() {
		n.mu.Lock()
		n.record = ExecutionRecord{Start: start, End: time.Now()}
		n.mu.Unlock()
	}()

	if n.Sleep > 0 {
		select {
		case <-time.After(n.Sleep):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if n.Panic != nil {
		panic(n.Panic)
	}
	if n.Err != nil {
		return nil, n.Err
	}
	if n.ReturnNil {
		return nil, nil
	}
	if n.Result != nil {
		copied := *n.Result
		return &copied, nil
	}
	return flow.Succeeded(), nil
}

// Checks reports how many times CheckChanges ran.
func (n *RecordingNode) Checks() int { return int(n.checks.Load()) }

// Executions reports how many times Execute ran.
func (n *RecordingNode) Executions() int { return int(n.executes.Load()) }

// Record returns the timing of the most recent Execute call.
func (n *RecordingNode) Record() ExecutionRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.record
}
