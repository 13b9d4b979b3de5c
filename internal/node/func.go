package node

import (
	"context"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
)

// ExecuteFunc is the work half of a function-backed node.
type ExecuteFunc func(ctx context.Context, fc *flow.Context) (*flow.Result, error)

// DetectFunc is an injectable change detector.
type DetectFunc func(ctx context.Context, fc *flow.Context) (bool, []string, error)

// Func adapts a plain function into a Node.
type Func struct {
	Base
	fn     ExecuteFunc
	detect DetectFunc
}

var _ Node = (*Func)(nil)

// NewFunc wraps fn as a node. A nil detector reports no changes, so the
// node only runs when forced or when pulled in by an upstream change.
func NewFunc(name string, fn ExecuteFunc, deps []string, detect DetectFunc) *Func {
	return &Func{Base: NewBase(name, deps...), fn: fn, detect: detect}
}

// CheckChanges implements Node.CheckChanges.
func (f *Func) CheckChanges(ctx context.Context, fc *flow.Context) (bool, []string, error) {
	if f.detect == nil {
		return false, nil, nil
	}
	return f.detect(ctx, fc)
}

// Execute implements Node.Execute.
func (f *Func) Execute(ctx context.Context, fc *flow.Context) (*flow.Result, error) {
	return f.fn(ctx, fc)
}

// Always is a DetectFunc that always reports a change with the given reason.
func Always(reason string) DetectFunc {
	return func(context.Context, *flow.Context) (bool, []string, error) {
		return true, []string{reason}, nil
	}
}
