// Package node defines the capability every pipeline stage implements so the
// engine can decide whether it must run and then run it.
package node

import (
	"context"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
)

// Node is a named pipeline stage with declared dependencies.
//
// CheckChanges must not perform the stage's real work, but it may read and
// update the stage's own persisted detector state. An error from
// CheckChanges is treated as a configuration problem and aborts planning.
//
// Execute performs the work. Expected failures should be reported through a
// Result with Success=false; a returned error or a panic is converted into a
// failed Result by the engine.
type Node interface {
	Name() string
	Dependencies() []string
	CheckChanges(ctx context.Context, fc *flow.Context) (bool, []string, error)
	Execute(ctx context.Context, fc *flow.Context) (*flow.Result, error)
}

// Base provides the identity half of Node (name + dependencies).
type Base struct {
	name string
	deps []string
}

// NewBase seeds the helper with a name and dependency list.
func NewBase(name string, deps ...string) Base {
	return Base{name: name, deps: append([]string(nil), deps...)}
}

// Name implements Node.Name.
func (b Base) Name() string {
	return b.name
}

// Dependencies implements Node.Dependencies.
func (b Base) Dependencies() []string {
	return append([]string(nil), b.deps...)
}
