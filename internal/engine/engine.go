package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/ctxlog"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/dag"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/registry"
)

// ErrNoRegistry is returned by New when no registry is supplied.
var ErrNoRegistry = errors.New("engine: node registry is required")

// ValidationError carries the structural problems that make a flow unsafe
// to execute.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid flow:\n- %s", strings.Join(e.Problems, "\n- "))
}

// Engine plans and executes runs over a registry snapshot.
type Engine struct {
	registry *registry.Registry
	graph    *dag.Graph
	clock    func() time.Time
	logger   *slog.Logger
}

// Option customizes the engine instance.
type Option func(*Engine)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger pins the engine to logger instead of the one carried in the
// context of each call.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New snapshots reg into a dependency graph. Nodes registered after New
// returns are not seen by the engine.
func New(reg *registry.Registry, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, ErrNoRegistry
	}
	e := &Engine{
		registry: reg,
		graph:    dag.New(reg.Nodes()),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Graph exposes the dependency graph the engine schedules on.
func (e *Engine) Graph() *dag.Graph {
	return e.graph
}

// ValidateFlow returns every structural problem in the graph. An empty list
// means the flow is safe to plan and execute.
func (e *Engine) ValidateFlow() []string {
	return e.graph.Validate()
}

func (e *Engine) withLogger(ctx context.Context) context.Context {
	if e.logger != nil {
		return ctxlog.WithLogger(ctx, e.logger)
	}
	return ctx
}

func (e *Engine) validate() error {
	if problems := e.ValidateFlow(); len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
