package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/ctxlog"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/node"
)

// ErrEmptyName is returned when registering a node without a name.
var ErrEmptyName = errors.New("node name must not be empty")

// Registry holds the registered nodes, keyed by name, in registration order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	nodes map[string]node.Node
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{nodes: make(map[string]node.Node)}
}

// Register inserts n, replacing any node already registered under the same
// name. A replacement keeps the original registration position and logs a
// warning; it is not an error.
func (r *Registry) Register(ctx context.Context, n node.Node) error {
	name := n.Name()
	if name == "" {
		return ErrEmptyName
	}
	logger := ctxlog.FromContext(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.nodes[name]; exists {
		logger.Warn("Overwriting previously registered node.", "node", name)
	} else {
		r.order = append(r.order, name)
	}
	r.nodes[name] = n
	logger.Debug("Registered node.", "node", name, "dependencies", n.Dependencies())
	return nil
}

// RegisterFunc wraps fn in a node.Func and registers it.
func (r *Registry) RegisterFunc(ctx context.Context, name string, fn node.ExecuteFunc, deps []string, detect node.DetectFunc) error {
	return r.Register(ctx, node.NewFunc(name, fn, deps, detect))
}

// Node returns the node registered under name.
func (r *Registry) Node(name string) (node.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[name]
	return n, ok
}

// Nodes returns a snapshot of every node in registration order.
func (r *Registry) Nodes() []node.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]node.Node, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.nodes[name])
	}
	return out
}

// Names returns every registered name in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len reports the number of registered nodes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
