// Package inmemorystate provides an ephemeral, thread-safe, in-memory
// implementation of the statestore.Store interface.
//
// State lives for the lifetime of the process only, so every run starts as
// a first run. It suits tests and one-off invocations with
// state_backend = "memory". Records are stored in a sync.Map keyed by node
// name and deep-copied through the JSON codec on the way in and out, so
// callers see exactly the value shapes the persistent backends return.
package inmemorystate

import (
	"context"
	"sync"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/statestore"
)

// Store is an in-memory statestore.Store.
type Store struct {
	records sync.Map // Key: node name, Value: encoded state ([]byte)
}

var _ statestore.Store = (*Store)(nil)

// New creates a new, empty in-memory state store.
func New() *Store {
	return &Store{}
}

// Save replaces the record for node.
func (s *Store) Save(_ context.Context, node string, state statestore.State) error {
	if err := statestore.ValidateName(node); err != nil {
		return err
	}
	data, err := statestore.Encode(state)
	if err != nil {
		return err
	}
	s.records.Store(node, data)
	return nil
}

// Load returns the record for node or an empty State.
func (s *Store) Load(_ context.Context, node string) (statestore.State, error) {
	if err := statestore.ValidateName(node); err != nil {
		return nil, err
	}
	data, ok := s.records.Load(node)
	if !ok {
		return statestore.State{}, nil
	}
	return statestore.Decode(data.([]byte))
}

// Nodes returns the number of nodes with a stored record.
func (s *Store) Nodes() int {
	n := 0
	s.records.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
