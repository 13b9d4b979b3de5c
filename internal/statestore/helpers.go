package statestore

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Well-known keys shared by detectors.
const (
	KeyLastChecked = "last_checked"
	KeyLastSuccess = "last_success"
)

// SaveLastCheckState persists state for node.
func SaveLastCheckState(ctx context.Context, store Store, node string, state State) error {
	if err := ValidateName(node); err != nil {
		return err
	}
	if err := store.Save(ctx, node, state); err != nil {
		return fmt.Errorf("saving state for node %q: %w", node, err)
	}
	return nil
}

// LoadLastCheckState returns the persisted state for node; a node that never
// saved anything gets an empty State.
func LoadLastCheckState(ctx context.Context, store Store, node string) (State, error) {
	if err := ValidateName(node); err != nil {
		return nil, err
	}
	state, err := store.Load(ctx, node)
	if err != nil {
		return nil, fmt.Errorf("loading state for node %q: %w", node, err)
	}
	if state == nil {
		state = State{}
	}
	return state, nil
}

// SetTime stores t under key as an RFC 3339 UTC string.
func SetTime(state State, key string, t time.Time) {
	state[key] = t.UTC().Format(time.RFC3339Nano)
}

// TimeValue parses the timestamp stored under key. The boolean is false when
// the key is absent or does not hold a timestamp.
func TimeValue(state State, key string) (time.Time, bool) {
	raw, ok := state[key].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// StringMap reads a map of strings stored under key, skipping non-string
// values.
func StringMap(state State, key string) map[string]string {
	out := make(map[string]string)
	switch m := state[key].(type) {
	case map[string]any:
		for k, v := range m {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	case map[string]string:
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Int reads an integer stored under key. Values written as float64 by
// older records are accepted when integral.
func Int(state State, key string) (int64, bool) {
	switch v := state[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == math.Trunc(v) {
			return int64(v), true
		}
	}
	return 0, false
}
