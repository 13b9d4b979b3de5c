// Package statestore defines the persistence contract that change detectors
// use to remember what they saw on a previous run.
//
// # Ownership
//
// Each record is addressed by a node name and owned by that node alone. The
// engine never reads or writes a record; a node reads its state while
// checking for changes and may rewrite it at the end of its own execution.
//
// # Values
//
// A State is a JSON-like map. Every backend round-trips strings, numbers,
// booleans, and nested maps and lists without loss: integers come back as
// int64 (so revision counters above 2^53 survive), floating-point numbers
// as float64, and nested values as map[string]any / []any. All backends
// share Encode and Decode, so detectors see identical values regardless of
// the backend. Timestamps are stored as RFC 3339 strings (see SetTime).
//
// Backends: internal/inmemorystate, internal/filestate and
// internal/sqlitestate.
package statestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidName is returned for a node name that cannot address a record.
var ErrInvalidName = errors.New("invalid node name")

// State is one node's persisted detector state.
type State map[string]any

// Store persists one State per node name.
type Store interface {
	// Save replaces the record for node.
	Save(ctx context.Context, node string, state State) error
	// Load returns the record for node, or an empty State when none exists.
	Load(ctx context.Context, node string) (State, error)
}

// ValidateName rejects names that cannot be used as a record key.
func ValidateName(node string) error {
	if node == "" || strings.ContainsRune(node, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, node)
	}
	return nil
}

// Encode serializes state for a backend that stores bytes. Floats are
// always written with a fraction or an exponent so Decode can tell them
// apart from integers.
func Encode(state State) ([]byte, error) {
	if state == nil {
		state = State{}
	}
	data, err := json.Marshal(markFloats(map[string]any(state)))
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return data, nil
}

// Decode parses bytes produced by Encode. Empty input decodes to an empty State.
func Decode(data []byte) (State, error) {
	state := State{}
	if len(data) == 0 {
		return state, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	for k, v := range raw {
		state[k] = fromNumbers(v)
	}
	return state, nil
}

func markFloats(v any) any {
	switch t := v.(type) {
	case State:
		return markFloats(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = markFloats(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = markFloats(e)
		}
		return out
	case float64:
		return floatNumber(t)
	case float32:
		return floatNumber(float64(t))
	default:
		return v
	}
}

// floatNumber leaves NaN and infinities as floats so json.Marshal rejects them.
func floatNumber(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return json.Number(s)
}

// fromNumbers replaces every json.Number with int64, or float64 when the
// literal has a fraction or exponent or does not fit in an int64.
func fromNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = fromNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = fromNumbers(e)
		}
		return t
	case json.Number:
		if !strings.ContainsAny(t.String(), ".eE") {
			if i, err := t.Int64(); err == nil {
				return i
			}
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}
