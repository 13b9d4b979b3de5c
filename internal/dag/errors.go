package dag

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCycle       = errors.New("dependency cycle detected")
	ErrUnknownNode = errors.New("unknown node")
)

// GraphError wraps a graph failure with a human-readable detail.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func unknownNode(name string) error {
	return &GraphError{Kind: ErrUnknownNode, Msg: fmt.Sprintf("%q", name)}
}

func cycleAmong(names []string) error {
	return &GraphError{Kind: ErrCycle, Msg: "unresolved nodes " + strings.Join(names, ", ")}
}

// formatCycle renders a cycle as a closed path: a -> b -> a.
func formatCycle(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	return strings.Join(append(append([]string(nil), cycle...), cycle[0]), " -> ")
}
