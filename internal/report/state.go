package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/statestore"
)

// NodeState pairs a node with its persisted detector state.
type NodeState struct {
	Node  string           `json:"node" yaml:"node"`
	State statestore.State `json:"state" yaml:"state"`
}

// RenderState writes the persisted state of each node in order. The table
// formats show the well-known timestamps and the names of the other keys;
// JSON and YAML carry the full records.
func RenderState(w io.Writer, format Format, order []string, states map[string]statestore.State) error {
	docs := make([]NodeState, 0, len(order))
	for _, name := range order {
		state := states[name]
		if state == nil {
			state = statestore.State{}
		}
		docs = append(docs, NodeState{Node: name, State: state})
	}

	switch format {
	case JSON:
		return encodeJSON(w, docs)
	case YAML:
		return encodeYAML(w, docs)
	case Markdown, Text:
		t := newTable(format)
		t.AppendHeader(table.Row{"Node", "Last checked", "Last success", "Other keys"})
		for _, d := range docs {
			t.AppendRow(table.Row{
				d.Node,
				stamp(d.State, statestore.KeyLastChecked),
				stamp(d.State, statestore.KeyLastSuccess),
				strings.Join(otherKeys(d.State), ", "),
			})
		}
		out := t.Render()
		if format == Markdown {
			out = t.RenderMarkdown()
		}
		_, err := fmt.Fprintln(w, out)
		return err
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func stamp(state statestore.State, key string) string {
	t, ok := statestore.TimeValue(state, key)
	if !ok {
		return "never"
	}
	return t.Format(time.RFC3339)
}

func otherKeys(state statestore.State) []string {
	var keys []string
	for k := range state {
		if k != statestore.KeyLastChecked && k != statestore.KeyLastSuccess {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
