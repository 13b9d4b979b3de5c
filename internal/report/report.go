// Package report renders run results for people (text and Markdown tables)
// and for tools (JSON and YAML documents).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/engine"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
	"gopkg.in/yaml.v3"
)

// Format selects the output encoding.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	JSON     Format = "json"
	YAML     Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case Text, Markdown, JSON, YAML:
		return f, nil
	case "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, markdown, json or yaml)", s)
	}
}

// Document is the machine-readable form of a run report.
type Document struct {
	Executions []*flow.Execution `json:"executions" yaml:"executions"`
	Summary    engine.Summary    `json:"summary" yaml:"summary"`
}

// Render writes the executions, ordered by order, and the summary to w.
// Executions missing from order follow in name order.
func Render(w io.Writer, format Format, order []string, executions map[string]*flow.Execution, summary engine.Summary) error {
	doc := Document{Executions: ordered(order, executions), Summary: summary}
	switch format {
	case JSON:
		return encodeJSON(w, doc)
	case YAML:
		return encodeYAML(w, doc)
	case Markdown, Text:
		return renderTable(w, format, doc)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func ordered(order []string, executions map[string]*flow.Execution) []*flow.Execution {
	out := make([]*flow.Execution, 0, len(executions))
	seen := make(map[string]struct{}, len(executions))
	for _, name := range order {
		if exec, ok := executions[name]; ok {
			if _, dup := seen[name]; !dup {
				out = append(out, exec)
				seen[name] = struct{}{}
			}
		}
	}
	var rest []string
	for name := range executions {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, executions[name])
	}
	return out
}

func renderTable(w io.Writer, format Format, doc Document) error {
	t := newTable(format,
		table.ColumnConfig{Number: 3, Align: text.AlignRight},
		table.ColumnConfig{Number: 4, Align: text.AlignRight},
		table.ColumnConfig{Number: 5, WidthMax: 60},
	)
	t.AppendHeader(table.Row{"Node", "Status", "Items", "Seconds", "Detail"})
	for _, exec := range doc.Executions {
		items, seconds := "", ""
		if r := exec.Result; r != nil && !r.IsDryRun() {
			items = fmt.Sprint(r.ItemsProcessed)
			if r.ExecutionTime != nil {
				seconds = fmt.Sprintf("%.2f", *r.ExecutionTime)
			}
		}
		t.AppendRow(table.Row{exec.Node, string(exec.Status), items, seconds, detail(exec)})
	}
	s := doc.Summary
	t.AppendFooter(table.Row{"Total", fmt.Sprint(s.Total), fmt.Sprint(s.ItemsProcessed), fmt.Sprintf("%.2f", s.ExecutionSeconds), "success " + s.SuccessPercent()})

	var b strings.Builder
	if format == Markdown {
		b.WriteString(t.RenderMarkdown())
	} else {
		b.WriteString(t.Render())
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "\n%d completed, %d failed, %d skipped\n", s.Completed, s.Failed, s.Skipped)
	if len(s.Review) > 0 {
		b.WriteString("\nNeeds review:\n")
		for _, r := range s.Review {
			fmt.Fprintf(&b, "- %s: %s\n", r.Node, r.Instructions)
		}
	}
	if len(s.Outputs) > 0 {
		b.WriteString("\nOutputs:\n")
		for _, p := range s.Outputs {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func newTable(format Format, columns ...table.ColumnConfig) table.Writer {
	t := table.NewWriter()
	if format == Text {
		t.SetStyle(table.StyleLight)
	}
	t.SetColumnConfigs(columns)
	return t
}

func detail(exec *flow.Execution) string {
	switch {
	case exec.Status == flow.StatusSkipped:
		return exec.SkipReason
	case exec.Result == nil:
		return ""
	case !exec.Result.Success:
		return exec.Result.Error
	case exec.Result.RequiresReview:
		return "review: " + exec.Result.ReviewInstructions
	default:
		return ""
	}
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
