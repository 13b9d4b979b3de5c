package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/engine"
)

// PlanDocument is the machine-readable form of a plan, with the execution
// levels of the planned nodes.
type PlanDocument struct {
	Order   []string            `json:"order" yaml:"order"`
	Changes map[string][]string `json:"changes" yaml:"changes"`
	Levels  [][]string          `json:"levels" yaml:"levels"`
}

// RenderPlan writes a plan to w.
func RenderPlan(w io.Writer, format Format, plan engine.Plan, levels [][]string) error {
	doc := PlanDocument{Order: plan.Order, Changes: plan.Changes, Levels: levels}
	switch format {
	case JSON:
		return encodeJSON(w, doc)
	case YAML:
		return encodeYAML(w, doc)
	case Markdown, Text:
		if plan.Empty() {
			_, err := io.WriteString(w, "Nothing to run: no changes detected.\n")
			return err
		}
		levelOf := make(map[string]int)
		for i, level := range levels {
			for _, name := range level {
				levelOf[name] = i
			}
		}
		t := newTable(format, table.ColumnConfig{Number: 4, WidthMax: 80})
		t.AppendHeader(table.Row{"#", "Node", "Level", "Reasons"})
		for i, name := range plan.Order {
			t.AppendRow(table.Row{i + 1, name, levelOf[name], strings.Join(plan.Changes[name], "; ")})
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
