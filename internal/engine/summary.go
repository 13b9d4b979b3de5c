package engine

import (
	"sort"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
	"github.com/shopspring/decimal"
)

// ReviewItem is a node whose output needs a human look.
type ReviewItem struct {
	Node         string `json:"node" yaml:"node"`
	Instructions string `json:"instructions,omitempty" yaml:"instructions,omitempty"`
}

// Summary aggregates the executions of one run.
type Summary struct {
	Total            int               `json:"total" yaml:"total"`
	Completed        int               `json:"completed" yaml:"completed"`
	Failed           int               `json:"failed" yaml:"failed"`
	Skipped          int               `json:"skipped" yaml:"skipped"`
	SuccessRate      float64           `json:"success_rate" yaml:"success_rate"`
	ItemsProcessed   int               `json:"items_processed" yaml:"items_processed"`
	NewItems         int               `json:"new_items" yaml:"new_items"`
	UpdatedItems     int               `json:"updated_items" yaml:"updated_items"`
	ExecutionSeconds float64           `json:"execution_seconds" yaml:"execution_seconds"`
	Outputs          []string          `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Review           []ReviewItem      `json:"review,omitempty" yaml:"review,omitempty"`
	Failures         map[string]string `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Summarize aggregates executions. SuccessRate is completed/total, or zero
// for an empty run.
func Summarize(executions map[string]*flow.Execution) Summary {
	s := Summary{Total: len(executions)}
	seconds := decimal.Zero
	outputs := make(map[string]struct{})

	names := make([]string, 0, len(executions))
	for name := range executions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		exec := executions[name]
		switch exec.Status {
		case flow.StatusCompleted:
			s.Completed++
		case flow.StatusFailed:
			s.Failed++
		case flow.StatusSkipped:
			s.Skipped++
		}

		r := exec.Result
		if r == nil {
			continue
		}
		s.ItemsProcessed += r.ItemsProcessed
		s.NewItems += r.NewItems
		s.UpdatedItems += r.UpdatedItems
		seconds = seconds.Add(decimal.NewFromFloat(r.Seconds()))
		if exec.Status == flow.StatusFailed {
			if s.Failures == nil {
				s.Failures = make(map[string]string)
			}
			s.Failures[name] = r.Error
		}
		if exec.Status != flow.StatusCompleted {
			continue
		}
		for _, path := range r.Outputs {
			outputs[path] = struct{}{}
		}
		if r.RequiresReview {
			s.Review = append(s.Review, ReviewItem{Node: name, Instructions: r.ReviewInstructions})
		}
	}

	s.ExecutionSeconds = seconds.InexactFloat64()
	if s.Total > 0 {
		s.SuccessRate = decimal.NewFromInt(int64(s.Completed)).
			Div(decimal.NewFromInt(int64(s.Total))).
			InexactFloat64()
	}
	for path := range outputs {
		s.Outputs = append(s.Outputs, path)
	}
	sort.Strings(s.Outputs)
	return s
}

// HasFailures reports whether any node failed; callers use it for exit codes.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// SuccessPercent renders SuccessRate as a percentage rounded to two decimals.
func (s Summary) SuccessPercent() string {
	return decimal.NewFromFloat(s.SuccessRate).Shift(2).StringFixed(2) + "%"
}
