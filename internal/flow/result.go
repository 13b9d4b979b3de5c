package flow

import "fmt"

// DryRunKey marks a synthesized dry-run result in Result.Metadata.
const DryRunKey = "dry_run"

// Result is the outcome a node produces from a single Execute call.
type Result struct {
	Success            bool           `json:"success" yaml:"success"`
	ItemsProcessed     int            `json:"items_processed" yaml:"items_processed"`
	NewItems           int            `json:"new_items" yaml:"new_items"`
	UpdatedItems       int            `json:"updated_items" yaml:"updated_items"`
	Outputs            []string       `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	RequiresReview     bool           `json:"requires_review,omitempty" yaml:"requires_review,omitempty"`
	ReviewInstructions string         `json:"review_instructions,omitempty" yaml:"review_instructions,omitempty"`
	ExecutionTime      *float64       `json:"execution_time_seconds,omitempty" yaml:"execution_time_seconds,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Error              string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Succeeded returns an empty successful result.
func Succeeded() *Result {
	return &Result{Success: true}
}

// Failed returns a failed result carrying msg.
func Failed(format string, args ...any) *Result {
	return &Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// DryRun returns the placeholder result recorded for nodes skipped by a dry run.
func DryRun() *Result {
	return &Result{Success: true, Metadata: map[string]any{DryRunKey: true}}
}

// IsDryRun reports whether the result was synthesized by a dry run.
func (r *Result) IsDryRun() bool {
	if r == nil {
		return false
	}
	v, ok := r.Metadata[DryRunKey].(bool)
	return ok && v
}

// Validate checks the invariants a node must honour when returning a result.
func (r *Result) Validate() error {
	if r == nil {
		return fmt.Errorf("nil result")
	}
	if r.ItemsProcessed < 0 || r.NewItems < 0 || r.UpdatedItems < 0 {
		return fmt.Errorf("negative item counts (processed=%d new=%d updated=%d)", r.ItemsProcessed, r.NewItems, r.UpdatedItems)
	}
	if r.ExecutionTime != nil && *r.ExecutionTime < 0 {
		return fmt.Errorf("negative execution time %f", *r.ExecutionTime)
	}
	return nil
}

// SetExecutionTime stores seconds into ExecutionTime.
func (r *Result) SetExecutionTime(seconds float64) {
	r.ExecutionTime = &seconds
}

// Seconds returns ExecutionTime or zero.
func (r *Result) Seconds() float64 {
	if r == nil || r.ExecutionTime == nil {
		return 0
	}
	return *r.ExecutionTime
}
