package flow

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultConfidenceThreshold is 100% expressed in basis points.
const DefaultConfidenceThreshold BasisPoints = 10000

// BasisPoints is a fraction expressed in hundredths of a percent.
type BasisPoints int

// Decimal returns the value as an exact fraction (10000 -> 1).
func (b BasisPoints) Decimal() decimal.Decimal {
	return decimal.New(int64(b), -4)
}

// String renders the value as a percentage with two decimals.
func (b BasisPoints) String() string {
	return decimal.New(int64(b), -2).StringFixed(2) + "%"
}

// Validate rejects values outside 0..10000.
func (b BasisPoints) Validate() error {
	if b < 0 || b > DefaultConfidenceThreshold {
		return fmt.Errorf("confidence threshold %d out of range 0..%d", int(b), int(DefaultConfidenceThreshold))
	}
	return nil
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Validate ensures the range is not inverted.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("date range requires both start and end")
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("date range end %s is before start %s", r.End.Format(time.DateOnly), r.Start.Format(time.DateOnly))
	}
	return nil
}

// Contains reports whether t falls on a calendar day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	day := truncateDay(t)
	return !day.Before(truncateDay(r.Start)) && !day.After(truncateDay(r.End))
}

func (r DateRange) String() string {
	return r.Start.Format(time.DateOnly) + ".." + r.End.Format(time.DateOnly)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Context carries the parameters of a single invocation. Everything except
// the collaborator bag (archive manifests and history notes) is fixed once
// NewContext returns.
type Context struct {
	RunID               string
	StartTime           time.Time
	Interactive         bool
	PerformanceTracking bool
	ConfidenceThreshold BasisPoints
	DateRange           *DateRange
	DryRun              bool
	Force               bool
	Verbose             bool
	// Nodes optionally restricts planning and execution to these names.
	Nodes []string

	mu        sync.Mutex
	manifests []string
	history   []string
}

// Option customizes a Context during construction.
type Option func(*Context)

// WithDryRun plans normally but never invokes a node's Execute.
func WithDryRun(v bool) Option { return func(c *Context) { c.DryRun = v } }

// WithForce plans every node and ignores upstream failures.
func WithForce(v bool) Option { return func(c *Context) { c.Force = v } }

// WithVerbose enables verbose reporting.
func WithVerbose(v bool) Option { return func(c *Context) { c.Verbose = v } }

// WithInteractive marks the run as attached to a terminal.
func WithInteractive(v bool) Option { return func(c *Context) { c.Interactive = v } }

// WithPerformanceTracking records wall-clock durations into results.
func WithPerformanceTracking(v bool) Option {
	return func(c *Context) { c.PerformanceTracking = v }
}

// WithConfidenceThreshold overrides the default of 10000 basis points.
func WithConfidenceThreshold(bp BasisPoints) Option {
	return func(c *Context) { c.ConfidenceThreshold = bp }
}

// WithDateRange restricts date-aware stages to the given range.
func WithDateRange(start, end time.Time) Option {
	return func(c *Context) { c.DateRange = &DateRange{Start: start, End: end} }
}

// WithNodes restricts the run to the named nodes.
func WithNodes(names ...string) Option {
	return func(c *Context) { c.Nodes = append([]string(nil), names...) }
}

// WithStartTime pins the start time (primarily for tests).
func WithStartTime(t time.Time) Option { return func(c *Context) { c.StartTime = t } }

// NewContext builds a Context with defaults applied and validates it.
func NewContext(opts ...Option) (*Context, error) {
	c := &Context{
		RunID:               uuid.NewString(),
		StartTime:           time.Now(),
		ConfidenceThreshold: DefaultConfidenceThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.ConfidenceThreshold.Validate(); err != nil {
		return nil, err
	}
	if c.DateRange != nil {
		if err := c.DateRange.Validate(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// AddArchiveManifest records a manifest path produced by an archival collaborator.
func (c *Context) AddArchiveManifest(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manifests = append(c.manifests, path)
}

// ArchiveManifests returns a copy of the recorded manifest paths.
func (c *Context) ArchiveManifests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.manifests...)
}

// AddHistory appends a free-form execution history note.
func (c *Context) AddHistory(note string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, note)
}

// History returns a copy of the recorded history notes.
func (c *Context) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.history...)
}

// Selected reports whether name is inside the optional Nodes subset.
func (c *Context) Selected(name string) bool {
	if len(c.Nodes) == 0 {
		return true
	}
	for _, n := range c.Nodes {
		if n == name {
			return true
		}
	}
	return false
}
