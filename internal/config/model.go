package config

import (
	"fmt"
	"time"
)

// Supported state backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DateLayout is the calendar date format used for date ranges.
const DateLayout = "2006-01-02"

// Model is the unified representation of a flow configuration: run-wide
// settings and the stages to register.
type Model struct {
	Settings Settings
	Stages   []*Stage
}

// Settings holds run-wide defaults. Pointer fields are nil when unset so
// command-line flags can tell "not configured" apart from a zero value.
type Settings struct {
	StateDir            string
	StateBackend        string
	ConfidenceThreshold *int
	PerformanceTracking *bool
	LogLevel            string
	LogFormat           string
	DateRange           *DateRange
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Stage is the format-agnostic representation of a `stage` block.
type Stage struct {
	Name        string
	Description string
	Command     []string
	DependsOn   []string
	Inputs      []string
	Outputs     []string
	Env         map[string]string
	Workdir     string
	Review      string
	// Source is the file:line the stage was declared at.
	Source string
}

// Stage returns the stage declared under name, or nil.
func (m *Model) Stage(name string) *Stage {
	for _, s := range m.Stages {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// ValidBackend reports whether name is a supported state backend.
func ValidBackend(name string) bool {
	switch name {
	case BackendJSON, BackendSQLite, BackendMemory:
		return true
	default:
		return false
	}
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}
