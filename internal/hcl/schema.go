package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Settings []*settingsBlock `hcl:"settings,block"`
	Stages   []*stageBlock    `hcl:"stage,block"`
}

type settingsBlock struct {
	StateDir            *string         `hcl:"state_dir,optional"`
	StateBackend        *string         `hcl:"state_backend,optional"`
	ConfidenceThreshold *int            `hcl:"confidence_threshold,optional"`
	PerformanceTracking *bool           `hcl:"performance_tracking,optional"`
	LogLevel            *string         `hcl:"log_level,optional"`
	LogFormat           *string         `hcl:"log_format,optional"`
	DateRange           *dateRangeBlock `hcl:"date_range,block"`
	DeclRange           hcl.Range       `hcl:",def_range"`
}

type dateRangeBlock struct {
	Start     hcl.Expression `hcl:"start"`
	End       hcl.Expression `hcl:"end"`
	DeclRange hcl.Range      `hcl:",def_range"`
}

type stageBlock struct {
	Name        string         `hcl:"name,label"`
	Description *string        `hcl:"description,optional"`
	Command     []string       `hcl:"command"`
	DependsOn   []string       `hcl:"depends_on,optional"`
	Inputs      []string       `hcl:"inputs,optional"`
	Outputs     []string       `hcl:"outputs,optional"`
	Env         hcl.Expression `hcl:"env,optional"`
	Workdir     *string        `hcl:"workdir,optional"`
	Review      *string        `hcl:"review,optional"`
	DeclRange   hcl.Range      `hcl:",def_range"`
}
