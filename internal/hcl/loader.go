package hcl

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/config"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/ctxlog"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	environ func() []string
}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{environ: os.Environ}
}

// WithEnviron overrides the environment exposed as `env` to expressions.
func (l *Loader) WithEnviron(environ []string) *Loader {
	l.environ = func() []string { return environ }
	return l
}

// Load parses every .hcl file reachable from paths and merges them into one
// model. At most one settings block may appear across all files, and stage
// names must be unique.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := fsutil.ResolvePaths(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	evalCtx := l.evalContext()
	model := &config.Model{}
	var settingsAt *hcl.Range

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, s := range root.Settings {
			if settingsAt != nil {
				return nil, fmt.Errorf("%s: duplicate settings block, first declared at %s", s.DeclRange, settingsAt)
			}
			settings, err := translateSettings(evalCtx, s)
			if err != nil {
				return nil, err
			}
			model.Settings = settings
			r := s.DeclRange
			settingsAt = &r
		}
		for _, s := range root.Stages {
			if prev := model.Stage(s.Name); prev != nil {
				return nil, fmt.Errorf("%s: duplicate stage %q, first declared at %s", s.DeclRange, s.Name, prev.Source)
			}
			stage, err := translateStage(evalCtx, s)
			if err != nil {
				return nil, err
			}
			model.Stages = append(model.Stages, stage)
		}
	}

	logger.Debug("HCL loading complete.", "files", len(hclFiles), "stages", len(model.Stages))
	return model, nil
}

// evalContext exposes the process environment as the `env` object.
func (l *Loader) evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range l.environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" || !hclIdentifier(k) {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

// hclIdentifier reports whether k can be used as an attribute name after `env.`.
func hclIdentifier(k string) bool {
	for i, r := range k {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && (r == '-' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}
