package hcl

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// translateSettings converts the HCL settings block into the agnostic model.
func translateSettings(evalCtx *hcl.EvalContext, s *settingsBlock) (config.Settings, error) {
	out := config.Settings{
		StateDir:            deref(s.StateDir),
		StateBackend:        deref(s.StateBackend),
		ConfidenceThreshold: s.ConfidenceThreshold,
		PerformanceTracking: s.PerformanceTracking,
		LogLevel:            deref(s.LogLevel),
		LogFormat:           deref(s.LogFormat),
	}
	if out.StateBackend != "" && !config.ValidBackend(out.StateBackend) {
		return config.Settings{}, fmt.Errorf("%s: unsupported state_backend %q (want json, sqlite or memory)", s.DeclRange, out.StateBackend)
	}
	if s.DateRange != nil {
		start, err := evalDate(evalCtx, s.DateRange.Start)
		if err != nil {
			return config.Settings{}, err
		}
		end, err := evalDate(evalCtx, s.DateRange.End)
		if err != nil {
			return config.Settings{}, err
		}
		if end.Before(start) {
			return config.Settings{}, fmt.Errorf("%s: date_range end %s is before start %s",
				s.DateRange.DeclRange, end.Format(config.DateLayout), start.Format(config.DateLayout))
		}
		out.DateRange = &config.DateRange{Start: start, End: end}
	}
	return out, nil
}

// translateStage converts the HCL stage block into the agnostic model.
func translateStage(evalCtx *hcl.EvalContext, s *stageBlock) (*config.Stage, error) {
	if len(s.Command) == 0 {
		return nil, fmt.Errorf("%s: stage %q: command must not be empty", s.DeclRange, s.Name)
	}
	env, err := evalStringMap(evalCtx, s.Env)
	if err != nil {
		return nil, fmt.Errorf("stage %q: env: %w", s.Name, err)
	}
	return &config.Stage{
		Name:        s.Name,
		Description: deref(s.Description),
		Command:     s.Command,
		DependsOn:   s.DependsOn,
		Inputs:      s.Inputs,
		Outputs:     s.Outputs,
		Env:         env,
		Workdir:     deref(s.Workdir),
		Review:      deref(s.Review),
		Source:      s.DeclRange.String(),
	}, nil
}

// evalDate evaluates expr as a YYYY-MM-DD string.
func evalDate(evalCtx *hcl.EvalContext, expr hcl.Expression) (time.Time, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return time.Time{}, diags
	}
	val, err := convert.Convert(val, cty.String)
	if err != nil || val.IsNull() || !val.IsKnown() {
		return time.Time{}, fmt.Errorf("%s: date must be a string", expr.Range())
	}
	t, err := config.ParseDate(val.AsString())
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", expr.Range(), err)
	}
	return t, nil
}

// evalStringMap evaluates expr as a map of strings. A null value (attribute
// not set) yields a nil map.
func evalStringMap(evalCtx *hcl.EvalContext, expr hcl.Expression) (map[string]string, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	val, err := convert.Convert(val, cty.Map(cty.String))
	if err != nil {
		return nil, fmt.Errorf("%s: expected a map of strings: %w", expr.Range(), err)
	}
	var out map[string]string
	if err := gocty.FromCtyValue(val, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", expr.Range(), err)
	}
	return out, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
