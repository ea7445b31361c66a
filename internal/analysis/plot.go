package analysis

import (
	"errors"
	"fmt"

	"finassist/internal/domain"
)

// PlotSpec describes the optional diagram for a grouped context. X names
// the group dimension, Y the metric to plot; both must exist in the
// context the plan produced.
type PlotSpec struct {
	Kind  string `json:"kind"`
	Title string `json:"title,omitempty"`
	X     string `json:"x"`
	Y     string `json:"y"`
}

// Validate rejects a spec outside the supported chart kinds.
func (s PlotSpec) Validate() error {
	switch domain.ChartType(s.Kind) {
	case domain.ChartBar, domain.ChartLine, domain.ChartPie:
	default:
		return fmt.Errorf("unknown chart kind %q", s.Kind)
	}
	if s.X == "" || s.Y == "" {
		return errors.New("plot needs both x and y")
	}
	return nil
}

// BuildChart renders a plot spec against a computed context. Every failure
// is a plot-stage GeneratedCodeError; callers degrade to an answer without
// a chart instead of failing the turn.
func BuildChart(spec PlotSpec, context domain.Context) (*domain.Chart, error) {
	if err := spec.Validate(); err != nil {
		return nil, plotError("invalid plot spec", err)
	}

	groupBy, _ := context[domain.ContextKeyGroupBy].(string)
	if groupBy == "" {
		return nil, plotError("context is not grouped", nil)
	}
	if spec.X != groupBy {
		return nil, plotError(fmt.Sprintf("x %q does not match grouped dimension %q", spec.X, groupBy), nil)
	}

	rows, err := ContextGroups(context)
	if err != nil {
		return nil, plotError("bad groups", err)
	}
	if len(rows) == 0 {
		return nil, plotError("context has no groups", nil)
	}

	points := make([]domain.ChartPoint, 0, len(rows))
	for i, row := range rows {
		label, ok := row[spec.X].(string)
		if !ok {
			return nil, plotError(fmt.Sprintf("group %d has no %q label", i+1, spec.X), nil)
		}
		value, ok := row[spec.Y]
		if !ok {
			return nil, plotError(fmt.Sprintf("group %d has no %q metric", i+1, spec.Y), nil)
		}
		points = append(points, domain.ChartPoint{
			Label: label,
			Value: toDecimal(value).InexactFloat64(),
		})
	}

	return &domain.Chart{
		Type:   domain.ChartType(spec.Kind),
		Title:  spec.Title,
		Points: points,
	}, nil
}

// ContextGroups reads the group rows of a grouped context, whether it is
// fresh from Exec or was round-tripped through JSON.
func ContextGroups(c domain.Context) ([]map[string]any, error) {
	raw, ok := c[domain.ContextKeyGroups]
	if !ok {
		return nil, errors.New(`grouped context missing "groups"`)
	}
	switch rows := raw.(type) {
	case []map[string]any:
		return rows, nil
	case []any:
		out := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			m, ok := r.(map[string]any)
			if !ok {
				return nil, errors.New("group row is not an object")
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, errors.New(`"groups" is not a list`)
	}
}

func plotError(reason string, err error) error {
	return &domain.GeneratedCodeError{Stage: domain.StagePlot, Reason: reason, Err: err}
}
