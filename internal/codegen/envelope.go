package codegen

import (
	"bytes"
	"encoding/json"
	"fmt"

	"finassist/internal/analysis"
	"finassist/internal/domain"
)

// Routine is the model's typed recipe for answering one question. Plan and
// Plot stay nil when the question is irrelevant or needs no diagram.
type Routine struct {
	IsRelevant   bool
	NeedsDiagram bool
	Plan         *analysis.Plan
	Explanation  string
	Plot         *analysis.PlotSpec
}

// The exact field set a model reply must carry, no more and no less.
const (
	keyIsRelevant   = "is_relevant"
	keyNeedsDiagram = "needs_diagram"
	keyContextPlan  = "context_plan"
	keyExplanation  = "explanation"
	keyPlot         = "plot"
)

var routineKeys = []string{keyIsRelevant, keyNeedsDiagram, keyContextPlan, keyExplanation, keyPlot}

// parseRoutine decodes a cleaned model reply into a Routine. Shape problems
// are ResponseShapeErrors; an oversized plan is a GeneratedCodeError since
// the reply itself was well-formed.
func parseRoutine(raw []byte) (*Routine, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &domain.ResponseShapeError{Reason: "reply is not a JSON object"}
	}
	if err := checkKeys(envelope); err != nil {
		return nil, &domain.ResponseShapeError{Reason: err.Error()}
	}

	isRelevant, err := getBoolField(envelope, keyIsRelevant)
	if err != nil {
		return nil, &domain.ResponseShapeError{Reason: err.Error()}
	}
	if !isRelevant {
		// Canonical empty response; the remaining fields carry nothing.
		return &Routine{}, nil
	}

	needsDiagram, err := getBoolField(envelope, keyNeedsDiagram)
	if err != nil {
		return nil, &domain.ResponseShapeError{Reason: err.Error()}
	}
	explanation, err := getStringField(envelope, keyExplanation)
	if err != nil {
		return nil, &domain.ResponseShapeError{Reason: err.Error()}
	}

	if len(envelope[keyContextPlan]) > analysis.MaxPlanBytes {
		return nil, &domain.GeneratedCodeError{
			Stage:  domain.StageContext,
			Reason: fmt.Sprintf("plan larger than %d bytes", analysis.MaxPlanBytes),
		}
	}
	plan, err := getPlanField(envelope, keyContextPlan)
	if err != nil {
		return nil, &domain.ResponseShapeError{Reason: err.Error()}
	}
	if plan == nil {
		return nil, &domain.ResponseShapeError{Reason: `"context_plan" must be set when "is_relevant" is true`}
	}

	plot, err := getPlotField(envelope, keyPlot)
	if err != nil {
		return nil, &domain.ResponseShapeError{Reason: err.Error()}
	}

	return &Routine{
		IsRelevant:   true,
		NeedsDiagram: needsDiagram,
		Plan:         plan,
		Explanation:  explanation,
		Plot:         plot,
	}, nil
}

func checkKeys(envelope map[string]json.RawMessage) error {
	for _, key := range routineKeys {
		if _, ok := envelope[key]; !ok {
			return fmt.Errorf("missing field %q", key)
		}
	}
	if len(envelope) == len(routineKeys) {
		return nil
	}
	for key := range envelope {
		known := false
		for _, want := range routineKeys {
			if key == want {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unexpected field %q", key)
		}
	}
	return nil
}

func getBoolField(envelope map[string]json.RawMessage, key string) (bool, error) {
	var v bool
	if err := json.Unmarshal(envelope[key], &v); err != nil {
		return false, fmt.Errorf("field %q is not a boolean", key)
	}
	return v, nil
}

func getStringField(envelope map[string]json.RawMessage, key string) (string, error) {
	var v string
	if err := json.Unmarshal(envelope[key], &v); err != nil {
		return "", fmt.Errorf("field %q is not a string", key)
	}
	return v, nil
}

func getPlanField(envelope map[string]json.RawMessage, key string) (*analysis.Plan, error) {
	raw := envelope[key]
	if isJSONNull(raw) {
		return nil, nil
	}
	var plan analysis.Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("field %q is not a plan object", key)
	}
	return &plan, nil
}

func getPlotField(envelope map[string]json.RawMessage, key string) (*analysis.PlotSpec, error) {
	raw := envelope[key]
	if isJSONNull(raw) {
		return nil, nil
	}
	var plot analysis.PlotSpec
	if err := json.Unmarshal(raw, &plot); err != nil {
		return nil, fmt.Errorf("field %q is not a plot object", key)
	}
	return &plot, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
