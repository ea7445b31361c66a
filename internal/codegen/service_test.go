package codegen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"finassist/internal/analysis"
	"finassist/internal/domain"
	"finassist/internal/llm"
)

// recordingClient captures the request and returns a canned reply.
type recordingClient struct {
	lastReq llm.Request
	reply   string
	err     error
}

func (c *recordingClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.lastReq = req
	return c.reply, c.err
}

func testMeta() domain.DatasetMeta {
	return domain.DatasetMeta{
		DateStart:  civil.Date{Year: 2023, Month: time.September, Day: 1},
		DateEnd:    civil.Date{Year: 2024, Month: time.February, Day: 28},
		Categories: []string{"Food", "Transport"},
		Currencies: []string{"EUR", "USD"},
	}
}

func testLocale() domain.UserLocale {
	return domain.UserLocale{Language: domain.LanguageENG, Country: "USA", Currency: "USD"}
}

const fullReply = `{
	"is_relevant": true,
	"needs_diagram": true,
	"context_plan": {
		"filters": [{"field": "transaction_type", "op": "eq", "value": "outcome"}],
		"group_by": "category",
		"metrics": [{"name": "total", "agg": "sum", "field": "amount_uc"}],
		"sort": "desc",
		"limit": 3
	},
	"explanation": "Sums outcome transactions per category and keeps the top three.",
	"plot": {"kind": "bar", "title": "Top categories", "x": "category", "y": "total"}
}`

func TestGenerate(t *testing.T) {
	client := &recordingClient{reply: fullReply}
	svc := New(client)

	routine, err := svc.Generate(context.Background(), "top 3 spending categories", testMeta(), testLocale())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !routine.IsRelevant || !routine.NeedsDiagram {
		t.Errorf("flags = %+v, want both true", routine)
	}
	if routine.Plan == nil {
		t.Fatal("Plan is nil")
	}
	if routine.Plan.GroupBy != analysis.GroupCategory || routine.Plan.Limit != 3 {
		t.Errorf("Plan = %+v", routine.Plan)
	}
	if routine.Plot == nil || routine.Plot.Kind != "bar" || routine.Plot.Y != "total" {
		t.Errorf("Plot = %+v", routine.Plot)
	}
	if routine.Explanation == "" {
		t.Error("Explanation is empty")
	}
}

func TestGenerate_RequestShape(t *testing.T) {
	client := &recordingClient{reply: fullReply}
	svc := New(client)

	question := "how much did I spend on coffee"
	if _, err := svc.Generate(context.Background(), question, testMeta(), testLocale()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	req := client.lastReq
	if req.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0", req.Temperature)
	}
	if !req.JSONOutput {
		t.Error("JSONOutput = false, want true")
	}
	if req.System != systemPrompt {
		t.Errorf("System = %q", req.System)
	}
	for _, want := range []string{
		question,
		"2023-09-01",
		"2024-02-28",
		"Food, Transport",
		"EUR, USD",
		"USD",
		"ENG",
	} {
		if !strings.Contains(req.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerate_FencedReply(t *testing.T) {
	client := &recordingClient{reply: "```json\n" + fullReply + "\n```"}
	svc := New(client)

	routine, err := svc.Generate(context.Background(), "q", testMeta(), testLocale())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !routine.IsRelevant {
		t.Error("IsRelevant = false, want true")
	}
}

func TestGenerate_CanonicalEmpty(t *testing.T) {
	client := &recordingClient{
		reply: `{"is_relevant": false, "needs_diagram": false, "context_plan": null, "explanation": "", "plot": null}`,
	}
	svc := New(client)

	routine, err := svc.Generate(context.Background(), "what is the weather", testMeta(), testLocale())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if routine.IsRelevant {
		t.Error("IsRelevant = true, want false")
	}
	if routine.Plan != nil || routine.Plot != nil || routine.NeedsDiagram {
		t.Errorf("canonical empty routine carries payload: %+v", routine)
	}
}

func TestGenerate_ShapeErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{
			name:  "not json",
			reply: "I think you spent a lot on coffee.",
		},
		{
			name:  "missing key",
			reply: `{"is_relevant": true, "needs_diagram": false, "context_plan": {"metrics":[{"name":"n","agg":"count"}]}, "explanation": "x"}`,
		},
		{
			name:  "extra key",
			reply: `{"is_relevant": false, "needs_diagram": false, "context_plan": null, "explanation": "", "plot": null, "confidence": 0.9}`,
		},
		{
			name:  "wrong flag type",
			reply: `{"is_relevant": "yes", "needs_diagram": false, "context_plan": null, "explanation": "", "plot": null}`,
		},
		{
			name:  "relevant without plan",
			reply: `{"is_relevant": true, "needs_diagram": false, "context_plan": null, "explanation": "x", "plot": null}`,
		},
		{
			name:  "plan is not an object",
			reply: `{"is_relevant": true, "needs_diagram": false, "context_plan": "sum it up", "explanation": "x", "plot": null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&recordingClient{reply: tt.reply})
			_, err := svc.Generate(context.Background(), "q", testMeta(), testLocale())

			var shapeErr *domain.ResponseShapeError
			if !errors.As(err, &shapeErr) {
				t.Errorf("Generate() error = %v, want ResponseShapeError", err)
			}
		})
	}
}

func TestGenerate_OversizedPlan(t *testing.T) {
	values := make([]string, 0, 2100)
	for i := 0; i < 2100; i++ {
		values = append(values, fmt.Sprintf("merchant-%04d", i))
	}
	reply := fmt.Sprintf(`{"is_relevant": true, "needs_diagram": false, "context_plan": {"filters": [{"field": "merchant", "op": "in", "values": ["%s"]}], "metrics": [{"name": "n", "agg": "count"}]}, "explanation": "x", "plot": null}`,
		strings.Join(values, `","`))
	if len(reply) <= analysis.MaxPlanBytes {
		t.Fatalf("test reply too small to exercise the budget: %d bytes", len(reply))
	}

	svc := New(&recordingClient{reply: reply})
	_, err := svc.Generate(context.Background(), "q", testMeta(), testLocale())

	var codeErr *domain.GeneratedCodeError
	if !errors.As(err, &codeErr) {
		t.Fatalf("Generate() error = %v, want GeneratedCodeError", err)
	}
	if codeErr.Stage != domain.StageContext {
		t.Errorf("Stage = %q, want %q", codeErr.Stage, domain.StageContext)
	}
}

func TestGenerate_TransportErrorPropagates(t *testing.T) {
	transportErr := &domain.TransportError{Op: "test", Err: errors.New("unreachable")}
	svc := New(&recordingClient{err: transportErr})

	_, err := svc.Generate(context.Background(), "q", testMeta(), testLocale())
	var gotErr *domain.TransportError
	if !errors.As(err, &gotErr) {
		t.Errorf("Generate() error = %v, want TransportError", err)
	}
}
