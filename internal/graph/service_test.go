package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"finassist/internal/domain"
	"finassist/internal/llm"
)

type recordingClient struct {
	requests []llm.Request
	replies  []string
	err      error
}

func (c *recordingClient) Complete(_ context.Context, req llm.Request) (string, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return "", c.err
	}
	reply := c.replies[0]
	if len(c.replies) > 1 {
		c.replies = c.replies[1:]
	}
	return reply, nil
}

type fakeRunner struct {
	cypher string
	params map[string]any
	rows   []map[string]any
	err    error
}

func (r *fakeRunner) Run(_ context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	r.cypher = cypher
	r.params = params
	if r.err != nil {
		return nil, r.err
	}
	return r.rows, nil
}

const scopedCypher = "MATCH (t:Transaction)-[:FROM_ACCOUNT]->(a:Account {id: $user_id}) MATCH (t)-[:BELONGS_TO]->(c:Category) RETURN c.name AS category, sum(t.amount_uc) AS total"

func queryReply(cypher string) string {
	return fmt.Sprintf(`{"cypher": %q, "parameters": {"user_id": "someone-else"}}`, cypher)
}

func TestGenerateQuery(t *testing.T) {
	client := &recordingClient{replies: []string{queryReply(scopedCypher)}}
	svc := New(client, &fakeRunner{})

	spec, err := svc.GenerateQuery(context.Background(), "compare my categories", "user-7", "USD")
	if err != nil {
		t.Fatalf("GenerateQuery: %v", err)
	}
	if spec.Cypher != scopedCypher {
		t.Errorf("cypher = %q, want %q", spec.Cypher, scopedCypher)
	}
	if got := spec.Parameters["user_id"]; got != "user-7" {
		t.Errorf("user_id parameter = %v, want user-7 (model value must be overridden)", got)
	}

	if len(client.requests) != 1 {
		t.Fatalf("model calls = %d, want 1", len(client.requests))
	}
	req := client.requests[0]
	if !req.JSONOutput {
		t.Error("JSONOutput = false, want true")
	}
	if req.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0", req.Temperature)
	}
	if req.System != cypherSystemPrompt {
		t.Errorf("System = %q, want %q", req.System, cypherSystemPrompt)
	}
	for _, want := range []string{"compare my categories", `"user-7"`, "FROM_ACCOUNT", "sum(t.amount_uc)"} {
		if !strings.Contains(req.Prompt, want) {
			t.Errorf("prompt does not contain %q", want)
		}
	}
}

func TestGenerateQuery_FencedReply(t *testing.T) {
	client := &recordingClient{replies: []string{"```json\n" + queryReply(scopedCypher) + "\n```"}}
	svc := New(client, &fakeRunner{})

	spec, err := svc.GenerateQuery(context.Background(), "compare", "u1", "USD")
	if err != nil {
		t.Fatalf("GenerateQuery: %v", err)
	}
	if spec.Cypher != scopedCypher {
		t.Errorf("cypher = %q, want %q", spec.Cypher, scopedCypher)
	}
}

func TestGenerateQuery_Guards(t *testing.T) {
	tests := []struct {
		name       string
		cypher     string
		ok         bool
		wantReason string
	}{
		{
			name:   "trailing semicolon is allowed",
			cypher: scopedCypher + ";",
			ok:     true,
		},
		{
			name:       "missing user scope parameter",
			cypher:     "MATCH (t:Transaction)-[:FROM_ACCOUNT]->(a:Account {id: 'u1'}) RETURN count(t)",
			wantReason: "not scoped",
		},
		{
			name:       "missing account traversal",
			cypher:     "MATCH (t:Transaction) WHERE t.user = $user_id RETURN count(t)",
			wantReason: "not scoped",
		},
		{
			name:       "set clause",
			cypher:     "MATCH (t:Transaction)-[:FROM_ACCOUNT]->(a:Account {id: $user_id}) SET t.seen = true RETURN t",
			wantReason: "forbidden clause SET",
		},
		{
			name:       "lowercase merge",
			cypher:     "MATCH (t:Transaction)-[:FROM_ACCOUNT]->(a:Account {id: $user_id}) merge (m:Marker) RETURN t",
			wantReason: "forbidden clause MERGE",
		},
		{
			name:       "detach delete",
			cypher:     "MATCH (t:Transaction)-[:FROM_ACCOUNT]->(a:Account {id: $user_id}) DETACH DELETE t",
			wantReason: "forbidden clause DETACH",
		},
		{
			name:       "procedure call",
			cypher:     "MATCH (t:Transaction)-[:FROM_ACCOUNT]->(a:Account {id: $user_id}) CALL db.labels() YIELD label RETURN label",
			wantReason: "forbidden clause CALL",
		},
		{
			name:       "load csv",
			cypher:     "LOAD CSV FROM 'file:///x' AS row MATCH (t:Transaction)-[:FROM_ACCOUNT]->(a:Account {id: $user_id}) RETURN row",
			wantReason: "forbidden clause LOAD CSV",
		},
		{
			name:       "multiple statements",
			cypher:     scopedCypher + "; MATCH (n) RETURN n",
			wantReason: "multiple statements",
		},
		{
			name:       "empty cypher",
			cypher:     "",
			wantReason: "no cypher",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &recordingClient{replies: []string{queryReply(tt.cypher)}}
			svc := New(client, &fakeRunner{})

			_, err := svc.GenerateQuery(context.Background(), "q", "u1", "USD")
			if tt.ok {
				if err != nil {
					t.Fatalf("GenerateQuery: %v", err)
				}
				return
			}
			var gqErr *domain.GraphQueryError
			if !errors.As(err, &gqErr) {
				t.Fatalf("error = %v, want GraphQueryError", err)
			}
			if !strings.Contains(gqErr.Reason, tt.wantReason) {
				t.Errorf("reason = %q, want it to contain %q", gqErr.Reason, tt.wantReason)
			}
		})
	}
}

func TestGenerateQuery_BadJSON(t *testing.T) {
	client := &recordingClient{replies: []string{"I cannot write Cypher today."}}
	svc := New(client, &fakeRunner{})

	_, err := svc.GenerateQuery(context.Background(), "q", "u1", "USD")
	var gqErr *domain.GraphQueryError
	if !errors.As(err, &gqErr) {
		t.Fatalf("error = %v, want GraphQueryError", err)
	}
}

func TestGenerateQuery_TransportErrorWrapped(t *testing.T) {
	client := &recordingClient{err: &domain.TransportError{Op: "gemini generate content", Err: errors.New("boom")}}
	svc := New(client, &fakeRunner{})

	_, err := svc.GenerateQuery(context.Background(), "q", "u1", "USD")
	var gqErr *domain.GraphQueryError
	if !errors.As(err, &gqErr) {
		t.Fatalf("error = %v, want GraphQueryError", err)
	}
	var trErr *domain.TransportError
	if !errors.As(err, &trErr) {
		t.Errorf("error = %v, want it to wrap the TransportError", err)
	}
}

func TestExecute_RunnerErrorWrapped(t *testing.T) {
	svc := New(&recordingClient{}, &fakeRunner{err: errors.New("connection refused")})

	_, err := svc.Execute(context.Background(), &QuerySpec{Cypher: scopedCypher, Parameters: map[string]any{"user_id": "u1"}})
	var gqErr *domain.GraphQueryError
	if !errors.As(err, &gqErr) {
		t.Fatalf("error = %v, want GraphQueryError", err)
	}
}

func TestFormatRows(t *testing.T) {
	client := &recordingClient{replies: []string{"  You spend the most on Food.  "}}
	svc := New(client, &fakeRunner{})
	locale := domain.UserLocale{Language: domain.LanguageENG, Country: "USA", Currency: "USD"}
	rows := []map[string]any{{"category": "Food", "total": 420.5}}

	answer, err := svc.FormatRows(context.Background(), "where do I spend most?", rows, locale)
	if err != nil {
		t.Fatalf("FormatRows: %v", err)
	}
	if answer != "You spend the most on Food." {
		t.Errorf("answer = %q", answer)
	}

	if len(client.requests) != 1 {
		t.Fatalf("model calls = %d, want 1", len(client.requests))
	}
	req := client.requests[0]
	if req.JSONOutput {
		t.Error("JSONOutput = true, want false for free-text formatting")
	}
	if req.Temperature != formatTemperature {
		t.Errorf("Temperature = %v, want %v", req.Temperature, formatTemperature)
	}
	for _, want := range []string{"where do I spend most?", "Food", "ENG", "USD"} {
		if !strings.Contains(req.Prompt, want) {
			t.Errorf("prompt does not contain %q", want)
		}
	}
}

func TestFormatRows_NoRowsSkipsModel(t *testing.T) {
	tests := []struct {
		language string
		want     string
	}{
		{domain.LanguageENG, "No data found."},
		{domain.LanguageRUS, "Данные не найдены."},
	}

	for _, tt := range tests {
		client := &recordingClient{}
		svc := New(client, &fakeRunner{})

		answer, err := svc.FormatRows(context.Background(), "q", nil, domain.UserLocale{Language: tt.language})
		if err != nil {
			t.Fatalf("FormatRows(%s): %v", tt.language, err)
		}
		if answer != tt.want {
			t.Errorf("answer(%s) = %q, want %q", tt.language, answer, tt.want)
		}
		if len(client.requests) != 0 {
			t.Errorf("model calls = %d, want 0 for empty rows", len(client.requests))
		}
	}
}

func TestAnswer(t *testing.T) {
	client := &recordingClient{replies: []string{
		queryReply(scopedCypher),
		"Food is your top category.",
	}}
	runner := &fakeRunner{rows: []map[string]any{{"category": "Food", "total": 420.5}}}
	svc := New(client, runner)
	locale := domain.UserLocale{Language: domain.LanguageENG, Country: "USA", Currency: "USD"}

	answer, err := svc.Answer(context.Background(), "compare my categories", "user-7", locale)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer != "Food is your top category." {
		t.Errorf("answer = %q", answer)
	}
	if runner.cypher != scopedCypher {
		t.Errorf("runner cypher = %q, want the generated query", runner.cypher)
	}
	if got := runner.params["user_id"]; got != "user-7" {
		t.Errorf("runner user_id = %v, want user-7", got)
	}
	if len(client.requests) != 2 {
		t.Errorf("model calls = %d, want 2", len(client.requests))
	}
}

func TestAnswer_ZeroRowsIsFixedMessage(t *testing.T) {
	client := &recordingClient{replies: []string{queryReply(scopedCypher)}}
	runner := &fakeRunner{}
	svc := New(client, runner)

	answer, err := svc.Answer(context.Background(), "compare", "u1", domain.UserLocale{Language: domain.LanguageENG})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer != "No data found." {
		t.Errorf("answer = %q, want the fixed no-data message", answer)
	}
	if len(client.requests) != 1 {
		t.Errorf("model calls = %d, want 1 (generation only)", len(client.requests))
	}
}
