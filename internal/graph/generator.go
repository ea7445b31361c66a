package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"finassist/internal/domain"
	"finassist/internal/llm"
	"finassist/internal/logger"
)

// cypherReply is the JSON envelope the model returns for a query request.
type cypherReply struct {
	Cypher     string         `json:"cypher"`
	Parameters map[string]any `json:"parameters"`
}

// writeClauses matches Cypher clauses that mutate or administer the graph.
// The assistant only ever reads.
var writeClauses = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|CALL|LOAD\s+CSV)\b`)

// GenerateQuery asks the model for a Cypher query answering the question
// and vets the reply before it can reach the database. The returned spec
// always carries userID under the "user_id" parameter, overriding whatever
// the model put there.
func (s *Service) GenerateQuery(ctx context.Context, question, userID, currency string) (*QuerySpec, error) {
	log := logger.FromContext(ctx)

	reply, err := s.client.Complete(ctx, llm.Request{
		System:      cypherSystemPrompt,
		Prompt:      fmt.Sprintf(cypherPromptTemplate, userID, currency, question),
		Temperature: 0,
		JSONOutput:  true,
	})
	if err != nil {
		return nil, &domain.GraphQueryError{Reason: "generate query", Err: err}
	}

	var parsed cypherReply
	if err := json.Unmarshal([]byte(llm.CleanModelJSON(reply)), &parsed); err != nil {
		return nil, &domain.GraphQueryError{Reason: "decode query reply", Err: err}
	}

	spec := &QuerySpec{Cypher: strings.TrimSpace(parsed.Cypher), Parameters: parsed.Parameters}
	if err := vetQuery(spec); err != nil {
		return nil, err
	}
	if spec.Parameters == nil {
		spec.Parameters = make(map[string]any, 1)
	}
	spec.Parameters["user_id"] = userID

	log.Debug().Str("cypher", spec.Cypher).Msg("generated graph query")
	return spec, nil
}

// vetQuery enforces the read-only, user-scoped contract on generated
// Cypher. Model output is untrusted input; anything suspicious is rejected
// and the caller falls back to the in-memory path.
func vetQuery(spec *QuerySpec) error {
	if spec.Cypher == "" {
		return &domain.GraphQueryError{Reason: "model returned no cypher"}
	}
	if strings.Contains(strings.TrimRight(spec.Cypher, "; \t\r\n"), ";") {
		return &domain.GraphQueryError{Reason: "multiple statements"}
	}
	if clause := writeClauses.FindString(spec.Cypher); clause != "" {
		return &domain.GraphQueryError{Reason: fmt.Sprintf("forbidden clause %s", strings.ToUpper(clause))}
	}
	if !strings.Contains(spec.Cypher, "$user_id") || !strings.Contains(spec.Cypher, "FROM_ACCOUNT") {
		return &domain.GraphQueryError{Reason: "query is not scoped to the user account"}
	}
	return nil
}
