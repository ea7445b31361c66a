// Package codegen asks the model to turn one question into a typed
// Routine: relevance and diagram flags, an analysis plan, and an optional
// plot spec. The model fills in a constrained plan grammar instead of
// writing code, so everything it returns can be validated before running.
package codegen

import (
	"context"
	"fmt"

	"finassist/internal/domain"
	"finassist/internal/llm"
	"finassist/internal/logger"
)

// Service generates routines through a model client. Construct with New.
type Service struct {
	client llm.Client
}

// New creates a code-generation service on top of the given model client.
func New(client llm.Client) *Service {
	return &Service{client: client}
}

// Generate builds the plan prompt for the question and decodes the model's
// reply. A transport or shape failure is terminal for the turn; the caller
// shows the generic failure message rather than retrying within the turn.
func (s *Service) Generate(ctx context.Context, question string, meta domain.DatasetMeta, locale domain.UserLocale) (*Routine, error) {
	log := logger.FromContext(ctx)

	reply, err := s.client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(question, meta, locale),
		Temperature: 0,
		JSONOutput:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("Generate: complete: %w", err)
	}

	routine, err := parseRoutine([]byte(llm.CleanModelJSON(reply)))
	if err != nil {
		return nil, fmt.Errorf("Generate: %w", err)
	}

	log.Debug().
		Bool("is_relevant", routine.IsRelevant).
		Bool("needs_diagram", routine.NeedsDiagram).
		Msg("routine generated")
	return routine, nil
}
