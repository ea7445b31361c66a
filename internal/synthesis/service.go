// Package synthesis turns a computed context into the final
// natural-language answer in the user's language.
package synthesis

import (
	"context"
	"fmt"
	"strings"

	"finassist/internal/domain"
	"finassist/internal/llm"
	"finassist/internal/messages"
)

const answerSystemPrompt = "You are a helpful financial assistant."

const answerPromptTemplate = `Context:
%s

Question: %s

Use only the context to answer the question.
User's country: %s. User's language: %s. User's currency: %s.
Monetary values in the context are already formatted with the right currency symbol and two decimal places. Reuse them as written.
Respond in the user's language.
Only provide the answer.`

// Service synthesizes answers through a model client. Construct with New.
type Service struct {
	client llm.Client
}

// New creates an answer-synthesis service on top of the given model client.
func New(client llm.Client) *Service {
	return &Service{client: client}
}

// Synthesize renders the context and asks the model for the final answer.
// An empty context never reaches the model: the fixed localized message
// comes back directly. A transport failure is terminal for the turn.
func (s *Service) Synthesize(ctx context.Context, question string, data domain.Context, locale domain.UserLocale) (string, error) {
	if data.IsEmpty() {
		return messages.NoInformation(locale.Language), nil
	}

	prompt := fmt.Sprintf(answerPromptTemplate,
		FormatContext(data, locale.Currency),
		question,
		locale.Country,
		domain.NormalizeLanguage(locale.Language),
		locale.Currency,
	)

	reply, err := s.client.Complete(ctx, llm.Request{
		System:      answerSystemPrompt,
		Prompt:      prompt,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("Synthesize: complete: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
