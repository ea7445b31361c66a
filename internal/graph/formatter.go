package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"finassist/internal/domain"
	"finassist/internal/llm"
	"finassist/internal/messages"
)

// FormatRows phrases query rows as a natural-language answer in the user's
// language. Zero rows short-circuits to the fixed localized "no data"
// string without calling the model.
func (s *Service) FormatRows(ctx context.Context, question string, rows []map[string]any, locale domain.UserLocale) (string, error) {
	if len(rows) == 0 {
		return messages.GraphNoData(locale.Language), nil
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return "", &domain.GraphQueryError{Reason: "encode result rows", Err: err}
	}

	reply, err := s.client.Complete(ctx, llm.Request{
		System:      formatSystemPrompt,
		Prompt:      fmt.Sprintf(formatPromptTemplate, question, payload, locale.Language, locale.Currency),
		Temperature: formatTemperature,
	})
	if err != nil {
		return "", &domain.GraphQueryError{Reason: "format result rows", Err: err}
	}
	return strings.TrimSpace(reply), nil
}
