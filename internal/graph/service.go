package graph

import (
	"context"

	"finassist/internal/domain"
	"finassist/internal/llm"
)

// QuerySpec is one generated Cypher query together with the parameters it
// must be executed with. Specs only exist after vetting: the query text is
// read-only, single-statement and scoped to the user account, and
// Parameters carries the caller's user id regardless of what the model
// returned.
type QuerySpec struct {
	Cypher     string
	Parameters map[string]any
}

// Service answers comparison and ranking questions from the transaction
// graph: it generates a Cypher query with the model, vets it, runs it
// read-only and phrases the rows as a natural-language answer.
type Service struct {
	client llm.Client
	runner QueryRunner
}

// New builds a graph service on top of a model client and a query runner.
func New(client llm.Client, runner QueryRunner) *Service {
	return &Service{client: client, runner: runner}
}

// Answer runs the full graph path for one question. Every failure comes
// back as a *domain.GraphQueryError so the caller can fall back to the
// in-memory path on any of them. Zero result rows is not a failure; it
// produces the fixed localized "no data" answer.
func (s *Service) Answer(ctx context.Context, question, userID string, locale domain.UserLocale) (string, error) {
	spec, err := s.GenerateQuery(ctx, question, userID, locale.Currency)
	if err != nil {
		return "", err
	}
	rows, err := s.Execute(ctx, spec)
	if err != nil {
		return "", err
	}
	return s.FormatRows(ctx, question, rows, locale)
}
