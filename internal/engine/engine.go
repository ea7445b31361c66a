// Package engine runs one conversation turn end to end: scope the
// transactions to the asking user, route the question, run the analysis
// plan or the graph query, and phrase the answer. It never returns an
// error; every failure path ends in a localized user-facing message.
package engine

import (
	"context"

	"finassist/internal/analysis"
	"finassist/internal/codegen"
	"finassist/internal/domain"
	"finassist/internal/graph"
	"finassist/internal/logger"
	"finassist/internal/messages"
	"finassist/internal/store"
)

// Generator turns a question into an analysis routine.
type Generator interface {
	Generate(ctx context.Context, question string, meta domain.DatasetMeta, locale domain.UserLocale) (*codegen.Routine, error)
}

// Synthesizer phrases executed context data as the final answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, data domain.Context, locale domain.UserLocale) (string, error)
}

// GraphAnswerer answers a routed question from the transaction graph.
type GraphAnswerer interface {
	Answer(ctx context.Context, question, userID string, locale domain.UserLocale) (string, error)
}

// TurnRequest is one question asked against one user's transactions.
// Transactions may span several accounts; the engine scopes them to UserID
// before anything else sees them.
type TurnRequest struct {
	Question     string
	Transactions []domain.Transaction
	Locale       domain.UserLocale
	UserID       string
}

// Result is the outcome of one turn. Answer is always set. Explanation,
// Context and Chart are populated only when the in-memory path ran.
type Result struct {
	Answer      string         `json:"answer"`
	Explanation string         `json:"explanation,omitempty"`
	Context     domain.Context `json:"context,omitempty"`
	Chart       *domain.Chart  `json:"chart,omitempty"`
}

// Engine orchestrates one turn across the generator, the plan executor,
// the synthesizer and, when configured, the graph path.
type Engine struct {
	generator   Generator
	synthesizer Synthesizer
	graph       GraphAnswerer
}

// New builds an engine. graph may be nil when no graph database is
// configured; routed questions then take the in-memory path like any other.
func New(generator Generator, synthesizer Synthesizer, graph GraphAnswerer) *Engine {
	return &Engine{generator: generator, synthesizer: synthesizer, graph: graph}
}

// Answer runs one turn.
func (e *Engine) Answer(ctx context.Context, req TurnRequest) Result {
	log := logger.FromContext(ctx)

	transactions := store.FilterByAccount(req.Transactions, req.UserID)
	if len(transactions) == 0 {
		return Result{Answer: messages.NoTransactions(req.Locale.Language)}
	}

	meta, err := store.Meta(transactions)
	if err != nil {
		log.Error().Err(err).Msg("dataset meta failed")
		return Result{Answer: messages.GenerationFailed(req.Locale.Language)}
	}

	if e.graph != nil {
		if routed, keyword := graph.ShouldRoute(req.Question); routed {
			log.Debug().Str("keyword", keyword).Msg("routing question to the graph")
			answer, err := e.graph.Answer(ctx, req.Question, req.UserID, req.Locale)
			if err == nil {
				return Result{Answer: answer}
			}
			log.Warn().Err(err).Msg("graph path failed, falling back to in-memory analysis")
		}
	}

	routine, err := e.generator.Generate(ctx, req.Question, meta, req.Locale)
	if err != nil {
		log.Error().Err(err).Msg("routine generation failed")
		return Result{Answer: messages.GenerationFailed(req.Locale.Language)}
	}
	if !routine.IsRelevant {
		return Result{Answer: messages.Irrelevant(req.Locale.Language)}
	}
	if routine.Plan == nil {
		log.Error().Msg("relevant routine has no plan")
		return Result{Answer: messages.GenerationFailed(req.Locale.Language)}
	}

	data, err := analysis.Exec(ctx, *routine.Plan, transactions)
	if err != nil {
		log.Error().Err(err).Msg("plan execution failed")
		return Result{Answer: messages.GenerationFailed(req.Locale.Language)}
	}

	answer, err := e.synthesizer.Synthesize(ctx, req.Question, data, req.Locale)
	if err != nil {
		log.Error().Err(err).Msg("answer synthesis failed")
		return Result{Answer: messages.GenerationFailed(req.Locale.Language)}
	}

	result := Result{Answer: answer, Explanation: routine.Explanation, Context: data}
	if routine.NeedsDiagram {
		result.Chart = e.buildChart(ctx, routine, data)
	}
	return result
}

// buildChart renders the requested chart. Chart failures never fail the
// turn; the answer goes out without one.
func (e *Engine) buildChart(ctx context.Context, routine *codegen.Routine, data domain.Context) *domain.Chart {
	log := logger.FromContext(ctx)

	if routine.Plot == nil {
		log.Warn().Msg("diagram requested without a plot spec")
		return nil
	}
	chart, err := analysis.BuildChart(*routine.Plot, data)
	if err != nil {
		log.Warn().Err(err).Msg("chart build failed, answering without chart")
		return nil
	}
	return chart
}
