package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"finassist/internal/domain"
)

// DefaultGeminiModel is used when the config does not name a model.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini talks to the Google GenAI API. Build one with NewGemini.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Client = (*Gemini)(nil)

// NewGemini creates a Gemini-backed client. Credentials come from the
// environment (GEMINI_API_KEY or application default credentials).
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGemini: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model}, nil
}

// Complete sends one prompt and returns the raw reply text.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: req.Prompt},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: maxOutputTokens,
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.JSONOutput {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", &domain.TransportError{Op: "gemini generate content", Err: err}
	}

	text := resp.Text()
	if text == "" {
		return "", &domain.ResponseShapeError{Reason: "empty reply from model"}
	}
	return text, nil
}
