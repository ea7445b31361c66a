package llm

import (
	"context"
	"math"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"finassist/internal/domain"
)

// DefaultOpenAIModel is the chat model the prompts were tuned on.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI talks to the OpenAI chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

var _ Client = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI-backed client, reading OPENAI_API_KEY from
// the environment when apiKey is empty.
func NewOpenAI(apiKey, model string) *OpenAI {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClient(apiKey), model: model}
}

// Complete sends one prompt and returns the raw reply text.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   maxOutputTokens,
	}
	// The SDK omits a zero temperature from the wire request, which makes
	// the API fall back to its default. Send the smallest positive value to
	// keep an explicit temperature of 0 effectively deterministic.
	if req.Temperature == 0 {
		chatReq.Temperature = math.SmallestNonzeroFloat32
	}
	if req.JSONOutput {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", &domain.TransportError{Op: "openai chat completion", Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &domain.ResponseShapeError{Reason: "empty reply from model"}
	}
	return resp.Choices[0].Message.Content, nil
}
