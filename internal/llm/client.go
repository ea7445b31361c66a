// Package llm wraps the model providers behind one small completion
// interface so the pipeline never talks to a vendor SDK directly.
package llm

import (
	"context"
	"time"
)

// maxOutputTokens caps every completion; answers and plans are short.
const maxOutputTokens = 2048

// Request is a single completion request. JSONOutput asks the provider for
// structured-output mode where the backend supports it; callers still clean
// and validate the reply themselves.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	JSONOutput  bool
}

// Client is implemented by every model provider and decorator.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type timeoutClient struct {
	inner Client
	limit time.Duration
}

var _ Client = (*timeoutClient)(nil)

// WithTimeout bounds every completion through client to limit, so one hung
// provider call cannot stall a whole turn.
func WithTimeout(client Client, limit time.Duration) Client {
	if limit <= 0 {
		return client
	}
	return &timeoutClient{inner: client, limit: limit}
}

func (c *timeoutClient) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.limit)
	defer cancel()
	return c.inner.Complete(ctx, req)
}
