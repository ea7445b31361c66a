package llm

import (
	"context"
	"errors"
	"time"

	"finassist/internal/domain"
)

// RetryOptions bounds the retry loop around a provider call.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryOptions retries transport failures with exponential backoff.
// Completions are safe to repeat: they read nothing and write nothing, even
// though the text that comes back varies between attempts.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

type retryClient struct {
	inner Client
	opts  RetryOptions
}

var _ Client = (*retryClient)(nil)

// WithRetry wraps client so transient transport failures are retried before
// the turn is declared failed. Only TransportError retries; a reply that
// arrived but does not parse will not get better by asking again with the
// same prompt at temperature zero.
func WithRetry(client Client, opts RetryOptions) Client {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Multiplier < 1 {
		opts.Multiplier = 1
	}
	return &retryClient{inner: client, opts: opts}
}

func (c *retryClient) Complete(ctx context.Context, req Request) (string, error) {
	delay := c.opts.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		text, err := c.inner.Complete(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var transportErr *domain.TransportError
		if !errors.As(err, &transportErr) {
			return "", err
		}
		// A canceled or expired context means the caller is done waiting.
		if ctx.Err() != nil {
			return "", err
		}
		if attempt == c.opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", &domain.TransportError{Op: "llm retry", Err: ctx.Err()}
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * c.opts.Multiplier)
		if c.opts.MaxDelay > 0 && delay > c.opts.MaxDelay {
			delay = c.opts.MaxDelay
		}
	}
	return "", lastErr
}
