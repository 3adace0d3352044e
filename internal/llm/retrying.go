package llm

import (
	"context"

	"github.com/jonathan/jobcraft/internal/retry"
)

// RetryingCaller applies a retry.Invoker to every Invoke of the wrapped Caller.
type RetryingCaller struct {
	inner   Caller
	invoker *retry.Invoker
}

// NewRetryingCaller wraps inner. A nil invoker uses retry.DefaultPolicy.
func NewRetryingCaller(inner Caller, invoker *retry.Invoker) *RetryingCaller {
	if invoker == nil {
		invoker = retry.New(retry.DefaultPolicy())
	}
	return &RetryingCaller{inner: inner, invoker: invoker}
}

// Invoke calls the wrapped Caller until it succeeds or the invoker gives up.
// Failures are *retry.Error.
func (c *RetryingCaller) Invoke(ctx context.Context, prompt string) (*Response, error) {
	return retry.Do(ctx, c.invoker, func(ctx context.Context) (*Response, error) {
		return c.inner.Invoke(ctx, prompt)
	})
}

// Close closes the wrapped Caller.
func (c *RetryingCaller) Close() error {
	return c.inner.Close()
}

// Unwrap returns the wrapped Caller.
func (c *RetryingCaller) Unwrap() Caller {
	return c.inner
}
