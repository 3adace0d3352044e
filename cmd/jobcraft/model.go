package main

import (
	"context"
	"fmt"

	"github.com/jonathan/jobcraft/internal/config"
	"github.com/jonathan/jobcraft/internal/llm"
	"github.com/jonathan/jobcraft/internal/ratelimit"
	"github.com/jonathan/jobcraft/internal/retry"
)

// newCaller creates the configured model backend. Retries are not included.
// When llm.requests_per_minute is set every call first waits on a
// per-backend bucket. Close releases the backend and the bucket.
func newCaller(ctx context.Context) (llm.Caller, error) {
	apiKey, err := config.LoadAPIKey(secretsPath)
	if err != nil {
		return nil, err
	}
	caller, err := llm.Create(ctx, cfg.ModelConfig(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s caller: %w", cfg.LLM.Backend, err)
	}

	rpm := cfg.LLM.RequestsPerMinute
	if rpm <= 0 {
		return caller, nil
	}
	limiter := ratelimit.NewLimiter(ratelimit.PerMinute(rpm))
	return &limitedCaller{Caller: caller, limiter: limiter, bucket: limiter.For(cfg.LLM.Backend)}, nil
}

type limitedCaller struct {
	llm.Caller
	limiter *ratelimit.Limiter
	bucket  *ratelimit.Keyed
}

func (c *limitedCaller) Invoke(ctx context.Context, prompt string) (*llm.Response, error) {
	if err := c.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	return c.Caller.Invoke(ctx, prompt)
}

func (c *limitedCaller) Close() error {
	c.limiter.Stop()
	return c.Caller.Close()
}

// newInvoker builds the retry invoker from the config.
func newInvoker(opts ...retry.Option) *retry.Invoker {
	return retry.New(cfg.RetryPolicy(), append([]retry.Option{retry.WithLogger(logger)}, opts...)...)
}
