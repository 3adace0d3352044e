package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnsupportedBackend is matched by *UnsupportedBackendError
	ErrUnsupportedBackend = errors.New("unsupported LLM backend")
	// ErrMissingAPIKey is returned when a hosted backend has no API key
	ErrMissingAPIKey = errors.New("API key is required")
	// ErrEmptyResponse is returned when a backend replies without any text
	ErrEmptyResponse = errors.New("no text in model response")
)

// UnsupportedBackendError reports a backend name with no registered implementation.
type UnsupportedBackendError struct {
	Backend   Backend
	Supported []Backend
}

func (e *UnsupportedBackendError) Error() string {
	names := make([]string, len(e.Supported))
	for i, b := range e.Supported {
		names[i] = string(b)
	}
	return fmt.Sprintf("unsupported LLM backend %q (supported: %s)", e.Backend, strings.Join(names, ", "))
}

func (e *UnsupportedBackendError) Is(target error) bool {
	return target == ErrUnsupportedBackend
}

// Response is a model reply with metadata.
type Response struct {
	Text         string
	Model        string
	Backend      Backend
	InputTokens  int
	OutputTokens int
	Latency      time.Duration
}

//go:generate mockgen -source=caller.go -destination=mocks/mock_caller.go -package=mocks

// Caller sends one prompt to a model. Implementations make exactly one
// request per Invoke; retries are layered on with NewRetryingCaller.
type Caller interface {
	Invoke(ctx context.Context, prompt string) (*Response, error)
	Close() error
}

// CallerFunc adapts a function to Caller.
type CallerFunc func(ctx context.Context, prompt string) (*Response, error)

// Invoke calls f.
func (f CallerFunc) Invoke(ctx context.Context, prompt string) (*Response, error) {
	return f(ctx, prompt)
}

// Close is a no-op.
func (f CallerFunc) Close() error { return nil }

// InvokeJSON invokes c and returns the reply with any code fences or
// surrounding prose stripped.
func InvokeJSON(ctx context.Context, c Caller, prompt string) (string, error) {
	resp, err := c.Invoke(ctx, prompt)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(resp.Text), nil
}

// callTimeout derives the per-call context.
func callTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}
