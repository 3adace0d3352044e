package llm

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobcraft/internal/retry"
)

func noSleep(context.Context, time.Duration) error { return nil }

func TestRetryingCaller_RetriesTransientFailures(t *testing.T) {
	calls := 0
	inner := CallerFunc(func(_ context.Context, prompt string) (*Response, error) {
		calls++
		if calls < 3 {
			return nil, &retry.StatusError{StatusCode: http.StatusServiceUnavailable}
		}
		return &Response{Text: "ok: " + prompt}, nil
	})

	caller := NewRetryingCaller(inner, retry.New(retry.DefaultPolicy(), retry.WithSleepFunc(noSleep)))
	resp, err := caller.Invoke(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "ok: ping", resp.Text)
	assert.Equal(t, 3, calls)
}

func TestRetryingCaller_PermanentFailure(t *testing.T) {
	calls := 0
	inner := CallerFunc(func(context.Context, string) (*Response, error) {
		calls++
		return nil, &retry.StatusError{StatusCode: http.StatusForbidden}
	})

	caller := NewRetryingCaller(inner, retry.New(retry.DefaultPolicy(), retry.WithSleepFunc(noSleep)))
	resp, err := caller.Invoke(context.Background(), "ping")
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 1, calls)

	var rerr *retry.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, retry.CategoryAuth, rerr.Category)
}

func TestRetryingCaller_CloseAndUnwrap(t *testing.T) {
	inner := CallerFunc(func(context.Context, string) (*Response, error) { return nil, nil })
	caller := NewRetryingCaller(inner, nil)

	assert.NoError(t, caller.Close())
	assert.NotNil(t, caller.Unwrap())
}

func TestInvokeJSON(t *testing.T) {
	inner := CallerFunc(func(context.Context, string) (*Response, error) {
		return &Response{Text: "Here you go:\n```json\n{\"role\": \"SWE\"}\n```"}, nil
	})

	got, err := InvokeJSON(context.Background(), inner, "extract")
	require.NoError(t, err)
	assert.Equal(t, `{"role": "SWE"}`, got)
}
