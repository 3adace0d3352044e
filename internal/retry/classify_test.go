package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobcraft/internal/security"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		category Category
		status   int
	}{
		{"429", &StatusError{StatusCode: 429}, KindRetryable, CategoryRateLimit, 429},
		{"500", &StatusError{StatusCode: 500}, KindRetryable, CategoryServer, 500},
		{"503 wrapped", fmt.Errorf("call: %w", &StatusError{StatusCode: 503}), KindRetryable, CategoryServer, 503},
		{"401", &StatusError{StatusCode: 401}, KindPermanent, CategoryAuth, 401},
		{"403", &StatusError{StatusCode: 403}, KindPermanent, CategoryAuth, 403},
		{"404", &StatusError{StatusCode: 404}, KindPermanent, CategoryClient, 404},
		{"422", &StatusError{StatusCode: 422}, KindPermanent, CategoryClient, 422},
		{"deadline", context.DeadlineExceeded, KindRetryable, CategoryNetwork, 0},
		{"unexpected eof", io.ErrUnexpectedEOF, KindRetryable, CategoryNetwork, 0},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), KindRetryable, CategoryNetwork, 0},
		{"connection refused", syscall.ECONNREFUSED, KindRetryable, CategoryNetwork, 0},
		{"op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route")}, KindRetryable, CategoryNetwork, 0},
		{"url error", &url.Error{Op: "Post", URL: "https://api.example.com", Err: io.EOF}, KindRetryable, CategoryNetwork, 0},
		{"canceled", context.Canceled, KindPermanent, CategoryCanceled, 0},
		{"canceled in url error", &url.Error{Op: "Get", URL: "https://x", Err: context.Canceled}, KindPermanent, CategoryCanceled, 0},
		{"validation", security.ValidateURL("file:///etc/passwd"), KindPermanent, CategoryValidation, 0},
		{"permanent marker", Permanent(errors.New("bad json")), KindPermanent, CategoryUnexpected, 0},
		{"plain", errors.New("something odd"), KindRetryable, CategoryUnexpected, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.err)
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, tt.category, c.Category)
			assert.Equal(t, tt.status, c.StatusCode)
		})
	}
}

func TestClassify_RetryAfterHint(t *testing.T) {
	c := Classify(&StatusError{StatusCode: 429, Header: http.Header{"Retry-After": []string{"7"}}})
	assert.True(t, c.Hinted)
	assert.Equal(t, 7*time.Second, c.Delay)

	c = Classify(&StatusError{StatusCode: 429})
	assert.False(t, c.Hinted)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC)

	tests := []struct {
		name   string
		header http.Header
		want   time.Duration
		ok     bool
	}{
		{"nil header", nil, 0, false},
		{"empty", http.Header{}, 0, false},
		{"seconds", http.Header{"Retry-After": []string{"2"}}, 2 * time.Second, true},
		{"fractional seconds", http.Header{"Retry-After": []string{"0.5"}}, 500 * time.Millisecond, true},
		{"zero", http.Header{"Retry-After": []string{"0"}}, 0, true},
		{"http date", http.Header{"Retry-After": []string{now.Add(90 * time.Second).Format(http.TimeFormat)}}, 90 * time.Second, true},
		{"date in the past", http.Header{"Retry-After": []string{now.Add(-time.Hour).Format(http.TimeFormat)}}, 0, true},
		{"milliseconds", http.Header{"Retry-After-Ms": []string{"250"}}, 250 * time.Millisecond, true},
		{"seconds win over ms", http.Header{"Retry-After": []string{"3"}, "Retry-After-Ms": []string{"250"}}, 3 * time.Second, true},
		{"garbage falls back to ms", http.Header{"Retry-After": []string{"soon"}, "Retry-After-Ms": []string{"100"}}, 100 * time.Millisecond, true},
		{"negative", http.Header{"Retry-After": []string{"-1"}}, 0, false},
		{"huge seconds saturate", http.Header{"Retry-After": []string{"1e12"}}, time.Duration(math.MaxInt64), true},
		{"huge ms saturate", http.Header{"Retry-After-Ms": []string{"1e300"}}, time.Duration(math.MaxInt64), true},
		{"infinity rejected", http.Header{"Retry-After": []string{"Inf"}}, 0, false},
		{"NaN rejected", http.Header{"Retry-After": []string{"NaN"}}, 0, false},
		{"infinity falls back to ms", http.Header{"Retry-After": []string{"+Inf"}, "Retry-After-Ms": []string{"400"}}, 400 * time.Millisecond, true},
		{"ms infinity rejected", http.Header{"Retry-After-Ms": []string{"Inf"}}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRetryAfter(tt.header, now)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "4")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(strings.Repeat("x", 10000)))
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	se := NewStatusError(resp)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, "4", se.Header.Get("Retry-After"))
	assert.Len(t, se.Body, maxErrorBody)
	assert.Contains(t, se.Error(), "429 Too Many Requests")
}

func TestStatusError_NoBody(t *testing.T) {
	se := &StatusError{StatusCode: http.StatusBadGateway}
	assert.Equal(t, "unexpected status 502 Bad Gateway", se.Error())
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
