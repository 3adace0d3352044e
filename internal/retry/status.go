package retry

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxErrorBody bounds how much of an error response body is kept.
const maxErrorBody = 4096

// StatusError is a non-2xx response from a remote endpoint. Backends return it
// so the Invoker can classify the failure by status code and retry hints.
type StatusError struct {
	StatusCode int
	Header     http.Header
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("unexpected status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// NewStatusError builds a StatusError from resp, reading at most 4 KiB of the
// body. The caller still owns resp.Body and must close it.
func NewStatusError(resp *http.Response) *StatusError {
	se := &StatusError{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
	}
	if resp.Body != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		se.Body = strings.TrimSpace(string(body))
	}
	return se
}

// ParseRetryAfter reads the server's retry hint. The standard Retry-After
// header may hold delay-seconds (fractions accepted) or an HTTP-date; the
// non-standard retry-after-ms header is used when Retry-After is absent or
// unparsable. ok is false when neither yields a value.
func ParseRetryAfter(h http.Header, now time.Time) (d time.Duration, ok bool) {
	if h == nil {
		return 0, false
	}

	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if d, ok := hintDuration(v, time.Second); ok {
			return d, true
		}
		if t, err := http.ParseTime(v); err == nil {
			return max(t.Sub(now), 0), true
		}
	}

	if v := strings.TrimSpace(h.Get("Retry-After-Ms")); v != "" {
		if d, ok := hintDuration(v, time.Millisecond); ok {
			return d, true
		}
	}

	return 0, false
}

// hintDuration converts a numeric hint in unit to a duration. Negative, NaN
// and infinite values are rejected; values beyond the Duration range
// saturate at the maximum.
func hintDuration(v string, unit time.Duration) (time.Duration, bool) {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0, false
	}
	if n >= float64(math.MaxInt64)/float64(unit) {
		return time.Duration(math.MaxInt64), true
	}
	return time.Duration(n * float64(unit)), true
}
