package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/jonathan/jobcraft/internal/security"
)

// Kind tells the Invoker whether another attempt may succeed.
type Kind int

const (
	// KindRetryable failures are transient; the call is attempted again after a delay.
	KindRetryable Kind = iota + 1
	// KindPermanent failures stop the retry loop immediately.
	KindPermanent
)

func (k Kind) String() string {
	switch k {
	case KindRetryable:
		return "retryable"
	case KindPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Category is the human-readable failure class reported in logs and errors.
type Category string

const (
	CategoryRateLimit  Category = "rate limit exceeded"
	CategoryServer     Category = "server error"
	CategoryNetwork    Category = "network error"
	CategoryAuth       Category = "authentication failed"
	CategoryClient     Category = "client error"
	CategoryValidation Category = "validation failed"
	CategoryCanceled   Category = "canceled"
	CategoryUnexpected Category = "unexpected error"
)

// Classification is the outcome of Classify. Delay carries the server's retry
// hint and is only meaningful when Hinted is set.
type Classification struct {
	Kind       Kind
	Category   Category
	StatusCode int
	Delay      time.Duration
	Hinted     bool
}

// Retryable reports whether the failure may be attempted again.
func (c Classification) Retryable() bool {
	return c.Kind == KindRetryable
}

// Classifier maps an error to a Classification.
type Classifier func(err error) Classification

// Classify inspects err and decides whether to retry it:
//
//   - context.Canceled, input validation failures and errors marked with
//     Permanent are permanent
//   - *StatusError 429 is retryable and carries any Retry-After hint
//   - *StatusError >= 500 is retryable
//   - *StatusError 401/403 is a permanent authentication failure; other 4xx
//     are permanent client errors
//   - network, timeout and connection-reset errors are retryable
//   - anything else is retryable as an unexpected error
func Classify(err error) Classification {
	return classifyAt(err, time.Now())
}

func classifyAt(err error, now time.Time) Classification {
	if errors.Is(err, context.Canceled) {
		return Classification{Kind: KindPermanent, Category: CategoryCanceled}
	}

	if security.IsValidationError(err) {
		return Classification{Kind: KindPermanent, Category: CategoryValidation}
	}

	var pe *permanentError
	if errors.As(err, &pe) {
		c := classifyAt(pe.err, now)
		c.Kind = KindPermanent
		return c
	}

	var se *StatusError
	if errors.As(err, &se) {
		return classifyStatus(se, now)
	}

	if isNetworkError(err) {
		return Classification{Kind: KindRetryable, Category: CategoryNetwork}
	}

	return Classification{Kind: KindRetryable, Category: CategoryUnexpected}
}

func classifyStatus(se *StatusError, now time.Time) Classification {
	c := Classification{StatusCode: se.StatusCode}

	switch code := se.StatusCode; {
	case code == http.StatusTooManyRequests:
		c.Kind = KindRetryable
		c.Category = CategoryRateLimit
		c.Delay, c.Hinted = ParseRetryAfter(se.Header, now)
	case code >= 500:
		c.Kind = KindRetryable
		c.Category = CategoryServer
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		c.Kind = KindPermanent
		c.Category = CategoryAuth
	case code >= 400:
		c.Kind = KindPermanent
		c.Category = CategoryClient
	default:
		// 1xx/3xx surfaced as errors are not expected from any backend
		c.Kind = KindRetryable
		c.Category = CategoryUnexpected
	}

	return c
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so the Invoker stops retrying. The error keeps its
// category; only its kind changes. Permanent(nil) returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
