// Package retry runs remote calls with error classification, capped exponential
// backoff and respect for server rate-limit hints.
package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/jobcraft/internal/security"
)

// Policy bounds the retry loop.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is multiplied by 2^attempt for exponential backoff.
	BaseDelay time.Duration
	// MaxBackoff caps exponential backoff.
	MaxBackoff time.Duration
	// DefaultRateLimitDelay is used for 429 responses without a retry hint.
	DefaultRateLimitDelay time.Duration
	// MaxRateLimitDelay caps server-provided retry hints.
	MaxRateLimitDelay time.Duration
}

// DefaultPolicy returns 3 attempts with min(2^attempt, 60) second backoff and a
// 30 second wait for unhinted rate limits.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:           3,
		BaseDelay:             time.Second,
		MaxBackoff:            60 * time.Second,
		DefaultRateLimitDelay: 30 * time.Second,
		MaxRateLimitDelay:     5 * time.Minute,
	}
}

// withDefaults fills zero fields from DefaultPolicy.
func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = d.BaseDelay
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = d.MaxBackoff
	}
	if p.DefaultRateLimitDelay <= 0 {
		p.DefaultRateLimitDelay = d.DefaultRateLimitDelay
	}
	if p.MaxRateLimitDelay <= 0 {
		p.MaxRateLimitDelay = d.MaxRateLimitDelay
	}
	return p
}

// Backoff returns min(BaseDelay * 2^attempt, MaxBackoff).
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 30 {
		return p.MaxBackoff
	}
	d := p.BaseDelay << attempt
	if d <= 0 || d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Limiter is consulted before every attempt. Wait blocks until a request may
// be made or ctx is done.
type Limiter interface {
	Wait(ctx context.Context) error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Invoker holds retry configuration. It is immutable after New and safe for
// concurrent use; every Do call keeps its own attempt counter and history.
type Invoker struct {
	policy    Policy
	logger    zerolog.Logger
	limiter   Limiter
	sleep     SleepFunc
	classify  Classifier
	onAttempt func(Attempt)
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithLogger sets the logger for attempt failures. Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(inv *Invoker) { inv.logger = logger }
}

// WithLimiter sets a limiter consulted before each attempt.
func WithLimiter(l Limiter) Option {
	return func(inv *Invoker) { inv.limiter = l }
}

// WithSleepFunc overrides the backoff sleep (for testing).
func WithSleepFunc(fn SleepFunc) Option {
	return func(inv *Invoker) { inv.sleep = fn }
}

// WithClassifier replaces Classify.
func WithClassifier(c Classifier) Option {
	return func(inv *Invoker) { inv.classify = c }
}

// WithOnAttempt registers a callback invoked after every failed attempt.
func WithOnAttempt(fn func(Attempt)) Option {
	return func(inv *Invoker) { inv.onAttempt = fn }
}

// New returns an Invoker for policy. Zero policy fields take their defaults.
func New(policy Policy, opts ...Option) *Invoker {
	inv := &Invoker{
		policy:   policy.withDefaults(),
		logger:   zerolog.Nop(),
		sleep:    contextSleep,
		classify: Classify,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Policy returns the effective policy.
func (inv *Invoker) Policy() Policy {
	return inv.policy
}

// delay chooses the wait after a failed attempt. Rate limits use the server
// hint (or the default) capped at MaxRateLimitDelay; everything else uses
// exponential backoff on the attempt that just failed.
func (inv *Invoker) delay(c Classification, attempt int) time.Duration {
	if c.Category == CategoryRateLimit {
		d := inv.policy.DefaultRateLimitDelay
		if c.Hinted {
			d = c.Delay
		}
		return min(max(d, 0), inv.policy.MaxRateLimitDelay)
	}
	return inv.policy.Backoff(attempt)
}

// Do calls call until it succeeds, fails permanently, or MaxAttempts is
// reached. Attempts are sequential; the only suspension between them is the
// backoff sleep, which ends early when ctx is done. On failure the returned
// error is always a *Error.
//
// Worst-case duration is roughly MaxAttempts * max(MaxBackoff,
// MaxRateLimitDelay) plus the duration of each call; callers bound each call
// with their own per-call timeout.
func Do[T any](ctx context.Context, inv *Invoker, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if inv == nil {
		inv = New(DefaultPolicy())
	}

	maxAttempts := inv.policy.MaxAttempts
	history := make([]Attempt, 0, maxAttempts)

	for attempt := 1; ; attempt++ {
		if inv.limiter != nil {
			if err := inv.limiter.Wait(ctx); err != nil {
				return zero, inv.giveUp(history, attempt-1, Attempt{
					Number:         attempt,
					Classification: Classification{Kind: KindPermanent, Category: CategoryCanceled},
					Err:            err,
				})
			}
		}

		result, err := call(ctx)
		if err == nil {
			if attempt > 1 {
				inv.logger.Info().
					Int("attempt", attempt).
					Int("max_attempts", maxAttempts).
					Msg("call succeeded after retry")
			}
			return result, nil
		}

		a := Attempt{
			Number:         attempt,
			Classification: inv.classify(err),
			Err:            err,
		}

		if !a.Classification.Retryable() || attempt >= maxAttempts {
			return zero, inv.giveUp(history, attempt, a)
		}

		a.Delay = inv.delay(a.Classification, attempt)
		history = append(history, a)
		inv.report(a)

		inv.logger.Warn().
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Dur("delay", a.Delay).
			Str("category", string(a.Classification.Category)).
			Int("status", a.Classification.StatusCode).
			Str("error", security.SanitizeForLogging(err.Error())).
			Msg("attempt failed, retrying")

		if serr := inv.sleep(ctx, a.Delay); serr != nil {
			return zero, &Error{
				Category:    a.Classification.Category,
				Attempts:    attempt,
				Permanent:   false,
				History:     history,
				Err:         err,
				Interrupted: serr,
			}
		}
	}
}

func (inv *Invoker) giveUp(history []Attempt, attempts int, last Attempt) *Error {
	history = append(history, last)
	inv.report(last)

	inv.logger.Error().
		Int("attempt", last.Number).
		Int("max_attempts", inv.policy.MaxAttempts).
		Str("category", string(last.Classification.Category)).
		Int("status", last.Classification.StatusCode).
		Str("error", security.SanitizeForLogging(last.Err.Error())).
		Msg("giving up")

	return &Error{
		Category:  last.Classification.Category,
		Attempts:  attempts,
		Permanent: !last.Classification.Retryable(),
		History:   history,
		Err:       last.Err,
	}
}

func (inv *Invoker) report(a Attempt) {
	if inv.onAttempt != nil {
		inv.onAttempt(a)
	}
}

// InvokeWithRetry runs call under DefaultPolicy with maxAttempts attempts
// (3 when maxAttempts <= 0).
func InvokeWithRetry[T any](ctx context.Context, call func(ctx context.Context) (T, error), maxAttempts int, opts ...Option) (T, error) {
	policy := DefaultPolicy()
	if maxAttempts > 0 {
		policy.MaxAttempts = maxAttempts
	}
	return Do(ctx, New(policy, opts...), call)
}

// contextSleep sleeps for d or until ctx is cancelled.
func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
