// Package ratelimit provides token bucket rate limiting for outbound calls,
// keyed by backend name or target host.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket allows up to capacity requests at once and refills at a steady
// rate. A nil *TokenBucket never limits.
type TokenBucket struct {
	capacity   int        // Maximum tokens (burst capacity)
	refillRate float64    // Tokens per second
	tokens     float64    // Current tokens available
	lastRefill time.Time  // Last time tokens were refilled
	mu         sync.Mutex // Guards tokens and lastRefill

	nowFunc   func() time.Time
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewTokenBucket creates a full bucket with the given capacity and refill rate
// in tokens per second.
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
		nowFunc:    time.Now,
		sleepFunc:  contextSleep,
	}
}

// refill must be called with mu held.
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill)
	if elapsed > 0 {
		tb.tokens = min(float64(tb.capacity), tb.tokens+elapsed.Seconds()*tb.refillRate)
	}
	tb.lastRefill = now
}

// take consumes a token if one is available. Otherwise it reports how long
// until the next token arrives.
func (tb *TokenBucket) take() (time.Duration, bool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(tb.nowFunc())

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return 0, true
	}

	if tb.refillRate <= 0 {
		return time.Minute, false
	}
	missing := 1.0 - tb.tokens
	return time.Duration(missing / tb.refillRate * float64(time.Second)), false
}

// Allow consumes a token if one is available and reports whether it did.
func (tb *TokenBucket) Allow() bool {
	if tb == nil {
		return true
	}
	_, ok := tb.take()
	return ok
}

// Wait blocks until a token is available or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	if tb == nil {
		return ctx.Err()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ok := tb.take()
		if ok {
			return nil
		}

		const minWait = 10 * time.Millisecond
		if err := tb.sleepFunc(ctx, max(wait, minWait)); err != nil {
			return err
		}
	}
}

// Status returns the tokens left and when the bucket will be full again,
// without consuming a token.
func (tb *TokenBucket) Status() (remaining int, resetTime time.Time) {
	if tb == nil {
		return 0, time.Now()
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.nowFunc()
	tb.refill(now)

	remaining = int(tb.tokens)
	resetTime = now
	if tb.tokens < float64(tb.capacity) && tb.refillRate > 0 {
		secondsUntilFull := (float64(tb.capacity) - tb.tokens) / tb.refillRate
		resetTime = now.Add(time.Duration(secondsUntilFull * float64(time.Second)))
	}

	return remaining, resetTime
}

// Info describes the outcome of Limiter.Allow.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter manages one token bucket per key. Buckets are created lazily from
// the first matching Rule or the defaults.
type Limiter struct {
	buckets       map[string]*TokenBucket
	lastAccess    map[string]time.Time
	mu            sync.Mutex
	config        *Config
	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
	stopOnce      sync.Once
}

// NewLimiter creates a limiter. A nil config means DefaultConfig.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}

	l := &Limiter{
		buckets:    make(map[string]*TokenBucket),
		lastAccess: make(map[string]time.Time),
		config:     config,
	}

	if config.CleanupInterval > 0 {
		l.cleanupTicker = time.NewTicker(config.CleanupInterval)
		l.cleanupStop = make(chan struct{})
		go l.cleanup()
	}

	return l
}

// Bucket returns the bucket for key, or nil when the key is unlimited.
func (l *Limiter) Bucket(key string) *TokenBucket {
	rule := l.config.ruleFor(key)
	if rule.Limit <= 0 || rule.Window <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastAccess[key] = time.Now()
	if b, ok := l.buckets[key]; ok {
		return b
	}

	capacity := rule.Burst
	if capacity <= 0 {
		capacity = rule.Limit
	}
	b := NewTokenBucket(capacity, float64(rule.Limit)/rule.Window.Seconds())
	l.buckets[key] = b
	return b
}

// Allow consumes a token for key if one is available.
func (l *Limiter) Allow(key string) (bool, Info) {
	rule := l.config.ruleFor(key)
	b := l.Bucket(key)
	if b == nil {
		return true, Info{Allowed: true}
	}

	allowed := b.Allow()
	remaining, resetTime := b.Status()

	var retryAfter time.Duration
	if !allowed {
		retryAfter = max(time.Until(resetTime), 0)
	}

	return allowed, Info{
		Allowed:    allowed,
		Limit:      rule.Limit,
		Remaining:  remaining,
		ResetTime:  resetTime,
		RetryAfter: retryAfter,
	}
}

// Wait blocks until key has a token or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.Bucket(key).Wait(ctx)
}

// For returns a waiter bound to key, suitable as a retry.Limiter.
func (l *Limiter) For(key string) *Keyed {
	return &Keyed{limiter: l, key: key}
}

// Keyed is a Limiter bound to a single key.
type Keyed struct {
	limiter *Limiter
	key     string
}

// Wait blocks until the bound key has a token or ctx is done.
func (k *Keyed) Wait(ctx context.Context) error {
	return k.limiter.Wait(ctx, k.key)
}

func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.cleanupBuckets(time.Now().Add(-time.Hour))
		case <-l.cleanupStop:
			return
		}
	}
}

// cleanupBuckets drops buckets not used since cutoff.
func (l *Limiter) cleanupBuckets(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, last := range l.lastAccess {
		if last.Before(cutoff) {
			delete(l.buckets, key)
			delete(l.lastAccess, key)
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		if l.cleanupTicker != nil {
			l.cleanupTicker.Stop()
		}
		if l.cleanupStop != nil {
			close(l.cleanupStop)
		}
	})
}

// contextSleep sleeps for d or until ctx is cancelled.
func contextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
