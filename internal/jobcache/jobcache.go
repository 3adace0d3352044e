// Package jobcache stores scraped jobs keyed by URL so repeated scrapes of the
// same posting skip the fetch and the model call.
package jobcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/jobcraft/internal/retry"
	"github.com/jonathan/jobcraft/internal/types"
)

// Supported drivers.
const (
	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// connectAttempts bounds the connection ping retries in Open.
const connectAttempts = 3

// ErrUnsupportedDriver is returned by Open for an unknown driver.
var ErrUnsupportedDriver = errors.New("unsupported cache driver")

// Store is a job cache. Get returns (nil, nil) on a miss or an expired entry.
type Store interface {
	Get(ctx context.Context, url string) (*types.Job, error)
	Put(ctx context.Context, job *types.Job, ttl time.Duration) error
	Close() error
}

// Purger is implemented by stores whose expired entries stay on disk until
// deleted. Redis expires keys itself and does not implement it.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Purge removes expired entries from store when it is a Purger and returns
// how many were removed. Other stores report zero.
func Purge(ctx context.Context, store Store) (int64, error) {
	p, ok := store.(Purger)
	if !ok {
		return 0, nil
	}
	return p.PurgeExpired(ctx)
}

// Open connects to the store for driver. An empty driver means DriverNone.
// The initial connection check is retried on transient failures.
func Open(ctx context.Context, driver, dsn string, opts ...retry.Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverNone:
		return Nop{}, nil
	case DriverPostgres:
		return openWithRetry(ctx, opts, func(ctx context.Context) (*PostgresStore, error) {
			return NewPostgres(ctx, dsn)
		})
	case DriverRedis:
		return openWithRetry(ctx, opts, func(ctx context.Context) (*RedisStore, error) {
			return NewRedis(ctx, dsn)
		})
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s, %s, %s)", ErrUnsupportedDriver, driver, DriverNone, DriverPostgres, DriverRedis)
	}
}

func openWithRetry[S Store](ctx context.Context, opts []retry.Option, connect func(context.Context) (S, error)) (Store, error) {
	store, err := retry.InvokeWithRetry(ctx, connect, connectAttempts, opts...)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Nop is a Store that never holds anything.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) (*types.Job, error) { return nil, nil }

// Put discards the job.
func (Nop) Put(context.Context, *types.Job, time.Duration) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

func encodeJob(job *types.Job) ([]byte, error) {
	if job == nil || job.Link == "" {
		return nil, errors.New("job with a link is required")
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}
	return data, nil
}

func decodeJob(data []byte) (*types.Job, error) {
	var job types.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached job: %w", err)
	}
	return &job, nil
}
