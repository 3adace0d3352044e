package jobcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/jobcraft/internal/retry"
	"github.com/jonathan/jobcraft/internal/types"
)

// KeyPrefix namespaces cached jobs in Redis.
const KeyPrefix = "jobcraft:job:"

// RedisStore keeps jobs as JSON strings with a TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedis connects to a redis:// URL.
func NewRedis(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("invalid redis URL: %w", err))
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Key returns the Redis key for url.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the job cached for url.
func (s *RedisStore) Get(ctx context.Context, url string) (*types.Job, error) {
	data, err := s.client.Get(ctx, Key(url)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached job: %w", err)
	}
	return decodeJob(data)
}

// Put stores job for ttl.
func (s *RedisStore) Put(ctx context.Context, job *types.Job, ttl time.Duration) error {
	data, err := encodeJob(job)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, Key(job.Link), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache job: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
