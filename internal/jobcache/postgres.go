package jobcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/jobcraft/internal/retry"
	"github.com/jonathan/jobcraft/internal/types"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scraped_jobs (
	url        TEXT PRIMARY KEY,
	id         UUID NOT NULL,
	job        JSONB NOT NULL,
	scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scraped_jobs_expires_at ON scraped_jobs (expires_at);
`

// PostgresStore keeps jobs in the scraped_jobs table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL and ensures the schema exists.
// A malformed URL is a permanent failure.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("invalid database URL: %w", err))
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the scraped_jobs table if needed.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create scraped_jobs table: %w", err)
	}
	return nil
}

// Get returns the unexpired job cached for url.
func (s *PostgresStore) Get(ctx context.Context, url string) (*types.Job, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT job FROM scraped_jobs WHERE url = $1 AND expires_at > NOW()`,
		url,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached job: %w", err)
	}
	return decodeJob(data)
}

// Put upserts job with an expiry of ttl from now.
func (s *PostgresStore) Put(ctx context.Context, job *types.Job, ttl time.Duration) error {
	data, err := encodeJob(job)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scraped_jobs (url, id, job, scraped_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (url) DO UPDATE
		 SET id = $2, job = $3, scraped_at = $4, expires_at = $5`,
		job.Link, job.ID, data, job.ScrapedAt, time.Now().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("failed to cache job: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired rows and returns how many were removed. Get
// already ignores them; scrape-job calls this through Purge on every run.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scraped_jobs WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
