//go:build integration

package jobcache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobcraft/internal/types"
)

func testJob() *types.Job {
	id := uuid.New()
	return &types.Job{
		ID:          id,
		Role:        "Integration Engineer",
		Company:     "Test Corp",
		Description: "Keep the cache honest",
		Link:        "https://boards.greenhouse.io/testcorp/jobs/" + id.String(),
		ScrapedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	job := testJob()

	t.Run("miss", func(t *testing.T) {
		got, err := store.Get(ctx, job.Link)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != nil {
			t.Fatalf("expected miss, got %+v", got)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		if err := store.Put(ctx, job, time.Hour); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := store.Get(ctx, job.Link)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got == nil || got.ID != job.ID || got.Role != job.Role {
			t.Fatalf("unexpected cached job: %+v", got)
		}
	})

	t.Run("expired entries miss", func(t *testing.T) {
		expired := testJob()
		if err := store.Put(ctx, expired, time.Second); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		time.Sleep(1500 * time.Millisecond)
		got, err := store.Get(ctx, expired.Link)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != nil {
			t.Fatalf("expected expired entry to miss, got %+v", got)
		}
	})
}

func TestIntegration_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	store, err := Open(context.Background(), DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("Failed to open postgres store: %v", err)
	}
	defer func() { _ = store.Close() }()

	exerciseStore(t, store)

	if _, err := Purge(context.Background(), store); err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
}

func TestIntegration_Redis(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping integration test")
	}

	store, err := Open(context.Background(), DriverRedis, url)
	if err != nil {
		t.Fatalf("Failed to open redis store: %v", err)
	}
	defer func() { _ = store.Close() }()

	exerciseStore(t, store)
}
