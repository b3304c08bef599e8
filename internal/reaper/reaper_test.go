package reaper

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"reaplex/internal/queue"
)

func newTestQueue(t *testing.T) *queue.Queue {
	t.Helper()

	addr := os.Getenv("REAPLEX_TEST_REDIS_URL")
	if addr == "" {
		addr = "redis://localhost:6379/15"
	}

	opt, err := redis.ParseURL(addr)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s, skipping integration test: %v", addr, err)
	}

	client.FlushDB(context.Background())
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return queue.New(client, nil)
}

func TestReaperReclaimsStaleJob(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, map[string]interface{}{"url": "https://a.test"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.Dequeue(ctx, 5*time.Second); err != nil {
		t.Fatalf("dequeue: %v", err)
	}

	r := New(q, 500*time.Millisecond, 200*time.Millisecond)
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	go r.Run(runCtx)

	deadline := time.Now().Add(1800 * time.Millisecond)
	for time.Now().Before(deadline) {
		stats, err := q.Stats(ctx)
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if stats.Pending == 1 && stats.Processing == 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	r.Stop()
	<-r.Done()

	stats, err := q.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Pending != 1 || stats.Processing != 0 {
		t.Fatalf("expected reaper to requeue the stale job, got %+v", stats)
	}
}

func TestDefaultIntervalDerivesFromStaleTimeout(t *testing.T) {
	r := New(nil, 120*time.Second, 0)
	if r.interval != 30*time.Second {
		t.Fatalf("expected default interval staleTimeout/4 = 30s, got %v", r.interval)
	}
}
