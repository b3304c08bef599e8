package worker

import (
	"context"
	"errors"
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

func TestWorkerProcessesJobAndAcksSuccess(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, map[string]interface{}{"url": "https://a.test"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	handled := make(chan struct{}, 1)
	handler := func(ctx context.Context, payload map[string]interface{}) error {
		handled <- struct{}{}
		return nil
	}

	w := New(q, handler, Config{ID: "test-worker", PollInterval: 10 * time.Millisecond, DequeueWait: 200 * time.Millisecond})

	runCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	go w.Run(runCtx)

	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never invoked")
	}

	w.Stop()
	<-w.Done()

	stats, err := q.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Done != 1 || stats.Pending != 0 {
		t.Fatalf("expected done=1 pending=0, got %+v", stats)
	}
}

func TestWorkerAcksFailureOnHandlerError(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, map[string]interface{}{"url": "https://b.test"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	handler := func(ctx context.Context, payload map[string]interface{}) error {
		return errors.New("boom")
	}

	w := New(q, handler, Config{ID: "test-worker", PollInterval: 10 * time.Millisecond, DequeueWait: 200 * time.Millisecond})

	runCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	go w.Run(runCtx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s, err := q.Stats(ctx)
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if s.Failed == 1 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	w.Stop()
	<-w.Done()

	s, err := q.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Failed != 1 {
		t.Fatalf("expected failed=1 after first attempt (max_attempts=3), got %+v", s)
	}
}
