// Package queue is a durable, Redis-backed job queue. It owns state, not
// logic: the payload it carries is opaque, and dedup/state-transition
// atomicity is enforced with Lua scripts run against the shared store.
package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"reaplex/pkg/apperrors"
	"reaplex/pkg/models"
)

// Queue implements enqueue/dequeue/ack/requeue-stale/stats over a single
// Redis instance. ack_success stays a pipeline rather than a script — a
// crash between the HDEL and the SADD is recoverable (requeue_stale will
// not touch a job already absent from PROCESSING, and idempotent consumers
// tolerate transient absence from DONE). Enqueue, dequeue, ack_failure and
// each per-job requeue step are single scripts; Stats is a read-only
// pipeline.
type Queue struct {
	client      *redis.Client
	logger      *logrus.Logger
	maxAttempts int
}

// New wraps an already-connected Redis client in a Queue, defaulting
// MaxAttempts to the package constant. Call WithMaxAttempts to override it
// from configuration.
func New(client *redis.Client, logger *logrus.Logger) *Queue {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Queue{client: client, logger: logger, maxAttempts: MaxAttempts}
}

// WithMaxAttempts overrides the retry bound RequeueStale enforces. Ignored
// if n is not positive.
func (q *Queue) WithMaxAttempts(n int) *Queue {
	if n > 0 {
		q.maxAttempts = n
	}
	return q
}

// Enqueue computes the payload fingerprint and atomically inserts it into
// SEEN and pushes a new Job onto PENDING, iff the fingerprint is novel.
// Returns false on a duplicate.
func (q *Queue) Enqueue(ctx context.Context, payload map[string]interface{}) (bool, error) {
	hash, err := fingerprint(payload)
	if err != nil {
		return false, apperrors.NewInvalidPayloadError(err.Error())
	}

	job := newJob(payload)
	encoded, err := encodeJob(job)
	if err != nil {
		return false, apperrors.NewInvalidPayloadError(err.Error())
	}

	res, err := enqueueScript.Run(ctx, q.client, []string{keySeen, keyPending}, hash, encoded).Int()
	if err != nil {
		return false, apperrors.NewStoreError(err.Error())
	}
	return res == 1, nil
}

// Dequeue polls up to timeout, attempting a single-shot atomic dequeue
// every PollInterval milliseconds. Returns nil, nil when the deadline
// passes with nothing to deliver.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*models.Job, error) {
	deadline := time.Now().Add(timeout)
	interval := time.Duration(PollInterval) * time.Millisecond

	for time.Now().Before(deadline) {
		job, err := q.dequeueOnce(ctx)
		if err != nil {
			return nil, err
		}
		if job != nil {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, nil
}

func (q *Queue) dequeueOnce(ctx context.Context) (*models.Job, error) {
	res, err := dequeueScript.Run(ctx, q.client, []string{keyPending, keyProcessing}, float64(time.Now().UnixNano())/1e9).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreError(err.Error())
	}
	raw, ok := res.(string)
	if !ok || raw == "" {
		return nil, nil
	}
	job, err := decodeJob(raw)
	if err != nil {
		return nil, apperrors.NewStoreError(err.Error())
	}
	return job, nil
}

// AckSuccess removes job_id from PROCESSING and adds it to DONE via a
// pipeline. See the Queue doc comment for why this step is intentionally
// not scripted.
func (q *Queue) AckSuccess(ctx context.Context, jobID string) error {
	pipe := q.client.Pipeline()
	pipe.HDel(ctx, keyProcessing, jobID)
	pipe.SAdd(ctx, keyDone, jobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.NewStoreError(err.Error())
	}
	return nil
}

// AckFailure atomically moves job_id from PROCESSING to FAILED with the
// given error attached. A no-op if the job is no longer in PROCESSING.
func (q *Queue) AckFailure(ctx context.Context, jobID string, failErr string) error {
	_, err := ackFailureScript.Run(ctx, q.client, []string{keyProcessing, keyFailed},
		jobID, failErr, float64(time.Now().Unix())).Result()
	if err != nil && err != redis.Nil {
		return apperrors.NewStoreError(err.Error())
	}
	return nil
}

// RequeueStale scans PROCESSING in pages of RequeueScanPageSize and, for
// every job whose started_at is more than timeout old (strict >), atomically
// either bumps its attempts and pushes it back onto PENDING, or — once
// attempts would reach the queue's attempt bound (MaxAttempts unless
// overridden with WithMaxAttempts) — moves it to FAILED. Returns the count
// of jobs moved.
func (q *Queue) RequeueStale(ctx context.Context, timeout time.Duration) (int, error) {
	moved := 0
	var cursor uint64
	timeoutSeconds := timeout.Seconds()

	for {
		keys, next, err := q.client.HScan(ctx, keyProcessing, cursor, "", RequeueScanPageSize).Result()
		if err != nil {
			return moved, apperrors.NewStoreError(err.Error())
		}

		// HScan on a hash returns alternating field/value pairs.
		for i := 0; i < len(keys); i += 2 {
			jobID := keys[i]
			res, err := requeueOneScript.Run(ctx, q.client,
				[]string{keyProcessing, keyPending, keyFailed},
				jobID, float64(time.Now().UnixNano())/1e9, timeoutSeconds, q.maxAttempts).Int()
			if err != nil {
				q.logger.WithError(err).WithField("job_id", jobID).Warn("requeue_stale: failed to move job")
				continue
			}
			moved += res
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return moved, nil
}

// Stats reports the current cardinality of each logical job state.
func (q *Queue) Stats(ctx context.Context) (models.QueueStats, error) {
	pipe := q.client.Pipeline()
	seen := pipe.SCard(ctx, keySeen)
	pending := pipe.LLen(ctx, keyPending)
	processing := pipe.HLen(ctx, keyProcessing)
	done := pipe.SCard(ctx, keyDone)
	failed := pipe.HLen(ctx, keyFailed)

	if _, err := pipe.Exec(ctx); err != nil {
		return models.QueueStats{}, apperrors.NewStoreError(err.Error())
	}

	return models.QueueStats{
		Seen:       seen.Val(),
		Pending:    pending.Val(),
		Processing: processing.Val(),
		Done:       done.Val(),
		Failed:     failed.Val(),
	}, nil
}
