// Package worker implements the generic queue-drain loop: dequeue a job,
// run a handler against its payload, ack success or failure, repeat.
package worker

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"reaplex/internal/queue"
	"reaplex/pkg/models"
)

// Handler processes one job payload. A returned error is recorded against
// the job as a failed attempt; a nil return acks it as successful.
type Handler func(ctx context.Context, payload map[string]interface{}) error

// Worker drains a Queue on its own thread of control, running one handler
// call at a time. Multiple Workers — in this process or on other hosts —
// may share the same Queue; parallelism across them is horizontal.
type Worker struct {
	id           string
	queue        *queue.Queue
	handler      Handler
	pollInterval time.Duration
	dequeueWait  time.Duration
	logger       *logrus.Logger

	stopping atomic.Bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	once     sync.Once
}

// Config collects the tunables a Worker needs beyond the Queue and Handler.
type Config struct {
	ID           string
	PollInterval time.Duration
	DequeueWait  time.Duration
}

// New builds a Worker. PollInterval and DequeueWait default to 100ms and 5s
// respectively when zero.
func New(q *queue.Queue, handler Handler, cfg Config) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.DequeueWait <= 0 {
		cfg.DequeueWait = 5 * time.Second
	}
	if cfg.ID == "" {
		cfg.ID = "worker"
	}
	return &Worker{
		id:           cfg.ID,
		queue:        q,
		handler:      handler,
		pollInterval: cfg.PollInterval,
		dequeueWait:  cfg.DequeueWait,
		logger:       logrus.StandardLogger(),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Run enters the drain loop and blocks until ctx is cancelled, a stop
// signal (SIGINT/SIGTERM) arrives, or Stop is called. The in-flight job, if
// any, is always allowed to complete before the loop exits.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.doneCh)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	log := w.logger.WithField("worker_id", w.id)
	log.Info("worker started")

	for {
		if w.stopping.Load() {
			log.Info("worker stopping, drain complete")
			return
		}

		select {
		case <-ctx.Done():
			log.Info("worker context cancelled")
			return
		case <-w.stopCh:
			w.stopping.Store(true)
			continue
		case sig := <-sigCh:
			log.WithField("signal", sig.String()).Info("worker received stop signal")
			w.stopping.Store(true)
			continue
		default:
		}

		job, err := w.queue.Dequeue(ctx, w.dequeueWait)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return
			}
			log.WithError(err).Error("dequeue failed, backing off")
			time.Sleep(1 * time.Second)
			continue
		}

		if job == nil {
			time.Sleep(w.pollInterval)
			continue
		}

		w.processJob(ctx, job)
	}
}

// Stop requests a graceful shutdown: no new job is dequeued, but any
// in-flight job is allowed to finish and ack.
func (w *Worker) Stop() {
	w.once.Do(func() { close(w.stopCh) })
}

// Done is closed once Run has returned.
func (w *Worker) Done() <-chan struct{} {
	return w.doneCh
}

func (w *Worker) processJob(ctx context.Context, job *models.Job) {
	log := w.logger.WithFields(logrus.Fields{"worker_id": w.id, "job_id": job.ID})

	if job.ID == "" {
		log.Warn("dequeued job missing id, dropping")
		return
	}

	err := w.handler(ctx, job.Payload)
	if err == nil {
		if ackErr := w.queue.AckSuccess(ctx, job.ID); ackErr != nil {
			log.WithError(ackErr).Error("ack_success failed")
		}
		return
	}

	log.WithError(err).Warn("handler failed")
	if ackErr := w.queue.AckFailure(ctx, job.ID, err.Error()); ackErr != nil {
		log.WithError(ackErr).Error("ack_failure failed")
	}
}
