// Package reaper periodically reclaims jobs stuck in PROCESSING, the
// supervisory knob the Worker itself has no cancellation channel to act on.
package reaper

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"reaplex/internal/queue"
)

// Reaper invokes Queue.RequeueStale on a fixed interval, reclaiming jobs
// whose Worker died mid-handler without acking.
type Reaper struct {
	queue        *queue.Queue
	staleTimeout time.Duration
	interval     time.Duration
	logger       *logrus.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a Reaper. When interval is zero it defaults to
// staleTimeout/4, the design target spec.md calls out for the cadence.
func New(q *queue.Queue, staleTimeout, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = staleTimeout / 4
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reaper{
		queue:        q,
		staleTimeout: staleTimeout,
		interval:     interval,
		logger:       logrus.StandardLogger(),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Run ticks until ctx is cancelled or Stop is called.
func (r *Reaper) Run(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.WithFields(logrus.Fields{
		"interval":      r.interval,
		"stale_timeout": r.staleTimeout,
	}).Info("reaper started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			moved, err := r.queue.RequeueStale(ctx, r.staleTimeout)
			if err != nil {
				r.logger.WithError(err).Error("requeue_stale failed")
				continue
			}
			if moved > 0 {
				r.logger.WithField("moved", moved).Info("requeue_stale reclaimed jobs")
			}
		}
	}
}

// Stop requests the reaper loop to exit before its next tick.
func (r *Reaper) Stop() {
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
}

// Done is closed once Run has returned.
func (r *Reaper) Done() <-chan struct{} {
	return r.doneCh
}
