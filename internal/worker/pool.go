package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"reaplex/internal/config"
	"reaplex/internal/queue"
)

// PoolManager owns a fixed set of Workers, each independently polling the
// shared Queue, and tracks the pool's size and uptime. Unlike an
// in-process dispatcher fanning work out over channels, parallelism here is
// purely horizontal: each Worker is its own dequeue/handle/ack loop and
// would behave identically running on a different host against the same
// Queue.
type PoolManager struct {
	cfg     *config.Config
	queue   *queue.Queue
	handler Handler
	logger  *logrus.Logger

	mu          sync.RWMutex
	initialized bool
	workers     []*Worker
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	stats poolStats
}

type poolStats struct {
	mu        sync.RWMutex
	started   time.Time
	poolSize  int
}

// PoolStatsData is the external, copy-safe view of pool health.
type PoolStatsData struct {
	PoolSize int           `json:"pool_size"`
	Uptime   time.Duration `json:"uptime"`
	Queue    interface{}   `json:"queue"`
}

// NewPoolManager builds a pool manager over q, running handler in
// cfg.Workers.PoolSize independent Workers once Initialize is called.
func NewPoolManager(cfg *config.Config, q *queue.Queue, handler Handler) *PoolManager {
	return &PoolManager{
		cfg:     cfg,
		queue:   q,
		handler: handler,
		logger:  logrus.StandardLogger(),
	}
}

// Initialize starts the worker pool.
func (pm *PoolManager) Initialize() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.initialized {
		return fmt.Errorf("worker pool already initialized")
	}

	poolSize := pm.cfg.Workers.PoolSize
	if poolSize <= 0 {
		poolSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	pm.cancel = cancel

	pm.workers = make([]*Worker, poolSize)
	for i := 0; i < poolSize; i++ {
		w := New(pm.queue, pm.handler, Config{
			ID:           fmt.Sprintf("worker-%d", i+1),
			PollInterval: pm.cfg.Queue.PollInterval,
			DequeueWait:  pm.cfg.Queue.DequeueWait,
		})
		pm.workers[i] = w

		pm.wg.Add(1)
		go func(w *Worker) {
			defer pm.wg.Done()
			w.Run(ctx)
		}(w)
	}

	pm.stats.mu.Lock()
	pm.stats.started = time.Now()
	pm.stats.poolSize = poolSize
	pm.stats.mu.Unlock()

	pm.initialized = true
	pm.logger.WithField("pool_size", poolSize).Info("worker pool initialized")
	return nil
}

// Shutdown requests a graceful stop of every worker and waits for them to
// drain their in-flight job, if any.
func (pm *PoolManager) Shutdown() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if !pm.initialized {
		return nil
	}

	pm.logger.Info("shutting down worker pool")
	for _, w := range pm.workers {
		w.Stop()
	}
	pm.wg.Wait()
	if pm.cancel != nil {
		pm.cancel()
	}

	pm.initialized = false
	pm.logger.Info("worker pool shutdown complete")
	return nil
}

// GetStats returns a copy-safe snapshot of pool health.
func (pm *PoolManager) GetStats(ctx context.Context) (PoolStatsData, error) {
	pm.stats.mu.RLock()
	started := pm.stats.started
	poolSize := pm.stats.poolSize
	pm.stats.mu.RUnlock()

	data := PoolStatsData{PoolSize: poolSize}
	if !started.IsZero() {
		data.Uptime = time.Since(started)
	}

	if pm.queue != nil {
		if qs, err := pm.queue.Stats(ctx); err == nil {
			data.Queue = qs
		}
	}

	return data, nil
}

// IsHealthy reports whether the pool has been initialized and not shut down.
func (pm *PoolManager) IsHealthy() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.initialized
}
