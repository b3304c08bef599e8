// Package missions runs Orchestrator missions in the background and tracks
// their outcome by process id, grounded on the teacher's
// internal/background task manager (TaskStatus/TaskResult/InMemoryTaskStore
// shape), scaled down to the single task type this service has.
package missions

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"reaplex/internal/config"
	"reaplex/internal/orchestrator"
	"reaplex/pkg/models"
	"reaplex/pkg/utils"
)

// Status mirrors the teacher's TaskStatus enum for the one task type this
// service runs in the background: a mission.
type Status string

const (
	StatusAccepted   Status = "ACCEPTED"
	StatusProcessing Status = "PROCESSING"
	StatusSuccess    Status = "SUCCESS"
	StatusFailure    Status = "FAILURE"
)

// Record is the stored outcome of one submitted mission.
type Record struct {
	ProcessID   string
	Status      Status
	Summary     *models.MissionSummary
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Manager bounds background mission concurrency with a semaphore sized
// from config.BackgroundTasks.MaxConcurrentTasks and tracks every
// submission's outcome in an in-memory store, cleaned up after MaxTaskAge.
type Manager struct {
	orchestrator *orchestrator.Orchestrator
	sem          chan struct{}
	taskTimeout  time.Duration
	maxAge       time.Duration
	logger       *logrus.Logger

	mu      sync.RWMutex
	records map[string]*Record
}

// NewManager builds a Manager driving the given Orchestrator for every
// submitted mission.
func NewManager(cfg *config.Config, orch *orchestrator.Orchestrator) *Manager {
	maxConcurrent := cfg.BackgroundTasks.MaxConcurrentTasks
	if maxConcurrent <= 0 {
		maxConcurrent = 50
	}
	return &Manager{
		orchestrator: orch,
		sem:          make(chan struct{}, maxConcurrent),
		taskTimeout:  cfg.BackgroundTasks.TaskTimeout,
		maxAge:       cfg.BackgroundTasks.MaxTaskAge,
		logger:       utils.GetLogger(),
		records:      make(map[string]*Record),
	}
}

// Submit mints a process id, records it ACCEPTED, and starts the mission
// in its own goroutine, bounded by the manager's concurrency semaphore.
func (m *Manager) Submit(goal string) string {
	processID := utils.GenerateMissionProcessID()
	now := time.Now()

	m.mu.Lock()
	m.records[processID] = &Record{ProcessID: processID, Status: StatusAccepted, CreatedAt: now}
	m.mu.Unlock()

	go m.run(processID, goal)

	return processID
}

func (m *Manager) run(processID, goal string) {
	m.sem <- struct{}{}
	defer func() { <-m.sem }()

	m.setStatus(processID, StatusProcessing)

	ctx := context.Background()
	if m.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.taskTimeout)
		defer cancel()
	}

	start := time.Now()
	summary, err := m.orchestrator.Run(ctx, goal)
	elapsed := time.Since(start)

	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[processID]
	if !ok {
		return
	}
	completed := time.Now()
	record.CompletedAt = &completed
	if err != nil {
		record.Status = StatusFailure
		record.Error = err.Error()
		m.logger.WithFields(logrus.Fields{
			"process_id": processID,
			"elapsed":    utils.FormatDuration(elapsed),
			"error":      err,
		}).Warn("mission failed")
		return
	}
	record.Status = StatusSuccess
	record.Summary = &summary
	m.logger.WithFields(logrus.Fields{
		"process_id": processID,
		"elapsed":    utils.FormatDuration(elapsed),
		"successful": summary.Successful,
		"failed":     summary.Failed,
		"skipped":    summary.Skipped,
	}).Info("mission completed")
}

func (m *Manager) setStatus(processID string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record, ok := m.records[processID]; ok {
		record.Status = status
	}
}

// Get retrieves the current record for a process id.
func (m *Manager) Get(processID string) (*Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[processID]
	return record, ok
}

// Cleanup drops completed records older than MaxTaskAge. Intended to be
// invoked periodically by the caller (mirrors the teacher's
// cleanupRoutine ticker, driven here by cmd/server instead of an internal
// ticker so the whole process shares one shutdown path).
func (m *Manager) Cleanup() int {
	if m.maxAge <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-m.maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, record := range m.records {
		if record.CompletedAt != nil && record.CompletedAt.Before(cutoff) {
			delete(m.records, id)
			removed++
		}
	}
	return removed
}

// IsHealthy reports whether the manager still has spare capacity.
func (m *Manager) IsHealthy() bool {
	return len(m.sem) < cap(m.sem)
}
