package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"reaplex/internal/queue"
	"reaplex/internal/worker"
	"reaplex/pkg/models"
)

var startTime = time.Now()

// HealthHandler reports liveness plus the health of the dependencies the
// service actually has: Redis (via the Queue) and the worker pool.
func HealthHandler(q *queue.Queue, pool *worker.PoolManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		checks := map[string]string{"api": "ok"}
		status := http.StatusOK

		if _, err := q.Stats(c.Request().Context()); err != nil {
			checks["redis"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "ok"
		}

		if pool.IsHealthy() {
			checks["workers"] = "ok"
		} else {
			checks["workers"] = "not_initialized"
			status = http.StatusServiceUnavailable
		}

		response := models.HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Uptime:    time.Since(startTime),
			Checks:    checks,
		}
		if status != http.StatusOK {
			response.Status = "degraded"
		}

		return c.JSON(status, response)
	}
}
