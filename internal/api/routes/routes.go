package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"reaplex/internal/api/handlers"
	"reaplex/internal/api/middleware"
	"reaplex/internal/config"
	"reaplex/internal/missions"
	"reaplex/internal/queue"
	"reaplex/internal/worker"
)

// SetupRoutes wires the HTTP surface spec_full.md §6 adds atop the core
// queue/worker pipeline: job submission and stats, mission submission and
// status, and health.
func SetupRoutes(e *echo.Echo, cfg *config.Config, q *queue.Queue, pool *worker.PoolManager, missionMgr *missions.Manager) {
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation())
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout, cfg.Planner.Timeout*2))

	e.GET("/v1/health", handlers.HealthHandler(q, pool))

	v1 := e.Group("/v1")
	{
		v1.POST("/jobs", handlers.EnqueueJobHandler(q))
		v1.GET("/jobs/stats", handlers.JobStatsHandler(q))

		v1.POST("/missions", handlers.SubmitMissionHandler(missionMgr))
		v1.GET("/missions/:id", handlers.GetMissionHandler(missionMgr))
	}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "reaplex",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}
