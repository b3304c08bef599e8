package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"reaplex/internal/api/routes"
	"reaplex/internal/config"
	"reaplex/internal/executor"
	"reaplex/internal/jobhandler"
	"reaplex/internal/logging"
	"reaplex/internal/missions"
	"reaplex/internal/orchestrator"
	"reaplex/internal/queue"
	"reaplex/internal/reaper"
	"reaplex/internal/scraper"
	"reaplex/internal/scraper/fetchers"
	"reaplex/internal/worker"
	"reaplex/pkg/objectstore"
)

func main() {
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("starting reaplex")

	redisClient, err := queue.NewRedisClient(cfg)
	if err != nil {
		logger.Error("failed to connect to redis", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer redisClient.Close()

	q := queue.New(redisClient, logrus.StandardLogger()).WithMaxAttempts(cfg.Queue.MaxAttempts)

	staticFetcher := fetchers.NewStealthHTTPFetcher(cfg)
	browserFetcher := fetchers.NewRodBrowserSession(cfg)
	router := scraper.NewRouter(staticFetcher, browserFetcher)

	if cfg.Firecrawl.APIKey != "" {
		firecrawlFetcher, err := fetchers.NewFirecrawlFetcher(cfg)
		if err != nil {
			logger.Warn("firecrawl engine disabled", map[string]interface{}{"error": err.Error()})
		} else {
			router.WithFirecrawl(firecrawlFetcher)
		}
	}

	var mirror objectstore.Store
	if spacesStore, err := objectstore.NewSpacesStore(cfg); err != nil {
		logger.Warn("artifact mirror disabled", map[string]interface{}{"error": err.Error()})
	} else if spacesStore != nil {
		mirror = spacesStore
	}

	exec := executor.NewFromConfig(cfg, router, mirror)
	handler := jobhandler.New(exec)

	poolManager := worker.NewPoolManager(cfg, q, handler)
	if err := poolManager.Initialize(); err != nil {
		logger.Error("failed to start worker pool", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	var reaperTask *reaper.Reaper
	if cfg.Queue.ReaperEnabled {
		reaperTask = reaper.New(q, cfg.Queue.StaleTimeout, cfg.Queue.ReaperInterval)
		reaperCtx, cancelReaper := context.WithCancel(context.Background())
		defer cancelReaper()
		go reaperTask.Run(reaperCtx)
	}

	var planner orchestrator.Planner
	if cfg.Planner.APIKey != "" {
		planner = orchestrator.NewAnthropicPlanner(cfg)
	} else {
		logger.Warn("planner api key not configured, mission submission will fail at plan time")
	}
	extractor := orchestrator.NewGoqueryLinkExtractor(staticFetcher, cfg.Orchestrator.SearchURLTemplate)
	orch := orchestrator.New(planner, extractor, exec, cfg.Server.DataDir)
	missionManager := missions.NewManager(cfg, orch)

	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go runMissionCleanup(cleanupCtx, missionManager, cfg.BackgroundTasks.CleanupInterval, logger)

	e := echo.New()
	e.HideBanner = true
	routes.SetupRoutes(e, cfg, q, poolManager, missionManager)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		sig := <-sigCh

		logger.Info("shutdown signal received", map[string]interface{}{"signal": sig.String()})

		cancelCleanup()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("error shutting down http server", map[string]interface{}{"error": err.Error()})
		}
		if reaperTask != nil {
			reaperTask.Stop()
			<-reaperTask.Done()
		}
		if err := poolManager.Shutdown(); err != nil {
			logger.Error("error shutting down worker pool", map[string]interface{}{"error": err.Error()})
		}

		logger.Info("shutdown complete")
	}()

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("listening", map[string]interface{}{"address": address})
	if err := e.Start(address); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

// runMissionCleanup periodically sweeps completed mission records older
// than BackgroundTasks.MaxTaskAge, mirroring the teacher's cleanupRoutine
// ticker but driven from the process's own shutdown path instead of an
// internal goroutine owned by the manager.
func runMissionCleanup(ctx context.Context, m *missions.Manager, interval time.Duration, logger logging.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.Cleanup(); removed > 0 {
				logger.Info("mission cleanup swept stale records", map[string]interface{}{"removed": removed})
			}
		}
	}
}
