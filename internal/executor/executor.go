// Package executor adapts a job payload into a scraper-router invocation
// and persists its result to the canonical artifact layout.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"reaplex/internal/config"
	"reaplex/internal/scraper"
	"reaplex/pkg/apperrors"
	"reaplex/pkg/models"
	"reaplex/pkg/objectstore"
)

const (
	rawDir        = "data/raw"
	structuredDir = "data/structured"
)

// ScraperExecutor is the job-payload adapter: validate url, derive a job
// id, route the fetch, and write raw HTML then structured JSON artifacts.
// Raw is written first, deliberately — a structured file on disk implies
// the raw file exists, never the reverse.
type ScraperExecutor struct {
	router  *scraper.Router
	dataDir string
	mirror  objectstore.Store
	logger  *logrus.Logger
}

// New builds a ScraperExecutor over the given router. dataDir is the root
// the raw/ and structured/ artifact trees are written under; mirror may be
// nil to disable the optional DigitalOcean Spaces copy.
func New(router *scraper.Router, dataDir string, mirror objectstore.Store) *ScraperExecutor {
	if dataDir == "" {
		dataDir = "."
	}
	return &ScraperExecutor{router: router, dataDir: dataDir, mirror: mirror, logger: logrus.StandardLogger()}
}

// NewFromConfig is a convenience constructor wiring the data directory from
// config, defaulting to the working directory.
func NewFromConfig(cfg *config.Config, router *scraper.Router, mirror objectstore.Store) *ScraperExecutor {
	return New(router, cfg.Server.DataDir, mirror)
}

// Run executes one job payload end to end: validate, route, persist.
func (e *ScraperExecutor) Run(ctx context.Context, payload map[string]interface{}) error {
	url, _ := payload["url"].(string)
	if url == "" {
		return apperrors.NewInvalidPayloadError("payload missing required field: url")
	}

	jobID := stringField(payload, "job_id")
	if jobID == "" {
		jobID = stringField(payload, "id")
	}
	if jobID == "" {
		jobID = uuid.New().String()
	}

	forceJS, _ := payload["force_js"].(bool)
	opts := models.ScrapeOptions{Headers: headersField(payload), Engine: stringField(payload, "engine")}
	if t, ok := payload["timeout"].(float64); ok && t > 0 {
		opts.Timeout = time.Duration(t) * time.Second
	}

	result, err := e.router.Route(ctx, url, forceJS, opts)
	if err != nil {
		return err
	}

	rawRelPath := filepath.Join(rawDir, jobID+".html")
	if err := e.writeArtifact(rawRelPath, []byte(result.HTML)); err != nil {
		return apperrors.NewStoreError("writing raw artifact: " + err.Error())
	}

	artifact := models.StructuredArtifact{
		ID:           jobID,
		URL:          result.URL,
		ScraperType:  result.ScraperType,
		Status:       result.Status,
		ResponseTime: result.ResponseTime,
		Timestamp:    result.Timestamp.Format(time.RFC3339),
		RawFile:      rawRelPath,
	}
	structuredRelPath := filepath.Join(structuredDir, jobID+".json")
	structuredJSON, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return apperrors.NewStoreError("marshaling structured artifact: " + err.Error())
	}
	if err := e.writeArtifact(structuredRelPath, structuredJSON); err != nil {
		return apperrors.NewStoreError("writing structured artifact: " + err.Error())
	}

	if e.mirror != nil {
		if mErr := e.mirror.Put(ctx, rawRelPath, []byte(result.HTML)); mErr != nil {
			e.logger.WithError(mErr).WithField("job_id", jobID).Warn("artifact mirror failed for raw file")
		}
		if mErr := e.mirror.Put(ctx, structuredRelPath, structuredJSON); mErr != nil {
			e.logger.WithError(mErr).WithField("job_id", jobID).Warn("artifact mirror failed for structured file")
		}
	}

	return nil
}

func (e *ScraperExecutor) writeArtifact(relPath string, data []byte) error {
	fullPath := filepath.Join(e.dataDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	return os.WriteFile(fullPath, data, 0o644)
}

func stringField(payload map[string]interface{}, key string) string {
	v, _ := payload[key].(string)
	return v
}

func headersField(payload map[string]interface{}) map[string]string {
	raw, ok := payload["headers"].(map[string]interface{})
	if !ok {
		return nil
	}
	headers := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			headers[k] = s
		}
	}
	return headers
}
