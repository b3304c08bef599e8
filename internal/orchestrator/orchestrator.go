// Package orchestrator implements the thin mission driver: plan, discover,
// archive, classify-and-execute. It bypasses the Queue entirely — per
// spec.md §4.7 the Queue/Worker pair is the alternative long-lived-service
// consumption path. Both paths use the same classifier and executor; the
// Orchestrator calls them directly and does not go through
// internal/jobhandler.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"reaplex/internal/classifier"
	"reaplex/internal/executor"
	"reaplex/pkg/models"
)

const discoveredURLsDir = "data/discovered_urls"

// Orchestrator drives a single mission end to end.
type Orchestrator struct {
	planner   Planner
	extractor LinkExtractor
	executor  *executor.ScraperExecutor
	dataDir   string
	logger    *logrus.Logger
}

// New builds an Orchestrator. dataDir is the root discovered-URL archives
// are written under.
func New(planner Planner, extractor LinkExtractor, exec *executor.ScraperExecutor, dataDir string) *Orchestrator {
	if dataDir == "" {
		dataDir = "."
	}
	return &Orchestrator{planner: planner, extractor: extractor, executor: exec, dataDir: dataDir, logger: logrus.StandardLogger()}
}

// Run executes one mission for the given natural-language goal and returns
// its outcome summary.
func (o *Orchestrator) Run(ctx context.Context, mission string) (models.MissionSummary, error) {
	summary := models.MissionSummary{Mission: mission}

	if o.planner == nil {
		return summary, fmt.Errorf("planning mission: no planner configured")
	}

	plan, err := o.planner.Plan(ctx, mission)
	if err != nil {
		return summary, fmt.Errorf("planning mission: %w", err)
	}

	o.logger.WithFields(logrus.Fields{
		"mission": mission,
		"queries": plan.SearchQueries,
	}).Info("mission plan obtained")

	urls := o.discover(ctx, plan.SearchQueries)
	if err := o.archive(mission, plan.SearchQueries, urls); err != nil {
		o.logger.WithError(err).Warn("failed to archive discovered urls")
	}

	for _, u := range urls {
		payload := map[string]interface{}{"url": u, "force_js": plan.ForceJS}

		result := classifier.Classify(payload)
		if result == classifier.ResultSkip {
			summary.Skipped++
			continue
		}

		if err := o.executor.Run(ctx, payload); err != nil {
			o.logger.WithError(err).WithField("url", u).Warn("mission target failed")
			summary.Failed++
			continue
		}
		summary.Successful++
	}

	return summary, nil
}

// discover obtains candidate URLs per query and unions them, deduplicated.
func (o *Orchestrator) discover(ctx context.Context, queries []string) []string {
	seen := make(map[string]bool)
	var union []string

	for _, q := range queries {
		urls, err := o.extractor.Extract(ctx, q)
		if err != nil {
			o.logger.WithError(err).WithField("query", q).Warn("link extraction failed")
			continue
		}
		for _, u := range urls {
			if seen[u] {
				continue
			}
			seen[u] = true
			union = append(union, u)
		}
	}

	return union
}

func (o *Orchestrator) archive(mission string, queries, urls []string) error {
	record := models.DiscoveredURLs{
		Mission:       mission,
		SearchQueries: queries,
		DiscoveredAt:  time.Now().UTC(),
		TotalURLs:     len(urls),
		URLs:          urls,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal discovered urls: %w", err)
	}

	dir := filepath.Join(o.dataDir, discoveredURLsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	name := fmt.Sprintf("urls_%s.json", record.DiscoveredAt.Format("20060102_150405"))
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}
