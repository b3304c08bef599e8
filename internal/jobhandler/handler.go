// Package jobhandler implements the classifier-backed job handler the
// Worker runs against each dequeued payload. The Orchestrator does not use
// this handler; it calls the same classifier and executor itself so it can
// count skipped targets.
package jobhandler

import (
	"context"

	"reaplex/internal/classifier"
	"reaplex/internal/executor"
)

// New returns a handler suitable for worker.Handler: classify the payload,
// skip if classification says so (counts as success), otherwise run it
// through the executor.
func New(exec *executor.ScraperExecutor) func(ctx context.Context, payload map[string]interface{}) error {
	return func(ctx context.Context, payload map[string]interface{}) error {
		result := classifier.Classify(payload)
		if result == classifier.ResultSkip {
			return nil
		}
		return exec.Run(ctx, payload)
	}
}
