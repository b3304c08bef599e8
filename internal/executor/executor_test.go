package executor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"reaplex/internal/scraper"
	"reaplex/pkg/models"
)

type stubFetcher struct {
	result models.ScrapeResult
	err    error
}

func (s stubFetcher) Fetch(ctx context.Context, url string, opts models.ScrapeOptions) (models.ScrapeResult, error) {
	return s.result, s.err
}

func TestRunWritesRawThenStructuredArtifacts(t *testing.T) {
	dir := t.TempDir()
	static := stubFetcher{result: models.ScrapeResult{URL: "https://x.test", HTML: "<html>hello, a real page with enough content to not look js heavy</html>", Status: 200, ScraperType: "html"}}
	router := scraper.NewRouter(static, stubFetcher{})

	exec := New(router, dir, nil)
	err := exec.Run(context.Background(), map[string]interface{}{"url": "https://x.test", "job_id": "job-1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	rawPath := filepath.Join(dir, "data", "raw", "job-1.html")
	if _, err := os.Stat(rawPath); err != nil {
		t.Fatalf("expected raw artifact written: %v", err)
	}

	structuredPath := filepath.Join(dir, "data", "structured", "job-1.json")
	raw, err := os.ReadFile(structuredPath)
	if err != nil {
		t.Fatalf("expected structured artifact written: %v", err)
	}

	var artifact models.StructuredArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		t.Fatalf("unmarshal structured artifact: %v", err)
	}
	if artifact.ID != "job-1" || artifact.URL != "https://x.test" || artifact.RawFile == "" {
		t.Fatalf("unexpected artifact contents: %+v", artifact)
	}
}

func TestRunRejectsMissingURL(t *testing.T) {
	router := scraper.NewRouter(stubFetcher{}, stubFetcher{})
	exec := New(router, t.TempDir(), nil)

	err := exec.Run(context.Background(), map[string]interface{}{})
	if err == nil {
		t.Fatal("expected error for missing url")
	}
}
