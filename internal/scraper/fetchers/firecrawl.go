package fetchers

import (
	"context"
	"time"

	"github.com/mendableai/firecrawl-go"
	"github.com/sirupsen/logrus"

	"reaplex/internal/config"
	"reaplex/pkg/apperrors"
	"reaplex/pkg/models"
)

// FirecrawlFetcher is an alternate HttpFetcher backed by the hosted
// Firecrawl scrape API, selectable via ScrapeOptions.Engine == "firecrawl".
type FirecrawlFetcher struct {
	cfg    *config.Config
	app    *firecrawl.FirecrawlApp
	logger *logrus.Logger
}

// NewFirecrawlFetcher builds a fetcher over the configured Firecrawl app.
func NewFirecrawlFetcher(cfg *config.Config) (*FirecrawlFetcher, error) {
	app, err := firecrawl.NewFirecrawlApp(cfg.Firecrawl.APIKey, cfg.Firecrawl.APIURL)
	if err != nil {
		return nil, apperrors.NewTransportError("firecrawl init failed: " + err.Error())
	}
	return &FirecrawlFetcher{cfg: cfg, app: app, logger: logrus.StandardLogger()}, nil
}

func (f *FirecrawlFetcher) Fetch(ctx context.Context, url string, opts models.ScrapeOptions) (models.ScrapeResult, error) {
	params := &firecrawl.ScrapeParams{Formats: f.cfg.Firecrawl.Formats}

	start := time.Now()
	var doc *firecrawl.FirecrawlDocument
	var err error

	maxRetries := f.cfg.Firecrawl.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	for attempt := 1; attempt <= maxRetries; attempt++ {
		doc, err = f.app.ScrapeURL(url, params)
		if err == nil {
			break
		}
		f.logger.WithFields(logrus.Fields{"url": url, "attempt": attempt, "error": err}).Warn("firecrawl scrape attempt failed")
		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}
	if err != nil {
		return models.ScrapeResult{}, apperrors.NewTransportError("firecrawl: " + err.Error())
	}
	if doc == nil {
		return models.ScrapeResult{}, apperrors.NewTransportError("firecrawl returned no document")
	}

	html := doc.HTML
	if html == "" {
		html = doc.RawHTML
	}

	return models.ScrapeResult{
		URL:          url,
		HTML:         html,
		Status:       200,
		ScraperType:  "html",
		ResponseTime: time.Since(start).Seconds(),
		Timestamp:    time.Now().UTC(),
	}, nil
}
