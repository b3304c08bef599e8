// Package fetchers ships the concrete HttpFetcher and BrowserSession
// implementations the scraper router selects between.
package fetchers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"reaplex/internal/config"
	"reaplex/pkg/apperrors"
	"reaplex/pkg/models"
)

// StealthHTTPFetcher is a net/http-based static fetcher. It owns its own
// header set to keep a coherent fingerprint; caller-supplied headers are
// logged and discarded, per the router's stealth invariant.
type StealthHTTPFetcher struct {
	client    *http.Client
	userAgent string
	logger    *logrus.Logger
}

// NewStealthHTTPFetcher builds a fetcher using config.Scraper's user agent
// and timeout defaults.
func NewStealthHTTPFetcher(cfg *config.Config) *StealthHTTPFetcher {
	return &StealthHTTPFetcher{
		client:    &http.Client{Timeout: cfg.Scraper.RequestTimeout},
		userAgent: cfg.Scraper.UserAgent,
		logger:    logrus.StandardLogger(),
	}
}

func (f *StealthHTTPFetcher) Fetch(ctx context.Context, url string, opts models.ScrapeOptions) (models.ScrapeResult, error) {
	if len(opts.Headers) > 0 {
		f.logger.WithField("url", url).Warn("stealth fetcher: ignoring caller-supplied headers to preserve fingerprint")
	}

	timeout := f.client.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return models.ScrapeResult{}, apperrors.NewTransportError(err.Error())
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return models.ScrapeResult{}, apperrors.NewTransportError(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ScrapeResult{}, apperrors.NewTransportError(err.Error())
	}

	if resp.StatusCode >= 400 {
		return models.ScrapeResult{}, apperrors.NewTransportError(
			http.StatusText(resp.StatusCode))
	}

	return models.ScrapeResult{
		URL:          url,
		HTML:         string(body),
		Status:       resp.StatusCode,
		ScraperType:  "html",
		ResponseTime: time.Since(start).Seconds(),
		Timestamp:    time.Now().UTC(),
	}, nil
}
