// Package scraper implements the fetch-strategy router: a cheap-first
// selector between a static HTTP fetcher and a scripted browser session.
package scraper

import (
	"context"

	"reaplex/pkg/models"
)

// HttpFetcher performs a single static HTTP fetch. Implementations own
// their header set to preserve a coherent TLS/HTTP fingerprint — caller
// headers are a hint, not a mandate.
type HttpFetcher interface {
	Fetch(ctx context.Context, url string, opts models.ScrapeOptions) (models.ScrapeResult, error)
}

// BrowserSession performs a single scripted-browser fetch: navigate,
// wait for load, serialize the DOM. Scoped to one call; closed on every
// exit path by the implementation.
type BrowserSession interface {
	Fetch(ctx context.Context, url string, opts models.ScrapeOptions) (models.ScrapeResult, error)
}
