package scraper

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"reaplex/pkg/models"
)

var jsIndicators = []string{
	"need to enable javascript",
	"javascript is required",
	"please enable javascript",
	"browser doesn't support javascript",
	"you need to enable javascript to run this app",
}

var spaRootMarkers = []string{`id="root"`, `id="app"`, `id="__next"`}

// Router decides which fetcher handles a URL: static HTTP first, browser
// fallback on a JS-shell heuristic or a transport failure. It adds no
// retries of its own — at most one HTTP attempt and one browser attempt
// per call, grounded on the original router.py's ScraperRouter.route.
// An optional Firecrawl fetcher bypasses that choice entirely when the
// caller explicitly asks for it via ScrapeOptions.Engine.
type Router struct {
	Static    HttpFetcher
	Browser   BrowserSession
	Firecrawl HttpFetcher
	logger    *logrus.Logger
}

// NewRouter wires a Router over the given fetcher pair. Firecrawl support
// is attached separately with WithFirecrawl since it is optional and may
// fail to construct (missing API key).
func NewRouter(static HttpFetcher, browser BrowserSession) *Router {
	return &Router{Static: static, Browser: browser, logger: logrus.StandardLogger()}
}

// WithFirecrawl attaches an alternate fetcher selected when
// ScrapeOptions.Engine == "firecrawl". Ignored if fc is nil.
func (r *Router) WithFirecrawl(fc HttpFetcher) *Router {
	if fc != nil {
		r.Firecrawl = fc
	}
	return r
}

// Route selects a fetch strategy and returns its result.
func (r *Router) Route(ctx context.Context, url string, forceJS bool, opts models.ScrapeOptions) (models.ScrapeResult, error) {
	if opts.Engine == "firecrawl" && r.Firecrawl != nil {
		r.logger.WithField("url", url).Info("router: firecrawl engine requested")
		return r.Firecrawl.Fetch(ctx, url, opts)
	}

	if forceJS {
		r.logger.WithField("url", url).Info("router: force_js requested")
		return r.Browser.Fetch(ctx, url, opts)
	}

	result, err := r.Static.Fetch(ctx, url, opts)
	if err != nil {
		r.logger.WithFields(logrus.Fields{"url": url, "error": err}).
			Warn("router: html fetch failed, falling back to browser")
		return r.Browser.Fetch(ctx, url, opts)
	}

	if looksJSHeavy(result.HTML) {
		r.logger.WithField("url", url).Info("router: detected JS-heavy content, falling back to browser")
		return r.Browser.Fetch(ctx, url, opts)
	}

	return result, nil
}

// looksJSHeavy analyzes HTML for signs it is an empty single-page-app
// shell that needs client-side rendering to produce real content.
func looksJSHeavy(html string) bool {
	if html == "" {
		return true
	}

	lower := strings.ToLower(html)

	for _, indicator := range jsIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}

	if len(html) < 2000 {
		for _, marker := range spaRootMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}

	return false
}
