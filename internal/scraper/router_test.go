package scraper

import (
	"context"
	"errors"
	"testing"

	"reaplex/pkg/models"
)

type stubFetcher struct {
	result models.ScrapeResult
	err    error
	calls  int
}

func (s *stubFetcher) Fetch(ctx context.Context, url string, opts models.ScrapeOptions) (models.ScrapeResult, error) {
	s.calls++
	return s.result, s.err
}

func TestRouteReturnsHTMLWithoutBrowserOnStaticPage(t *testing.T) {
	static := &stubFetcher{result: models.ScrapeResult{URL: "https://x.test", HTML: "<html><body>hello world, a perfectly normal page</body></html>", ScraperType: "html"}}
	browser := &stubFetcher{}

	router := NewRouter(static, browser)
	result, err := router.Route(context.Background(), "https://x.test", false, models.ScrapeOptions{})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if browser.calls != 0 {
		t.Fatalf("expected browser not to be invoked, called %d times", browser.calls)
	}
	if result.ScraperType != "html" {
		t.Fatalf("expected html scraper_type, got %q", result.ScraperType)
	}
}

func TestRouteFallsBackToBrowserOnJSShell(t *testing.T) {
	static := &stubFetcher{result: models.ScrapeResult{URL: "https://x.test", HTML: `<html><body><div id="root"></div></body></html>`}}
	browser := &stubFetcher{result: models.ScrapeResult{URL: "https://x.test", HTML: "<html>rendered</html>", ScraperType: "js"}}

	router := NewRouter(static, browser)
	result, err := router.Route(context.Background(), "https://x.test", false, models.ScrapeOptions{})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if browser.calls != 1 {
		t.Fatalf("expected browser to be invoked once, got %d", browser.calls)
	}
	if result.ScraperType != "js" {
		t.Fatalf("expected js scraper_type, got %q", result.ScraperType)
	}
}

func TestRouteFallsBackToBrowserOnTransportError(t *testing.T) {
	static := &stubFetcher{err: errors.New("connection reset")}
	browser := &stubFetcher{result: models.ScrapeResult{ScraperType: "js"}}

	router := NewRouter(static, browser)
	_, err := router.Route(context.Background(), "https://x.test", false, models.ScrapeOptions{})
	if err != nil {
		t.Fatalf("expected browser fallback to succeed, got %v", err)
	}
	if browser.calls != 1 {
		t.Fatalf("expected browser invoked once, got %d", browser.calls)
	}
}

func TestRouteForceJSSkipsStatic(t *testing.T) {
	static := &stubFetcher{result: models.ScrapeResult{HTML: "plenty of real content here, definitely not a shell at all"}}
	browser := &stubFetcher{result: models.ScrapeResult{ScraperType: "js"}}

	router := NewRouter(static, browser)
	_, err := router.Route(context.Background(), "https://x.test", true, models.ScrapeOptions{})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if static.calls != 0 {
		t.Fatalf("expected static fetcher not invoked under force_js, got %d calls", static.calls)
	}
	if browser.calls != 1 {
		t.Fatalf("expected browser invoked once, got %d", browser.calls)
	}
}

func TestLooksJSHeavyEmptyBody(t *testing.T) {
	if !looksJSHeavy("") {
		t.Fatal("expected empty body to look js-heavy")
	}
}

func TestRouteUsesFirecrawlWhenEngineRequested(t *testing.T) {
	static := &stubFetcher{result: models.ScrapeResult{HTML: "plenty of real content here, definitely not a shell at all"}}
	browser := &stubFetcher{}
	firecrawl := &stubFetcher{result: models.ScrapeResult{ScraperType: "firecrawl"}}

	router := NewRouter(static, browser).WithFirecrawl(firecrawl)
	result, err := router.Route(context.Background(), "https://x.test", false, models.ScrapeOptions{Engine: "firecrawl"})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if firecrawl.calls != 1 {
		t.Fatalf("expected firecrawl invoked once, got %d", firecrawl.calls)
	}
	if static.calls != 0 || browser.calls != 0 {
		t.Fatalf("expected static and browser not invoked, got static=%d browser=%d", static.calls, browser.calls)
	}
	if result.ScraperType != "firecrawl" {
		t.Fatalf("expected firecrawl scraper_type, got %q", result.ScraperType)
	}
}

func TestRouteIgnoresFirecrawlEngineWhenNotAttached(t *testing.T) {
	static := &stubFetcher{result: models.ScrapeResult{HTML: "plenty of real content here, definitely not a shell at all"}}
	browser := &stubFetcher{}

	router := NewRouter(static, browser)
	_, err := router.Route(context.Background(), "https://x.test", false, models.ScrapeOptions{Engine: "firecrawl"})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if static.calls != 1 {
		t.Fatalf("expected static fetcher used as fallback, got %d calls", static.calls)
	}
}
