package orchestrator

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"reaplex/internal/scraper"
	"reaplex/pkg/models"
)

// LinkExtractor turns a search query into a set of candidate result URLs.
type LinkExtractor interface {
	Extract(ctx context.Context, query string) ([]string, error)
}

// GoqueryLinkExtractor fetches a search-results page through an HttpFetcher
// and walks its anchor tags with goquery, grounded in the teacher's DOM
// traversal style in engines/headed/rod.go.
type GoqueryLinkExtractor struct {
	fetcher   scraper.HttpFetcher
	searchURL string
	logger    *logrus.Logger
}

// NewGoqueryLinkExtractor builds an extractor that issues queries against
// searchURLTemplate, a format string with a single %s for the URL-escaped
// query (e.g. "https://www.bing.com/search?q=%s").
func NewGoqueryLinkExtractor(fetcher scraper.HttpFetcher, searchURLTemplate string) *GoqueryLinkExtractor {
	return &GoqueryLinkExtractor{fetcher: fetcher, searchURL: searchURLTemplate, logger: logrus.StandardLogger()}
}

// Extract fetches the search-results page for query and returns the
// deduplicated, absolute result URLs found on it.
func (e *GoqueryLinkExtractor) Extract(ctx context.Context, query string) ([]string, error) {
	target := fmt.Sprintf(e.searchURL, url.QueryEscape(query))

	result, err := e.fetcher.Fetch(ctx, target, models.ScrapeOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetching search results for %q: %w", query, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML))
	if err != nil {
		return nil, fmt.Errorf("parsing search results for %q: %w", query, err)
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		absolute, ok := resolveResultURL(target, href)
		if !ok || seen[absolute] {
			return
		}
		seen[absolute] = true
		links = append(links, absolute)
	})

	e.logger.WithFields(logrus.Fields{"query": query, "found": len(links)}).Info("link extraction complete")
	return links, nil
}

func resolveResultURL(base, href string) (string, bool) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	resolved := baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}
