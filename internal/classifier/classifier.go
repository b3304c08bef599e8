// Package classifier is a pure, side-effect-free pre-filter that decides
// whether a URL is worth scraping at all and which fetch strategy it
// hints at, before a job ever reaches the router.
package classifier

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Result is the classifier's verdict.
type Result string

const (
	ResultHTML    Result = "html"
	ResultBrowser Result = "browser"
	ResultSkip    Result = "skip"
)

var skipExtensions = []string{".pdf", ".jpg", ".jpeg", ".png", ".gif", ".zip", ".exe"}

var browserDomains = []string{
	"twitter.com",
	"instagram.com",
	"facebook.com",
	"tiktok.com",
	"youtube.com",
}

// Classify evaluates the five ordered rules against a job payload. It never
// mutates its input and never performs I/O.
func Classify(payload map[string]interface{}) Result {
	url, _ := payload["url"].(string)
	if url == "" {
		logrus.StandardLogger().Warn("classifier: payload missing url, skipping")
		return ResultSkip
	}

	urlLower := strings.ToLower(url)

	if renderJS, ok := payload["render_js"].(bool); ok && renderJS {
		return ResultBrowser
	}

	for _, ext := range skipExtensions {
		if strings.HasSuffix(urlLower, ext) {
			return ResultSkip
		}
	}

	for _, domain := range browserDomains {
		if strings.Contains(urlLower, domain) {
			return ResultBrowser
		}
	}

	return ResultHTML
}
