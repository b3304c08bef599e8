// Package captcha resolves the anti-bot challenges a BrowserSession may hit
// mid-fetch: reCAPTCHA and Cloudflare Turnstile, handed off to 2CAPTCHA.
package captcha

import (
	"context"
	"fmt"
	"strings"
	"time"

	api2captcha "github.com/2captcha/2captcha-go"
	"github.com/sirupsen/logrus"

	"reaplex/internal/config"
	"reaplex/pkg/utils"
)

// CaptchaSolver resolves a detected challenge into a token ready for
// injection back into the page.
type CaptchaSolver interface {
	SolveRecaptcha(ctx context.Context, siteKey, pageURL string) (string, error)
	SolveTurnstile(ctx context.Context, siteKey, pageURL string) (string, error)
	IsHealthy() bool
}

// TwoCaptchaSolver wraps the official 2CAPTCHA client.
type TwoCaptchaSolver struct {
	cfg    *config.Config
	client *api2captcha.Client
	logger *logrus.Logger
}

// NewTwoCaptchaSolver builds a solver from config.Scraper.Captcha. It is
// safe to construct without an API key — every Solve call then fails fast
// rather than the constructor itself erroring.
func NewTwoCaptchaSolver(cfg *config.Config) *TwoCaptchaSolver {
	logger := utils.GetLogger().WithField("component", "captcha").Logger

	if cfg.Scraper.Captcha.APIKey == "" {
		logger.Warn("2captcha api key not configured, captcha solving disabled")
	}

	client := api2captcha.NewClient(cfg.Scraper.Captcha.APIKey)
	timeoutSeconds := int(cfg.Scraper.Captcha.Timeout.Seconds())
	client.DefaultTimeout = timeoutSeconds
	client.RecaptchaTimeout = timeoutSeconds
	client.PollingInterval = 5

	return &TwoCaptchaSolver{cfg: cfg, client: client, logger: logger}
}

// SolveRecaptcha solves a reCAPTCHA v2 challenge for siteKey on pageURL.
func (s *TwoCaptchaSolver) SolveRecaptcha(ctx context.Context, siteKey, pageURL string) (string, error) {
	if err := s.checkEnabled(); err != nil {
		return "", err
	}

	start := time.Now()
	req := api2captcha.ReCaptcha{SiteKey: siteKey, Url: pageURL}.ToRequest()
	code, _, err := s.client.Solve(req)
	if err != nil {
		return "", fmt.Errorf("solve recaptcha: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"site_key": siteKey, "page_url": pageURL, "elapsed": time.Since(start),
	}).Info("recaptcha solved")
	return code, nil
}

// SolveTurnstile solves a Cloudflare Turnstile challenge for siteKey on
// pageURL.
func (s *TwoCaptchaSolver) SolveTurnstile(ctx context.Context, siteKey, pageURL string) (string, error) {
	if err := s.checkEnabled(); err != nil {
		return "", err
	}

	start := time.Now()
	req := api2captcha.CloudflareTurnstile{SiteKey: siteKey, Url: pageURL}.ToRequest()
	code, captchaID, err := s.client.Solve(req)
	if err != nil {
		return "", fmt.Errorf("solve turnstile (id=%s): %w", captchaID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"site_key": siteKey, "page_url": pageURL, "elapsed": time.Since(start),
	}).Info("turnstile solved")
	return code, nil
}

func (s *TwoCaptchaSolver) checkEnabled() error {
	if !s.cfg.Scraper.Captcha.EnableAutoSolve {
		return fmt.Errorf("captcha auto-solve disabled")
	}
	if s.cfg.Scraper.Captcha.APIKey == "" {
		return fmt.Errorf("2captcha api key not configured")
	}
	return nil
}

// IsHealthy probes the 2CAPTCHA account balance to confirm the API key is
// live.
func (s *TwoCaptchaSolver) IsHealthy() bool {
	if s.cfg.Scraper.Captcha.APIKey == "" {
		return false
	}
	balance, err := s.client.GetBalance()
	if err != nil {
		s.logger.WithError(err).Warn("2captcha balance check failed")
		return false
	}
	return balance >= 0
}

// recaptchaSiteKeyPatterns finds a data-sitekey attribute regardless of
// quoting style or embedding context.
var recaptchaSiteKeyPatterns = []string{
	`data-sitekey="([^"]+)"`,
	`data-sitekey='([^']+)'`,
	`"sitekey"\s*:\s*"([^"]+)"`,
}

// turnstileSiteKeyPatterns covers both the widget-embedded form and the
// iframe-challenge form Cloudflare serves when it escalates past a simple
// Turnstile widget.
var turnstileSiteKeyPatterns = []string{
	`(?:turnstile|cf-turnstile)[^>]*data-sitekey="([^"]+)"`,
	`data-sitekey="([^"]+)"[^>]*(?:turnstile|cf-turnstile)`,
	`window\.turnstile.*?sitekey['"]\s*:\s*['"]([^'"]+)['"]`,
	`turnstile\.render\([^)]*['"]([0-9a-zA-Z_-]{20,})['"]`,
	`challenges\.cloudflare\.com[^"]*/(0x[0-9a-zA-Z_-]+)/`,
	`"(0x[0-9a-zA-Z_-]{20,})"`,
}

var cloudflareChallengeIndicators = []string{
	"cf-challenge",
	"cloudflare",
	"just a moment",
	"please wait while we verify",
	"checking your browser",
	"ddos protection by cloudflare",
	"cf-browser-verification",
	"__cf_chl_jschl_tk__",
	"ray id",
}

// DetectCaptcha inspects rendered page content for a known challenge type.
// The returned site key is prefixed "turnstile:" for Turnstile challenges,
// or is the bare string "cloudflare" for a challenge page with no
// extractable site key.
func DetectCaptcha(pageContent string) (bool, string, error) {
	lower := strings.ToLower(pageContent)

	if strings.Contains(lower, "recaptcha") {
		if key := firstMatch(pageContent, recaptchaSiteKeyPatterns, 0); key != "" {
			return true, key, nil
		}
	}

	if strings.Contains(lower, "turnstile") {
		if key := firstMatch(pageContent, turnstileSiteKeyPatterns, 10); key != "" {
			return true, "turnstile:" + key, nil
		}
	}

	for _, indicator := range cloudflareChallengeIndicators {
		if !strings.Contains(lower, indicator) {
			continue
		}
		if key := firstMatch(pageContent, turnstileSiteKeyPatterns, 10); key != "" {
			return true, "turnstile:" + key, nil
		}
		return true, "cloudflare", nil
	}

	return false, "", nil
}

// IsCloudflareResolved reports whether a page previously flagged as a
// Cloudflare challenge now looks like real content: no challenge markers
// left, and at least a few structural content tags present.
func IsCloudflareResolved(pageContent string) bool {
	lower := strings.ToLower(pageContent)

	for _, indicator := range cloudflareChallengeIndicators {
		if strings.Contains(lower, indicator) {
			return false
		}
	}

	contentTags := []string{"<title>", "<main", "<article", "<section", "<nav", "<footer", "<h1", "<p>"}
	found := 0
	for _, tag := range contentTags {
		if strings.Contains(lower, tag) {
			found++
		}
	}
	return found >= 3
}

// firstMatch walks patterns in order and returns the first capture group
// result longer than minLen characters.
func firstMatch(content string, patterns []string, minLen int) string {
	for _, pattern := range patterns {
		matches := utils.FindRegexMatch(content, pattern)
		if len(matches) <= 1 {
			continue
		}
		key := strings.TrimSpace(matches[1])
		if key != "" && len(key) > minLen {
			return key
		}
	}
	return ""
}
