package fetchers

import (
	"context"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/sirupsen/logrus"

	"reaplex/internal/config"
	"reaplex/internal/scraper/captcha"
	"reaplex/pkg/apperrors"
	"reaplex/pkg/models"
)

// RodBrowserSession drives a headless-Chromium fetch via go-rod with the
// stealth patch set applied. One browser is launched per Fetch call and
// closed on every exit path, per the router's BrowserSession contract — a
// semaphore sized from config.BrowserPool.MaxInstances bounds how many
// browsers run concurrently without keeping any of them warm between calls.
type RodBrowserSession struct {
	cfg           *config.Config
	captchaSolver captcha.CaptchaSolver
	sem           chan struct{}
	logger        *logrus.Logger
}

// NewRodBrowserSession builds a session-per-fetch browser fetcher.
func NewRodBrowserSession(cfg *config.Config) *RodBrowserSession {
	maxInstances := cfg.BrowserPool.MaxInstances
	if maxInstances <= 0 {
		maxInstances = 1
	}
	return &RodBrowserSession{
		cfg:           cfg,
		captchaSolver: captcha.NewTwoCaptchaSolver(cfg),
		sem:           make(chan struct{}, maxInstances),
		logger:        logrus.StandardLogger(),
	}
}

func (s *RodBrowserSession) Fetch(ctx context.Context, url string, opts models.ScrapeOptions) (models.ScrapeResult, error) {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return models.ScrapeResult{}, apperrors.NewBrowserError(ctx.Err().Error())
	}

	start := time.Now()

	l := launcher.New().
		Headless(s.cfg.Scraper.HeadlessMode).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")
	if s.cfg.Scraper.UserAgent != "" {
		l = l.Set("user-agent", s.cfg.Scraper.UserAgent)
	}

	launchURL, err := l.Launch()
	if err != nil {
		return models.ScrapeResult{}, apperrors.NewBrowserError("launch failed: " + err.Error())
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(launchURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return models.ScrapeResult{}, apperrors.NewBrowserError("connect failed: " + err.Error())
	}
	defer browser.Close()

	timeout := s.cfg.Scraper.RequestTimeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	var page *rod.Page
	if s.cfg.Scraper.StealthMode {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return models.ScrapeResult{}, apperrors.NewBrowserError("page creation failed: " + err.Error())
	}
	defer page.Close()

	page = page.Timeout(timeout)
	if err := page.Navigate(url); err != nil {
		return models.ScrapeResult{}, apperrors.NewBrowserError("navigate failed: " + err.Error())
	}
	if err := page.WaitLoad(); err != nil {
		return models.ScrapeResult{}, apperrors.NewBrowserError("wait for load failed: " + err.Error())
	}

	initialHTML, err := page.HTML()
	if err != nil {
		return models.ScrapeResult{}, apperrors.NewBrowserError("serialize dom failed: " + err.Error())
	}

	if hasCaptcha, siteKey, detectErr := captcha.DetectCaptcha(initialHTML); detectErr == nil && hasCaptcha {
		s.solveCaptcha(ctx, page, url, siteKey)
	}

	html, err := page.HTML()
	if err != nil {
		return models.ScrapeResult{}, apperrors.NewBrowserError("serialize dom failed: " + err.Error())
	}

	return models.ScrapeResult{
		URL:          url,
		HTML:         html,
		Status:       200,
		ScraperType:  "js",
		ResponseTime: time.Since(start).Seconds(),
		Timestamp:    time.Now().UTC(),
	}, nil
}

// solveCaptcha resolves a detected captcha via 2CAPTCHA and injects the
// token into the page's g-recaptcha-response/cf-turnstile-response field.
// Failures are logged, not propagated: a best-effort attempt, since the
// page may render usable content regardless of whether the challenge clears.
func (s *RodBrowserSession) solveCaptcha(ctx context.Context, page *rod.Page, url, siteKey string) {
	var token string
	var err error

	if strings.HasPrefix(siteKey, "turnstile:") {
		token, err = s.captchaSolver.SolveTurnstile(ctx, strings.TrimPrefix(siteKey, "turnstile:"), url)
	} else if siteKey != "cloudflare" {
		token, err = s.captchaSolver.SolveRecaptcha(ctx, siteKey, url)
	}
	if err != nil {
		s.logger.WithFields(logrus.Fields{"url": url, "error": err}).Warn("captcha solve failed")
		return
	}
	if token == "" {
		return
	}

	injectErr := rod.Try(func() {
		page.MustEval(`(tok) => {
			const field = document.getElementById("g-recaptcha-response") || document.querySelector("[name='cf-turnstile-response']");
			if (field) { field.value = tok; field.innerHTML = tok; }
		}`, token)
	})
	if injectErr != nil {
		s.logger.WithFields(logrus.Fields{"url": url, "error": injectErr}).Warn("captcha token injection failed")
	}
}
