package scraper

import (
	"context"
	"net/url"

	"github.com/use-agent/ozonscout/config"
	"github.com/use-agent/ozonscout/models"
)

// Scraper runs product searches against the target site's rendered
// search page. It holds configuration only: every search acquires and
// fully owns its browser session and composer-API client, so concurrent
// searches share no mutable state. The cost is one browser process per
// in-flight search; the payoff is that nothing needs locking.
type Scraper struct {
	browserCfg config.BrowserConfig
	cfg        config.ScraperConfig
}

// New validates the configured DOM selectors and returns a Scraper.
func New(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (*Scraper, error) {
	if err := scraperCfg.ValidateSelectors(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "selector validation failed", err)
	}
	return &Scraper{browserCfg: browserCfg, cfg: scraperCfg}, nil
}

// SearchURL builds the search results URL for a query.
func (s *Scraper) SearchURL(query string) string {
	return s.cfg.URLBase + "/search/?text=" + url.QueryEscape(query) + "&from_global=true"
}

// DoSearch runs one full search pipeline and returns the extracted
// product records in DOM order.
//
// Resource lifecycle: the browser session and the composer-API client
// are acquired here and released (in reverse order, best-effort per
// layer) before the outcome is returned, on every exit path.
func (s *Scraper) DoSearch(ctx context.Context, searchURL string) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SearchTimeout)
	defer cancel()

	sess, err := newSession(s.browserCfg, s.cfg)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	details := newDetailClient(s.browserCfg.Proxy, s.cfg)
	defer details.Close()

	return runSearch(ctx, sess, details, s.cfg, searchURL)
}
