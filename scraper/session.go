package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/ozonscout/config"
	"github.com/use-agent/ozonscout/models"
)

// driver is the rendering surface the pipeline runs against. The rod
// session implements it; tests substitute a fake.
type driver interface {
	Open(ctx context.Context, url string) error
	Settle(ctx context.Context) error
	Scroll(ctx context.Context, depth, step int, delay time.Duration) error
	Cards(ctx context.Context, selector string) ([]Card, error)
}

// Card is one search-result card element.
type Card interface {
	// Find returns the first descendant matching the selector, or
	// (nil, nil) when nothing matches. A non-nil error means the DOM
	// driver itself failed.
	Find(selector string) (Node, error)
}

// Node is a single DOM element inside a card.
type Node interface {
	// Attr returns the attribute value, or nil when the attribute is
	// not present on the element.
	Attr(name string) (*string, error)
	Text() (string, error)
}

// session owns the browser-level resources for one search: the Chrome
// process (launcher), the CDP connection (browser), an isolated
// incognito context, and the page. Acquisition is layered; Close
// releases every layer that was acquired, innermost first, regardless
// of earlier release failures.
type session struct {
	launch  *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page

	idleWindow time.Duration
}

// newSession launches a browser and prepares a page with the configured
// viewport, stealth script and region headers. On any failure it tears
// down the layers acquired so far before returning.
func newSession(browserCfg config.BrowserConfig, cfg config.ScraperConfig) (*session, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.Proxy != "" {
		l = l.Proxy(browserCfg.Proxy)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}

	s := &session{launch: l, idleWindow: cfg.IdleWindow}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		s.Close()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}
	s.browser = browser

	// Isolated context: no cookies or storage bleed between searches
	// even if a browser process were ever reused.
	incognito, err := browser.Incognito()
	if err != nil {
		s.Close()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to create incognito context", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}
	s.page = page

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             browserCfg.ViewportWidth,
		Height:            browserCfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		s.Close()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to set viewport", err)
	}

	// Stealth JS and headers only take effect for navigations that
	// happen after they are installed.
	if browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "ru-RU,ru;q=0.9,en;q=0.8",
		}),
	}.Call(page)

	return s, nil
}

// Close releases page, browser connection and browser process, in that
// order. Each layer is attempted independently; failures are logged,
// never propagated.
func (s *session) Close() {
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			slog.Warn("session: page close failed", "error", err)
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			slog.Warn("session: browser close failed", "error", err)
		}
	}
	if s.launch != nil {
		s.launch.Kill()
		s.launch.Cleanup()
	}
}

// Open navigates to the search URL.
func (s *session) Open(ctx context.Context, url string) error {
	if err := s.page.Context(ctx).Navigate(url); err != nil {
		return models.NewScrapeError(models.ErrCodeNavigation, "navigation to search page failed", err)
	}
	return nil
}

// Settle forces a reload and blocks until the network has been idle for
// the configured window. A bare navigation completion is not enough:
// the search page renders its cards client-side after load.
//
// The idle waiter is registered BEFORE the reload is issued.
// WaitRequestIdle installs a CDP listener; installing it after the
// reload would miss in-flight requests and report idle instantly.
func (s *session) Settle(ctx context.Context) error {
	p := s.page.Context(ctx)
	wait := p.WaitRequestIdle(s.idleWindow, nil, nil, nil)
	if err := p.Reload(); err != nil {
		return models.NewScrapeError(models.ErrCodeNavigation, "forced reload failed", err)
	}
	wait()
	return ctx.Err()
}

// Scroll runs the fixed scroll sequence that triggers lazy-loaded
// cards: depth steps of step pixels with a pause after each. The count
// is deterministic, not content-aware.
func (s *session) Scroll(ctx context.Context, depth, step int, delay time.Duration) error {
	p := s.page.Context(ctx)
	for i := 0; i < depth; i++ {
		if err := p.Mouse.Scroll(0, float64(step), 1); err != nil {
			return fmt.Errorf("scroll step %d failed: %w", i, err)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Cards returns the card elements currently in the DOM, in DOM order.
func (s *session) Cards(ctx context.Context, selector string) ([]Card, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("card query %q failed: %w", selector, err)
	}
	cards := make([]Card, len(els))
	for i, el := range els {
		cards[i] = rodCard{el: el}
	}
	return cards, nil
}

// rodCard adapts a rod element to the Card abstraction.
type rodCard struct {
	el *rod.Element
}

func (c rodCard) Find(selector string) (Node, error) {
	els, err := c.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, nil
	}
	return rodNode{el: els.First()}, nil
}

type rodNode struct {
	el *rod.Element
}

func (n rodNode) Attr(name string) (*string, error) {
	return n.el.Attribute(name)
}

func (n rodNode) Text() (string, error) {
	return n.el.Text()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders
// type (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
