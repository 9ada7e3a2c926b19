package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Browser BrowserConfig
	Scraper ScraperConfig
	Log     LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8000
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance launched per search.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy URL used by both the browser and the
	// composer-API client.
	Proxy string

	// Stealth injects anti-bot-detection JS before navigation.
	Stealth bool // default: true

	// ViewportWidth and ViewportHeight set the page viewport.
	ViewportWidth  int // default: 1920
	ViewportHeight int // default: 1080
}

// ScraperConfig controls pipeline behavior. The defaults mirror the
// values the target site was tuned against; all of them are overridable
// because the markup and timing are brittle by nature.
type ScraperConfig struct {
	// URLBase is the site origin used to build search URLs.
	URLBase string // default: "https://www.ozon.ru"

	// APIBase is the composer-API endpoint prefix; the card's relative
	// href is appended verbatim.
	APIBase string

	// ProductOrigin is the origin used when rewriting product URLs in
	// API responses.
	ProductOrigin string // default: "https://ozon.ru"

	// SettleDelay is the pause between first navigation and the forced
	// reload, letting client-side rendering begin.
	SettleDelay time.Duration // default: 1s

	// IdleWindow is the quiet period that counts as network idle.
	IdleWindow time.Duration // default: 300ms

	// ScrollDepth, ScrollStep and ScrollDelay drive the fixed scroll
	// sequence that triggers lazy-loaded cards.
	ScrollDepth int           // default: 5
	ScrollStep  int           // default: 250 (pixels)
	ScrollDelay time.Duration // default: 500ms

	// CardLimit caps how many cards are extracted per search.
	CardLimit int // default: 15

	// SearchTimeout is the deadline for one whole pipeline run.
	SearchTimeout time.Duration // default: 120s

	// DetailTimeout is the deadline for one composer-API fetch.
	DetailTimeout time.Duration // default: 30s

	// DOM selectors. Anchored on the search result widget's current
	// class names; they break when the upstream markup changes.
	CardSelector     string // default: ".widget-search-result-container > div > div"
	CardLinkSelector string // default: "a"
	CardNameSelector string // default: "span.tsBody500Medium"
	CardPriceSelect  string // default: `[class*="tsHeadline500Medium"]`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("OZONSCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("OZONSCOUT_PORT", 8000),
			Mode: envOr("OZONSCOUT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("OZONSCOUT_HEADLESS", true),
			NoSandbox:      envBoolOr("OZONSCOUT_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("OZONSCOUT_BROWSER_BIN"),
			Proxy:          os.Getenv("OZONSCOUT_PROXY"),
			Stealth:        envBoolOr("OZONSCOUT_STEALTH", true),
			ViewportWidth:  envIntOr("OZONSCOUT_VIEWPORT_WIDTH", 1920),
			ViewportHeight: envIntOr("OZONSCOUT_VIEWPORT_HEIGHT", 1080),
		},
		Scraper: ScraperConfig{
			URLBase:          envOr("OZONSCOUT_URL_BASE", "https://www.ozon.ru"),
			APIBase:          envOr("OZONSCOUT_API_BASE", "https://www.ozon.ru/api/composer-api.bx/page/json/v2?url="),
			ProductOrigin:    envOr("OZONSCOUT_PRODUCT_ORIGIN", "https://ozon.ru"),
			SettleDelay:      envDurationOr("OZONSCOUT_SETTLE_DELAY", time.Second),
			IdleWindow:       envDurationOr("OZONSCOUT_IDLE_WINDOW", 300*time.Millisecond),
			ScrollDepth:      envIntOr("OZONSCOUT_SCROLL_DEPTH", 5),
			ScrollStep:       envIntOr("OZONSCOUT_SCROLL_STEP", 250),
			ScrollDelay:      envDurationOr("OZONSCOUT_SCROLL_DELAY", 500*time.Millisecond),
			CardLimit:        envIntOr("OZONSCOUT_CARD_LIMIT", 15),
			SearchTimeout:    envDurationOr("OZONSCOUT_SEARCH_TIMEOUT", 120*time.Second),
			DetailTimeout:    envDurationOr("OZONSCOUT_DETAIL_TIMEOUT", 30*time.Second),
			CardSelector:     envOr("OZONSCOUT_CARD_SELECTOR", ".widget-search-result-container > div > div"),
			CardLinkSelector: envOr("OZONSCOUT_CARD_LINK_SELECTOR", "a"),
			CardNameSelector: envOr("OZONSCOUT_CARD_NAME_SELECTOR", "span.tsBody500Medium"),
			CardPriceSelect:  envOr("OZONSCOUT_CARD_PRICE_SELECTOR", `[class*="tsHeadline500Medium"]`),
		},
		Log: LogConfig{
			Level:  envOr("OZONSCOUT_LOG_LEVEL", "info"),
			Format: envOr("OZONSCOUT_LOG_FORMAT", "json"),
		},
	}
}

// ValidateSelectors compiles every configured DOM selector so that a bad
// override fails at startup instead of midway through a search.
func (c ScraperConfig) ValidateSelectors() error {
	selectors := map[string]string{
		"card":       c.CardSelector,
		"card link":  c.CardLinkSelector,
		"card name":  c.CardNameSelector,
		"card price": c.CardPriceSelect,
	}
	for name, sel := range selectors {
		if strings.TrimSpace(sel) == "" {
			return fmt.Errorf("config: %s selector is empty", name)
		}
		if _, err := cascadia.Parse(sel); err != nil {
			return fmt.Errorf("config: invalid %s selector %q: %w", name, sel, err)
		}
	}
	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
