package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	utls "github.com/refraction-networking/utls"

	"github.com/use-agent/ozonscout/config"
	"github.com/use-agent/ozonscout/models"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

const (
	adultContentMarker      = "userAdultModal"
	adultContentDescription = "Товар для лиц старше 18 лет"
)

// detailFetcher retrieves the composer-API payload for one product.
type detailFetcher interface {
	FetchProduct(ctx context.Context, relativeHref string) (*ProductView, error)
}

// ProductView is the typed intermediate parsed from one composer-API
// payload. For gated items only Title and ID are meaningful; the
// reconciler synthesizes the rest.
type ProductView struct {
	Title string
	Gated bool

	ID          string
	Description string
	Image       string
	Price       string
	Currency    string
}

// detailClient fetches product JSON from the composer API. It presents
// a Chrome TLS fingerprint (utls) so its requests blend in with the
// browser traffic the site expects. The underlying connections are
// reused across cards within one search and released by Close.
type detailClient struct {
	client  *http.Client
	apiBase string
}

// newDetailClient builds a client for the configured composer endpoint.
// proxy, if non-empty, is applied to HTTP(S) proxying.
func newDetailClient(proxy string, cfg config.ScraperConfig) *detailClient {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr)
		},
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &detailClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.DetailTimeout,
		},
		apiBase: cfg.APIBase,
	}
}

// Close releases the pooled connections held for the search.
func (c *detailClient) Close() {
	c.client.CloseIdleConnections()
}

// FetchProduct GETs the composer payload for the card's relative href
// and parses it into a ProductView.
//
// The href is appended to the endpoint verbatim, unescaped — the same
// way the site's own frontend composes the call. Transport and status
// failures are DETAIL_FETCH_FAILED; payload shape problems are
// DETAIL_PARSE_FAILED. Both are recoverable per card: the caller
// downgrades to a sentinel record instead of failing the batch.
func (c *detailClient) FetchProduct(ctx context.Context, relativeHref string) (*ProductView, error) {
	endpoint := c.apiBase + relativeHref

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeDetailFetch, "build composer request", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeDetailFetch, "composer request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, models.NewScrapeError(models.ErrCodeDetailFetch,
			fmt.Sprintf("composer returned HTTP %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024)) // 10 MB cap
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeDetailFetch, "read composer response", err)
	}

	return parseComposerPayload(body)
}

// composerPayload is the outer shape of the composer-API response.
type composerPayload struct {
	SEO struct {
		Title  string `json:"title"`
		Script []struct {
			InnerHTML string `json:"innerHTML"`
		} `json:"script"`
	} `json:"seo"`
	Layout []struct {
		Component string `json:"component"`
	} `json:"layout"`
}

// productSchema is the product JSON embedded in seo.script[0].innerHTML.
// Pointer fields distinguish "absent" from "empty": every one of them
// is required, and a missing field fails the parse.
type productSchema struct {
	Description *string `json:"description"`
	Image       *string `json:"image"`
	SKU         *string `json:"sku"`
	Offers      *struct {
		Price         *string `json:"price"`
		PriceCurrency *string `json:"priceCurrency"`
	} `json:"offers"`
}

// parseComposerPayload interprets the two payload shapes the composer
// API serves: the adult-content interstitial, which yields only a
// title, and the normal shape with a nested product JSON blob.
func parseComposerPayload(body []byte) (*ProductView, error) {
	var payload composerPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeDetailParse, "malformed composer JSON", err)
	}

	title := payload.SEO.Title
	if title == "" {
		return nil, models.NewScrapeError(models.ErrCodeDetailParse, "missing seo.title", nil)
	}
	if len(payload.Layout) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeDetailParse, "missing layout", nil)
	}

	if payload.Layout[0].Component == adultContentMarker {
		// The id is derived from the title's trailing token; a title
		// with no tokens has nothing to derive from.
		if len(strings.Fields(title)) == 0 {
			return nil, models.NewScrapeError(models.ErrCodeDetailParse, "gated item title has no tokens", nil)
		}
		return &ProductView{Title: title, Gated: true}, nil
	}

	if len(payload.SEO.Script) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeDetailParse, "missing seo.script", nil)
	}

	var schema productSchema
	if err := json.Unmarshal([]byte(payload.SEO.Script[0].InnerHTML), &schema); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeDetailParse, "malformed product schema JSON", err)
	}
	switch {
	case schema.Description == nil:
		return nil, models.NewScrapeError(models.ErrCodeDetailParse, "product schema missing description", nil)
	case schema.Image == nil:
		return nil, models.NewScrapeError(models.ErrCodeDetailParse, "product schema missing image", nil)
	case schema.Offers == nil || schema.Offers.Price == nil || schema.Offers.PriceCurrency == nil:
		return nil, models.NewScrapeError(models.ErrCodeDetailParse, "product schema missing offers", nil)
	case schema.SKU == nil:
		return nil, models.NewScrapeError(models.ErrCodeDetailParse, "product schema missing sku", nil)
	}

	return &ProductView{
		Title:       title,
		ID:          *schema.SKU,
		Description: *schema.Description,
		Image:       *schema.Image,
		Price:       *schema.Offers.Price,
		Currency:    *schema.Offers.PriceCurrency,
	}, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint
// via utls.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := utls.UClient(rawConn, &utls.Config{
		ServerName: host,
	}, utls.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
