package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/ozonscout/config"
	"github.com/use-agent/ozonscout/models"
)

// Payload from a regular (non-gated) product page.
const normalPayload = `{"seo":{"title":"Soap [555]","script":[{"innerHTML":"{\"description\":\"d\",\"image\":\"i\",\"offers\":{\"price\":\"10\",\"priceCurrency\":\"RUB\"},\"sku\":\"555\"}"}]},"layout":[{"component":"other"}]}`

const gatedPayload = `{"seo":{"title":"Restricted Item [999]"},"layout":[{"component":"userAdultModal"}]}`

func TestParseComposerPayload_Normal(t *testing.T) {
	view, err := parseComposerPayload([]byte(normalPayload))
	require.NoError(t, err)

	assert.False(t, view.Gated)
	assert.Equal(t, "Soap [555]", view.Title)
	assert.Equal(t, "555", view.ID)
	assert.Equal(t, "d", view.Description)
	assert.Equal(t, "i", view.Image)
	assert.Equal(t, "10", view.Price)
	assert.Equal(t, "RUB", view.Currency)
}

func TestParseComposerPayload_Gated(t *testing.T) {
	view, err := parseComposerPayload([]byte(gatedPayload))
	require.NoError(t, err)

	assert.True(t, view.Gated)
	assert.Equal(t, "Restricted Item [999]", view.Title)
}

func TestParseComposerPayload_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"seo":`},
		{"missing title", `{"seo":{},"layout":[{"component":"other"}]}`},
		{"missing layout", `{"seo":{"title":"Soap [555]"}}`},
		{"empty layout", `{"seo":{"title":"Soap [555]"},"layout":[]}`},
		{"missing script", `{"seo":{"title":"Soap [555]"},"layout":[{"component":"other"}]}`},
		{"malformed inner schema", `{"seo":{"title":"T","script":[{"innerHTML":"{"}]},"layout":[{"component":"other"}]}`},
		{"schema missing sku", `{"seo":{"title":"T","script":[{"innerHTML":"{\"description\":\"d\",\"image\":\"i\",\"offers\":{\"price\":\"10\",\"priceCurrency\":\"RUB\"}}"}]},"layout":[{"component":"other"}]}`},
		{"schema missing description", `{"seo":{"title":"T","script":[{"innerHTML":"{\"image\":\"i\",\"offers\":{\"price\":\"10\",\"priceCurrency\":\"RUB\"},\"sku\":\"1\"}"}]},"layout":[{"component":"other"}]}`},
		{"schema missing offers", `{"seo":{"title":"T","script":[{"innerHTML":"{\"description\":\"d\",\"image\":\"i\",\"sku\":\"1\"}"}]},"layout":[{"component":"other"}]}`},
		{"schema missing currency", `{"seo":{"title":"T","script":[{"innerHTML":"{\"description\":\"d\",\"image\":\"i\",\"offers\":{\"price\":\"10\"},\"sku\":\"1\"}"}]},"layout":[{"component":"other"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseComposerPayload([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.ErrCodeDetailParse), "want parse error, got %v", err)
		})
	}
}

func testDetailClient(apiBase string) *detailClient {
	return newDetailClient("", config.ScraperConfig{
		APIBase:       apiBase,
		DetailTimeout: 5 * time.Second,
	})
}

func TestFetchProduct_ComposesEndpointAndParses(t *testing.T) {
	var gotURL string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(normalPayload))
	}))
	defer ts.Close()

	c := testDetailClient(ts.URL + "/api/composer-api.bx/page/json/v2?url=")
	defer c.Close()

	view, err := c.FetchProduct(context.Background(), "/product/soap-555/")
	require.NoError(t, err)

	// The relative href rides the query string verbatim.
	assert.Equal(t, "/api/composer-api.bx/page/json/v2?url=/product/soap-555/", gotURL)
	assert.Equal(t, "555", view.ID)
}

func TestFetchProduct_HTTPErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := testDetailClient(ts.URL + "/api?url=")
	defer c.Close()

	_, err := c.FetchProduct(context.Background(), "/product/x/")
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.ErrCodeDetailFetch))
}

func TestFetchProduct_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := ts.URL + "/api?url="
	ts.Close()

	c := testDetailClient(base)
	defer c.Close()

	_, err := c.FetchProduct(context.Background(), "/product/x/")
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.ErrCodeDetailFetch))
}

func TestFetchProduct_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer ts.Close()

	c := testDetailClient(ts.URL + "/api?url=")
	defer c.Close()

	_, err := c.FetchProduct(context.Background(), "/product/x/")
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.ErrCodeDetailParse))
}
