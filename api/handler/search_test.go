package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/ozonscout/config"
	"github.com/use-agent/ozonscout/models"
)

type fakeSearcher struct {
	results []models.Product
	err     error
	gotURL  string
}

func (f *fakeSearcher) SearchURL(query string) string {
	return "https://www.ozon.ru/search/?text=" + query + "&from_global=true"
}

func (f *fakeSearcher) DoSearch(_ context.Context, searchURL string) ([]models.Product, error) {
	f.gotURL = searchURL
	return f.results, f.err
}

func searchRouter(sc Searcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/search", Search(sc, config.ScraperConfig{ProductOrigin: "https://ozon.ru"}))
	return r
}

func doSearchRequest(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSearch_RewritesProductURLs(t *testing.T) {
	price := "10 RUB"
	sc := &fakeSearcher{results: []models.Product{{
		ProductID:   "555",
		ShortName:   "Soap [555]",
		FullName:    "Soap [555]",
		Description: "d",
		URL:         "/product/soap-555/",
		Price:       &price,
	}}}

	w := doSearchRequest(searchRouter(sc), `{"query":"soap"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "https://www.ozon.ru/search/?text=soap&from_global=true", sc.gotURL)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://ozon.ru/product/555", resp.Results[0].URL)
	assert.Equal(t, "Soap [555]", resp.Results[0].FullName)
}

func TestSearch_EmptyResultSet(t *testing.T) {
	w := doSearchRequest(searchRouter(&fakeSearcher{}), `{"query":"nothing"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Results)
}

func TestSearch_PipelineErrorIsServerFailure(t *testing.T) {
	sc := &fakeSearcher{err: errors.New("NAVIGATION_FAILED: navigation to search page failed")}

	w := doSearchRequest(searchRouter(sc), `{"query":"soap"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "navigation to search page failed")
}

func TestSearch_InvalidBody(t *testing.T) {
	w := doSearchRequest(searchRouter(&fakeSearcher{}), `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doSearchRequest(searchRouter(&fakeSearcher{}), `{"query":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
