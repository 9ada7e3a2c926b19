package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/ozonscout/config"
	"github.com/use-agent/ozonscout/models"
)

// Searcher runs one product search against the rendered results page.
type Searcher interface {
	SearchURL(query string) string
	DoSearch(ctx context.Context, searchURL string) ([]models.Product, error)
}

// Search returns a handler for POST /api/v1/search.
//
// The handler is a thin facade: it builds the search URL, runs the
// pipeline, and rewrites each record's relative href into an absolute
// product URL. Any pipeline error comes back as a plain 500 with the
// error's text; per-card failures never reach this layer.
func Search(sc Searcher, cfg config.ScraperConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: err.Error()})
			return
		}

		results, err := sc.DoSearch(c.Request.Context(), sc.SearchURL(req.Query))
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Detail: fmt.Sprintf("An error occurred: %v", err),
			})
			return
		}

		out := make([]models.Product, len(results))
		for i, p := range results {
			p.URL = cfg.ProductOrigin + "/product/" + p.ProductID
			out[i] = p
		}
		c.JSON(http.StatusOK, models.SearchResponse{Results: out})
	}
}
