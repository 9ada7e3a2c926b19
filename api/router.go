package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/ozonscout/api/handler"
	"github.com/use-agent/ozonscout/config"
)

// NewRouter creates a configured Gin engine with all routes.
//
// The health endpoint stays open so monitoring probes always work.
func NewRouter(sc handler.Searcher, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(startTime))
	v1.POST("/search", handler.Search(sc, cfg.Scraper))

	return r
}
