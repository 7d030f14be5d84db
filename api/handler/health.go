package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/propscrape/cache"
	"github.com/use-agent/propscrape/models"
	"github.com/use-agent/propscrape/source"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
func Health(cc *cache.Cache[*models.ScrapeResult], startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries := 0
		if cc != nil {
			entries = cc.Len()
		}
		c.JSON(http.StatusOK, models.Envelope{
			Success: true,
			Data: models.HealthResponse{
				Status:       "healthy",
				Uptime:       time.Since(startTime).Round(time.Second).String(),
				Version:      Version,
				Sources:      source.Supported(),
				CacheEntries: entries,
			},
		})
	}
}
