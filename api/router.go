package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/propscrape/api/handler"
	"github.com/use-agent/propscrape/api/middleware"
	"github.com/use-agent/propscrape/cache"
	"github.com/use-agent/propscrape/config"
	"github.com/use-agent/propscrape/models"
	"github.com/use-agent/propscrape/scraper"
	"github.com/use-agent/propscrape/storage"
	"github.com/use-agent/propscrape/validator"
	"github.com/use-agent/propscrape/webhook"
)

// Services are the collaborators the handlers need. Cache, Store and
// Notifier may be nil; Ledger defaults to handler.UnlimitedLedger.
type Services struct {
	Scraper    *scraper.Scraper
	Cache      *cache.Cache[*models.ScrapeResult]
	Ledger     handler.Ledger
	Store      storage.Store
	Notifier   *webhook.Notifier
	Validation validator.Options
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(cfg *config.Config, svc Services, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	if svc.Ledger == nil {
		svc.Ledger = handler.UnlimitedLedger{}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(svc.Cache, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/scrape", handler.Scrape(svc.Scraper, svc.Cache, svc.Ledger, svc.Store))
	protected.POST("/scrape/batch", handler.Batch(svc.Scraper, svc.Ledger, svc.Store, svc.Notifier, cfg.Batch.MaxURLs))
	protected.POST("/urls/check", handler.CheckURL())
	protected.POST("/validate", handler.Validate(svc.Validation))

	return r
}
