package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/propscrape/cache"
	"github.com/use-agent/propscrape/models"
	"github.com/use-agent/propscrape/scraper"
	"github.com/use-agent/propscrape/storage"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Flow:
//  1. Bind the request.
//  2. Serve a cached result when max_age allows (not charged).
//  3. Check the caller has a credit, then run the pipeline.
//  4. Invalid listings answer 422 with the report; valid ones are charged,
//     cached and stored.
func Scrape(sc *scraper.Scraper, cc *cache.Cache[*models.ScrapeResult], ledger Ledger, store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err.Error())
			return
		}

		maxAge := time.Duration(req.MaxAge) * time.Millisecond
		cacheKey := cache.Key(req.URL, req.ScrapeOptions)
		if cc != nil {
			if cached, hit := cc.Get(cacheKey, maxAge); hit {
				res := *cached
				res.CacheStatus = "hit"
				c.JSON(http.StatusOK, models.Envelope{Success: true, Data: &res, Warnings: res.Report.Warnings})
				return
			}
		}

		if err := requireCredits(c, ledger, 1); err != nil {
			respondError(c, err)
			return
		}

		res, err := sc.Scrape(c.Request.Context(), req.URL, req.ScrapeOptions)
		if err != nil {
			respondError(c, err)
			return
		}

		if !res.Report.IsValid {
			c.JSON(http.StatusUnprocessableEntity, models.Envelope{
				Success: false,
				Data:    res,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeValidation,
					Message: res.Report.Errors[0],
				},
				Warnings: res.Report.Warnings,
			})
			return
		}

		if err := ledger.Charge(c.Request.Context(), account(c), 1); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInternal, "could not charge credits", err))
			return
		}

		if cc != nil && maxAge > 0 {
			res.CacheStatus = "miss"
			cc.Set(cacheKey, res)
		}
		persist(c.Request.Context(), store, res)

		c.JSON(http.StatusOK, models.Envelope{Success: true, Data: res, Warnings: res.Report.Warnings})
	}
}

// persist stores a valid result. Storage problems are logged, never
// returned to the caller.
func persist(ctx context.Context, store storage.Store, res *models.ScrapeResult) {
	if store == nil {
		return
	}
	rec, err := storage.NewRecord(res, time.Now())
	if err != nil {
		return
	}
	if _, err := store.Save(ctx, rec); err != nil {
		slog.Error("failed to store listing", "url", res.URL, "listing_id", res.ListingID, "error", err)
	}
}
