package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/propscrape/models"
	"github.com/use-agent/propscrape/scraper"
	"github.com/use-agent/propscrape/storage"
	"github.com/use-agent/propscrape/webhook"
)

// Batch returns a handler for POST /api/v1/scrape/batch.
//
// The batch runs inside the request. Credits for every URL must be
// available up front but only successful items are charged.
func Batch(sc *scraper.Scraper, ledger Ledger, store storage.Store, notifier *webhook.Notifier, maxURLs int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err.Error())
			return
		}
		if len(req.URLs) > maxURLs {
			respondInvalid(c, fmt.Sprintf("maximum %d URLs per batch", maxURLs))
			return
		}
		for i, u := range req.URLs {
			if strings.TrimSpace(u) == "" {
				respondInvalid(c, fmt.Sprintf("urls[%d] is empty", i))
				return
			}
		}

		if req.WebhookURL != "" && notifier != nil {
			if err := notifier.CheckURL(c.Request.Context(), req.WebhookURL); err != nil {
				respondInvalid(c, "webhook_url: "+err.Error())
				return
			}
		}

		if err := requireCredits(c, ledger, len(req.URLs)); err != nil {
			respondError(c, err)
			return
		}

		id := "batch-" + uuid.NewString()
		start := time.Now()
		results, summary := sc.ScrapeMany(c.Request.Context(), req.URLs, req.Options)

		charged := 0
		if summary.Successful > 0 {
			if err := ledger.Charge(c.Request.Context(), account(c), summary.Successful); err != nil {
				slog.Error("failed to charge batch credits", "id", id, "credits", summary.Successful, "error", err)
			} else {
				charged = summary.Successful
			}
		}

		if store != nil {
			var recs []*storage.Record
			for _, r := range results {
				if rec, err := storage.NewBatchRecord(r, time.Now()); err == nil {
					recs = append(recs, rec)
				}
			}
			if len(recs) > 0 {
				if _, err := store.Save(c.Request.Context(), recs...); err != nil {
					slog.Error("failed to store batch listings", "id", id, "error", err)
				}
			}
		}

		resp := models.BatchResponse{
			ID:             id,
			Results:        results,
			Summary:        summary,
			CreditsCharged: charged,
		}

		slog.Info("batch request finished",
			"id", id,
			"total", summary.Total,
			"successful", summary.Successful,
			"failed", summary.Failed,
			"duration_ms", time.Since(start).Milliseconds(),
		)

		if req.WebhookURL != "" && notifier != nil {
			notifier.DeliverAsync(req.WebhookURL, req.WebhookSecret,
				webhook.NewEvent(webhook.EventBatchCompleted, id, resp))
		}

		c.JSON(http.StatusOK, models.Envelope{Success: true, Data: resp})
	}
}
