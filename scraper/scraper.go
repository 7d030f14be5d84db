// Package scraper runs the listing pipeline: resolve the source, fetch the
// page, extract the fields and validate them.
package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/propscrape/config"
	"github.com/use-agent/propscrape/engine"
	"github.com/use-agent/propscrape/extractor"
	"github.com/use-agent/propscrape/models"
	"github.com/use-agent/propscrape/simhash"
	"github.com/use-agent/propscrape/source"
	"github.com/use-agent/propscrape/validator"
)

// Options configures a Scraper.
type Options struct {
	// Validation holds the defaults each request's options are merged onto.
	Validation validator.Options

	// AllowGeneric lets URLs from unknown sites through with the generic
	// strategy instead of rejecting them as unsupported.
	AllowGeneric bool

	// DriftThreshold is the layout distance logged as a markup change.
	// 0 disables drift tracking.
	DriftThreshold int

	// Delay is the pause between batch items (per host with Workers > 1).
	Delay time.Duration

	// Workers > 1 runs batches on a bounded worker pool.
	Workers int
}

// OptionsFromConfig builds Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	v := cfg.Validation
	return Options{
		Validation: validator.Options{
			StrictMode:       v.StrictMode,
			AllowPartialData: v.AllowPartialData,
			AutoCorrect:      v.AutoCorrect,
			MinPrice:         v.MinPrice,
			MaxPrice:         v.MaxPrice,
			CurrencyPrefix:   v.CurrencyPrefix,
		},
		AllowGeneric:   cfg.Batch.AllowGeneric,
		DriftThreshold: cfg.Extractor.DriftThreshold,
		Delay:          cfg.Batch.Delay,
		Workers:        cfg.Batch.Workers,
	}
}

// Scraper composes the pipeline stages. It is safe for concurrent use.
type Scraper struct {
	engine    engine.Engine
	extractor *extractor.Extractor
	opts      Options
	tracker   *simhash.Tracker

	// sleep waits between sequential batch items; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Scraper fetching with eng and extracting with ext.
func New(eng engine.Engine, ext *extractor.Extractor, opts Options) *Scraper {
	s := &Scraper{
		engine:    eng,
		extractor: ext,
		opts:      opts,
		sleep:     sleepCtx,
	}
	if opts.DriftThreshold > 0 {
		s.tracker = simhash.NewTracker(opts.DriftThreshold)
	}
	return s
}

// Scrape runs the pipeline for one URL. Unsupported URLs, fetch failures
// and unparseable pages are returned as *models.ScrapeError; validation
// problems are reported in the result's Report.
func (s *Scraper) Scrape(ctx context.Context, rawURL string, opts models.ScrapeOptions) (*models.ScrapeResult, error) {
	totalStart := time.Now()

	src := source.Resolve(rawURL)
	if !source.IsFetchableURL(rawURL) || (src == models.SourceGeneric && !s.opts.AllowGeneric) {
		return nil, models.NewScrapeError(models.ErrCodeUnsupportedURL,
			"url is not a supported listing page: "+rawURL, nil)
	}

	fetchStart := time.Now()
	doc, err := s.engine.Fetch(ctx, rawURL)
	fetchMs := time.Since(fetchStart).Milliseconds()
	if err != nil {
		slog.Warn("fetch failed", "url", rawURL, "engine", s.engine.Name(), "error", err)
		return nil, err
	}

	extractStart := time.Now()
	listing, err := s.extractor.ExtractDocument(doc, src)
	extractMs := time.Since(extractStart).Milliseconds()
	if err != nil {
		return nil, err
	}
	if id, ok := source.ExtractListingID(rawURL); ok {
		listing.ListingID = id
	} else if id, ok := source.ExtractListingID(doc.FinalURL); ok && listing.ListingID == "" {
		listing.ListingID = id
	}

	validateStart := time.Now()
	report := validator.Validate(listing, s.opts.Validation.Merge(opts))
	validationMs := time.Since(validateStart).Milliseconds()

	fp := simhash.FingerprintLayout(doc.HTML)
	s.observeLayout(src, rawURL, fp)

	result := &models.ScrapeResult{
		URL:         rawURL,
		FinalURL:    doc.FinalURL,
		StatusCode:  doc.StatusCode,
		Source:      src,
		ListingID:   listing.ListingID,
		Listing:     listing,
		Report:      report,
		Fingerprint: simhash.Hex(fp),
		Timing: models.TimingInfo{
			TotalMs:      time.Since(totalStart).Milliseconds(),
			FetchMs:      fetchMs,
			ExtractMs:    extractMs,
			ValidationMs: validationMs,
		},
	}

	slog.Info("listing scraped",
		"url", rawURL,
		"source", src,
		"listing_id", listing.ListingID,
		"valid", report.IsValid,
		"errors", len(report.Errors),
		"warnings", len(report.Warnings),
		"total_ms", result.Timing.TotalMs,
	)
	return result, nil
}

// observeLayout logs when a page's markup moved away from the first page
// seen for its source, which usually means the selector tables need work.
func (s *Scraper) observeLayout(src models.ListingSource, rawURL string, fp uint64) {
	if s.tracker == nil {
		return
	}
	if distance, drifted := s.tracker.Observe(string(src), fp); drifted {
		slog.Warn("listing layout drifted",
			"source", src,
			"url", rawURL,
			"distance", distance,
			"threshold", s.opts.DriftThreshold,
		)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
