package scraper

import (
	"context"
	"log/slog"
	"sync"

	"github.com/use-agent/propscrape/models"
)

// ScrapeMany runs the pipeline for every URL and returns one result per URL
// in input order plus the summary. A failing URL never stops the batch.
// An item succeeds only when the pipeline finished and the listing passed
// validation.
func (s *Scraper) ScrapeMany(ctx context.Context, urls []string, opts models.ScrapeOptions) ([]models.BatchResult, models.BatchSummary) {
	results := make([]models.BatchResult, len(urls))

	if s.opts.Workers > 1 && len(urls) > 1 {
		s.runPool(ctx, urls, opts, results)
	} else {
		s.runSequential(ctx, urls, opts, results)
	}

	summary := models.BatchSummary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	slog.Info("batch finished",
		"total", summary.Total,
		"successful", summary.Successful,
		"failed", summary.Failed,
	)
	return results, summary
}

func (s *Scraper) runSequential(ctx context.Context, urls []string, opts models.ScrapeOptions, results []models.BatchResult) {
	for i, u := range urls {
		if i > 0 {
			if err := s.sleep(ctx, s.opts.Delay); err != nil {
				cancelRemaining(results[i:], urls[i:])
				return
			}
		}
		if ctx.Err() != nil {
			cancelRemaining(results[i:], urls[i:])
			return
		}
		results[i] = s.scrapeOne(ctx, u, opts)
	}
}

// runPool spreads the batch over a bounded set of workers. The pacer keeps
// at most one request in flight per host, spaced by the configured delay.
func (s *Scraper) runPool(ctx context.Context, urls []string, opts models.ScrapeOptions, results []models.BatchResult) {
	workers := s.opts.Workers
	if workers > len(urls) {
		workers = len(urls)
	}
	p := newPacer(s.opts.Delay)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				release, err := p.acquire(ctx, urls[i])
				if err != nil {
					results[i] = cancelledResult(urls[i])
					continue
				}
				results[i] = s.scrapeOne(ctx, urls[i], opts)
				release()
			}
		}()
	}
	for i := range urls {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

func (s *Scraper) scrapeOne(ctx context.Context, rawURL string, opts models.ScrapeOptions) models.BatchResult {
	res, err := s.Scrape(ctx, rawURL, opts)
	if err != nil {
		se := models.AsScrapeError(err)
		slog.Warn("batch item failed", "url", rawURL, "code", se.Code, "error", err)
		return models.BatchResult{
			URL:       rawURL,
			Error:     se.Message,
			ErrorCode: se.Code,
		}
	}

	if !res.Report.IsValid {
		msg := "listing failed validation"
		if len(res.Report.Errors) > 0 {
			msg = res.Report.Errors[0]
		}
		return models.BatchResult{
			URL:       rawURL,
			Source:    res.Source,
			Listing:   res.Listing,
			Report:    res.Report,
			Error:     msg,
			ErrorCode: models.ErrCodeValidation,
		}
	}

	return models.BatchResult{
		URL:     rawURL,
		Success: true,
		Source:  res.Source,
		Listing: res.Report.SanitizedData,
		Report:  res.Report,
	}
}

func cancelledResult(rawURL string) models.BatchResult {
	return models.BatchResult{
		URL:       rawURL,
		Error:     "batch cancelled before this url was processed",
		ErrorCode: models.ErrCodeFetch,
	}
}

func cancelRemaining(results []models.BatchResult, urls []string) {
	for i, u := range urls {
		results[i] = cancelledResult(u)
	}
}
