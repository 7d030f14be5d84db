package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/propscrape/api"
	"github.com/use-agent/propscrape/cache"
	"github.com/use-agent/propscrape/config"
	"github.com/use-agent/propscrape/engine"
	"github.com/use-agent/propscrape/extractor"
	"github.com/use-agent/propscrape/models"
	"github.com/use-agent/propscrape/scraper"
	"github.com/use-agent/propscrape/storage"
	"github.com/use-agent/propscrape/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("propscrape starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"relay", cfg.Fetcher.RelayURL != "",
		"workers", cfg.Batch.Workers,
	)

	// ── 3. Build the pipeline ───────────────────────────────────────
	ext, err := newExtractor(cfg.Extractor)
	if err != nil {
		slog.Error("failed to initialise extractor", "error", err)
		os.Exit(1)
	}
	eng := engine.NewHTTPEngine(cfg.Fetcher)
	scOpts := scraper.OptionsFromConfig(cfg)
	sc := scraper.New(eng, ext, scOpts)

	// ── 4. Cache, storage, webhooks ─────────────────────────────────
	cc := cache.New[*models.ScrapeResult](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	defer cc.Stop()

	var store storage.Store
	if cfg.Storage.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		pg, err := storage.OpenPostgres(ctx, cfg.Storage.DatabaseURL, cfg.Storage.MaxConns)
		cancel()
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
		slog.Info("listing storage enabled", "max_conns", cfg.Storage.MaxConns)
	}

	notifier := webhook.NewNotifier(nil, nil)
	notifier.AllowPrivate = cfg.Webhook.AllowPrivate

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(cfg, api.Services{
		Scraper:    sc,
		Cache:      cc,
		Store:      store,
		Notifier:   notifier,
		Validation: scOpts.Validation,
	}, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Batches run inside the request, so allow one full batch to finish.
	grace := 5*time.Second + time.Duration(cfg.Batch.MaxURLs)*(cfg.Batch.Delay+cfg.Fetcher.Timeout)
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	waitWebhooks(notifier, 10*time.Second)
	slog.Info("propscrape stopped")
}

func newExtractor(cfg config.ExtractorConfig) (*extractor.Extractor, error) {
	format, err := extractor.ParseFormat(cfg.DescriptionFormat)
	if err != nil {
		return nil, err
	}
	var overrides extractor.Overrides
	if cfg.SelectorsFile != "" {
		if overrides, err = extractor.LoadOverrides(cfg.SelectorsFile); err != nil {
			return nil, err
		}
		slog.Info("selector overrides loaded", "file", cfg.SelectorsFile, "sources", len(overrides))
	}
	return extractor.New(extractor.Options{
		Overrides:         overrides,
		DescriptionFormat: format,
		MaxImages:         cfg.MaxImages,
	})
}

// waitWebhooks gives pending webhook deliveries up to d to finish.
func waitWebhooks(n *webhook.Notifier, d time.Duration) {
	done := make(chan struct{})
	go func() {
		n.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		slog.Warn("webhook deliveries still pending at shutdown")
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
