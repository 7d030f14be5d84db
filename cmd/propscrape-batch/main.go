// Command propscrape-batch scrapes a list of listing URLs in-process and
// prints a summary table. URLs come from the arguments or from -file, one
// per line.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/use-agent/propscrape/config"
	"github.com/use-agent/propscrape/engine"
	"github.com/use-agent/propscrape/extractor"
	"github.com/use-agent/propscrape/models"
	"github.com/use-agent/propscrape/scraper"
)

// CLI flags
var (
	urlFile      = flag.String("file", "", "File with one listing URL per line ('-' for stdin)")
	output       = flag.String("output", "", "Write the full JSON report to this path")
	strict       = flag.Bool("strict", false, "Also require price, bedrooms and bathrooms")
	partial      = flag.Bool("partial", true, "Accept listings with missing core fields")
	autoCorrect  = flag.Bool("autocorrect", true, "Rewrite values into canonical form")
	delay        = flag.Duration("delay", 0, "Pause between requests (default from PROPSCRAPE_BATCH_DELAY)")
	workers      = flag.Int("workers", 0, "Worker count; >1 paces per host (default from PROPSCRAPE_BATCH_WORKERS)")
	allowGeneric = flag.Bool("allow-generic", false, "Scrape unknown sites with generic selectors")
)

type report struct {
	Timestamp string               `json:"timestamp"`
	Summary   models.BatchSummary  `json:"summary"`
	Results   []models.BatchResult `json:"results"`
}

func main() {
	flag.Parse()

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	urls, err := readURLs(*urlFile, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: propscrape-batch [flags] URL... (or -file urls.txt)")
		flag.PrintDefaults()
		os.Exit(2)
	}

	format, err := extractor.ParseFormat(cfg.Extractor.DescriptionFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	var overrides extractor.Overrides
	if cfg.Extractor.SelectorsFile != "" {
		if overrides, err = extractor.LoadOverrides(cfg.Extractor.SelectorsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	ext, err := extractor.New(extractor.Options{Overrides: overrides, DescriptionFormat: format, MaxImages: cfg.Extractor.MaxImages})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := scraper.OptionsFromConfig(cfg)
	if *delay > 0 {
		opts.Delay = *delay
	}
	if *workers > 0 {
		opts.Workers = *workers
	}
	opts.AllowGeneric = opts.AllowGeneric || *allowGeneric
	sc := scraper.New(engine.NewHTTPEngine(cfg.Fetcher), ext, opts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Scraping %d URL(s), delay %s, workers %d\n\n", len(urls), opts.Delay, max(opts.Workers, 1))
	results, summary := sc.ScrapeMany(ctx, urls, models.ScrapeOptions{
		StrictMode:       strict,
		AllowPartialData: partial,
		AutoCorrect:      autoCorrect,
	})

	printTable(os.Stdout, results)
	fmt.Printf("\nTotal: %d  Successful: %d  Failed: %d\n", summary.Total, summary.Successful, summary.Failed)

	if *output != "" {
		rep := report{Timestamp: time.Now().UTC().Format(time.RFC3339), Summary: summary, Results: results}
		if err := writeJSON(*output, rep); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Detailed results written to %s\n", *output)
	}
}

// readURLs merges args with the lines of path. Blank lines and lines
// starting with '#' are skipped.
func readURLs(path string, args []string) ([]string, error) {
	urls := append([]string{}, args...)
	if path == "" {
		return urls, nil
	}

	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

func printTable(out io.Writer, results []models.BatchResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tStatus\tListing ID\tPrice\tNotes\n")
	fmt.Fprintf(w, "───\t──────\t──────────\t─────\t─────\n")

	for _, r := range results {
		if !r.Success {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t%s\n", truncateURL(r.URL, 60), r.ErrorCode, r.Error)
			continue
		}
		notes := "-"
		if n := len(r.Report.Warnings); n > 0 {
			notes = fmt.Sprintf("%d warning(s)", n)
		}
		fmt.Fprintf(w, "%s\tOK\t%s\t%s\t%s\n", truncateURL(r.URL, 60), r.Listing.ListingID, r.Listing.Price, notes)
	}
	w.Flush()
}

func truncateURL(u string, n int) string {
	if len(u) <= n {
		return u
	}
	return u[:n-3] + "..."
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
