package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/use-agent/propscrape/models"
)

func TestReadURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "# listings\nhttps://www.property24.com/a/1\n\n  https://www.remax.co.za/b/2  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := readURLs(path, []string{"https://arg.example/3"})
	if err != nil {
		t.Fatalf("readURLs: %v", err)
	}
	want := []string{"https://arg.example/3", "https://www.property24.com/a/1", "https://www.remax.co.za/b/2"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("readURLs = %q, want %q", got, want)
	}

	if _, err := readURLs(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestPrintTable(t *testing.T) {
	l := models.NewExtractedListing()
	l.ListingID = "114567890"
	l.Price = "R 1,200,000"

	var buf bytes.Buffer
	printTable(&buf, []models.BatchResult{
		{URL: "https://www.property24.com/x/114567890", Success: true, Listing: l, Report: &models.ValidationReport{Warnings: []string{"no valid images found"}}},
		{URL: "https://www.property24.com/y/1", ErrorCode: models.ErrCodeFetch, Error: "upstream returned 404"},
	})

	out := buf.String()
	for _, want := range []string{"114567890", "R 1,200,000", "1 warning(s)", "FETCH_FAILED", "upstream returned 404"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestTruncateURL(t *testing.T) {
	if got := truncateURL("https://example.com/abcdef", 15); got != "https://exam..." {
		t.Errorf("truncateURL = %q", got)
	}
	if got := truncateURL("short", 15); got != "short" {
		t.Errorf("truncateURL = %q", got)
	}
}
