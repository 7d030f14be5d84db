package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/propscrape/models"
)

// envelope is models.Envelope with the payload left raw.
type envelope struct {
	Success  bool                `json:"success"`
	Data     json.RawMessage     `json:"data"`
	Error    *models.ErrorDetail `json:"error"`
	Warnings []string            `json:"warnings"`
}

func main() {
	apiURL := os.Getenv("PROPSCRAPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("PROPSCRAPE_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "PROPSCRAPE_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"propscrape",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeListingTool := mcp.NewTool("scrape_listing",
		mcp.WithDescription("Scrape one South African property listing (Property24, Private Property or RE/MAX) and return the extracted fields with the validation report. Costs one credit when the listing is valid."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The listing page URL"),
		),
		mcp.WithBoolean("strict_mode",
			mcp.Description("Also require price, bedrooms and bathrooms (default: false)"),
		),
		mcp.WithBoolean("allow_partial_data",
			mcp.Description("Accept listings missing core fields (default: true)"),
		),
		mcp.WithBoolean("auto_correct",
			mcp.Description("Rewrite values into canonical form (default: true)"),
		),
	)
	s.AddTool(scrapeListingTool, handleScrapeListing(apiURL, apiKey))

	scrapeListingsTool := mcp.NewTool("scrape_listings",
		mcp.WithDescription("Scrape up to 10 listing URLs one after another. Failed URLs do not stop the batch; only valid listings are charged."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("Listing page URLs (max 10)"),
		),
		mcp.WithBoolean("strict_mode",
			mcp.Description("Also require price, bedrooms and bathrooms (default: false)"),
		),
	)
	s.AddTool(scrapeListingsTool, handleScrapeListings(apiURL, apiKey))

	checkURLTool := mcp.NewTool("check_listing_url",
		mcp.WithDescription("Check whether a URL is a supported listing page and extract its listing ID without fetching it. Free."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL to check"),
		),
	)
	s.AddTool(checkURLTool, handleCheckURL(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the API and decodes the envelope.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) (*envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}
	return &env, nil
}

// boolArgs copies the named boolean arguments the caller actually set.
func boolArgs(request mcp.CallToolRequest, dst map[string]any, names ...string) {
	args := request.GetArguments()
	for _, n := range names {
		if v, ok := args[n].(bool); ok {
			dst[n] = v
		}
	}
}

func errorText(env *envelope, fallback string) string {
	if env.Error != nil {
		return fmt.Sprintf("[%s] %s", env.Error.Code, env.Error.Message)
	}
	return fallback
}

func handleScrapeListing(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := map[string]any{"url": url}
		boolArgs(request, payload, "strict_mode", "allow_partial_data", "auto_correct")

		env, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var res models.ScrapeResult
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &res); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to parse result: %v", err)), nil
			}
		}
		if !env.Success && res.Report == nil {
			return mcp.NewToolResultError(errorText(env, "scrape failed")), nil
		}
		return mcp.NewToolResultText(formatResult(&res)), nil
	}
}

func handleScrapeListings(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		opts := map[string]any{}
		boolArgs(request, opts, "strict_mode")

		env, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape/batch", map[string]any{
			"urls":    urls,
			"options": opts,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !env.Success {
			return mcp.NewToolResultError(errorText(env, "batch failed")), nil
		}

		var resp models.BatchResponse
		if err := json.Unmarshal(env.Data, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch response: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Batch %s: %d/%d successful, %d credit(s) charged\n\n",
			resp.ID, resp.Summary.Successful, resp.Summary.Total, resp.CreditsCharged)
		for i, r := range resp.Results {
			if !r.Success {
				fmt.Fprintf(&sb, "--- [%d] FAILED %s: [%s] %s ---\n\n", i+1, r.URL, r.ErrorCode, r.Error)
				continue
			}
			fmt.Fprintf(&sb, "--- [%d] %s ---\n%s\n", i+1, r.URL, formatListing(r.Listing))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleCheckURL(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 10 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		env, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/urls/check", map[string]string{"url": url})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !env.Success {
			return mcp.NewToolResultError(errorText(env, "check failed")), nil
		}

		var resp models.URLCheckResponse
		if err := json.Unmarshal(env.Data, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		id := resp.ListingID
		if id == "" {
			id = "(none)"
		}
		return mcp.NewToolResultText(fmt.Sprintf("Supported: %t\nSource: %s\nListing ID: %s", resp.Supported, resp.Source, id)), nil
	}
}

// formatResult renders a scrape result with its validation outcome.
func formatResult(res *models.ScrapeResult) string {
	var sb strings.Builder
	rep := res.Report
	fmt.Fprintf(&sb, "Source: %s\nURL: %s\nValid: %t\n", res.Source, res.URL, rep.IsValid)
	for _, e := range rep.Errors {
		fmt.Fprintf(&sb, "Error: %s\n", e)
	}
	for _, w := range rep.Warnings {
		fmt.Fprintf(&sb, "Warning: %s\n", w)
	}
	sb.WriteString("\n")

	l := rep.SanitizedData
	if l == nil {
		l = res.Listing
	}
	sb.WriteString(formatListing(l))
	return sb.String()
}

// formatListing prints the non-empty fields of l, one per line.
func formatListing(l *models.ExtractedListing) string {
	if l == nil {
		return ""
	}
	var sb strings.Builder
	for _, f := range []struct{ label, value string }{
		{"Title", l.Title},
		{"Listing ID", l.ListingID},
		{"Price", l.Price},
		{"Address", l.Address},
		{"Suburb", l.Suburb},
		{"City", l.City},
		{"Province", l.Province},
		{"Type", l.PropertyType},
		{"Bedrooms", l.Bedrooms},
		{"Bathrooms", l.Bathrooms},
		{"Garages", l.Garages},
		{"Erf size", l.ErfSize},
		{"Floor size", l.FloorSize},
		{"Agent", l.AgentName},
		{"Agent phone", l.AgentPhone},
		{"Agent email", l.AgentEmail},
		{"Agency", l.AgencyName},
		{"Listed", l.ListingDate},
	} {
		if f.value != "" {
			fmt.Fprintf(&sb, "%s: %s\n", f.label, f.value)
		}
	}
	if len(l.Features) > 0 {
		fmt.Fprintf(&sb, "Features: %s\n", strings.Join(l.Features, ", "))
	}
	if len(l.Images) > 0 {
		fmt.Fprintf(&sb, "Images: %d\n", len(l.Images))
	}
	if l.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", l.Description)
	}
	return sb.String()
}
