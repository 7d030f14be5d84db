package models

// ListingSource identifies the website a listing URL belongs to. It selects
// the extractor strategy and the listing-ID patterns.
type ListingSource string

const (
	SourceProperty24      ListingSource = "property24"
	SourcePrivateProperty ListingSource = "privateproperty"
	SourceRemax           ListingSource = "remax"
	SourceGeneric         ListingSource = "generic"
)

// RawDocument is a fetched HTML payload plus fetch metadata. It only lives
// for the duration of one extraction.
type RawDocument struct {
	// URL is the requested target URL.
	URL string

	// FinalURL is the URL after following redirects.
	FinalURL string

	StatusCode  int
	ContentType string

	// HTML is the UTF-8 decoded body.
	HTML string

	// Bytes is the raw body length before decoding.
	Bytes int
}

// ExtractedListing is the typed record pulled from a listing page.
//
// Absence is represented by empty strings and empty slices, never nil, so
// downstream consumers can index every field unconditionally.
type ExtractedListing struct {
	Title        string   `json:"title"`
	Price        string   `json:"price"`
	Address      string   `json:"address"`
	Description  string   `json:"description"`
	Bedrooms     string   `json:"bedrooms"`
	Bathrooms    string   `json:"bathrooms"`
	Garages      string   `json:"garages"`
	ErfSize      string   `json:"erf_size"`
	FloorSize    string   `json:"floor_size"`
	PropertyType string   `json:"property_type"`
	AgentName    string   `json:"agent_name"`
	AgentPhone   string   `json:"agent_phone"`
	AgentEmail   string   `json:"agent_email"`
	AgencyName   string   `json:"agency_name"`
	Features     []string `json:"features"`
	Images       []string `json:"images"`
	Suburb       string   `json:"suburb"`
	City         string   `json:"city"`
	Province     string   `json:"province"`
	ListingDate  string   `json:"listing_date"`
	ListingID    string   `json:"listing_id"`
}

// NewExtractedListing returns a fully shaped, empty listing.
func NewExtractedListing() *ExtractedListing {
	return &ExtractedListing{
		Features: []string{},
		Images:   []string{},
	}
}

// Normalize replaces nil slices with empty ones.
func (l *ExtractedListing) Normalize() {
	if l.Features == nil {
		l.Features = []string{}
	}
	if l.Images == nil {
		l.Images = []string{}
	}
}

// Clone returns a deep copy of the listing.
func (l *ExtractedListing) Clone() *ExtractedListing {
	c := *l
	c.Features = append([]string{}, l.Features...)
	c.Images = append([]string{}, l.Images...)
	return &c
}

// ValidationReport is the outcome of validating an ExtractedListing.
// SanitizedData is set if and only if IsValid is true.
type ValidationReport struct {
	IsValid       bool              `json:"is_valid"`
	Errors        []string          `json:"errors"`
	Warnings      []string          `json:"warnings"`
	SanitizedData *ExtractedListing `json:"sanitized_data"`
}

// BatchResult is the outcome of one URL in a batch.
type BatchResult struct {
	URL     string            `json:"url"`
	Success bool              `json:"success"`
	Source  ListingSource     `json:"source,omitempty"`
	Listing *ExtractedListing `json:"listing,omitempty"`

	// Report is set whenever extraction completed, including when the
	// record failed validation.
	Report *ValidationReport `json:"report,omitempty"`

	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// BatchSummary aggregates a batch run. Only Successful items are billable.
type BatchSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// ScrapeResult is the full output of one pipeline run.
type ScrapeResult struct {
	URL        string        `json:"url"`
	FinalURL   string        `json:"final_url"`
	StatusCode int           `json:"status_code"`
	Source     ListingSource `json:"source"`
	ListingID  string        `json:"listing_id"`

	// Listing is the extracted record as found on the page. Use
	// Report.SanitizedData for the corrected version.
	Listing *ExtractedListing `json:"listing"`
	Report  *ValidationReport `json:"report"`

	// Fingerprint is the hex simhash of the page markup structure.
	Fingerprint string `json:"fingerprint,omitempty"`

	// CacheStatus is "hit" or "miss" when the caller asked for caching.
	CacheStatus string `json:"cache_status,omitempty"`

	Timing TimingInfo `json:"timing"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	TotalMs      int64 `json:"total_ms"`
	FetchMs      int64 `json:"fetch_ms"`
	ExtractMs    int64 `json:"extract_ms"`
	ValidationMs int64 `json:"validation_ms"`
}
