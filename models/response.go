package models

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorDetail `json:"error,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
}

// BatchResponse is the data payload of POST /api/v1/scrape/batch.
type BatchResponse struct {
	ID      string        `json:"id"`
	Results []BatchResult `json:"results"`
	Summary BatchSummary  `json:"summary"`

	// CreditsCharged equals Summary.Successful.
	CreditsCharged int `json:"credits_charged"`
}

// URLCheckResponse is the data payload of POST /api/v1/urls/check.
type URLCheckResponse struct {
	Supported bool          `json:"supported"`
	Source    ListingSource `json:"source"`
	ListingID string        `json:"listing_id,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string          `json:"status"`
	Uptime       string          `json:"uptime"`
	Version      string          `json:"version"`
	Sources      []ListingSource `json:"sources"`
	CacheEntries int             `json:"cache_entries"`
}
