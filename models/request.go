package models

// ScrapeOptions are the validation settings a caller can set per request.
// Nil fields fall back to the server defaults.
type ScrapeOptions struct {
	// StrictMode additionally requires price, bedrooms and bathrooms.
	StrictMode *bool `json:"strict_mode,omitempty"`

	// AllowPartialData disables the completeness gate when true.
	// Default: true.
	AllowPartialData *bool `json:"allow_partial_data,omitempty"`

	// AutoCorrect rewrites values into canonical form instead of only
	// reporting problems. Default: true.
	AutoCorrect *bool `json:"auto_correct,omitempty"`
}

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the listing page to scrape. Required.
	URL string `json:"url" binding:"required,url"`

	ScrapeOptions

	// MaxAge serves a cached result younger than this many milliseconds.
	// 0 disables the cache lookup.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// BatchRequest is the payload for POST /api/v1/scrape/batch.
type BatchRequest struct {
	// URLs is the list of listing pages to scrape. Required.
	URLs []string `json:"urls" binding:"required,min=1"`

	// Options are applied to every URL in the batch.
	Options ScrapeOptions `json:"options"`

	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// URLCheckRequest is the payload for POST /api/v1/urls/check.
type URLCheckRequest struct {
	URL string `json:"url" binding:"required"`
}

// ValidateRequest is the payload for POST /api/v1/validate.
type ValidateRequest struct {
	Listing ExtractedListing `json:"listing"`
	Options ScrapeOptions    `json:"options"`
}
