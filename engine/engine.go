// Package engine downloads listing pages.
package engine

import (
	"context"

	"github.com/use-agent/propscrape/models"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "relay").
	Name() string

	// Fetch retrieves the page for targetURL. Failures are returned as
	// *models.ScrapeError with a FETCH_* code.
	Fetch(ctx context.Context, targetURL string) (*models.RawDocument, error)
}
