// Package storage maps validated listings into the long-term schema and
// persists them.
package storage

import (
	"errors"
	"strings"
	"time"

	"github.com/use-agent/propscrape/models"
	"github.com/use-agent/propscrape/validator"
)

// ErrNotSanitized is returned for results whose listing did not pass
// validation. Only sanitized records are stored.
var ErrNotSanitized = errors.New("storage: listing has no sanitized data")

// Record is the storage shape of one listing. Values come from the
// sanitized listing unchanged apart from grouping and numeric columns.
type Record struct {
	Source    models.ListingSource
	ListingID string
	URL       string

	Property Property
	Location Location
	Agent    Agent

	ListedOn  *time.Time
	ScrapedAt time.Time
}

type Property struct {
	Title        string
	Description  string
	PropertyType string
	PriceText    string
	Price        *float64
	Bedrooms     *float64
	Bathrooms    *float64
	Garages      *float64
	ErfSizeSqm   *float64
	FloorSizeSqm *float64
	Features     []string
	Images       []string
}

type Location struct {
	Address  string
	Suburb   string
	City     string
	Province string
}

type Agent struct {
	Name   string
	Phone  string
	Email  string
	Agency string
}

// NewRecord builds a Record from a scrape result. It returns
// ErrNotSanitized unless the result's report is valid.
func NewRecord(res *models.ScrapeResult, scrapedAt time.Time) (*Record, error) {
	if res == nil {
		return nil, ErrNotSanitized
	}
	return fromReport(res.Source, res.URL, res.Report, scrapedAt)
}

// NewBatchRecord is NewRecord for one successful batch item.
func NewBatchRecord(r models.BatchResult, scrapedAt time.Time) (*Record, error) {
	if !r.Success {
		return nil, ErrNotSanitized
	}
	return fromReport(r.Source, r.URL, r.Report, scrapedAt)
}

func fromReport(src models.ListingSource, url string, rep *models.ValidationReport, scrapedAt time.Time) (*Record, error) {
	if rep == nil || !rep.IsValid || rep.SanitizedData == nil {
		return nil, ErrNotSanitized
	}
	l := rep.SanitizedData

	return &Record{
		Source:    src,
		ListingID: l.ListingID,
		URL:       url,
		Property: Property{
			Title:        l.Title,
			Description:  l.Description,
			PropertyType: l.PropertyType,
			PriceText:    l.Price,
			Price:        price(l.Price),
			Bedrooms:     detail(l.Bedrooms, false),
			Bathrooms:    detail(l.Bathrooms, false),
			Garages:      detail(l.Garages, false),
			ErfSizeSqm:   detail(l.ErfSize, true),
			FloorSizeSqm: detail(l.FloorSize, true),
			Features:     append([]string{}, l.Features...),
			Images:       append([]string{}, l.Images...),
		},
		Location: Location{
			Address:  l.Address,
			Suburb:   l.Suburb,
			City:     l.City,
			Province: l.Province,
		},
		Agent: Agent{
			Name:   l.AgentName,
			Phone:  l.AgentPhone,
			Email:  l.AgentEmail,
			Agency: l.AgencyName,
		},
		ListedOn:  dateOf(l.ListingDate),
		ScrapedAt: scrapedAt.UTC(),
	}, nil
}

// price and detail read the numeric columns with the validator's own
// parsers, so values accepted without auto-correction ("R 1.2m", "500 m²")
// map the same way as canonical ones.
func price(s string) *float64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	v, ok := validator.ParsePrice(s)
	if !ok {
		return nil
	}
	return &v
}

func detail(s string, area bool) *float64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	v, ok := validator.ParseDetail(s, area)
	if !ok {
		return nil
	}
	return &v
}

func dateOf(s string) *time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &t
}
