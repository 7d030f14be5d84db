// Package validator checks extracted listings, separates blocking errors
// from advisory warnings and optionally rewrites values into canonical form.
//
// Validate is a pure function: the input listing is never modified and no
// state is kept between calls.
package validator

import (
	"fmt"
	"strings"

	"github.com/use-agent/propscrape/models"
)

// MaxImages caps the sanitized image list.
const MaxImages = 20

// Options controls validation.
type Options struct {
	// StrictMode also requires price, bedrooms and bathrooms.
	StrictMode bool

	// AllowPartialData skips the completeness gate.
	AllowPartialData bool

	// AutoCorrect rewrites values in place instead of only reporting.
	AutoCorrect bool

	// MinPrice and MaxPrice bound plausible prices; outside is a warning.
	MinPrice float64
	MaxPrice float64

	// CurrencyPrefix is used when rewriting prices, e.g. "R 1,200,000".
	CurrencyPrefix string
}

// DefaultOptions returns non-strict, partial-tolerant, auto-correcting
// options with South African market price bounds.
func DefaultOptions() Options {
	return Options{
		AllowPartialData: true,
		AutoCorrect:      true,
		MinPrice:         10_000,
		MaxPrice:         100_000_000,
		CurrencyPrefix:   "R",
	}
}

// Merge applies per-request overrides on top of o.
func (o Options) Merge(req models.ScrapeOptions) Options {
	if req.StrictMode != nil {
		o.StrictMode = *req.StrictMode
	}
	if req.AllowPartialData != nil {
		o.AllowPartialData = *req.AllowPartialData
	}
	if req.AutoCorrect != nil {
		o.AutoCorrect = *req.AutoCorrect
	}
	return o
}

// run carries the working copy and the accumulated findings of one call.
type run struct {
	l        *models.ExtractedListing
	opts     Options
	errors   []string
	warnings []string
}

func (r *run) errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *run) warnf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// Validate runs every stage in order and returns the report. Errors and
// warnings appear in stage order. SanitizedData is set only when the
// listing is valid.
func Validate(in *models.ExtractedListing, opts Options) *models.ValidationReport {
	if in == nil {
		in = models.NewExtractedListing()
	}
	l := in.Clone()
	l.Normalize()
	r := &run{l: l, opts: opts, errors: []string{}, warnings: []string{}}

	if !r.checkRequired() {
		return r.report()
	}

	r.checkTitle()
	r.checkPrice()
	r.checkAddress()
	r.checkDetails()
	r.checkAgent()
	r.checkImages()
	r.checkFeatures()
	r.checkListingDate()
	if !opts.AllowPartialData {
		r.checkCompleteness()
	}
	return r.report()
}

func (r *run) report() *models.ValidationReport {
	rep := &models.ValidationReport{
		IsValid:  len(r.errors) == 0,
		Errors:   r.errors,
		Warnings: r.warnings,
	}
	if rep.IsValid {
		rep.SanitizedData = r.l
	}
	return rep
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// collapse trims s and folds whitespace runs, including non-breaking
// spaces, into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// missingOf returns the labels of blank fields, in the given order.
func missingOf(fields []namedField) []string {
	var missing []string
	for _, f := range fields {
		if blank(f.value) {
			missing = append(missing, f.label)
		}
	}
	return missing
}

type namedField struct {
	label string
	value string
}

// checkRequired reports every missing required field and returns false
// when validation must stop.
func (r *run) checkRequired() bool {
	fields := []namedField{
		{"title", r.l.Title},
		{"address", r.l.Address},
		{"listing id", r.l.ListingID},
	}
	if r.opts.StrictMode {
		fields = append(fields,
			namedField{"price", r.l.Price},
			namedField{"bedrooms", r.l.Bedrooms},
			namedField{"bathrooms", r.l.Bathrooms},
		)
	}
	missing := missingOf(fields)
	for _, m := range missing {
		r.errorf("%s is required", m)
	}
	return len(missing) == 0
}

// checkCompleteness is the final gate when partial data is not allowed.
func (r *run) checkCompleteness() {
	missing := missingOf([]namedField{
		{"title", r.l.Title},
		{"price", r.l.Price},
		{"address", r.l.Address},
		{"bedrooms", r.l.Bedrooms},
		{"bathrooms", r.l.Bathrooms},
	})
	if len(missing) > 0 {
		r.errorf("listing is incomplete (missing: %s)", strings.Join(missing, ", "))
	}
}
