// Package extractor pulls listing fields out of fetched HTML using ordered
// per-source selector tables with a generic last-resort strategy.
package extractor

import (
	"errors"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/propscrape/models"
)

// MaxImages is the default cap on extracted image URLs.
const MaxImages = 20

// Options configures an Extractor.
type Options struct {
	// Overrides are prepended to the built-in candidates.
	Overrides Overrides

	// DescriptionFormat is "text" (default) or "markdown".
	DescriptionFormat string

	// MaxImages caps the image list; zero means MaxImages.
	MaxImages int
}

// Extractor applies compiled selector tables to HTML. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	strategies map[models.ListingSource]*strategy
	markdown   bool
	maxImages  int
	md         *converter.Converter
}

// New compiles the selector tables. It fails if any selector, built-in or
// override, does not parse.
func New(opts Options) (*Extractor, error) {
	e := &Extractor{
		strategies: make(map[models.ListingSource]*strategy),
		markdown:   strings.EqualFold(opts.DescriptionFormat, "markdown"),
		maxImages:  opts.MaxImages,
		md:         newMarkdownConverter(),
	}
	if e.maxImages <= 0 {
		e.maxImages = MaxImages
	}

	generic, err := compileStrategy(models.SourceGeneric, opts.Overrides[models.SourceGeneric], genericTable)
	if err != nil {
		return nil, err
	}
	e.strategies[models.SourceGeneric] = generic

	for src, table := range builtinTables {
		s, err := compileStrategy(src, opts.Overrides[src], table, opts.Overrides[models.SourceGeneric], genericTable)
		if err != nil {
			return nil, err
		}
		e.strategies[src] = s
	}
	return e, nil
}

// Extract parses rawHTML and returns a fully shaped listing. Missing fields
// are left empty; only unparseable input returns an error.
func (e *Extractor) Extract(rawHTML string, source models.ListingSource) (*models.ExtractedListing, error) {
	return e.extract(rawHTML, "", source)
}

// ExtractDocument is Extract with the fetch URL available, which improves
// the description fallbacks.
func (e *Extractor) ExtractDocument(doc *models.RawDocument, source models.ListingSource) (*models.ExtractedListing, error) {
	pageURL := doc.FinalURL
	if pageURL == "" {
		pageURL = doc.URL
	}
	return e.extract(doc.HTML, pageURL, source)
}

func (e *Extractor) strategyFor(source models.ListingSource) *strategy {
	if s, ok := e.strategies[source]; ok {
		return s
	}
	return e.strategies[models.SourceGeneric]
}

func (e *Extractor) extract(rawHTML, pageURL string, source models.ListingSource) (*models.ExtractedListing, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, models.NewScrapeError(models.ErrCodeParse, "document is empty", nil)
	}
	if !strings.Contains(rawHTML, "<") {
		return nil, models.NewScrapeError(models.ErrCodeParse, "document contains no markup", nil)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeParse, "failed to parse HTML", err)
	}

	s := e.strategyFor(source)
	l := models.NewExtractedListing()

	for _, f := range []struct {
		name string
		dst  *string
	}{
		{FieldTitle, &l.Title},
		{FieldPrice, &l.Price},
		{FieldAddress, &l.Address},
		{FieldPropertyType, &l.PropertyType},
		{FieldAgentName, &l.AgentName},
		{FieldAgentPhone, &l.AgentPhone},
		{FieldAgentEmail, &l.AgentEmail},
		{FieldAgencyName, &l.AgencyName},
		{FieldSuburb, &l.Suburb},
		{FieldCity, &l.City},
		{FieldProvince, &l.Province},
		{FieldListingDate, &l.ListingDate},
		{FieldListingID, &l.ListingID},
	} {
		*f.dst = s.first(doc, f.name)
	}

	for _, f := range []struct {
		name string
		dst  *string
	}{
		{FieldBedrooms, &l.Bedrooms},
		{FieldBathrooms, &l.Bathrooms},
		{FieldGarages, &l.Garages},
		{FieldErfSize, &l.ErfSize},
		{FieldFloorSize, &l.FloorSize},
	} {
		*f.dst = s.firstNumber(doc, f.name)
		if *f.dst == "" {
			*f.dst = scanDetail(doc, f.name)
		}
	}

	l.Description = e.description(doc, s, rawHTML, pageURL)
	l.AgentPhone = strings.TrimSpace(strings.TrimPrefix(l.AgentPhone, "tel:"))
	l.AgentEmail = cleanMailto(l.AgentEmail)
	l.Features = s.features(doc)
	l.Images = s.images(doc, e.maxImages)

	if l.ListingID == "" {
		l.ListingID = listingIDFromText(doc)
	}
	return l, nil
}

// first returns the value of the first candidate that matches a node with
// a non-empty value.
func (s *strategy) first(doc *goquery.Document, field string) string {
	for _, c := range s.fields[field] {
		if v := c.firstValue(doc, nil); v != "" {
			return v
		}
	}
	return ""
}

// firstNumber is first restricted to values containing a number; the
// number itself is returned.
func (s *strategy) firstNumber(doc *goquery.Document, field string) string {
	for _, c := range s.fields[field] {
		if v := c.firstValue(doc, numberIn); v != "" {
			return v
		}
	}
	return ""
}

func (c compiledCandidate) firstValue(doc *goquery.Document, transform func(string) string) string {
	var found string
	doc.FindMatcher(c.sel).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		v := c.value(sel)
		if transform != nil && v != "" {
			v = transform(v)
		}
		if v != "" {
			found = v
			return false
		}
		return true
	})
	return found
}

func (c compiledCandidate) value(sel *goquery.Selection) string {
	if c.Attr == "" {
		return collapseSpace(sel.Text())
	}
	return collapseSpace(sel.AttrOr(c.Attr, ""))
}

// collapseSpace trims s and folds every whitespace run into one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanMailto(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "mailto:")
	if i := strings.IndexByte(v, '?'); i >= 0 {
		v = v[:i]
	}
	return v
}

var listingIDText = regexp.MustCompile(`(?i)(?:listing\s*(?:number|no\.?|id)|web\s*ref(?:erence)?)\s*[:#]?\s*([a-z]?\d{4,})`)

// listingIDFromText finds a "Listing Number: 123" style reference in the
// page body.
func listingIDFromText(doc *goquery.Document) string {
	m := listingIDText.FindStringSubmatch(doc.Find("body").Text())
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ErrUnknownFormat is returned by ParseFormat for unsupported values.
var ErrUnknownFormat = errors.New("extractor: description format must be text or markdown")

// ParseFormat validates a description format name.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return "text", nil
	case "markdown":
		return "markdown", nil
	}
	return "", ErrUnknownFormat
}
