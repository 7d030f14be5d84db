package extractor

import (
	"fmt"

	"github.com/andybalholm/cascadia"

	"github.com/use-agent/propscrape/models"
)

// Field names used as keys in selector tables and override files.
const (
	FieldTitle        = "title"
	FieldPrice        = "price"
	FieldAddress      = "address"
	FieldDescription  = "description"
	FieldBedrooms     = "bedrooms"
	FieldBathrooms    = "bathrooms"
	FieldGarages      = "garages"
	FieldErfSize      = "erf_size"
	FieldFloorSize    = "floor_size"
	FieldPropertyType = "property_type"
	FieldAgentName    = "agent_name"
	FieldAgentPhone   = "agent_phone"
	FieldAgentEmail   = "agent_email"
	FieldAgencyName   = "agency_name"
	FieldSuburb       = "suburb"
	FieldCity         = "city"
	FieldProvince     = "province"
	FieldListingDate  = "listing_date"
	FieldListingID    = "listing_id"
	FieldFeatures     = "features"
	FieldImages       = "images"
)

var knownFields = map[string]bool{
	FieldTitle: true, FieldPrice: true, FieldAddress: true, FieldDescription: true,
	FieldBedrooms: true, FieldBathrooms: true, FieldGarages: true, FieldErfSize: true,
	FieldFloorSize: true, FieldPropertyType: true, FieldAgentName: true, FieldAgentPhone: true,
	FieldAgentEmail: true, FieldAgencyName: true, FieldSuburb: true, FieldCity: true,
	FieldProvince: true, FieldListingDate: true, FieldListingID: true, FieldFeatures: true,
	FieldImages: true,
}

// Candidate is one selector tried for a field. When Attr is empty the
// element text is used, otherwise the named attribute.
type Candidate struct {
	CSS  string `yaml:"css"`
	Attr string `yaml:"attr,omitempty"`
}

// Table maps a field name to its candidates, most specific first.
type Table map[string][]Candidate

func text(css string) Candidate       { return Candidate{CSS: css} }
func attr(css, name string) Candidate { return Candidate{CSS: css, Attr: name} }

// builtinTables holds the site-specific strategies. The generic table is
// appended to each of them at construction time.
var builtinTables = map[models.ListingSource]Table{
	models.SourceProperty24: {
		FieldTitle:        {text(".p24_listingTitle h1"), text("h1.p24_title")},
		FieldPrice:        {text(".p24_mBM .p24_price"), text(".p24_price")},
		FieldAddress:      {text(".p24_mBM .p24_address"), text(".p24_address")},
		FieldDescription:  {text(".js_readMoreContainer"), text(".p24_description")},
		FieldBedrooms:     {text(`.p24_featureDetails[title="Bedrooms"]`), text(`.p24_listingFeatures[title="Bedrooms"]`)},
		FieldBathrooms:    {text(`.p24_featureDetails[title="Bathrooms"]`), text(`.p24_listingFeatures[title="Bathrooms"]`)},
		FieldGarages:      {text(`.p24_featureDetails[title="Garages"]`), text(`.p24_featureDetails[title="Parking Spaces"]`)},
		FieldErfSize:      {text(`.p24_size[title="Erf Size"]`)},
		FieldFloorSize:    {text(`.p24_size[title="Floor Size"]`)},
		FieldPropertyType: {text(".p24_propertyType"), text(`.p24_propertyOverviewRow[data-key="Type of Property"] .p24_info`)},
		FieldAgentName:    {text(".p24_agentDetails .p24_name"), text(".p24_agentName")},
		FieldAgentPhone:   {attr(`.p24_agentDetails a[href^="tel:"]`, "href"), text(".p24_agentPhone")},
		FieldAgentEmail:   {attr(`.p24_agentDetails a[href^="mailto:"]`, "href")},
		FieldAgencyName:   {text(".p24_agencyDetails .p24_name"), text(".p24_agencyName")},
		FieldSuburb:       {text(".p24_location .p24_suburb")},
		FieldCity:         {text(".p24_location .p24_city")},
		FieldProvince:     {text(".p24_location .p24_province")},
		FieldListingDate:  {text(`.p24_propertyOverviewRow[data-key="List Date"] .p24_info`), text(".p24_listingDate")},
		FieldListingID:    {text(`.p24_propertyOverviewRow[data-key="Listing Number"] .p24_info`), text(".p24_listingNumber")},
		FieldFeatures:     {text(".p24_keyFeaturesContainer .p24_listingFeatures"), text(".p24_features li")},
		FieldImages:       {attr(".p24_galleryImage img", "src"), attr(".p24_galleryImage img", "data-src"), attr(".js_galleryImage", "data-image-url")},
	},
	models.SourcePrivateProperty: {
		FieldTitle:        {text(".listing-details__title"), text(".listingDetails h1")},
		FieldPrice:        {text(".listing-price-display__price"), text(".listingDetails .price")},
		FieldAddress:      {text(".listing-details__address"), text(".listingDetails .address")},
		FieldDescription:  {text(".listing-description__text"), text(".description-content")},
		FieldBedrooms:     {text(`.property-features__list-item[title="Bedrooms"]`), text(".listing-details__bedrooms")},
		FieldBathrooms:    {text(`.property-features__list-item[title="Bathrooms"]`), text(".listing-details__bathrooms")},
		FieldGarages:      {text(`.property-features__list-item[title="Garages"]`), text(`.property-features__list-item[title="Parking"]`)},
		FieldErfSize:      {text(`.property-features__list-item[title="Erf size"]`)},
		FieldFloorSize:    {text(`.property-features__list-item[title="Floor size"]`)},
		FieldPropertyType: {text(".listing-details__type")},
		FieldAgentName:    {text(".agent-card__name"), text(".agentName")},
		FieldAgentPhone:   {attr(`.agent-card a[href^="tel:"]`, "href"), text(".agent-card__phone")},
		FieldAgentEmail:   {attr(`.agent-card a[href^="mailto:"]`, "href")},
		FieldAgencyName:   {text(".agent-card__agency"), text(".agencyName")},
		FieldSuburb:       {text(".listing-details__suburb")},
		FieldCity:         {text(".listing-details__city")},
		FieldProvince:     {text(".listing-details__province")},
		FieldListingDate:  {text(".listing-details__date")},
		FieldListingID:    {text(".listing-details__reference")},
		FieldFeatures:     {text(".property-features__list .property-features__name"), text(".features-list li")},
		FieldImages:       {attr(".media-container img", "src"), attr(".media-container img", "data-src")},
	},
	models.SourceRemax: {
		FieldTitle:        {text(".property-title h1"), text(".listing-title")},
		FieldPrice:        {text(".property-price"), text(".listing-price")},
		FieldAddress:      {text(".property-address"), text(".listing-address")},
		FieldDescription:  {text(".property-description"), text(".listing-description")},
		FieldBedrooms:     {text(".property-stats .beds"), text(`[data-stat="bedrooms"]`)},
		FieldBathrooms:    {text(".property-stats .baths"), text(`[data-stat="bathrooms"]`)},
		FieldGarages:      {text(".property-stats .garages"), text(`[data-stat="garages"]`)},
		FieldErfSize:      {text(".property-stats .land-size"), text(`[data-stat="erf"]`)},
		FieldFloorSize:    {text(".property-stats .floor-size"), text(`[data-stat="floor"]`)},
		FieldPropertyType: {text(".property-type")},
		FieldAgentName:    {text(".agent-info .agent-name")},
		FieldAgentPhone:   {attr(`.agent-info a[href^="tel:"]`, "href")},
		FieldAgentEmail:   {attr(`.agent-info a[href^="mailto:"]`, "href")},
		FieldAgencyName:   {text(".agent-info .office-name")},
		FieldSuburb:       {text(".property-location .suburb")},
		FieldCity:         {text(".property-location .city")},
		FieldProvince:     {text(".property-location .province")},
		FieldListingDate:  {text(".property-listed-date")},
		FieldListingID:    {text(".property-reference")},
		FieldFeatures:     {text(".property-features li")},
		FieldImages:       {attr(".property-gallery img", "src"), attr(".property-gallery img", "data-src")},
	},
}

// genericTable is used on its own for unknown sites and as the last resort
// for every site-specific table.
var genericTable = Table{
	FieldTitle:        {text("h1"), attr(`meta[property="og:title"]`, "content"), text("title")},
	FieldPrice:        {attr(`[itemprop="price"]`, "content"), text(`[itemprop="price"]`), text(".price"), text(`[class*="price"]`)},
	FieldAddress:      {text(`[itemprop="streetAddress"]`), text("address"), text(".address"), text(`[class*="address"]`)},
	FieldDescription:  {text(`[itemprop="description"]`), text(".description"), attr(`meta[name="description"]`, "content"), attr(`meta[property="og:description"]`, "content")},
	FieldBedrooms:     {text(`[itemprop="numberOfBedrooms"]`), text(".bedrooms"), text(`[class*="bedroom"]`)},
	FieldBathrooms:    {text(`[itemprop="numberOfBathroomsTotal"]`), text(".bathrooms"), text(`[class*="bathroom"]`)},
	FieldGarages:      {text(".garages"), text(`[class*="garage"]`)},
	FieldErfSize:      {text(".erf-size"), text(`[class*="erf-size"]`), text(`[class*="land-size"]`)},
	FieldFloorSize:    {text(`[itemprop="floorSize"]`), text(".floor-size"), text(`[class*="floor-size"]`)},
	FieldPropertyType: {text(".property-type"), text(`[class*="property-type"]`)},
	FieldAgentName:    {text(".agent-name"), text(`[class*="agent-name"]`)},
	FieldAgentPhone:   {attr(`a[href^="tel:"]`, "href"), text(".agent-phone"), text(`[class*="phone"]`)},
	FieldAgentEmail:   {attr(`a[href^="mailto:"]`, "href"), text(".agent-email")},
	FieldAgencyName:   {text(".agency-name"), text(`[class*="agency-name"]`)},
	FieldSuburb:       {text(`[itemprop="addressLocality"]`), text(".suburb")},
	FieldCity:         {text(".city")},
	FieldProvince:     {text(`[itemprop="addressRegion"]`), text(".province")},
	FieldListingDate:  {attr(`[itemprop="datePosted"]`, "content"), text(`[itemprop="datePosted"]`), attr("time[datetime]", "datetime")},
	FieldListingID:    {attr("[data-listing-id]", "data-listing-id"), text(".listing-id"), text(".listing-number")},
	FieldFeatures:     {text(".features li"), text(`[class*="feature"] li`), text("ul.amenities li")},
	FieldImages: {
		attr(`[class*="gallery"] img`, "src"),
		attr(`[class*="gallery"] img`, "data-src"),
		attr(`meta[property="og:image"]`, "content"),
		attr("img", "src"),
	},
}

// compiledCandidate is a Candidate with its selector parsed once.
type compiledCandidate struct {
	Candidate
	sel cascadia.Selector
}

// strategy is the compiled selector table for one source.
type strategy struct {
	source models.ListingSource
	fields map[string][]compiledCandidate
}

// compileStrategy merges overrides, the site table and the generic table in
// that order and compiles every selector.
func compileStrategy(source models.ListingSource, tables ...Table) (*strategy, error) {
	s := &strategy{source: source, fields: make(map[string][]compiledCandidate)}
	for _, t := range tables {
		for field, cands := range t {
			if !knownFields[field] {
				return nil, fmt.Errorf("extractor: %s: unknown field %q", source, field)
			}
			for _, c := range cands {
				sel, err := cascadia.Compile(c.CSS)
				if err != nil {
					return nil, fmt.Errorf("extractor: %s.%s: invalid selector %q: %w", source, field, c.CSS, err)
				}
				s.fields[field] = append(s.fields[field], compiledCandidate{Candidate: c, sel: sel})
			}
		}
	}
	return s, nil
}
