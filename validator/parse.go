package validator

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	multiplier = `(?i:million|mil|m|billion|bn)\b`
	// amount matches, in order of preference: a comma or dot decimal
	// before a multiplier ("1,5 million"), comma-grouped thousands, at most
	// two space-separated thousand groups ("1 200 000"), or a bare number.
	amount = `(\d+[.,]\d{1,2})\s*(` + multiplier + `)` +
		`|(\d{1,3}(?:,\d{3})+\b(?:\.\d+)?|\d{1,3}(?:[ \x{00a0}]\d{3}){1,2}\b(?:\.\d+)?|\d+(?:\.\d+)?)(?:\s*(` + multiplier + `))?`

	// MaxPriceValue is the largest amount treated as a price at all.
	MaxPriceValue = 1e13
)

var (
	markedPrice = regexp.MustCompile(`(?:\bZAR|\bR)\s*(?:` + amount + `)`)
	anyPrice    = regexp.MustCompile(amount)
	grouping    = strings.NewReplacer(" ", "", ",", "", "\u00a0", "")
	amounts     = message.NewPrinter(language.English)
)

// ParsePrice returns the amount in s. A number right after the currency
// marker ("R", "ZAR") wins over any earlier digits; without a marker the
// first number is used. A trailing "million"/"m" multiplies ("R 1.2m").
func ParsePrice(s string) (float64, bool) {
	m := markedPrice.FindStringSubmatch(s)
	if m == nil {
		m = anyPrice.FindStringSubmatch(s)
	}
	if m == nil {
		return 0, false
	}

	num, mult := grouping.Replace(m[3]), m[4]
	if m[1] != "" {
		num, mult = strings.Replace(m[1], ",", ".", 1), m[2]
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(mult) {
	case "million", "mil", "m":
		v *= 1_000_000
	case "billion", "bn":
		v *= 1_000_000_000
	}
	return v, true
}

// formatPrice renders v rounded to whole units with thousands grouping,
// e.g. "R 1,200,000". v must not exceed MaxPriceValue.
func formatPrice(v float64, prefix string) string {
	n := amounts.Sprintf("%d", int64(math.Round(v)))
	if prefix == "" {
		return n
	}
	return prefix + " " + n
}

var (
	strictNumber = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
	hectares     = regexp.MustCompile(`(?i)\s*(?:ha|hectares?)$`)
	areaUnits    = regexp.MustCompile(`(?i)\s*(?:m²|m2|sqm|sq\.?\s*m|square\s+met(?:re|er)s?)$`)
)

// ParseDetail strictly parses a count or area. Area units are stripped;
// hectares are converted to m².
func ParseDetail(s string, area bool) (float64, bool) {
	s = collapse(s)
	scale := 1.0
	if area {
		if hectares.MatchString(s) {
			s = hectares.ReplaceAllString(s, "")
			scale = 10_000
		} else {
			s = areaUnits.ReplaceAllString(s, "")
		}
	}
	s = grouping.Replace(s)
	if !strictNumber.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v * scale, true
}

const dateLayout = "2006-01-02"

// dayFirstLayouts are tried before the general parser because local
// listings write dates day first ("03/04/2024" is 3 April).
var dayFirstLayouts = []string{
	dateLayout,
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"2 January 2006",
	"02 January 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Monday, 2 January 2006",
}

// Listing dates outside these years are rejected. The general parser
// fills a missing year with zero ("12:" parses as 0000-12-01).
const (
	minListingYear = 1900
	maxListingYear = 2100
)

// parseListingDate recognises the common listing date formats.
func parseListingDate(s string) (time.Time, bool) {
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, plausibleYear(t)
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, plausibleYear(t)
}

func plausibleYear(t time.Time) bool {
	return !t.IsZero() && t.Year() >= minListingYear && t.Year() <= maxListingYear
}

// localities is the allow-list of South African provinces, metros and
// common listing suburbs, lower case.
var localities = []string{
	// provinces
	"western cape", "eastern cape", "northern cape", "gauteng", "kwazulu-natal", "kwazulu natal",
	"free state", "limpopo", "mpumalanga", "north west",
	// cities and towns
	"cape town", "johannesburg", "pretoria", "tshwane", "durban", "ethekwini", "port elizabeth",
	"gqeberha", "bloemfontein", "east london", "pietermaritzburg", "polokwane", "nelspruit",
	"mbombela", "kimberley", "stellenbosch", "paarl", "somerset west", "george", "knysna",
	"hermanus", "mossel bay", "plettenberg bay", "jeffreys bay", "richards bay", "rustenburg",
	"potchefstroom", "upington", "franschhoek", "ballito", "umhlanga", "margate", "worcester",
	// suburbs
	"sandton", "midrand", "centurion", "randburg", "roodepoort", "fourways", "soweto", "benoni",
	"boksburg", "germiston", "kempton park", "bryanston", "rosebank", "bellville", "durbanville",
	"sea point", "camps bay", "green point", "constantia", "claremont", "rondebosch",
	"observatory", "woodstock", "muizenberg", "fish hoek", "table view", "milnerton",
	"blouberg", "gordon's bay", "strand", "brackenfell", "kuils river", "hout bay",
}

// knownLocality reports whether any of the values mentions an allow-listed
// locality.
func knownLocality(values ...string) bool {
	for _, v := range values {
		v = strings.ToLower(v)
		if v == "" {
			continue
		}
		for _, loc := range localities {
			if strings.Contains(v, loc) {
				return true
			}
		}
	}
	return false
}
