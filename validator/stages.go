package validator

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	minTitleRunes = 5
	maxTitleRunes = 200

	maxRoomCount = 20

	// maxAreaSqm is the largest plausible erf or floor size in m² (10 ha).
	maxAreaSqm = 100_000
)

var placeholderWords = regexp.MustCompile(`(?i)\b(test|dummy|lorem ipsum|placeholder|sample)\b`)

// checkTitle collapses whitespace and checks length and placeholder text.
func (r *run) checkTitle() {
	t := collapse(r.l.Title)
	n := utf8.RuneCountInString(t)

	if n > maxTitleRunes {
		if r.opts.AutoCorrect {
			t = string([]rune(t)[:maxTitleRunes-3]) + "..."
			r.warnf("title truncated to %d characters", maxTitleRunes)
		} else {
			r.errorf("title exceeds %d characters (%d)", maxTitleRunes, n)
		}
	}
	if n < minTitleRunes {
		r.warnf("title is very short (%d characters)", n)
	}
	if m := placeholderWords.FindString(t); m != "" {
		r.warnf("title contains placeholder text %q", strings.ToLower(m))
	}
	if r.opts.AutoCorrect {
		r.l.Title = t
	}
}

// checkPrice validates the price when one was extracted. A missing price is
// reported by the required-field and completeness gates instead.
func (r *run) checkPrice() {
	if blank(r.l.Price) {
		return
	}
	v, ok := ParsePrice(r.l.Price)
	if !ok {
		r.errorf("price %q contains no numeric value", collapse(r.l.Price))
		return
	}
	if v > MaxPriceValue {
		r.errorf("price %q is not a plausible amount", collapse(r.l.Price))
		return
	}

	formatted := formatPrice(v, r.opts.CurrencyPrefix)
	if r.opts.MinPrice > 0 && v < r.opts.MinPrice {
		r.warnf("price %s is below the expected minimum of %s", formatted, formatPrice(r.opts.MinPrice, r.opts.CurrencyPrefix))
	}
	if r.opts.MaxPrice > 0 && v > r.opts.MaxPrice {
		r.warnf("price %s is above the expected maximum of %s", formatted, formatPrice(r.opts.MaxPrice, r.opts.CurrencyPrefix))
	}
	if r.opts.AutoCorrect {
		r.l.Price = formatted
	}
}

// checkAddress collapses the address and location fields and checks them
// against the locality allow-list.
func (r *run) checkAddress() {
	addr := collapse(r.l.Address)
	suburb, city, province := collapse(r.l.Suburb), collapse(r.l.City), collapse(r.l.Province)

	if !knownLocality(addr, suburb, city, province) {
		r.warnf("address %q is not in a recognised South African locality", addr)
	}
	if r.opts.AutoCorrect {
		r.l.Address = addr
		r.l.Suburb, r.l.City, r.l.Province = suburb, city, province
	}
}

// checkDetails validates the numeric property details.
func (r *run) checkDetails() {
	details := []struct {
		label string
		dst   *string
		area  bool
	}{
		{"bedrooms", &r.l.Bedrooms, false},
		{"bathrooms", &r.l.Bathrooms, false},
		{"garages", &r.l.Garages, false},
		{"erf size", &r.l.ErfSize, true},
		{"floor size", &r.l.FloorSize, true},
	}

	for _, d := range details {
		if blank(*d.dst) {
			continue
		}
		v, ok := ParseDetail(*d.dst, d.area)
		if !ok {
			r.errorf("%s is not a valid number: %q", d.label, collapse(*d.dst))
			continue
		}
		if v < 0 {
			r.errorf("%s cannot be negative", d.label)
			continue
		}

		canonical := strconv.FormatFloat(v, 'f', -1, 64)
		switch {
		case !d.area && v > maxRoomCount:
			r.warnf("%s value %s is unusually high", d.label, canonical)
		case d.area && v > maxAreaSqm:
			r.warnf("%s %s m² is unusually large", d.label, canonical)
		}
		if r.opts.AutoCorrect {
			*d.dst = canonical
		}
	}

	if r.opts.AutoCorrect {
		r.l.PropertyType = collapse(r.l.PropertyType)
	}
}

var (
	phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	saPhone         = regexp.MustCompile(`^(\+27|0027|0)\d{9}$`)
	emailShape      = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

// checkAgent checks phone and email shape and how complete the agent
// details are.
func (r *run) checkAgent() {
	name := collapse(r.l.AgentName)
	phone := collapse(r.l.AgentPhone)
	email := strings.TrimSpace(r.l.AgentEmail)

	if phone != "" && !saPhone.MatchString(phoneSeparators.Replace(phone)) {
		r.warnf("agent phone %q does not look like a South African number", phone)
	}
	if email != "" && !emailShape.MatchString(email) {
		r.errorf("agent email %q is not a valid address", email)
	}

	missing := missingOf([]namedField{{"name", name}, {"phone", phone}, {"email", email}})
	switch len(missing) {
	case 0:
	case 3:
		r.warnf("agent information is missing")
	default:
		r.warnf("agent information is incomplete (missing: %s)", strings.Join(missing, ", "))
	}

	if r.opts.AutoCorrect {
		r.l.AgentName = name
		r.l.AgentPhone = phone
		r.l.AgentEmail = strings.ToLower(email)
		r.l.AgencyName = collapse(r.l.AgencyName)
	}
}

// checkImages drops malformed and duplicate URLs and applies the cap.
// Removed entries are reported by count only.
func (r *run) checkImages() {
	kept := make([]string, 0, len(r.l.Images))
	seen := make(map[string]struct{}, len(r.l.Images))
	invalid, dupes := 0, 0

	for _, raw := range r.l.Images {
		u := strings.TrimSpace(raw)
		if !validImageURL(u) {
			invalid++
			continue
		}
		if _, ok := seen[u]; ok {
			dupes++
			continue
		}
		seen[u] = struct{}{}
		kept = append(kept, u)
	}

	if invalid > 0 {
		r.warnf("removed %d invalid image URL%s", invalid, plural(invalid))
	}
	if dupes > 0 {
		r.warnf("removed %d duplicate image URL%s", dupes, plural(dupes))
	}
	if len(kept) > MaxImages {
		r.warnf("image list truncated to %d", MaxImages)
		kept = kept[:MaxImages]
	}
	if len(kept) == 0 {
		r.warnf("no valid images found")
	}
	r.l.Images = kept
}

func validImageURL(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// checkFeatures removes blank and duplicate features. Duplicates are
// case-sensitive and the first occurrence keeps its position.
func (r *run) checkFeatures() {
	kept := make([]string, 0, len(r.l.Features))
	seen := make(map[string]struct{}, len(r.l.Features))
	removed := 0

	for _, f := range r.l.Features {
		v := f
		if r.opts.AutoCorrect {
			v = collapse(f)
		}
		if blank(v) {
			removed++
			continue
		}
		if _, ok := seen[v]; ok {
			removed++
			continue
		}
		seen[v] = struct{}{}
		kept = append(kept, v)
	}

	if removed > 0 && !r.opts.AutoCorrect {
		r.warnf("removed %d blank or duplicate feature%s", removed, plural(removed))
	}
	for _, f := range kept {
		if placeholderWords.MatchString(f) {
			r.warnf("features contain placeholder text")
			break
		}
	}
	r.l.Features = kept
}

// checkListingDate normalises recognised dates to YYYY-MM-DD.
func (r *run) checkListingDate() {
	if blank(r.l.ListingDate) {
		return
	}
	d := collapse(r.l.ListingDate)
	t, ok := parseListingDate(d)
	if !ok {
		r.warnf("listing date %q is not a recognised date", d)
		return
	}
	if r.opts.AutoCorrect {
		r.l.ListingDate = t.Format(dateLayout)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
