// Package source classifies listing URLs into known sites and pulls the
// site-specific listing identifier out of them.
package source

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/use-agent/propscrape/models"
)

// domains maps a host substring to its source. Order matters only for
// readability; hosts never match more than one entry.
var domains = []struct {
	host   string
	source models.ListingSource
}{
	{"property24.com", models.SourceProperty24},
	{"privateproperty.co.za", models.SourcePrivateProperty},
	{"remax.co.za", models.SourceRemax},
}

// broadID matches any run of 8+ digits. It is always tried last because it
// also matches unrelated numbers such as page indexes or timestamps.
var broadID = regexp.MustCompile(`(\d{8,})`)

// idPatterns are tried in order; the first capture group is the ID.
var idPatterns = map[models.ListingSource][]*regexp.Regexp{
	models.SourceProperty24: {
		regexp.MustCompile(`/(?:for-sale|to-rent|new-developments)/(?:[^/]+/){3}\d+/(\d+)`),
		regexp.MustCompile(`/(\d{6,})/?(?:[?#]|$)`),
		broadID,
	},
	models.SourcePrivateProperty: {
		regexp.MustCompile(`/(T\d{4,})(?:[/?#]|$)`),
		broadID,
	},
	models.SourceRemax: {
		regexp.MustCompile(`/(\d{5,})/?(?:[?#]|$)`),
		broadID,
	},
	models.SourceGeneric: {
		broadID,
	},
}

// Resolve classifies rawURL by its host. Unknown or unparseable URLs
// resolve to SourceGeneric.
func Resolve(rawURL string) models.ListingSource {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return models.SourceGeneric
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return models.SourceGeneric
	}
	for _, d := range domains {
		if strings.Contains(host, d.host) {
			return d.source
		}
	}
	return models.SourceGeneric
}

// ExtractListingID returns the listing identifier embedded in rawURL.
// Only the path and query are searched so digits in the host never match.
func ExtractListingID(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	target := u.EscapedPath()
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}

	for _, re := range idPatterns[Resolve(rawURL)] {
		if m := re.FindStringSubmatch(target); len(m) > 1 && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

// IsSupportedURL reports whether rawURL is an absolute http(s) URL on a
// known listing site. Callers must reject unsupported URLs before fetching.
func IsSupportedURL(rawURL string) bool {
	return IsFetchableURL(rawURL) && Resolve(rawURL) != models.SourceGeneric
}

// IsFetchableURL reports whether rawURL is an absolute http(s) URL.
func IsFetchableURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Supported lists the known, non-generic sources.
func Supported() []models.ListingSource {
	out := make([]models.ListingSource, 0, len(domains))
	for _, d := range domains {
		out = append(out, d.source)
	}
	return out
}
