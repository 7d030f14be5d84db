package source

import (
	"testing"

	"github.com/use-agent/propscrape/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want models.ListingSource
	}{
		{"property24", "https://www.property24.com/for-sale/sea-point/cape-town/western-cape/11021/114567890", models.SourceProperty24},
		{"property24 upper case host", "https://WWW.PROPERTY24.COM/to-rent/x/y/z/1/2", models.SourceProperty24},
		{"privateproperty", "https://www.privateproperty.co.za/for-sale/western-cape/cape-town/T4567890", models.SourcePrivateProperty},
		{"remax", "https://www.remax.co.za/property/for-sale/1234567/", models.SourceRemax},
		{"unknown host", "https://example.com/listing/12345678", models.SourceGeneric},
		{"garbage", "::not a url", models.SourceGeneric},
		{"no host", "/for-sale/123", models.SourceGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.url); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestExtractListingID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{
			name:   "property24 path aware",
			url:    "https://www.property24.com/for-sale/sea-point/cape-town/western-cape/11021/114567890",
			want:   "114567890",
			wantOK: true,
		},
		{
			// The suburb ID 20240101 would match the broad pattern first if
			// the path-aware pattern were not tried before it.
			name:   "property24 specific before broad",
			url:    "https://www.property24.com/for-sale/x/y/z/20240101/1145678",
			want:   "1145678",
			wantOK: true,
		},
		{
			name:   "property24 last segment",
			url:    "https://www.property24.com/listing/1145678?page=2",
			want:   "1145678",
			wantOK: true,
		},
		{
			name:   "property24 broad fallback",
			url:    "https://www.property24.com/search?ref=11456789x",
			want:   "11456789",
			wantOK: true,
		},
		{
			name:   "privateproperty T id",
			url:    "https://www.privateproperty.co.za/for-sale/western-cape/cape-town/T4567890",
			want:   "T4567890",
			wantOK: true,
		},
		{
			name:   "remax trailing id",
			url:    "https://www.remax.co.za/property/for-sale/1234567/",
			want:   "1234567",
			wantOK: true,
		},
		{
			name:   "no id",
			url:    "https://www.property24.com/for-sale/cape-town",
			wantOK: false,
		},
		{
			name:   "digits in host ignored",
			url:    "https://12345678.example.com/about",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractListingID(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("ExtractListingID(%q) ok = %v, want %v (got %q)", tt.url, ok, tt.wantOK, got)
			}
			if got != tt.want {
				t.Errorf("ExtractListingID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsSupportedURL(t *testing.T) {
	supported := []string{
		"https://www.property24.com/for-sale/a/b/c/1/2",
		"http://privateproperty.co.za/T1234",
		"https://www.remax.co.za/",
	}
	for _, u := range supported {
		if !IsSupportedURL(u) {
			t.Errorf("IsSupportedURL(%q) = false, want true", u)
		}
		if Resolve(u) == models.SourceGeneric {
			t.Errorf("supported URL %q resolved to generic", u)
		}
	}

	unsupported := []string{
		"https://example.com/house",
		"ftp://www.property24.com/x",
		"www.property24.com/for-sale",
		"",
	}
	for _, u := range unsupported {
		if IsSupportedURL(u) {
			t.Errorf("IsSupportedURL(%q) = true, want false", u)
		}
	}
}
