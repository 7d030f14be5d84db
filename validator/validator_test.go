package validator

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/use-agent/propscrape/models"
)

func baseListing() *models.ExtractedListing {
	l := models.NewExtractedListing()
	l.Title = "Family home in Sea Point"
	l.Address = "12 Main Road, Sea Point, Cape Town"
	l.ListingID = "114567890"
	l.Price = "R 2 450 000"
	l.Bedrooms = "3"
	l.Bathrooms = "2"
	l.AgentName = "Jane Agent"
	l.AgentPhone = "082 123 4567"
	l.AgentEmail = "jane@agency.co.za"
	l.Images = []string{"https://images.example.com/1.jpg"}
	return l
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func countContaining(list []string, sub string) int {
	n := 0
	for _, s := range list {
		if strings.Contains(s, sub) {
			n++
		}
	}
	return n
}

func TestValidate_MissingTitle(t *testing.T) {
	l := models.NewExtractedListing()
	l.Title = ""
	l.Address = "123 Main Rd, Cape Town"

	rep := Validate(l, DefaultOptions())
	if rep.IsValid {
		t.Fatal("IsValid = true, want false")
	}
	if !contains(rep.Errors, "title is required") {
		t.Errorf("Errors = %q, want a required-title error", rep.Errors)
	}
	if rep.SanitizedData != nil {
		t.Error("SanitizedData should be nil for an invalid report")
	}
	// Required-field failures stop validation before any advisory stage.
	if len(rep.Warnings) != 0 {
		t.Errorf("Warnings = %q, want none after short-circuit", rep.Warnings)
	}
}

func TestValidate_PriceCanonicalised(t *testing.T) {
	l := baseListing()
	l.Price = "R 1 200 000"
	l.Bedrooms = "3"
	l.Bathrooms = "2"

	rep := Validate(l, DefaultOptions())
	if !rep.IsValid {
		t.Fatalf("IsValid = false, errors: %q", rep.Errors)
	}
	if got := rep.SanitizedData.Price; got != "R 1,200,000" {
		t.Errorf("price = %q, want %q", got, "R 1,200,000")
	}
}

func TestValidate_InvalidImagesDropped(t *testing.T) {
	l := baseListing()
	l.Images = []string{"http://x/1.jpg", "not-a-url", "http://x/2.jpg"}

	rep := Validate(l, DefaultOptions())
	if !rep.IsValid {
		t.Fatalf("IsValid = false, errors: %q", rep.Errors)
	}
	want := []string{"http://x/1.jpg", "http://x/2.jpg"}
	if !reflect.DeepEqual(rep.SanitizedData.Images, want) {
		t.Errorf("images = %q, want %q", rep.SanitizedData.Images, want)
	}
	if n := countContaining(rep.Warnings, "invalid image"); n != 1 {
		t.Errorf("got %d invalid-image warnings, want 1: %q", n, rep.Warnings)
	}
	if !contains(rep.Warnings, "removed 1 invalid image URL") {
		t.Errorf("Warnings = %q, want the removal count", rep.Warnings)
	}
}

func TestValidate_FeatureDedupe(t *testing.T) {
	l := baseListing()
	l.Features = []string{"Pool", "pool", "Pool", ""}

	rep := Validate(l, DefaultOptions())
	want := []string{"Pool", "pool"}
	if !reflect.DeepEqual(rep.SanitizedData.Features, want) {
		t.Errorf("features = %q, want %q", rep.SanitizedData.Features, want)
	}
	if n := countContaining(rep.Warnings, "feature"); n != 0 {
		t.Errorf("auto-correct should dedupe silently, got %q", rep.Warnings)
	}

	opts := DefaultOptions()
	opts.AutoCorrect = false
	rep = Validate(l, opts)
	if !reflect.DeepEqual(rep.SanitizedData.Features, want) {
		t.Errorf("features without auto-correct = %q, want %q", rep.SanitizedData.Features, want)
	}
	if !contains(rep.Warnings, "removed 2 blank or duplicate features") {
		t.Errorf("Warnings = %q, want the removal reported", rep.Warnings)
	}
}

func TestValidate_InputNotMutated(t *testing.T) {
	l := baseListing()
	l.Title = "  Spacious   home  "
	l.Features = []string{"Pool", "Pool", ""}
	before := l.Clone()

	Validate(l, DefaultOptions())
	if !reflect.DeepEqual(l, before) {
		t.Errorf("input listing was modified:\n got  %+v\n want %+v", l, before)
	}
}

func TestValidate_NilListing(t *testing.T) {
	rep := Validate(nil, DefaultOptions())
	want := []string{"title is required", "address is required", "listing id is required"}
	if !reflect.DeepEqual(rep.Errors, want) {
		t.Errorf("Errors = %q, want %q", rep.Errors, want)
	}
}

func TestValidate_StrictMode(t *testing.T) {
	l := baseListing()
	l.Price = ""
	l.Bedrooms = " "

	opts := DefaultOptions()
	rep := Validate(l, opts)
	if !rep.IsValid {
		t.Fatalf("non-strict should accept missing price, errors: %q", rep.Errors)
	}

	opts.StrictMode = true
	rep = Validate(l, opts)
	want := []string{"price is required", "bedrooms is required"}
	if !reflect.DeepEqual(rep.Errors, want) {
		t.Errorf("Errors = %q, want %q", rep.Errors, want)
	}
	if rep.SanitizedData != nil {
		t.Error("SanitizedData should be nil")
	}
}

func TestValidate_Title(t *testing.T) {
	long := strings.Repeat("abcde ", 50)

	tests := []struct {
		name        string
		title       string
		autoCorrect bool
		wantValid   bool
		wantWarning string
		wantError   string
		wantTitle   string
	}{
		{"collapsed", "  Sunny \n flat ", true, true, "", "", "Sunny flat"},
		{"short", "Flat", true, true, "title is very short (4 characters)", "", "Flat"},
		{"placeholder", "TEST listing in Sea Point", true, true, `title contains placeholder text "test"`, "", "TEST listing in Sea Point"},
		{"too long corrected", long, true, true, "title truncated to 200 characters", "", ""},
		{"too long rejected", long, false, false, "", "title exceeds 200 characters (299)", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := baseListing()
			l.Title = tt.title
			opts := DefaultOptions()
			opts.AutoCorrect = tt.autoCorrect

			rep := Validate(l, opts)
			if rep.IsValid != tt.wantValid {
				t.Fatalf("IsValid = %v, want %v (errors %q)", rep.IsValid, tt.wantValid, rep.Errors)
			}
			if tt.wantWarning != "" && !contains(rep.Warnings, tt.wantWarning) {
				t.Errorf("Warnings = %q, want %q", rep.Warnings, tt.wantWarning)
			}
			if tt.wantError != "" && !contains(rep.Errors, tt.wantError) {
				t.Errorf("Errors = %q, want %q", rep.Errors, tt.wantError)
			}
			if tt.wantTitle != "" && rep.SanitizedData.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", rep.SanitizedData.Title, tt.wantTitle)
			}
			if rep.IsValid {
				got := rep.SanitizedData.Title
				if n := utf8.RuneCountInString(got); n > maxTitleRunes {
					t.Errorf("sanitized title has %d runes", n)
				}
			}
		})
	}
}

func TestValidate_Price(t *testing.T) {
	tests := []struct {
		price       string
		wantValid   bool
		wantPrice   string
		wantWarning string
	}{
		{"R 1 200 000", true, "R 1,200,000", ""},
		{"R1,200,000.00", true, "R 1,200,000", ""},
		{"R 1.2m", true, "R 1,200,000", ""},
		{"Asking R 2.5 million", true, "R 2,500,000", ""},
		{"R 5 000", true, "R 5,000", "price R 5,000 is below the expected minimum of R 10,000"},
		{"R 250 000 000", true, "R 250,000,000", "price R 250,000,000 is above the expected maximum of R 100,000,000"},
		{"Price reduced 2024: R 1 200 000", true, "R 1,200,000", ""},
		{"ZAR 3 100 000", true, "R 3,100,000", ""},
		{"R 1,5 million", true, "R 1,500,000", ""},
		{"R 1 200 000 100", true, "R 1,200,000", ""},
		{"1 750 000", true, "R 1,750,000", ""},
		{"POA", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			l := baseListing()
			l.Price = tt.price
			rep := Validate(l, DefaultOptions())
			if rep.IsValid != tt.wantValid {
				t.Fatalf("IsValid = %v, want %v (errors %q)", rep.IsValid, tt.wantValid, rep.Errors)
			}
			if !tt.wantValid {
				if !contains(rep.Errors, `price "POA" contains no numeric value`) {
					t.Errorf("Errors = %q", rep.Errors)
				}
				return
			}
			if rep.SanitizedData.Price != tt.wantPrice {
				t.Errorf("price = %q, want %q", rep.SanitizedData.Price, tt.wantPrice)
			}
			if tt.wantWarning != "" && !contains(rep.Warnings, tt.wantWarning) {
				t.Errorf("Warnings = %q, want %q", rep.Warnings, tt.wantWarning)
			}
		})
	}
}

func TestValidate_PriceOutOfRange(t *testing.T) {
	l := baseListing()
	l.Price = "R 99999999999999999999"
	rep := Validate(l, DefaultOptions())
	if rep.IsValid || rep.SanitizedData != nil {
		t.Fatalf("IsValid = %v, want an implausible price to block", rep.IsValid)
	}
	if !contains(rep.Errors, `price "R 99999999999999999999" is not a plausible amount`) {
		t.Errorf("Errors = %q", rep.Errors)
	}
	if countContaining(rep.Warnings, "price") != 0 {
		t.Errorf("Warnings = %q, want no price warning", rep.Warnings)
	}
}

func TestValidate_Address(t *testing.T) {
	l := baseListing()
	l.Address = "1 Unknown Street, Atlantis City"
	rep := Validate(l, DefaultOptions())
	if !rep.IsValid {
		t.Fatalf("unknown locality must not block, errors: %q", rep.Errors)
	}
	if countContaining(rep.Warnings, "not in a recognised South African locality") != 1 {
		t.Errorf("Warnings = %q, want a locality warning", rep.Warnings)
	}

	// The city field rescues an address that omits the locality.
	l.City = "Durban"
	rep = Validate(l, DefaultOptions())
	if countContaining(rep.Warnings, "locality") != 0 {
		t.Errorf("Warnings = %q, want no locality warning", rep.Warnings)
	}
}

func TestValidate_Details(t *testing.T) {
	tests := []struct {
		name      string
		set       func(l *models.ExtractedListing)
		wantError string
		wantWarn  string
		check     func(l *models.ExtractedListing) bool
	}{
		{
			name:      "unparseable",
			set:       func(l *models.ExtractedListing) { l.Bedrooms = "three" },
			wantError: `bedrooms is not a valid number: "three"`,
		},
		{
			name:      "negative",
			set:       func(l *models.ExtractedListing) { l.Garages = "-1" },
			wantError: "garages cannot be negative",
		},
		{
			name:     "many rooms",
			set:      func(l *models.ExtractedListing) { l.Bathrooms = "25" },
			wantWarn: "bathrooms value 25 is unusually high",
		},
		{
			name:     "huge erf",
			set:      func(l *models.ExtractedListing) { l.ErfSize = "250 000 m²" },
			wantWarn: "erf size 250000 m² is unusually large",
		},
		{
			name: "units stripped",
			set:  func(l *models.ExtractedListing) { l.FloorSize = "1 250 m²"; l.ErfSize = "0.5 ha"; l.Bathrooms = "2.0" },
			check: func(l *models.ExtractedListing) bool {
				return l.FloorSize == "1250" && l.ErfSize == "5000" && l.Bathrooms == "2"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := baseListing()
			tt.set(l)
			rep := Validate(l, DefaultOptions())
			if tt.wantError != "" {
				if rep.IsValid || !contains(rep.Errors, tt.wantError) {
					t.Errorf("Errors = %q, want %q", rep.Errors, tt.wantError)
				}
				return
			}
			if !rep.IsValid {
				t.Fatalf("IsValid = false, errors: %q", rep.Errors)
			}
			if tt.wantWarn != "" && !contains(rep.Warnings, tt.wantWarn) {
				t.Errorf("Warnings = %q, want %q", rep.Warnings, tt.wantWarn)
			}
			if tt.check != nil && !tt.check(rep.SanitizedData) {
				t.Errorf("unexpected sanitized details: %+v", rep.SanitizedData)
			}
		})
	}
}

func TestValidate_Agent(t *testing.T) {
	tests := []struct {
		name              string
		agentName, ph, em string
		wantValid         bool
		wantMsg           string
	}{
		{"complete", "Jane", "+27 82 123 4567", "jane@agency.co.za", true, ""},
		{"local format", "Jane", "(082) 123-4567", "jane@agency.co.za", true, ""},
		{"bad phone warns", "Jane", "12345", "jane@agency.co.za", true, `agent phone "12345" does not look like a South African number`},
		{"bad email blocks", "Jane", "0821234567", "jane@", false, `agent email "jane@" is not a valid address`},
		{"missing", "", "", "", true, "agent information is missing"},
		{"incomplete", "Jane", "", "", true, "agent information is incomplete (missing: phone, email)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := baseListing()
			l.AgentName, l.AgentPhone, l.AgentEmail = tt.agentName, tt.ph, tt.em
			rep := Validate(l, DefaultOptions())
			if rep.IsValid != tt.wantValid {
				t.Fatalf("IsValid = %v, want %v (errors %q)", rep.IsValid, tt.wantValid, rep.Errors)
			}
			if tt.wantMsg == "" {
				if countContaining(rep.Warnings, "agent") != 0 {
					t.Errorf("Warnings = %q, want no agent warnings", rep.Warnings)
				}
				return
			}
			if !contains(rep.Warnings, tt.wantMsg) && !contains(rep.Errors, tt.wantMsg) {
				t.Errorf("want %q in errors %q or warnings %q", tt.wantMsg, rep.Errors, rep.Warnings)
			}
		})
	}
}

func TestValidate_Images(t *testing.T) {
	l := baseListing()
	l.Images = nil
	rep := Validate(l, DefaultOptions())
	if !rep.IsValid || !contains(rep.Warnings, "no valid images found") {
		t.Errorf("zero images should only warn: valid=%v warnings=%q", rep.IsValid, rep.Warnings)
	}
	if rep.SanitizedData.Images == nil {
		t.Error("sanitized images should be an empty slice, not nil")
	}

	l.Images = nil
	for i := 0; i < 25; i++ {
		l.Images = append(l.Images, "https://img.example.com/"+strings.Repeat("a", i+1)+".jpg")
	}
	l.Images = append(l.Images, l.Images[0])
	rep = Validate(l, DefaultOptions())
	if got := len(rep.SanitizedData.Images); got != MaxImages {
		t.Errorf("len(images) = %d, want %d", got, MaxImages)
	}
	for _, w := range []string{"removed 1 duplicate image URL", "image list truncated to 20"} {
		if !contains(rep.Warnings, w) {
			t.Errorf("Warnings = %q, want %q", rep.Warnings, w)
		}
	}
}

func TestValidate_ListingDate(t *testing.T) {
	tests := []struct {
		in, want string
		warn     bool
	}{
		{"03/04/2024", "2024-04-03", false},
		{"3 April 2024", "2024-04-03", false},
		{"2024-04-03T10:00:00Z", "2024-04-03", false},
		{"sometime soon", "sometime soon", true},
		{"1.2.3.4.5", "1.2.3.4.5", true},
		{"12:", "12:", true},
		{"Mon, 1", "Mon, 1", true},
		{"01/01/0001", "01/01/0001", true},
	}
	for _, tt := range tests {
		l := baseListing()
		l.ListingDate = tt.in
		rep := Validate(l, DefaultOptions())
		if got := rep.SanitizedData.ListingDate; got != tt.want {
			t.Errorf("ListingDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got := countContaining(rep.Warnings, "listing date") == 1; got != tt.warn {
			t.Errorf("ListingDate(%q) warning = %v, want %v", tt.in, got, tt.warn)
		}
	}
}

func TestValidate_CompletenessGate(t *testing.T) {
	l := baseListing()
	l.Bedrooms = ""
	l.Bathrooms = ""
	l.AgentEmail = "broken"

	opts := DefaultOptions()
	rep := Validate(l, opts)
	if contains(rep.Errors, "listing is incomplete (missing: bedrooms, bathrooms)") {
		t.Error("completeness gate must not run when partial data is allowed")
	}

	opts.AllowPartialData = false
	rep = Validate(l, opts)
	want := []string{
		`agent email "broken" is not a valid address`,
		"listing is incomplete (missing: bedrooms, bathrooms)",
	}
	if !reflect.DeepEqual(rep.Errors, want) {
		t.Errorf("Errors = %q, want %q in stage order", rep.Errors, want)
	}
	if rep.IsValid || rep.SanitizedData != nil {
		t.Error("report should be invalid with no sanitized data")
	}
}

func messyListing() *models.ExtractedListing {
	l := models.NewExtractedListing()
	l.Title = "  Spacious   family home  "
	l.Price = "R1 250 000"
	l.Address = " 12 Main Road,  Sea Point "
	l.ListingID = "114567890"
	l.Bedrooms = "3"
	l.Bathrooms = "2.0"
	l.Garages = "1"
	l.FloorSize = "180 m²"
	l.ErfSize = "0.5 ha"
	l.AgentName = " Jane  Agent"
	l.AgentPhone = "082  123 4567"
	l.AgentEmail = "Jane@Agency.co.za "
	l.Features = []string{" Pool", "Pool", "", "Garden ", "Garden"}
	l.Images = []string{"https://a.example/1.jpg", "https://a.example/1.jpg", "bad"}
	l.ListingDate = "3 April 2024"
	return l
}

func TestValidate_Idempotent(t *testing.T) {
	opts := DefaultOptions()
	first := Validate(messyListing(), opts)
	if !first.IsValid {
		t.Fatalf("first pass invalid: %q", first.Errors)
	}

	second := Validate(first.SanitizedData, opts)
	if !second.IsValid {
		t.Fatalf("second pass invalid: %q", second.Errors)
	}
	for _, w := range second.Warnings {
		if !contains(first.Warnings, w) {
			t.Errorf("second pass added warning %q", w)
		}
	}
	if !reflect.DeepEqual(first.SanitizedData, second.SanitizedData) {
		t.Errorf("sanitized data changed on revalidation:\n first  %+v\n second %+v", first.SanitizedData, second.SanitizedData)
	}

	third := Validate(second.SanitizedData, opts)
	if !reflect.DeepEqual(second.Warnings, third.Warnings) {
		t.Errorf("warnings not stable: %q vs %q", second.Warnings, third.Warnings)
	}
}

func TestValidate_AutoCorrectOutputIsClean(t *testing.T) {
	long := baseListing()
	long.Title = strings.Repeat("Lovely view ", 40)
	long.Features = []string{"A", "A", " ", "B"}

	for _, in := range []*models.ExtractedListing{messyListing(), long, baseListing()} {
		rep := Validate(in, DefaultOptions())
		if !rep.IsValid {
			t.Fatalf("invalid: %q", rep.Errors)
		}
		s := rep.SanitizedData

		if n := utf8.RuneCountInString(s.Title); n > maxTitleRunes {
			t.Errorf("title has %d runes", n)
		}
		if s.Title != collapse(s.Title) {
			t.Errorf("title %q is not whitespace-collapsed", s.Title)
		}
		seen := map[string]bool{}
		for _, f := range s.Features {
			if blank(f) || seen[f] {
				t.Errorf("features %q contain blank or duplicate entries", s.Features)
			}
			seen[f] = true
		}
		seen = map[string]bool{}
		for _, u := range s.Images {
			if !validImageURL(u) || seen[u] {
				t.Errorf("images %q contain invalid or duplicate entries", s.Images)
			}
			seen[u] = true
		}
		if len(s.Images) > MaxImages {
			t.Errorf("%d images exceed the cap", len(s.Images))
		}
		if v, ok := ParsePrice(s.Price); !ok || formatPrice(v, "R") != s.Price {
			t.Errorf("price %q is not canonical", s.Price)
		}
	}
}

func TestOptionsMerge(t *testing.T) {
	yes, no := true, false
	got := DefaultOptions().Merge(models.ScrapeOptions{StrictMode: &yes, AutoCorrect: &no})
	if !got.StrictMode || got.AutoCorrect || !got.AllowPartialData {
		t.Errorf("Merge = %+v", got)
	}
}
