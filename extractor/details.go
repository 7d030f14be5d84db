package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// maxLabelRunes bounds the text length of nodes considered by the keyword
// scan. Marketing copy ("3 bedroom homes nearby") lives in long paragraphs;
// detail labels are short.
const maxLabelRunes = 80

// numRun is a digit run with optional thousands grouping and decimals.
const numRun = `\d+(?:[ ,\x{00a0}]\d{3})*(?:\.\d+)?`

var firstNum = regexp.MustCompile(numRun)

// numberIn returns the first number in s with grouping separators removed,
// or "" when s holds no digits.
func numberIn(s string) string {
	m := firstNum.FindString(s)
	if m == "" {
		return ""
	}
	return strings.NewReplacer(" ", "", ",", "", "\u00a0", "").Replace(m)
}

// detailKeywords are matched case-insensitively against label nodes.
var detailKeywords = map[string][]string{
	FieldBedrooms:  {"bedrooms", "bedroom", "beds"},
	FieldBathrooms: {"bathrooms", "bathroom", "baths"},
	FieldGarages:   {"garages", "garage", "parking"},
	FieldErfSize:   {"erf size", "land size", "stand size", "plot size"},
	FieldFloorSize: {"floor size", "floor area", "building size"},
}

type detailPattern struct {
	keyword *regexp.Regexp
	before  *regexp.Regexp
}

var (
	// afterLabel matches the number that directly follows a label.
	afterLabel = regexp.MustCompile(`^\s*[:\-]?\s*(` + numRun + `)`)
	// colonValue is afterLabel with an explicit separator.
	colonValue = regexp.MustCompile(`^\s*[:\-]\s*(` + numRun + `)`)
	// anyLabel matches a label of any detail field.
	anyLabel *regexp.Regexp
)

var detailPatterns = func() map[string]detailPattern {
	out := make(map[string]detailPattern, len(detailKeywords))
	var all []string
	for field, kws := range detailKeywords {
		quoted := make([]string, len(kws))
		for i, kw := range kws {
			quoted[i] = regexp.QuoteMeta(kw)
		}
		all = append(all, quoted...)
		alt := "(?:" + strings.Join(quoted, "|") + ")"
		out[field] = detailPattern{
			keyword: regexp.MustCompile(`(?i)` + alt),
			before:  regexp.MustCompile(`(` + numRun + `)\s*(?:m²|m2|sqm|ha)?\s*$`),
		}
	}
	anyLabel = regexp.MustCompile(`(?i)(?:` + strings.Join(all, "|") + `)`)
	return out
}()

// noiseContainers never hold listing details.
const noiseContainers = "script, style, noscript, nav, footer"

// scanDetail is the last-resort keyword scan for a numeric field. It walks
// the innermost short nodes mentioning the keyword in document order and
// returns the number belonging to the keyword, the only number of a
// single-label node, or the number in the following sibling (label/value
// pairs such as <dt>/<dd>).
//
// Short marketing copy still matches: "Close to a 3 bedroom community"
// yields 3 bedrooms.
func scanDetail(doc *goquery.Document, field string) string {
	p, ok := detailPatterns[field]
	if !ok {
		return ""
	}
	mentions := func(sel *goquery.Selection) bool {
		txt := collapseSpace(sel.Text())
		return txt != "" && utf8.RuneCountInString(txt) <= maxLabelRunes && p.keyword.MatchString(txt)
	}

	var found string
	doc.Find("body *").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !mentions(sel) || sel.Closest(noiseContainers).Length() > 0 {
			return true
		}
		// A descendant will be visited next and is the better label.
		if sel.Find("*").FilterFunction(func(_ int, c *goquery.Selection) bool { return mentions(c) }).Length() > 0 {
			return true
		}

		txt := collapseSpace(sel.Text())
		if n := labelledNumber(txt, p); n != "" {
			found = n
			return false
		}
		if len(anyLabel.FindAllStringIndex(txt, -1)) == 1 {
			if n := numberIn(txt); n != "" {
				found = n
				return false
			}
		}
		if n := numberIn(collapseSpace(sel.Next().Text())); n != "" {
			found = n
			return false
		}
		return true
	})
	return found
}

// labelledNumber finds the number that belongs to p's keyword in a strip of
// labels and values. A "label: value" separator always binds forward.
// Otherwise the strip's orientation decides: text that opens with a number
// reads "3 Bedrooms 2 Bathrooms", text that opens with a label reads
// "Bedrooms 3 Bathrooms 2".
func labelledNumber(txt string, p detailPattern) string {
	hits := p.keyword.FindAllStringIndex(txt, -1)
	for _, h := range hits {
		if m := colonValue.FindStringSubmatch(txt[h[1]:]); m != nil {
			return numberIn(m[1])
		}
	}

	firstLabel := anyLabel.FindStringIndex(txt)
	numAt := firstNum.FindStringIndex(txt)
	numbersLead := numAt != nil && firstLabel != nil && numAt[0] < firstLabel[0]

	for _, h := range hits {
		if numbersLead {
			if m := p.before.FindStringSubmatch(txt[:h[0]]); m != nil {
				return numberIn(m[1])
			}
			continue
		}
		if m := afterLabel.FindStringSubmatch(txt[h[1]:]); m != nil {
			return numberIn(m[1])
		}
	}
	return ""
}
