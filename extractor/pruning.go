package extractor

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Signal weights for the block scorer.
const (
	wTextDensity   = 3.0
	wLinkDensity   = -2.0
	wTagWeight     = 1.5
	wClassIDWeight = 1.0
	wTextLength    = 0.5
)

var positiveClassIDPatterns = []string{
	"description", "content", "article", "detail", "body", "main", "text", "comments",
}

var negativeClassIDPatterns = []string{
	"sidebar", "advert", "widget", "nav", "menu", "footer", "header", "banner",
	"popup", "modal", "cookie", "social", "share", "related", "similar", "promo",
	"enquiry", "contact",
}

// densestBlock returns the text of the block that best looks like prose:
// dense text, few links, a content-ish tag or class. It is the last resort
// for descriptions when neither selectors nor readability found one.
func densestBlock(doc *goquery.Document) string {
	best, bestScore := "", 0.0
	doc.Find("body").Find("article, main, section, div, p").Each(func(_ int, el *goquery.Selection) {
		if el.Closest("nav, footer, header, aside, script, style, noscript, form").Length() > 0 {
			return
		}
		text := collapseSpace(el.Text())
		if len(text) < minReadableLength {
			return
		}
		if score := scoreBlock(el, text); score > bestScore {
			best, bestScore = text, score
		}
	})

	if r := []rune(best); len(r) > maxDescriptionRunes {
		best = string(r[:maxDescriptionRunes])
	}
	return best
}

// scoreBlock weighs text density, link density, tag and class/id signals
// and text length.
func scoreBlock(el *goquery.Selection, text string) float64 {
	fullHTML, err := goquery.OuterHtml(el)
	if err != nil || fullHTML == "" {
		return 0
	}
	textLen := len(text)
	textDensity := float64(textLen) / float64(len(fullHTML))

	linkTextLen := 0
	el.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkTextLen += len(collapseSpace(a.Text()))
	})
	linkDensity := float64(linkTextLen) / float64(textLen)

	return textDensity*wTextDensity +
		linkDensity*wLinkDensity +
		tagWeight(el)*wTagWeight +
		classIDWeight(el)*wClassIDWeight +
		math.Log10(float64(textLen)+1)*wTextLength
}

func tagWeight(el *goquery.Selection) float64 {
	switch goquery.NodeName(el) {
	case "article", "main", "section":
		return 5.0
	case "p":
		return 1.0
	default:
		return 0.0
	}
}

// classIDWeight counts at most one positive and one negative hit.
func classIDWeight(el *goquery.Selection) float64 {
	class, _ := el.Attr("class")
	id, _ := el.Attr("id")
	combined := strings.ToLower(class + " " + id)

	score := 0.0
	for _, pat := range positiveClassIDPatterns {
		if strings.Contains(combined, pat) {
			score += 3.0
			break
		}
	}
	for _, pat := range negativeClassIDPatterns {
		if strings.Contains(combined, pat) {
			score -= 3.0
			break
		}
	}
	return score
}
