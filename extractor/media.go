package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// features returns the items of the first container candidate that yields
// any non-empty item. Every matching node is collected, not just the first.
func (s *strategy) features(doc *goquery.Document) []string {
	for _, c := range s.fields[FieldFeatures] {
		items := []string{}
		doc.FindMatcher(c.sel).Each(func(_ int, sel *goquery.Selection) {
			if v := c.value(sel); v != "" {
				items = append(items, v)
			}
		})
		if len(items) > 0 {
			return items
		}
	}
	return []string{}
}

// images returns absolute image URLs from the first candidate that yields
// any. Relative and protocol-relative URLs are dropped rather than resolved.
func (s *strategy) images(doc *goquery.Document, limit int) []string {
	for _, c := range s.fields[FieldImages] {
		seen := make(map[string]struct{})
		urls := []string{}
		doc.FindMatcher(c.sel).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			v := c.value(sel)
			if !strings.HasPrefix(strings.ToLower(v), "http") {
				return true
			}
			if _, ok := seen[v]; ok {
				return true
			}
			seen[v] = struct{}{}
			urls = append(urls, v)
			return len(urls) < limit
		})
		if len(urls) > 0 {
			return urls
		}
	}
	return []string{}
}
