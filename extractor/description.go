package extractor

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	// minReadableLength is the shortest readability text accepted as a
	// description; anything shorter is usually navigation residue.
	minReadableLength = 50

	// maxDescriptionRunes caps fallback descriptions.
	maxDescriptionRunes = 4000
)

// newMarkdownConverter creates a reusable, goroutine-safe converter for
// listing descriptions.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// description resolves the listing description: selector candidates first
// (rendered as Markdown when configured), then the readability text of the
// whole page, then the densest prose block.
func (e *Extractor) description(doc *goquery.Document, s *strategy, rawHTML, pageURL string) string {
	if e.markdown {
		if md := e.markdownDescription(doc, s, pageURL); md != "" {
			return md
		}
	}
	if d := s.first(doc, FieldDescription); d != "" {
		return d
	}
	if d := readableText(rawHTML, pageURL); d != "" {
		return d
	}
	return densestBlock(doc)
}

func (e *Extractor) markdownDescription(doc *goquery.Document, s *strategy, pageURL string) string {
	for _, c := range s.fields[FieldDescription] {
		if c.Attr != "" {
			continue
		}
		sel := doc.FindMatcher(c.sel).First()
		if sel.Length() == 0 || collapseSpace(sel.Text()) == "" {
			continue
		}
		inner, err := sel.Html()
		if err != nil {
			continue
		}
		var md string
		if pageURL != "" {
			md, err = e.md.ConvertString(inner, converter.WithDomain(pageURL))
		} else {
			md, err = e.md.ConvertString(inner)
		}
		if err != nil {
			slog.Warn("extractor: markdown conversion failed", "url", pageURL, "error", err)
			return ""
		}
		return strings.TrimSpace(md)
	}
	return ""
}

// readableText runs Mozilla Readability over the page and returns its plain
// text, or "" when nothing substantial is found.
func readableText(rawHTML, pageURL string) string {
	if pageURL == "" {
		pageURL = "http://localhost/"
	}
	parsedURL, err := nurl.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Debug("extractor: readability failed", "url", pageURL, "error", err)
		return ""
	}

	text := collapseSpace(article.TextContent)
	if len(text) < minReadableLength {
		return ""
	}
	if r := []rune(text); len(r) > maxDescriptionRunes {
		text = string(r[:maxDescriptionRunes])
	}
	return text
}
