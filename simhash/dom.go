package simhash

import (
	"strings"

	"golang.org/x/net/html"
)

// shingleSize is the n-gram width over the element sequence.
const shingleSize = 3

// FingerprintLayout fingerprints the element structure of a page. Each
// element contributes its tag name and first class, so renamed classes
// (the usual cause of broken selectors) move the fingerprint even when the
// tag sequence is unchanged. Text and other attributes are ignored.
func FingerprintLayout(htmlStr string) uint64 {
	elems := layoutTokens(htmlStr)
	if len(elems) == 0 {
		return 0
	}
	if len(elems) < shingleSize {
		return Fingerprint(elems)
	}

	shingles := make([]string, 0, len(elems)-shingleSize+1)
	for i := 0; i+shingleSize <= len(elems); i++ {
		shingles = append(shingles, strings.Join(elems[i:i+shingleSize], ">"))
	}
	return Fingerprint(shingles)
}

// layoutTokens returns "tag" or "tag.class" for every start tag in order.
// Script and style bodies are skipped by the tokenizer as raw text.
func layoutTokens(htmlStr string) []string {
	z := html.NewTokenizer(strings.NewReader(htmlStr))
	var out []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tok := string(name)
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "class" {
					if cls := strings.Fields(string(val)); len(cls) > 0 {
						tok += "." + cls[0]
					}
					break
				}
			}
			out = append(out, tok)
		}
	}
}
