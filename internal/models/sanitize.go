package models

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// ExcerptLength caps serialized body excerpts.
const ExcerptLength = 300

// CleanText enforces valid UTF-8, normalizes to NFC, strips control
// characters, and collapses runs of whitespace.
func CleanText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

// StripHTML returns the text content of an HTML fragment. Malformed markup
// degrades to whatever text the lenient parser recovers.
func StripHTML(html string) string {
	if !strings.Contains(html, "<") {
		return html
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}

// Truncate shortens s to at most max runes, appending an ellipsis when
// anything was cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}

// Excerpt builds a serialization-ready body excerpt from raw repository body
// text.
func Excerpt(body string) string {
	return Truncate(CleanText(StripHTML(body)), ExcerptLength)
}
