// Package textutil normalizes text returned by web services before it is
// handed to the model.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	reSpaces   = regexp.MustCompile(`[ \t]+`)
	reNewlines = regexp.MustCompile(`\n{3,}`)
)

// CleanBasic drops control characters, collapses runs of spaces and blank
// lines and trims the result.
func CleanBasic(text string) string {
	if text == "" {
		return ""
	}

	b := strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)

	b = reSpaces.ReplaceAllString(b, " ")
	b = reNewlines.ReplaceAllString(b, "\n\n")

	return strings.TrimSpace(b)
}

// StripHTML returns the text content of an HTML fragment with entities
// decoded. Plain text passes through unchanged apart from CleanBasic.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return CleanBasic(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CleanBasic(fragment)
	}
	return CleanBasic(doc.Text())
}
