package utils

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	privateUseRe = regexp.MustCompile(`[\x{E200}-\x{E204}]`)
	newlineRunRe = regexp.MustCompile(`\n+`)
)

// CleanHTML strips markup from rich-text catalog fields (program
// descriptions, eligibility criteria) and normalizes whitespace so the text
// can be embedded or fed to the eligibility extractor.
func CleanHTML(input string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		// Not parseable as HTML; treat the raw input as plain text.
		return normalizeText(input)
	}

	var b strings.Builder
	doc.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	})

	out := b.String()
	if strings.TrimSpace(out) == "" {
		out = doc.Text()
	}
	return normalizeText(out)
}

func normalizeText(s string) string {
	s = privateUseRe.ReplaceAllString(s, "")
	s = newlineRunRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
