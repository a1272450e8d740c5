package receipt

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	descriptionScanLines = 10
	minDescriptionLength = 4
)

var noiseLinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[\d\s.,:/-]+$`),
	regexp.MustCompile(`(?i)^(tax|invoice|receipt|date|time|gst|vat|cashier|table|order)\b`),
	regexp.MustCompile(`(?i)(https?://|www\.|\.com\b|\.my\b)`),
	regexp.MustCompile(`(?i)^(tel|phone|ph|fax|mobile)\b`),
	regexp.MustCompile(`^\+?\(?\d{2,4}\)?[\s-]?\d{3,4}[\s-]?\d{3,4}`),
	regexp.MustCompile(`(?i)^lot\s*\d+`),
	regexp.MustCompile(`(?i)\b(service|website)\b`),
}

func (e *Extractor) description(doc document) string {
	for _, brand := range e.brands {
		if strings.Contains(doc.lower, brand) {
			return cases.Title(language.English).String(brand)
		}
	}

	limit := descriptionScanLines
	if len(doc.lines) < limit {
		limit = len(doc.lines)
	}
	for _, raw := range doc.lines[:limit] {
		line := strings.TrimSpace(raw)
		if line == "" || isNoiseLine(line) {
			continue
		}
		if cleaned := cleanDescription(line); len([]rune(cleaned)) >= minDescriptionLength {
			return cleaned
		}
	}
	return e.placeholder
}

func isNoiseLine(line string) bool {
	for _, re := range noiseLinePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// cleanDescription keeps letters, spaces and &'.- and collapses whitespace.
func cleanDescription(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		switch {
		case unicode.IsLetter(r), unicode.IsSpace(r):
			b.WriteRune(r)
		case strings.ContainsRune("&'.-", r):
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
