package receipt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Separators are restricted to blanks and tabs so that a match never spans
// two receipt lines.
var (
	dayMonthYearRe = regexp.MustCompile(`(?i)\b(\d{1,2})[ \t]*[-.]?[ \t]*([a-z]{3,})\.?,?[-.]?[ \t]*(\d{4}|\d{2})\b`)
	monthDayYearRe = regexp.MustCompile(`(?i)\b([a-z]{3,})\.?[ \t]+(\d{1,2})(?:st|nd|rd|th)?,?[ \t]*(\d{4}|\d{2})\b`)
	numericDateRe  = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})\b`)
)

func (e *Extractor) date(doc document) string {
	for _, m := range dayMonthYearRe.FindAllStringSubmatch(doc.text, -1) {
		if d, ok := e.namedDate(m[1], m[2], m[3]); ok {
			return d
		}
	}
	for _, m := range monthDayYearRe.FindAllStringSubmatch(doc.text, -1) {
		if d, ok := e.namedDate(m[2], m[1], m[3]); ok {
			return d
		}
	}
	for _, m := range numericDateRe.FindAllStringSubmatch(doc.text, -1) {
		if d, ok := numericDate(m[1], m[2], m[3]); ok {
			return d
		}
	}
	return e.now().Format(DateLayout)
}

func (e *Extractor) namedDate(day, monthName, year string) (string, bool) {
	month, ok := e.months[monthPrefix(strings.ToLower(monthName))]
	if !ok {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return "", false
	}
	return formatDate(expandYear(year), month, d)
}

// numericDate reads A/B/C as month/day/year. When A cannot be a month but B
// can, the receipt is read as day/month/year instead.
func numericDate(a, b, year string) (string, bool) {
	month, err := strconv.Atoi(a)
	if err != nil {
		return "", false
	}
	day, err := strconv.Atoi(b)
	if err != nil {
		return "", false
	}
	if month > 12 && day <= 12 {
		month, day = day, month
	}
	return formatDate(expandYear(year), month, day)
}

func expandYear(year string) int {
	if len(year) == 2 {
		year = "20" + year
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return 0
	}
	return y
}

// formatDate rejects impossible dates such as 2023-02-30.
func formatDate(year, month, day int) (string, bool) {
	if year <= 0 || month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func monthPrefix(name string) string {
	if utf8.RuneCountInString(name) < 3 {
		return ""
	}
	runes := []rune(name)
	return string(runes[:3])
}
