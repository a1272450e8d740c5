package receipt

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// NoiseThreshold is the smallest amount the global fallback accepts.
// Smaller currency-looking tokens are usually misread glyphs.
const NoiseThreshold = 0.5

// A stray s/S is a common OCR misreading of "$". It only counts at the start
// of a whitespace separated token so possessives like "Joe's" stay words.
const currencyPrefix = `(?:\$|\bRM|(?:^|[\s:])[sS])`

var (
	currencyAmountRe = regexp.MustCompile(currencyPrefix + `\s*(\d[\d,]*(?:\.\d{1,2})?)`)
	trailingNumberRe = regexp.MustCompile(`(\d[\d,]*(?:\.\d{1,2})?)\s*$`)
	totalRe          = regexp.MustCompile(`(?i)total`)
	subtotalRe       = regexp.MustCompile(`(?i)sub[- ]?total`)
)

func isTotalLine(line string) bool {
	return totalRe.MatchString(line) && !subtotalRe.MatchString(line)
}

func isSubtotalLine(line string) bool {
	return subtotalRe.MatchString(line)
}

func (e *Extractor) amount(doc document) (float64, bool) {
	if v, ok := labeledAmount(doc, isTotalLine); ok {
		return v, true
	}
	if v, ok := labeledAmount(doc, isSubtotalLine); ok {
		return v, true
	}
	return largestAmount(doc.text)
}

// labeledAmount scans from the bottom of the receipt so the final total wins
// over earlier lines that merely mention one.
func labeledAmount(doc document, isLabel func(string) bool) (float64, bool) {
	for i := len(doc.lines) - 1; i >= 0; i-- {
		line := doc.lines[i]
		if !isLabel(line) {
			continue
		}
		if v, ok := currencyAmountOnLine(line); ok {
			return v, true
		}
		if m := trailingNumberRe.FindStringSubmatch(line); m != nil {
			if v, ok := parseAmount(m[1]); ok && v > 0 {
				return v, true
			}
		}
		if v, ok := currencyAmountOnLine(doc.line(i + 1)); ok {
			return v, true
		}
	}
	return 0, false
}

// currencyAmountOnLine returns the right-most positive currency amount.
func currencyAmountOnLine(line string) (float64, bool) {
	matches := currencyAmountRe.FindAllStringSubmatch(line, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if v, ok := parseAmount(matches[i][1]); ok && v > 0 {
			return v, true
		}
	}
	return 0, false
}

func largestAmount(text string) (float64, bool) {
	best, found := 0.0, false
	for _, m := range currencyAmountRe.FindAllStringSubmatch(text, -1) {
		v, ok := parseAmount(m[1])
		if !ok || v <= NoiseThreshold {
			continue
		}
		if !found || v > best {
			best, found = v, true
		}
	}
	return best, found
}

// parseAmount strips thousands separators and restores a decimal point the
// OCR pass most likely dropped: "2325" becomes 23.25, while whole values up
// to 100 stay as they are.
func parseAmount(token string) (float64, bool) {
	token = strings.ReplaceAll(token, ",", "")
	if token == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	if !strings.Contains(token, ".") && v > 100 {
		v /= 100
	}
	return math.Round(v*100) / 100, true
}
