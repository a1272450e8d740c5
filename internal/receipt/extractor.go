// Package receipt turns raw OCR text of a photographed receipt into a
// structured purchase record: description, total amount, date and category.
//
// The four fields are recovered by independent extractors that all read the
// same normalized lines. None of them can fail; each one ends in a fallback
// value, and only the amount may be absent from the result.
package receipt

import (
	"strings"
	"time"
)

// DateLayout is the layout of Result.Date.
const DateLayout = "2006-01-02"

// Result is the structured outcome of one extraction.
type Result struct {
	Description string   `json:"description"`
	Amount      *float64 `json:"amount"`
	Date        string   `json:"date"`
	Category    string   `json:"category"`
}

// HasAmount reports whether a total was recovered.
func (r Result) HasAmount() bool {
	return r.Amount != nil
}

type categoryMatcher struct {
	label    string
	keywords []string
}

// Extractor is safe for concurrent use. It holds only lookup data prepared
// at construction time.
type Extractor struct {
	categories  []categoryMatcher
	brands      []string
	months      map[string]int
	fallback    string
	placeholder string
	now         func() time.Time
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithClock replaces the clock used for the date fallback.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// NewExtractor builds an extractor from tables. The tables are copied, so
// later changes to the caller's value do not leak into extraction.
func NewExtractor(tables Tables, opts ...Option) *Extractor {
	e := &Extractor{
		months:      make(map[string]int, len(tables.Months)),
		fallback:    tables.Fallback,
		placeholder: tables.Placeholder,
		now:         time.Now,
	}
	if strings.TrimSpace(e.fallback) == "" {
		e.fallback = DefaultFallbackCategory
	}
	if strings.TrimSpace(e.placeholder) == "" {
		e.placeholder = DefaultPlaceholder
	}

	for _, rule := range tables.Categories {
		m := categoryMatcher{label: rule.Category}
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				m.keywords = append(m.keywords, kw)
			}
		}
		e.categories = append(e.categories, m)
	}
	for _, brand := range tables.Brands {
		brand = strings.ToLower(strings.TrimSpace(brand))
		if brand != "" {
			e.brands = append(e.brands, brand)
		}
	}
	for key, month := range tables.Months {
		key = strings.ToLower(strings.TrimSpace(key))
		if prefix := monthPrefix(key); prefix != "" {
			e.months[prefix] = month
		}
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract interprets raw OCR text. Any input, including the empty string,
// yields a fully populated Result.
func (e *Extractor) Extract(rawText string) Result {
	doc := newDocument(rawText)

	result := Result{
		Description: e.description(doc),
		Date:        e.date(doc),
		Category:    e.category(doc),
	}
	if amount, ok := e.amount(doc); ok {
		result.Amount = &amount
	}
	return result
}

// Categories returns the labels this extractor can produce, fallback last.
func (e *Extractor) Categories() []string {
	labels := make([]string, 0, len(e.categories)+1)
	for _, c := range e.categories {
		labels = append(labels, c.label)
	}
	return append(labels, e.fallback)
}
