package receipt

import "strings"

// document is the canonical, line-oriented view of one OCR text.
// Empty lines are kept so that "next line" lookups stay index-aligned.
type document struct {
	text  string
	lower string
	lines []string
}

func newDocument(raw string) document {
	text := strings.ReplaceAll(raw, "\r", "")
	return document{
		text:  text,
		lower: strings.ToLower(text),
		lines: strings.Split(text, "\n"),
	}
}

// line returns the i-th line, or "" when i is out of range.
func (d document) line(i int) string {
	if i < 0 || i >= len(d.lines) {
		return ""
	}
	return d.lines[i]
}
