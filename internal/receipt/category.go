package receipt

import "strings"

// category returns the first declared category with any keyword contained in
// the text. Declaration order decides between competing categories.
func (e *Extractor) category(doc document) string {
	for _, c := range e.categories {
		for _, kw := range c.keywords {
			if strings.Contains(doc.lower, kw) {
				return c.label
			}
		}
	}
	return e.fallback
}
