package receipt

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultFallbackCategory is returned when no keyword matches.
	DefaultFallbackCategory = "Other"
	// DefaultPlaceholder is returned when no description can be recovered.
	DefaultPlaceholder = "Receipt Purchase"
)

// CategoryRule maps one category label to its keywords.
// Rules are evaluated in the order they are declared.
type CategoryRule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Tables holds the lookup data the extractor depends on.
// A Tables value is treated as read-only once handed to NewExtractor.
type Tables struct {
	Categories  []CategoryRule `yaml:"categories"`
	Brands      []string       `yaml:"brands"`
	Months      map[string]int `yaml:"months"`
	Fallback    string         `yaml:"fallback_category"`
	Placeholder string         `yaml:"placeholder_description"`
}

// DefaultTables returns a fresh copy of the built-in tables.
func DefaultTables() Tables {
	return Tables{
		Categories: []CategoryRule{
			{Category: "Food & Dining", Keywords: []string{"restaurant", "cafe", "coffee", "pizza", "burger", "sushi", "diner", "bistro", "grill", "kitchen", "bar", "pub", "bakery", "donut"}},
			{Category: "Groceries", Keywords: []string{"grocery", "supermarket", "market", "whole foods", "trader joe", "costco", "walmart", "target", "safeway", "kroger", "aldi", "food"}},
			{Category: "Transportation", Keywords: []string{"gas", "fuel", "shell", "chevron", "bp", "exxon", "uber", "lyft", "parking", "toll", "transit", "metro"}},
			{Category: "Housing", Keywords: []string{"rent", "mortgage", "lease", "property"}},
			{Category: "Utilities", Keywords: []string{"electric", "water", "gas bill", "internet", "phone", "cable", "utility", "coned", "verizon", "comcast", "att"}},
			{Category: "Entertainment", Keywords: []string{"cinema", "movie", "theater", "concert", "spotify", "netflix", "hulu", "disney", "game", "ticket"}},
			{Category: "Shopping", Keywords: []string{"amazon", "ebay", "store", "shop", "mall", "outlet", "clothing", "apparel", "nike", "best buy", "apple"}},
			{Category: "Health", Keywords: []string{"pharmacy", "cvs", "walgreens", "doctor", "hospital", "clinic", "dental", "gym", "fitness"}},
		},
		Brands: []string{
			"starbucks", "mcdonald's", "mcdonalds", "burger king", "kfc", "subway", "pizza hut",
			"domino's", "dunkin", "chipotle", "tim hortons", "walmart", "target", "costco",
			"whole foods", "trader joe's", "safeway", "kroger", "aldi", "tesco", "aeon",
			"lotus's", "mydin", "99 speedmart", "family mart", "7-eleven", "cvs", "walgreens",
			"watsons", "shell", "chevron", "exxon", "petronas", "uber", "lyft",
			"amazon", "best buy", "ikea", "home depot", "uniqlo", "nike", "netflix",
			"spotify",
		},
		Months: map[string]int{
			"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
			"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
		},
		Fallback:    DefaultFallbackCategory,
		Placeholder: DefaultPlaceholder,
	}
}

// LoadTables reads a YAML tables file. Sections missing from the file keep
// their built-in defaults, so a file may override only the brand list.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("failed to read tables file: %w", err)
	}

	var override Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Tables{}, fmt.Errorf("failed to parse tables file: %w", err)
	}

	if len(override.Categories) > 0 {
		tables.Categories = override.Categories
	}
	if len(override.Brands) > 0 {
		tables.Brands = override.Brands
	}
	if len(override.Months) > 0 {
		tables.Months = override.Months
	}
	if strings.TrimSpace(override.Fallback) != "" {
		tables.Fallback = strings.TrimSpace(override.Fallback)
	}
	if strings.TrimSpace(override.Placeholder) != "" {
		tables.Placeholder = strings.TrimSpace(override.Placeholder)
	}

	if err := tables.Validate(); err != nil {
		return Tables{}, err
	}
	return tables, nil
}

// Validate reports structural problems such as unnamed categories or month
// numbers outside 1..12.
func (t Tables) Validate() error {
	var problems []string
	for i, rule := range t.Categories {
		if strings.TrimSpace(rule.Category) == "" {
			problems = append(problems, fmt.Sprintf("category #%d has no name", i+1))
		}
	}
	for key, month := range t.Months {
		if len(key) < 3 {
			problems = append(problems, fmt.Sprintf("month key %q must have at least 3 letters", key))
		}
		if month < 1 || month > 12 {
			problems = append(problems, fmt.Sprintf("month %q maps to %d", key, month))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid receipt tables: %s", strings.Join(problems, "; "))
	}
	return nil
}
