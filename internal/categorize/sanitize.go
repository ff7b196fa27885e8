// Package categorize holds the pure transformations between parsed line
// items, classifier output and the description -> category glossary.
package categorize

import (
	"sort"

	"github.com/smartbud-dev/smartbud/internal/model"
)

// SanitizeLineItems returns a copy of items with lower-cased descriptions.
func SanitizeLineItems(items []model.LineItem) []model.LineItem {
	out := make([]model.LineItem, len(items))
	for i, item := range items {
		item.Description = model.Lower(item.Description)
		out[i] = item
	}
	return out
}

// SanitizeClassified lower-cases both descriptions and categories of a
// classifier response so it can be merged into a Glossary. When several raw
// descriptions lower-case to the same key, the one sorting last wins.
func SanitizeClassified(classified model.ClassifiedItems) model.Glossary {
	raw := make([]string, 0, len(classified))
	for desc := range classified {
		raw = append(raw, desc)
	}
	sort.Strings(raw)

	out := make(model.Glossary, len(classified))
	for _, desc := range raw {
		out[model.Lower(desc)] = model.Lower(classified[desc])
	}
	return out
}
