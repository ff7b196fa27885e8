package categorize

import (
	"errors"
	"fmt"

	"github.com/smartbud-dev/smartbud/internal/model"
)

// ErrIndexOutOfRange is returned when a line item index does not exist.
var ErrIndexOutOfRange = errors.New("line item index out of range")

// MergeGlossary records each item's category under its description and
// layers the result over current. Items win on key collisions; keys absent
// from items keep their current value. Neither input is modified.
func MergeGlossary(items []model.CategorizedLineItem, current model.Glossary) model.Glossary {
	merged := current.Clone()
	for _, item := range items {
		merged[item.Description] = item.Category
	}
	return merged
}

// MergeClassified layers a sanitized classifier response over current.
func MergeClassified(classified, current model.Glossary) model.Glossary {
	merged := current.Clone()
	for desc, category := range classified {
		merged[desc] = category
	}
	return merged
}

// Tag assigns each item the glossary category for its description, or
// model.Uncategorized when the glossary has none.
func Tag(items []model.LineItem, g model.Glossary) []model.CategorizedLineItem {
	out := make([]model.CategorizedLineItem, len(items))
	for i, item := range items {
		out[i] = model.CategorizedLineItem{
			LineItem: item,
			Category: model.NormalizeCategory(g[item.Description]),
		}
	}
	return out
}

// Recategorize returns a copy of items with the item at index moved to
// category.
func Recategorize(items []model.CategorizedLineItem, index int, category string) ([]model.CategorizedLineItem, error) {
	if index < 0 || index >= len(items) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(items))
	}
	out := make([]model.CategorizedLineItem, len(items))
	copy(out, items)
	out[index].Category = model.NormalizeCategory(category)
	return out, nil
}
