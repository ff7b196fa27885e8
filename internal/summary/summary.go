// Package summary aggregates categorized line items into per-category totals.
package summary

import (
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/smartbud-dev/smartbud/internal/model"
)

// DefaultFileName is the suggested name for an exported sums file.
const DefaultFileName = "category_sums.csv"

const places = 2

// Sum totals the signed amount of every item per category: debits add,
// credits subtract. Each seed category (normalized) starts at zero so it is
// present even without items.
func Sum(items []model.CategorizedLineItem, seed []string) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal, len(seed))
	for _, c := range seed {
		sums[model.NormalizeCategory(c)] = decimal.Zero
	}
	for _, item := range items {
		sums[item.Category] = sums[item.Category].Add(item.Signed())
	}
	return sums
}

// SortAndRound orders categories ascending, ignoring case, and rounds each
// total to two places, half away from zero.
func SortAndRound(sums map[string]decimal.Decimal) model.CategorySums {
	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	col := collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.Slice(keys, func(i, j int) bool {
		if c := col.CompareString(keys[i], keys[j]); c != 0 {
			return c < 0
		}
		return keys[i] < keys[j]
	})

	out := make(model.CategorySums, len(keys))
	for i, k := range keys {
		out[i] = model.CategorySum{Category: k, Sum: sums[k].Round(places)}
	}
	return out
}

// Compute is Sum followed by SortAndRound.
func Compute(items []model.CategorizedLineItem, seed []string) model.CategorySums {
	return SortAndRound(Sum(items, seed))
}
