package model

import "github.com/shopspring/decimal"

// CategorySum is the signed total for one category.
type CategorySum struct {
	Category string          `json:"category"`
	Sum      decimal.Decimal `json:"sum"`
}

// CategorySums is an ordered list of category totals.
type CategorySums []CategorySum

// Map returns the sums keyed by category.
func (s CategorySums) Map() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s))
	for _, cs := range s {
		out[cs.Category] = cs.Sum
	}
	return out
}

// Categories returns the category names in order.
func (s CategorySums) Categories() []string {
	out := make([]string, len(s))
	for i, cs := range s {
		out[i] = cs.Category
	}
	return out
}
