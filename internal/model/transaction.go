package model

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Uncategorized is the category assigned when no classification exists.
const Uncategorized = "uncategorized"

// LineItem is one transaction parsed from a bank statement CSV.
type LineItem struct {
	Date        string          `json:"date"` // digits only, e.g. "20240105"
	Description string          `json:"description"`
	Debit       bool            `json:"debit"`
	Amount      decimal.Decimal `json:"amount"` // never negative; direction comes from Debit
}

// Signed returns the amount as it contributes to a category sum:
// debits (money spent) are positive, credits negative.
func (li LineItem) Signed() decimal.Decimal {
	if li.Debit {
		return li.Amount
	}
	return li.Amount.Neg()
}

// CategorizedLineItem is a LineItem tagged with a spending category.
type CategorizedLineItem struct {
	LineItem
	Category string `json:"category"`
}

// Lower lower-cases s with Unicode-aware rules. Descriptions and categories
// from every source go through it so glossary keys match. A cases.Caser is
// stateful, so each call gets its own.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// NormalizeCategory lower-cases and trims a category.
// Blank categories become Uncategorized.
func NormalizeCategory(category string) string {
	c := Lower(strings.TrimSpace(category))
	if c == "" {
		return Uncategorized
	}
	return c
}
