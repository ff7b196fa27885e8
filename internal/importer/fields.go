package importer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/smartbud-dev/smartbud/internal/model"
)

// stripQuotes removes exactly one leading and one trailing double quote.
func stripQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

// field returns rec[i] or "" when the row is too short.
func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// normalizeDate drops hyphens ("2024-01-05" -> "20240105"). The calendar
// date is not validated.
func normalizeDate(s string) string {
	return stripQuotes(strings.ReplaceAll(s, "-", ""))
}

// cleanText trims and unquotes a free-text field.
func cleanText(s string) string {
	return stripQuotes(strings.TrimSpace(s))
}

// parseAmount keeps digits, '.' and '-' and parses the rest.
// "$1,234.50" -> 1234.50. The result is never negative.
func parseAmount(s string) (decimal.Decimal, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amount.Abs(), true
}

// newLineItem applies the shared acceptance rule: date and description must
// be non-empty and the amount must parse.
func newLineItem(date, desc string, debit bool, rawAmount string) (model.LineItem, bool) {
	if date == "" || desc == "" {
		return model.LineItem{}, false
	}
	amount, ok := parseAmount(rawAmount)
	if !ok {
		return model.LineItem{}, false
	}
	return model.LineItem{Date: date, Description: desc, Debit: debit, Amount: amount}, true
}
