package importer

import (
	"strings"

	"github.com/smartbud-dev/smartbud/internal/model"
)

// ScotiabankParser parses Scotiabank account CSV exports.
//
// Layout: filter, date, description, sub-description, status, type, amount.
// The type column says "Debit" or "Credit". The sub-description is ignored;
// extra detail tends to make classification worse.
type ScotiabankParser struct{}

const (
	scotiaMinFields = 6
	scotiaColDate   = 1
	scotiaColDesc   = 2
	scotiaColType   = 5
	scotiaColAmount = 6
)

// Format returns the parser name.
func (p *ScotiabankParser) Format() string { return "scotiabank" }

// Parse converts Scotiabank rows into LineItems.
func (p *ScotiabankParser) Parse(rows [][]string) []model.LineItem {
	var items []model.LineItem
	for _, rec := range rows {
		if len(rec) < scotiaMinFields {
			continue
		}
		date := normalizeDate(rec[scotiaColDate])
		desc := cleanText(rec[scotiaColDesc])
		debit := strings.Contains(strings.ToLower(rec[scotiaColType]), "debit")
		if item, ok := newLineItem(date, desc, debit, field(rec, scotiaColAmount)); ok {
			items = append(items, item)
		}
	}
	return items
}
