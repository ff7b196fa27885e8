package importer

import (
	"strings"

	"github.com/smartbud-dev/smartbud/internal/model"
)

// CIBCParser parses CIBC account CSV exports.
//
// CIBC does not quote descriptions, so a description containing a comma
// arrives as two fields and the row has 6 fields instead of 5.
type CIBCParser struct{}

const (
	cibcFields      = 5
	cibcSplitFields = 6
	cibcColDesc     = 1
	cibcColDesc2    = 2
	cibcColDebit    = 2
	cibcSplitDebit  = 3
)

// Format returns the parser name.
func (p *CIBCParser) Format() string { return "cibc" }

// Parse converts CIBC rows into LineItems.
func (p *CIBCParser) Parse(rows [][]string) []model.LineItem {
	var items []model.LineItem
	for _, rec := range rows {
		var (
			item model.LineItem
			ok   bool
		)
		switch len(rec) {
		case cibcFields:
			item, ok = parseWithdrawalDepositRow(rec, cleanText(rec[cibcColDesc]), cibcColDebit)
		case cibcSplitFields:
			// Trimmed so an empty second field leaves no trailing space.
			desc := strings.TrimSpace(cleanText(rec[cibcColDesc]) + " " + cleanText(rec[cibcColDesc2]))
			item, ok = parseWithdrawalDepositRow(rec, desc, cibcSplitDebit)
		}
		if ok {
			items = append(items, item)
		}
	}
	return items
}
