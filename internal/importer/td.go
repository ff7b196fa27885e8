package importer

import "github.com/smartbud-dev/smartbud/internal/model"

// TDParser parses TD Canada Trust account CSV exports.
//
// Layout: date, description, withdrawal, deposit, balance. A non-empty
// withdrawal column marks a debit and holds the amount; otherwise the
// amount is in the deposit column.
type TDParser struct{}

const (
	tdMinFields = 5
	tdColDate   = 0
	tdColDesc   = 1
	tdColDebit  = 2
)

// Format returns the parser name.
func (p *TDParser) Format() string { return "td" }

// Parse converts TD rows into LineItems.
func (p *TDParser) Parse(rows [][]string) []model.LineItem {
	var items []model.LineItem
	for _, rec := range rows {
		if len(rec) < tdMinFields {
			continue
		}
		if item, ok := parseWithdrawalDepositRow(rec, cleanText(rec[tdColDesc]), tdColDebit); ok {
			items = append(items, item)
		}
	}
	return items
}

// parseWithdrawalDepositRow handles the "date, ..., withdrawal, deposit"
// layout shared by TD and CIBC. debitCol is the withdrawal column; the
// deposit column follows it.
func parseWithdrawalDepositRow(rec []string, desc string, debitCol int) (model.LineItem, bool) {
	date := normalizeDate(field(rec, tdColDate))
	debit := cleanText(field(rec, debitCol)) != ""
	amountCol := debitCol + 1
	if debit {
		amountCol = debitCol
	}
	return newLineItem(date, desc, debit, field(rec, amountCol))
}
