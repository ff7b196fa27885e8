package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/smartbud-dev/smartbud/internal/model"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func debitLabel(debit bool) string {
	if debit {
		return "debit"
	}
	return "credit"
}

func printLineItems(w io.Writer, items []model.LineItem) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDESCRIPTION\tTYPE\tAMOUNT")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Date, it.Description, debitLabel(it.Debit), it.Amount.StringFixed(2))
	}
	return tw.Flush()
}

func printCategorized(w io.Writer, items []model.CategorizedLineItem) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDESCRIPTION\tTYPE\tAMOUNT\tCATEGORY")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			it.Date, it.Description, debitLabel(it.Debit), it.Amount.StringFixed(2), it.Category)
	}
	return tw.Flush()
}

func printSums(w io.Writer, sums model.CategorySums) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CATEGORY\tSUM\t")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%s\t\n", s.Category, s.Sum.StringFixed(2))
	}
	return tw.Flush()
}
