package summary

import (
	"fmt"
	"io"
	"strings"

	"github.com/smartbud-dev/smartbud/internal/model"
)

// Marshal renders sums as "category,sum" lines with two decimal places.
// Lines are joined by newlines with no header and no trailing newline.
func Marshal(sums model.CategorySums) string {
	lines := make([]string, len(sums))
	for i, cs := range sums {
		lines[i] = cs.Category + "," + cs.Sum.StringFixed(places)
	}
	return strings.Join(lines, "\n")
}

// WriteCSV writes Marshal(sums) to w.
func WriteCSV(w io.Writer, sums model.CategorySums) error {
	if _, err := io.WriteString(w, Marshal(sums)); err != nil {
		return fmt.Errorf("writing category sums: %w", err)
	}
	return nil
}
