package importer

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartbud-dev/smartbud/internal/model"
)

func parseFile(t *testing.T, p Parser, path string) []model.LineItem {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := ReadRows(f)
	require.NoError(t, err)
	return p.Parse(rows)
}

func TestTDParser_Parse(t *testing.T) {
	items := parseFile(t, &TDParser{}, "../../testdata/td_chequing.csv")
	require.Len(t, items, 3)

	assert.Equal(t, "20240105", items[0].Date)
	assert.Equal(t, "COFFEE SHOP #12", items[0].Description)
	assert.True(t, items[0].Debit)
	assert.Equal(t, "4.50", items[0].Amount.StringFixed(2))

	// Deposit column, no withdrawal.
	assert.Equal(t, "PAYROLL DEPOSIT", items[1].Description)
	assert.False(t, items[1].Debit)
	assert.Equal(t, "2000.00", items[1].Amount.StringFixed(2))

	// Quotes stripped.
	assert.Equal(t, "AMAZON.CA", items[2].Description)
}

func TestTDParser_DropsMalformedRows(t *testing.T) {
	rows := [][]string{
		{"2024-01-05", "desc"},                      // too short
		{"", "desc", "1.00", "", ""},                // no date
		{"2024-01-05", "  ", "1.00", "", ""},        // blank description
		{"2024-01-05", "desc", "n/a", "", ""},       // amount has no digits
		{"2024-01-05", "desc", "", "", ""},          // credit column empty
		{"2024-01-05", "desc", "", "12.34", "0.00"}, // valid
	}
	items := (&TDParser{}).Parse(rows)
	require.Len(t, items, 1)
	assert.Equal(t, "12.34", items[0].Amount.StringFixed(2))
	assert.False(t, items[0].Debit)
}

func TestCIBCParser_Parse(t *testing.T) {
	items := parseFile(t, &CIBCParser{}, "../../testdata/cibc_chequing.csv")
	require.Len(t, items, 3)

	assert.Equal(t, "Loblaws", items[0].Description)
	assert.True(t, items[0].Debit)
	assert.Equal(t, "54.10", items[0].Amount.StringFixed(2))

	// Comma inside the description produced a 6-field row.
	assert.Equal(t, "Uber Eats Toronto", items[1].Description)
	assert.True(t, items[1].Debit)
	assert.Equal(t, "18.75", items[1].Amount.StringFixed(2))

	assert.Equal(t, "20240203", items[2].Date)
	assert.False(t, items[2].Debit)
	assert.Equal(t, "150.00", items[2].Amount.StringFixed(2))
}

func TestCIBCParser_SkipsOtherRowLengths(t *testing.T) {
	rows := [][]string{
		{"2024-02-01", "a", "1.00", ""},
		{"2024-02-01", "a", "b", "c", "1.00", "", ""},
	}
	assert.Empty(t, (&CIBCParser{}).Parse(rows))
}

func TestScotiabankParser_Parse(t *testing.T) {
	items := parseFile(t, &ScotiabankParser{}, "../../testdata/scotiabank_chequing.csv")
	require.Len(t, items, 2)

	assert.Equal(t, "Payroll", items[1].Description)
	assert.False(t, items[1].Debit)
	assert.Equal(t, "2000.00", items[1].Amount.StringFixed(2))
}

func TestScotiabankParser_Example(t *testing.T) {
	rows := [][]string{{"", "2024-01-05", "Coffee Shop", "", "", "DEBIT", "$4.50"}}
	items := (&ScotiabankParser{}).Parse(rows)
	require.Len(t, items, 1)

	assert.Equal(t, "20240105", items[0].Date)
	assert.Equal(t, "Coffee Shop", items[0].Description)
	assert.True(t, items[0].Debit)
	assert.Equal(t, "4.5", items[0].Amount.String())
}

func TestParsers_OutputInvariants(t *testing.T) {
	rows := [][]string{
		{"", "2024-01-05", "Coffee Shop", "", "", "DEBIT", "-$4.50"},
		{"2024-01-05", "Refund", "", "-3.00", ""},
		{"x"},
		{},
		{"2024-03-01", "desc", "1.00", "", "", "1.00", "", ""},
	}
	for _, p := range []Parser{&TDParser{}, &CIBCParser{}, &ScotiabankParser{}} {
		items := p.Parse(rows)
		assert.LessOrEqual(t, len(items), len(rows), p.Format())
		for _, it := range items {
			assert.NotEmpty(t, it.Date, p.Format())
			assert.NotEmpty(t, it.Description, p.Format())
			assert.False(t, it.Amount.IsNegative(), "%s: negative amount %s", p.Format(), it.Amount)
		}
	}
}

func TestStripQuotes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"abc"`, "abc"},
		{`""abc""`, `"abc"`},
		{`"abc`, "abc"},
		{`a"b"c`, `a"b"c`},
		{`"`, ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripQuotes(tt.in), "stripQuotes(%q)", tt.in)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"$4.50", "4.50", true},
		{"1,234.56", "1234.56", true},
		{`"12.00"`, "12.00", true},
		{"-7.25", "7.25", true},
		{"CAD 3", "3.00", true},
		{"", "", false},
		{"abc", "", false},
		{"-", "", false},
		{"1.2.3", "", false},
	}
	for _, tt := range tests {
		got, ok := parseAmount(tt.in)
		assert.Equal(t, tt.ok, ok, "parseAmount(%q)", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got.StringFixed(2), "parseAmount(%q)", tt.in)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "20240105", normalizeDate("2024-01-05"))
	assert.Equal(t, "20241399", normalizeDate(`"2024-13-99"`))
	assert.Equal(t, "01/05/2024", normalizeDate("01/05/2024"))
}

func TestSplitRows(t *testing.T) {
	rows := SplitRows("a,b,c\r\nd,\"e,f\"\n")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0])
	assert.Equal(t, []string{"d", `"e`, `f"`}, rows[1])
	assert.Equal(t, []string{""}, rows[2])
}

func TestParseStatement(t *testing.T) {
	reg := DefaultRegistry()
	items, err := ParseStatement(reg, "TD", strings.NewReader("2024-01-05,Coffee,4.50,,100.00\n"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Coffee", items[0].Description)

	_, err = ParseStatement(reg, "rbc", strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestCheckFileType(t *testing.T) {
	assert.NoError(t, CheckFileType("statement.csv", ""))
	assert.NoError(t, CheckFileType("STATEMENT.CSV", "application/octet-stream"))
	assert.NoError(t, CheckFileType("export", "text/csv; charset=utf-8"))
	assert.NoError(t, CheckFileType("export", "text/plain"))

	err := CheckFileType("statement.pdf", "application/pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&TDParser{})
	p := r.Get("td")
	require.NotNil(t, p)
	assert.Equal(t, "td", p.Format())
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&ScotiabankParser{})
	assert.NotNil(t, r.Get("Scotiabank"))
	assert.NotNil(t, r.Get(" SCOTIABANK "))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&CIBCParser{})
	assert.Panics(t, func() { r.Register(&CIBCParser{}) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"cibc", "scotiabank", "td"}, r.Formats())
}
