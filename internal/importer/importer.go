package importer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/smartbud-dev/smartbud/internal/model"
)

var (
	// ErrUnknownFormat is returned when no parser is registered for a bank format.
	ErrUnknownFormat = errors.New("unknown bank format")
	// ErrUnsupportedFileType is returned for uploads that are not CSV or plain text.
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// Parser converts rows of a bank CSV export into LineItems.
// Malformed rows are dropped, never reported.
type Parser interface {
	Parse(rows [][]string) []model.LineItem
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(strings.TrimSpace(format))]
}

// Formats returns the registered format names in ascending order.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&TDParser{})
	r.Register(&CIBCParser{})
	r.Register(&ScotiabankParser{})
	return r
}

// ParseStatement reads a statement from r and parses it with the parser
// registered for format.
func ParseStatement(reg *Registry, format string, r io.Reader) ([]model.LineItem, error) {
	p := reg.Get(format)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	return p.Parse(rows), nil
}

// ReadRows reads the whole statement and splits it into rows of fields.
func ReadRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}
	return SplitRows(string(data)), nil
}

// SplitRows splits text on newlines and each line on commas. Quoted commas
// are not honored: a description containing a comma spans two fields.
func SplitRows(text string) [][]string {
	lines := strings.Split(text, "\n")
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		rows = append(rows, strings.Split(line, ","))
	}
	return rows
}

var acceptedContentTypes = map[string]bool{
	"text/csv":                 true,
	"text/plain":               true,
	"application/csv":          true,
	"application/vnd.ms-excel": true,
}

// CheckFileType rejects uploads that are neither named nor typed as CSV/text.
func CheckFileType(name, contentType string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".csv" || ext == ".txt" {
		return nil
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if acceptedContentTypes[mediaType] {
		return nil
	}
	return fmt.Errorf("%w: %q (%s)", ErrUnsupportedFileType, name, contentType)
}
