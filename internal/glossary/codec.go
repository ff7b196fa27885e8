// Package glossary reads and writes the description -> category glossary
// as plain text, one "description|||category" pair per line.
package glossary

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/smartbud-dev/smartbud/internal/model"
)

const (
	// Delimiter separates description from category on each line.
	Delimiter = "|||"
	// DefaultFileName is the suggested name for an exported glossary.
	DefaultFileName = "smartbud_glossary.txt"
)

var (
	// ErrEmptyGlossary is returned when asked to write a glossary with no entries.
	ErrEmptyGlossary = errors.New("glossary is empty")
	// ErrInvalidEntry is returned when an entry cannot be represented on one line.
	ErrInvalidEntry = errors.New("invalid glossary entry")
	// ErrFormat is returned for lines that are not exactly one description and one category.
	ErrFormat = errors.New("invalid glossary line")
)

// FormatError describes a malformed line in a glossary file.
type FormatError struct {
	Line int
	Text string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s %d: %q", ErrFormat, e.Line, e.Text)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

var lineBreak = regexp.MustCompile(`\r?\n`)

// Marshal renders g one entry per line, sorted by description, with no
// trailing newline.
func Marshal(g model.Glossary) (string, error) {
	if len(g) == 0 {
		return "", ErrEmptyGlossary
	}
	keys := g.Keys()
	lines := make([]string, len(keys))
	for i, k := range keys {
		v := g[k]
		if err := checkEntry(k, v); err != nil {
			return "", err
		}
		lines[i] = k + Delimiter + v
	}
	return strings.Join(lines, "\n"), nil
}

func checkEntry(key, value string) error {
	for _, s := range []string{key, value} {
		if strings.Contains(s, Delimiter) || strings.ContainsAny(s, "\r\n") {
			return fmt.Errorf("%w: key=%q, value=%q", ErrInvalidEntry, key, value)
		}
	}
	return nil
}

// Write writes Marshal(g) to w. Nothing is written if g is invalid.
func Write(w io.Writer, g model.Glossary) error {
	content, err := Marshal(g)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, content); err != nil {
		return fmt.Errorf("writing glossary: %w", err)
	}
	return nil
}

// Unmarshal parses glossary text. Empty lines are skipped; keys and values
// are trimmed and lower-cased.
func Unmarshal(text string) (model.Glossary, error) {
	g := make(model.Glossary)
	for i, line := range lineBreak.Split(text, -1) {
		if line == "" {
			continue
		}
		parts := strings.Split(line, Delimiter)
		if len(parts) != 2 {
			return nil, &FormatError{Line: i + 1, Text: line}
		}
		g[normalize(parts[0])] = normalize(parts[1])
	}
	return g, nil
}

// Read reads and parses a glossary.
func Read(r io.Reader) (model.Glossary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading glossary: %w", err)
	}
	return Unmarshal(string(data))
}

func normalize(s string) string {
	return model.Lower(strings.TrimSpace(s))
}
