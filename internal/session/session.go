// Package session holds the in-memory state of one budgeting session and
// runs the upload -> classify -> edit -> export workflow over the pure
// transformations in importer, categorize and summary.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/smartbud-dev/smartbud/internal/categorize"
	"github.com/smartbud-dev/smartbud/internal/classifier"
	"github.com/smartbud-dev/smartbud/internal/glossary"
	"github.com/smartbud-dev/smartbud/internal/importer"
	"github.com/smartbud-dev/smartbud/internal/log"
	"github.com/smartbud-dev/smartbud/internal/model"
	"github.com/smartbud-dev/smartbud/internal/summary"
)

var (
	// ErrBusy is returned when a classification is already in flight.
	ErrBusy = errors.New("classification already in progress")
	// ErrStale is returned when the statement changed while a classification
	// was in flight. Its response is discarded.
	ErrStale = errors.New("statement changed during classification; response discarded")
	// ErrNoLineItems is returned when classifying before any statement is uploaded.
	ErrNoLineItems = errors.New("no line items to classify")
	// ErrNoClassifier is returned when the session has no classifier configured.
	ErrNoClassifier = errors.New("no classifier configured")
)

// Options configures a Session.
type Options struct {
	Registry          *importer.Registry
	Classifier        classifier.Classifier
	Logger            *log.Logger
	DesiredCategories []string
}

// Session is the application state: the current statement, its categories,
// the glossary and the derived sums. It is safe for concurrent use.
type Session struct {
	registry   *importer.Registry
	classifier classifier.Classifier
	logger     *log.Logger
	busy       *semaphore.Weighted
	inFlight   atomic.Bool

	mu          sync.Mutex
	generation  uint64
	bank        string
	lineItems   []model.LineItem
	categorized []model.CategorizedLineItem
	glossary    model.Glossary
	desired     []string
	sums        model.CategorySums
}

// New creates a Session.
func New(opts Options) *Session {
	reg := opts.Registry
	if reg == nil {
		reg = importer.DefaultRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	s := &Session{
		registry:   reg,
		classifier: opts.Classifier,
		logger:     logger.WithComponent(log.ComponentSession),
		busy:       semaphore.NewWeighted(1),
		glossary:   model.Glossary{},
		desired:    DedupeCategories(opts.DesiredCategories),
	}
	s.recomputeLocked()
	return s
}

// State is a point-in-time copy of a Session.
type State struct {
	Generation        uint64                      `json:"generation"`
	Bank              string                      `json:"bank,omitempty"`
	Busy              bool                        `json:"busy"`
	LineItems         []model.LineItem            `json:"line_items"`
	Categorized       []model.CategorizedLineItem `json:"categorized"`
	Glossary          model.Glossary              `json:"glossary"`
	DesiredCategories []string                    `json:"desired_categories"`
	Sums              model.CategorySums          `json:"sums"`
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	busy := s.Busy()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(busy)
}

func (s *Session) snapshotLocked(busy bool) State {
	return State{
		Generation:        s.generation,
		Bank:              s.bank,
		Busy:              busy,
		LineItems:         append([]model.LineItem{}, s.lineItems...),
		Categorized:       append([]model.CategorizedLineItem{}, s.categorized...),
		Glossary:          s.glossary.Clone(),
		DesiredCategories: append([]string{}, s.desired...),
		Sums:              append(model.CategorySums{}, s.sums...),
	}
}

// Busy reports whether a classification is in flight.
func (s *Session) Busy() bool {
	return s.inFlight.Load()
}

// Banks returns the supported bank formats.
func (s *Session) Banks() []string {
	return s.registry.Formats()
}

// Upload parses a statement and replaces the current line items. Items whose
// description is already in the glossary are categorized immediately. An
// unsupported file or unknown bank leaves the state untouched.
func (s *Session) Upload(name, contentType, bank string, r io.Reader) ([]model.LineItem, error) {
	if err := importer.CheckFileType(name, contentType); err != nil {
		s.logger.Warn("upload ignored", log.NewFields().
			WithOperation(log.OpUpload).WithError(err).With(log.FieldFile, name).ToSlice()...)
		return nil, err
	}
	items, err := importer.ParseStatement(s.registry, bank, r)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.bank = strings.ToLower(bank)
	s.lineItems = items
	s.categorized = categorize.Tag(categorize.SanitizeLineItems(items), s.glossary)
	s.recomputeLocked()

	s.logger.Info("statement uploaded", log.NewFields().
		WithOperation(log.OpUpload).
		With(log.FieldFile, name).
		With(log.FieldBank, s.bank).
		With(log.FieldLineItems, len(items)).
		With(log.FieldGeneration, s.generation).ToSlice()...)
	return append([]model.LineItem{}, items...), nil
}

// Result describes a completed classification.
type Result struct {
	RequestID  string `json:"request_id"`
	Generation uint64 `json:"generation"`
	Classified int    `json:"classified"`
	State      State  `json:"state"`
}

// Classify sends the current line items to the classifier, merges the
// response into the glossary and re-tags every item. Only one call runs at a
// time; a second concurrent call fails with ErrBusy. On any failure the state
// is left as it was.
func (s *Session) Classify(ctx context.Context) (Result, error) {
	if s.classifier == nil {
		return Result{}, ErrNoClassifier
	}
	if !s.busy.TryAcquire(1) {
		return Result{}, ErrBusy
	}
	s.inFlight.Store(true)
	defer func() {
		s.inFlight.Store(false)
		s.busy.Release(1)
	}()

	s.mu.Lock()
	if len(s.lineItems) == 0 {
		s.mu.Unlock()
		return Result{}, ErrNoLineItems
	}
	gen := s.generation
	items := categorize.SanitizeLineItems(s.lineItems)
	desired := append([]string{}, s.desired...)
	s.mu.Unlock()

	requestID := uuid.NewString()
	logger := s.logger.With(log.FieldRequestID, requestID, log.FieldGeneration, gen)
	logger.InfoContext(ctx, "classification dispatched",
		log.FieldLineItems, len(items), log.FieldCategories, len(desired))

	classified, err := s.classifier.Classify(ctx, items, desired)
	if err != nil {
		logger.ErrorContext(ctx, "classification failed", log.NewFields().
			WithOperation(log.OpClassify).WithError(err).ToSlice()...)
		return Result{}, fmt.Errorf("classifying line items: %w", err)
	}

	s.mu.Lock()
	if gen != s.generation {
		current := s.generation
		s.mu.Unlock()
		logger.WarnContext(ctx, "discarding stale classification", "current_generation", current)
		return Result{}, ErrStale
	}
	g := categorize.MergeClassified(categorize.SanitizeClassified(classified), s.glossary)
	s.categorized = categorize.Tag(items, g)
	s.setGlossaryLocked(categorize.MergeGlossary(s.categorized, g))
	s.recomputeLocked()
	state := s.snapshotLocked(false)
	s.mu.Unlock()

	logger.InfoContext(ctx, "classification applied", log.FieldGlossary, len(classified))
	return Result{
		RequestID:  requestID,
		Generation: gen,
		Classified: len(classified),
		State:      state,
	}, nil
}

// SetCategory changes the category of one line item and records the choice
// in the glossary.
func (s *Session) SetCategory(index int, category string) (model.CategorizedLineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := categorize.Recategorize(s.categorized, index, category)
	if err != nil {
		return model.CategorizedLineItem{}, err
	}
	s.categorized = updated
	s.setGlossaryLocked(categorize.MergeGlossary(updated, s.glossary))
	s.recomputeLocked()

	s.logger.Debug("line item recategorized", log.NewFields().
		WithOperation(log.OpRecategory).
		With("index", index).
		With("category", updated[index].Category).ToSlice()...)
	return updated[index], nil
}

// SetDesiredCategories replaces the desired category list. Blank and
// duplicate names are dropped.
func (s *Session) SetDesiredCategories(categories []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.desired = DedupeCategories(categories)
	s.recomputeLocked()
	return append([]string{}, s.desired...)
}

// ImportGlossary reads a glossary file and merges it into the current
// glossary, imported entries winning. Current items are re-tagged. A
// malformed file leaves the state untouched.
func (s *Session) ImportGlossary(r io.Reader) (model.Glossary, error) {
	imported, err := glossary.Read(r)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setGlossaryLocked(categorize.MergeClassified(imported, s.glossary))
	if len(s.lineItems) > 0 {
		s.categorized = categorize.Tag(categorize.SanitizeLineItems(s.lineItems), s.glossary)
		s.recomputeLocked()
	}
	s.logger.Info("glossary imported", log.NewFields().
		WithOperation(log.OpImport).With(log.FieldGlossary, len(imported)).ToSlice()...)
	return s.glossary.Clone(), nil
}

// ExportGlossary writes the glossary in its text format.
func (s *Session) ExportGlossary(w io.Writer) error {
	s.mu.Lock()
	g := s.glossary.Clone()
	s.mu.Unlock()

	if err := glossary.Write(w, g); err != nil {
		return err
	}
	s.logger.Info("glossary exported", log.NewFields().
		WithOperation(log.OpExport).With(log.FieldGlossary, len(g)).ToSlice()...)
	return nil
}

// ClearGlossary removes every glossary entry. Current categories stay.
func (s *Session) ClearGlossary() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.glossary = model.Glossary{}
}

// ExportSums writes the category sums as CSV.
func (s *Session) ExportSums(w io.Writer) error {
	s.mu.Lock()
	sums := append(model.CategorySums{}, s.sums...)
	s.mu.Unlock()

	if err := summary.WriteCSV(w, sums); err != nil {
		return err
	}
	s.logger.Info("sums exported", log.NewFields().
		WithOperation(log.OpExport).With(log.FieldCategories, len(sums)).ToSlice()...)
	return nil
}

// Reset drops the current statement. Any in-flight classification will be
// discarded when it returns.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.bank = ""
	s.lineItems = nil
	s.categorized = nil
	s.recomputeLocked()
}

// setGlossaryLocked replaces the glossary only when it actually changed, so
// a no-op merge does not count as an update.
func (s *Session) setGlossaryLocked(g model.Glossary) {
	if !g.Equal(s.glossary) {
		s.glossary = g
	}
}

func (s *Session) recomputeLocked() {
	s.sums = summary.Compute(s.categorized, s.desired)
}

// DedupeCategories trims names, drops blanks and keeps the first occurrence
// of each name.
func DedupeCategories(categories []string) []string {
	seen := make(map[string]bool, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
