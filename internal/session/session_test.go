package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartbud-dev/smartbud/internal/categorize"
	"github.com/smartbud-dev/smartbud/internal/glossary"
	"github.com/smartbud-dev/smartbud/internal/importer"
	"github.com/smartbud-dev/smartbud/internal/log"
	"github.com/smartbud-dev/smartbud/internal/model"
)

const tdStatement = "2024-01-05,Coffee Shop,4.50,,100.00\n" +
	"2024-01-06,PAYROLL,,2000.00,2100.00\n" +
	"2024-01-07,Hydro Bill,80.25,,2019.75\n"

type fakeClassifier struct {
	out     model.ClassifiedItems
	err     error
	calls   int
	gotDesc []string
	gotCats []string
	// started and release, when set, let a test hold a call in flight.
	started chan struct{}
	release chan struct{}
}

func (f *fakeClassifier) Classify(ctx context.Context, items []model.LineItem, desired []string) (model.ClassifiedItems, error) {
	f.calls++
	f.gotDesc = nil
	for _, it := range items {
		f.gotDesc = append(f.gotDesc, it.Description)
	}
	f.gotCats = desired
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.out, f.err
}

func newSession(t *testing.T, c *fakeClassifier) *Session {
	t.Helper()
	return New(Options{Classifier: c, DesiredCategories: []string{"food", "utility", "food"}})
}

func upload(t *testing.T, s *Session) {
	t.Helper()
	_, err := s.Upload("statement.csv", "text/csv", "td", strings.NewReader(tdStatement))
	require.NoError(t, err)
}

func sumOf(t *testing.T, st State, category string) string {
	t.Helper()
	for _, cs := range st.Sums {
		if cs.Category == category {
			return cs.Sum.StringFixed(2)
		}
	}
	t.Fatalf("category %q not in sums %v", category, st.Sums.Categories())
	return ""
}

func TestNew_SeedsDesiredCategories(t *testing.T) {
	s := newSession(t, &fakeClassifier{})
	st := s.Snapshot()

	assert.Equal(t, []string{"food", "utility"}, st.DesiredCategories)
	assert.Equal(t, []string{"food", "utility"}, st.Sums.Categories())
	assert.Empty(t, st.Glossary)
	assert.False(t, st.Busy)
}

func TestUpload(t *testing.T) {
	s := newSession(t, &fakeClassifier{})
	items, err := s.Upload("statement.csv", "", "TD", strings.NewReader(tdStatement))
	require.NoError(t, err)
	require.Len(t, items, 3)

	st := s.Snapshot()
	assert.Equal(t, uint64(1), st.Generation)
	assert.Equal(t, "td", st.Bank)
	assert.Equal(t, "Coffee Shop", st.LineItems[0].Description)
	require.Len(t, st.Categorized, 3)
	assert.Equal(t, "coffee shop", st.Categorized[0].Description)
	assert.Equal(t, model.Uncategorized, st.Categorized[0].Category)
	// 4.50 + 80.25 - 2000.00
	assert.Equal(t, "-1915.25", sumOf(t, st, model.Uncategorized))
}

func TestUpload_RejectsFileType(t *testing.T) {
	s := newSession(t, &fakeClassifier{})
	upload(t, s)

	_, err := s.Upload("scan.pdf", "application/pdf", "td", strings.NewReader(tdStatement))
	require.ErrorIs(t, err, importer.ErrUnsupportedFileType)
	assert.Equal(t, uint64(1), s.Snapshot().Generation)
}

func TestUpload_UnknownBank(t *testing.T) {
	s := newSession(t, &fakeClassifier{})
	_, err := s.Upload("statement.csv", "text/csv", "rbc", strings.NewReader(tdStatement))
	require.ErrorIs(t, err, importer.ErrUnknownFormat)
	assert.Empty(t, s.Snapshot().LineItems)
}

func TestUpload_TagsFromGlossary(t *testing.T) {
	s := newSession(t, &fakeClassifier{})
	_, err := s.ImportGlossary(strings.NewReader("coffee shop|||food"))
	require.NoError(t, err)

	upload(t, s)
	st := s.Snapshot()
	assert.Equal(t, "food", st.Categorized[0].Category)
	assert.Equal(t, "4.50", sumOf(t, st, "food"))
}

func TestUpload_TagsFromImportedUnicodeGlossary(t *testing.T) {
	s := newSession(t, &fakeClassifier{})
	_, err := s.ImportGlossary(strings.NewReader("ΚΑΦΕΣ|||Food\n"))
	require.NoError(t, err)

	_, err = s.Upload("statement.csv", "text/csv", "td", strings.NewReader("2024-01-05,ΚΑΦΕΣ,4.50,,100.00\n"))
	require.NoError(t, err)

	st := s.Snapshot()
	require.Len(t, st.Categorized, 1)
	assert.Equal(t, "food", st.Categorized[0].Category)
	assert.Equal(t, "4.50", sumOf(t, st, "food"))
}

func TestClassify(t *testing.T) {
	c := &fakeClassifier{out: model.ClassifiedItems{"coffee shop": "Food", "HYDRO BILL": "Utility"}}
	s := newSession(t, c)
	upload(t, s)

	res, err := s.Classify(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, 2, res.Classified)
	assert.False(t, res.State.Busy)

	// Descriptions are sanitized before dispatch.
	assert.Equal(t, []string{"coffee shop", "payroll", "hydro bill"}, c.gotDesc)
	assert.Equal(t, []string{"food", "utility"}, c.gotCats)

	st := s.Snapshot()
	assert.Equal(t, "food", st.Categorized[0].Category)
	assert.Equal(t, model.Uncategorized, st.Categorized[1].Category)
	assert.Equal(t, "utility", st.Categorized[2].Category)

	assert.Equal(t, model.Glossary{
		"coffee shop": "food",
		"hydro bill":  "utility",
		"payroll":     model.Uncategorized,
	}, st.Glossary)

	assert.Equal(t, "4.50", sumOf(t, st, "food"))
	assert.Equal(t, "80.25", sumOf(t, st, "utility"))
	assert.Equal(t, "-2000.00", sumOf(t, st, model.Uncategorized))
}

func TestClassify_NewEntriesWin(t *testing.T) {
	c := &fakeClassifier{out: model.ClassifiedItems{"coffee shop": "food"}}
	s := newSession(t, c)
	_, err := s.ImportGlossary(strings.NewReader("coffee shop|||entertainment\nnetflix|||tech services"))
	require.NoError(t, err)
	upload(t, s)

	_, err = s.Classify(context.Background())
	require.NoError(t, err)

	g := s.Snapshot().Glossary
	assert.Equal(t, "food", g["coffee shop"])
	assert.Equal(t, "tech services", g["netflix"])
}

func TestClassify_FailureLeavesState(t *testing.T) {
	c := &fakeClassifier{err: errors.New("502 bad gateway")}
	s := newSession(t, c)
	upload(t, s)
	before := s.Snapshot()

	_, err := s.Classify(context.Background())
	require.Error(t, err)

	after := s.Snapshot()
	assert.Equal(t, before, after)
	assert.False(t, s.Busy(), "busy flag must clear after failure")
}

func TestClassify_NoLineItems(t *testing.T) {
	c := &fakeClassifier{}
	s := newSession(t, c)
	_, err := s.Classify(context.Background())
	assert.ErrorIs(t, err, ErrNoLineItems)
	assert.Zero(t, c.calls)
}

func TestClassify_NoClassifier(t *testing.T) {
	s := New(Options{})
	_, err := s.Classify(context.Background())
	assert.ErrorIs(t, err, ErrNoClassifier)
}

func TestClassify_BusyRejectsSecondCall(t *testing.T) {
	c := &fakeClassifier{
		out:     model.ClassifiedItems{"coffee shop": "food"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newSession(t, c)
	upload(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.Classify(context.Background())
		done <- err
	}()
	<-c.started

	assert.True(t, s.Busy())
	assert.True(t, s.Snapshot().Busy)
	_, err := s.Classify(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(c.release)
	require.NoError(t, <-done)
	assert.False(t, s.Busy())
}

func TestClassify_ConcurrentReadsDoNotBlock(t *testing.T) {
	s := newSession(t, &fakeClassifier{out: model.ClassifiedItems{"coffee shop": "food"}})
	upload(t, s)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					s.Busy()
					s.Snapshot()
				}
			}
		}()
	}

	var rejected int
	for i := 0; i < 500; i++ {
		if _, err := s.Classify(context.Background()); err != nil {
			require.ErrorIs(t, err, ErrBusy)
			rejected++
		}
	}
	close(stop)
	wg.Wait()

	assert.Zero(t, rejected, "sequential classify calls must never be rejected as busy")
	assert.False(t, s.Busy())
}

func TestClassify_StaleResponseDiscarded(t *testing.T) {
	c := &fakeClassifier{
		out:     model.ClassifiedItems{"coffee shop": "food"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newSession(t, c)
	upload(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.Classify(context.Background())
		done <- err
	}()
	<-c.started

	// A new upload arrives while the first classification is in flight.
	_, err := s.Upload("other.csv", "text/csv", "td", strings.NewReader("2024-02-01,Groceries,12.00,,0\n"))
	require.NoError(t, err)

	close(c.release)
	require.ErrorIs(t, <-done, ErrStale)

	st := s.Snapshot()
	assert.Empty(t, st.Glossary)
	require.Len(t, st.Categorized, 1)
	assert.Equal(t, model.Uncategorized, st.Categorized[0].Category)
}

func TestClassify_ResetDiscardsResponse(t *testing.T) {
	c := &fakeClassifier{
		out:     model.ClassifiedItems{"coffee shop": "food"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newSession(t, c)
	upload(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.Classify(context.Background())
		done <- err
	}()
	<-c.started
	s.Reset()
	close(c.release)

	require.ErrorIs(t, <-done, ErrStale)
	assert.Empty(t, s.Snapshot().LineItems)
}

func TestSetCategory(t *testing.T) {
	s := newSession(t, &fakeClassifier{})
	upload(t, s)

	got, err := s.SetCategory(1, " Income ")
	require.NoError(t, err)
	assert.Equal(t, "income", got.Category)

	st := s.Snapshot()
	assert.Equal(t, "income", st.Glossary["payroll"])
	assert.Equal(t, "-2000.00", sumOf(t, st, "income"))

	_, err = s.SetCategory(9, "x")
	assert.ErrorIs(t, err, categorize.ErrIndexOutOfRange)
}

func TestSetDesiredCategories(t *testing.T) {
	s := newSession(t, &fakeClassifier{})
	got := s.SetDesiredCategories([]string{" shopping", "", "shopping", "Tech Services"})
	assert.Equal(t, []string{"shopping", "Tech Services"}, got)
	assert.Equal(t, []string{"shopping", "tech services"}, s.Snapshot().Sums.Categories())
}

func TestImportGlossary_FormatErrorLeavesState(t *testing.T) {
	s := newSession(t, &fakeClassifier{})
	_, err := s.ImportGlossary(strings.NewReader("a|||b"))
	require.NoError(t, err)

	_, err = s.ImportGlossary(strings.NewReader("c|||d\nbad line without delimiter"))
	require.ErrorIs(t, err, glossary.ErrFormat)
	assert.Equal(t, model.Glossary{"a": "b"}, s.Snapshot().Glossary)
}

func TestExportGlossary(t *testing.T) {
	s := newSession(t, &fakeClassifier{})

	var buf bytes.Buffer
	require.ErrorIs(t, s.ExportGlossary(&buf), glossary.ErrEmptyGlossary)

	_, err := s.ImportGlossary(strings.NewReader("Uber Eats|||Food\nhydro|||utility"))
	require.NoError(t, err)
	require.NoError(t, s.ExportGlossary(&buf))
	assert.Equal(t, "hydro|||utility\nuber eats|||food", buf.String())
}

func TestClearGlossary(t *testing.T) {
	s := newSession(t, &fakeClassifier{})
	_, err := s.ImportGlossary(strings.NewReader("a|||b"))
	require.NoError(t, err)
	s.ClearGlossary()
	assert.Empty(t, s.Snapshot().Glossary)
}

func TestExportSums(t *testing.T) {
	s := newSession(t, &fakeClassifier{})
	upload(t, s)
	_, err := s.SetCategory(0, "food")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.ExportSums(&buf))
	assert.Equal(t, "food,4.50\nuncategorized,-1919.75\nutility,0.00", buf.String())
}

func TestEditsAndExportsAreLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Format: "json", Output: &logs})
	s := New(Options{Logger: logger, DesiredCategories: []string{"food"}})
	upload(t, s)

	_, err := s.SetCategory(0, "food")
	require.NoError(t, err)
	require.NoError(t, s.ExportSums(&bytes.Buffer{}))
	require.NoError(t, s.ExportGlossary(&bytes.Buffer{}))

	var ops []string
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if op, ok := rec[log.FieldOperation].(string); ok {
			ops = append(ops, op)
		}
	}
	assert.Equal(t, []string{log.OpUpload, log.OpRecategory, log.OpExport, log.OpExport}, ops)
}

func TestDedupeCategories(t *testing.T) {
	assert.Equal(t, []string{}, DedupeCategories(nil))
	assert.Equal(t, []string{"a", "B", "b"}, DedupeCategories([]string{"a", " a ", "B", "b", "\t"}))
}
