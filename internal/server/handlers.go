package server

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/smartbud-dev/smartbud/internal/buildinfo"
	"github.com/smartbud-dev/smartbud/internal/categorize"
	"github.com/smartbud-dev/smartbud/internal/classifier"
	"github.com/smartbud-dev/smartbud/internal/glossary"
	"github.com/smartbud-dev/smartbud/internal/importer"
	"github.com/smartbud-dev/smartbud/internal/session"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Classifier string `json:"classifier,omitempty"`
}

// CategoryRequest is the body of PUT /api/line-items/:index/category.
type CategoryRequest struct {
	Category string `json:"category"`
}

// CategoriesRequest is the body of PUT /api/categories.
type CategoriesRequest struct {
	Categories []string `json:"categories"`
}

// handleError maps domain errors to status codes.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, importer.ErrUnsupportedFileType):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, importer.ErrUnknownFormat),
		errors.Is(err, glossary.ErrFormat),
		errors.Is(err, glossary.ErrEmptyGlossary),
		errors.Is(err, glossary.ErrInvalidEntry),
		errors.Is(err, session.ErrNoLineItems):
		return fiber.StatusBadRequest
	case errors.Is(err, categorize.ErrIndexOutOfRange):
		return fiber.StatusNotFound
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrStale):
		return fiber.StatusConflict
	case errors.Is(err, session.ErrNoClassifier):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, classifier.ErrClassifierStatus), errors.Is(err, classifier.ErrTransport):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := HealthResponse{Status: "ok", Version: buildinfo.Version}
	if s.opts.ClassifierPinger != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
		defer cancel()
		resp.Classifier = "ok"
		if err := s.opts.ClassifierPinger.Ping(ctx); err != nil {
			resp.Classifier = "unreachable"
		}
	}
	return c.JSON(resp)
}

func (s *Server) handleBanks(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"banks": s.session.Banks()})
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "no file uploaded; use form field 'file'")
	}
	bank := c.FormValue("bank")
	if strings.TrimSpace(bank) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing form field 'bank'")
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	items, err := s.session.Upload(fh.Filename, fh.Header.Get(fiber.HeaderContentType), bank, f)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"bank":       strings.ToLower(bank),
		"count":      len(items),
		"line_items": items,
	})
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	s.session.Reset()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleLineItems(c *fiber.Ctx) error {
	st := s.session.Snapshot()
	return c.JSON(fiber.Map{
		"generation":  st.Generation,
		"bank":        st.Bank,
		"line_items":  st.LineItems,
		"categorized": st.Categorized,
	})
}

func (s *Server) handleSetCategory(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "index must be an integer")
	}
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	item, err := s.session.SetCategory(index, req.Category)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

func (s *Server) handleClassify(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if s.opts.ClassifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ClassifyTimeout)
		defer cancel()
	}
	res, err := s.session.Classify(ctx)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) handleGetCategories(c *fiber.Ctx) error {
	return c.JSON(CategoriesRequest{Categories: s.session.Snapshot().DesiredCategories})
}

func (s *Server) handlePutCategories(c *fiber.Ctx) error {
	var req CategoriesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	return c.JSON(CategoriesRequest{Categories: s.session.SetDesiredCategories(req.Categories)})
}

func (s *Server) handleSums(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"sums": s.session.Snapshot().Sums})
}

func (s *Server) handleSumsCSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := s.session.ExportSums(&buf); err != nil {
		return err
	}
	c.Attachment(s.opts.SumsFileName)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

func (s *Server) handleGetGlossary(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"glossary": s.session.Snapshot().Glossary})
}

func (s *Server) handleExportGlossary(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := s.session.ExportGlossary(&buf); err != nil {
		return err
	}
	c.Attachment(s.opts.GlossaryFileName)
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Send(buf.Bytes())
}

func (s *Server) handleImportGlossary(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "no file uploaded; use form field 'file'")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	g, err := s.session.ImportGlossary(f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"glossary": g})
}

func (s *Server) handleClearGlossary(c *fiber.Ctx) error {
	s.session.ClearGlossary()
	return c.SendStatus(fiber.StatusNoContent)
}
