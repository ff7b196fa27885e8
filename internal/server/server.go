// Package server exposes a session over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/smartbud-dev/smartbud/internal/buildinfo"
	"github.com/smartbud-dev/smartbud/internal/glossary"
	"github.com/smartbud-dev/smartbud/internal/log"
	"github.com/smartbud-dev/smartbud/internal/session"
	"github.com/smartbud-dev/smartbud/internal/summary"
)

const (
	shutdownTimeout = 10 * time.Second
	pingTimeout     = 3 * time.Second
)

// Pinger reports whether the classification service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	BodyLimit        int
	ClassifyTimeout  time.Duration
	GlossaryFileName string
	SumsFileName     string
	ClassifierPinger Pinger
	Logger           *log.Logger
}

// Server serves one Session.
type Server struct {
	app     *fiber.App
	session *session.Session
	opts    Options
	logger  *log.Logger
}

// New builds the fiber app and registers routes.
func New(sess *session.Session, opts Options) *Server {
	if opts.GlossaryFileName == "" {
		opts.GlossaryFileName = glossary.DefaultFileName
	}
	if opts.SumsFileName == "" {
		opts.SumsFileName = summary.DefaultFileName
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	s := &Server{
		session: sess,
		opts:    opts,
		logger:  logger.WithComponent(log.ComponentHTTP),
	}

	cfg := fiber.Config{
		AppName:               "smartbud " + buildinfo.Version,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	}
	if opts.BodyLimit > 0 {
		cfg.BodyLimit = opts.BodyLimit
	}
	s.app = fiber.New(cfg)
	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(s.logRequests)
	s.registerRoutes()
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	api.Get("/health", s.handleHealth)
	api.Get("/banks", s.handleBanks)

	api.Post("/statements", s.handleUpload)
	api.Delete("/statements", s.handleReset)
	api.Get("/line-items", s.handleLineItems)
	api.Put("/line-items/:index/category", s.handleSetCategory)

	api.Post("/classify", s.handleClassify)

	api.Get("/categories", s.handleGetCategories)
	api.Put("/categories", s.handlePutCategories)

	api.Get("/sums", s.handleSums)
	api.Get("/sums.csv", s.handleSumsCSV)

	api.Get("/glossary", s.handleGetGlossary)
	api.Get("/glossary.txt", s.handleExportGlossary)
	api.Post("/glossary", s.handleImportGlossary)
	api.Delete("/glossary", s.handleClearGlossary)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", log.NewFields().
			WithOperation(log.OpStartup).With("addr", addr).ToSlice()...)
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down", log.FieldOperation, log.OpShutdown)
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = statusFor(err)
	}

	fields := log.NewFields().
		With(log.FieldRequestID, c.GetRespHeader(fiber.HeaderXRequestID)).
		With(log.FieldMethod, c.Method()).
		With(log.FieldPath, c.Path()).
		With(log.FieldStatusCode, status).
		With(log.FieldDuration, time.Since(start).Milliseconds())
	if err != nil {
		fields = fields.WithError(err)
	}
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request", fields.ToSlice()...)
	} else {
		s.logger.Debug("request", fields.ToSlice()...)
	}
	return err
}
