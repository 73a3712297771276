// Package api exposes the moderation engine over HTTP.
package api

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/elum-utils/moderate/core"
	"github.com/elum-utils/moderate/models"
)

const defaultMaxUploadBytes = 5 * 1024 * 1024

var defaultAllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}

// Options configure the server.
type Options struct {
	Core   *core.Core
	Logger *logrus.Logger
	// MaxUploadBytes caps image uploads. Defaults to 5 MiB.
	MaxUploadBytes int
	// AllowedExtensions whitelists image upload extensions (with dot).
	AllowedExtensions []string
}

// Server is the HTTP front end.
type Server struct {
	app       *fiber.App
	core      *core.Core
	logger    *logrus.Logger
	registry  *prometheus.Registry
	decisions *prometheus.CounterVec
	maxUpload int
	allowed   map[string]struct{}
}

// New creates the server and registers all routes.
func New(opt Options) *Server {
	logger := opt.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	maxUpload := opt.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	exts := opt.AllowedExtensions
	if len(exts) == 0 {
		exts = defaultAllowedExtensions
	}
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	registry := prometheus.NewRegistry()
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_decisions_total",
		Help: "Moderation decisions by endpoint and verdict.",
	}, []string{"endpoint", "flagged"})
	registry.MustRegister(decisions)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             maxUpload + 1024*1024,
		ReadTimeout:           60 * time.Second,
		WriteTimeout:          60 * time.Second,
	})
	app.Use(recover.New())

	s := &Server{
		app:       app,
		core:      opt.Core,
		logger:    logger,
		registry:  registry,
		decisions: decisions,
		maxUpload: maxUpload,
		allowed:   allowed,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.handleHealth)

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}),
	)
	s.app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	api := s.app.Group("/api")
	api.Post("/check", s.handleCheck)
	api.Post("/filter", s.handleFilter)
	api.Post("/moderate", s.handleModerate)
	api.Post("/check-image", s.handleCheckImage)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen starts serving on addr and blocks.
func (s *Server) Listen(addr string) error {
	s.logger.WithField("addr", addr).Info("moderation API listening")
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

type checkRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleCheck(c *fiber.Ctx) error {
	var req checkRequest
	if err := c.BodyParser(&req); err != nil {
		return clientError(c, "invalid JSON body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return clientError(c, "text cannot be empty")
	}

	decision, cls, err := s.core.Check(c.Context(), req.Text)
	if err != nil {
		return s.serverError(c, err)
	}
	s.decisions.WithLabelValues("check", flaggedLabel(decision.Flagged)).Inc()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"is_profane": decision.Flagged,
		"confidence": decision.Confidence,
		"label":      decision.Label,
		"scores":     cls.Scores,
		"text":       req.Text,
	})
}

type filterRequest struct {
	Text      string   `json:"text"`
	Mode      string   `json:"mode"`
	Threshold *float64 `json:"threshold"`
}

func (s *Server) handleFilter(c *fiber.Ctx) error {
	var req filterRequest
	if err := c.BodyParser(&req); err != nil {
		return clientError(c, "invalid JSON body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return clientError(c, "text cannot be empty")
	}
	mode, err := models.ParseMode(req.Mode)
	if err != nil {
		return clientError(c, "invalid mode, must be one of: full, sentence, block")
	}

	var res models.FilterResult
	if req.Threshold != nil {
		if *req.Threshold < 0 || *req.Threshold > 1 {
			return clientError(c, "threshold must be within [0,1]")
		}
		res, err = s.core.Filter(c.Context(), req.Text, mode, *req.Threshold)
	} else {
		res, err = s.core.Filter(c.Context(), req.Text, mode)
	}
	if err != nil {
		return s.serverError(c, err)
	}
	s.decisions.WithLabelValues("filter", flaggedLabel(res.Flagged)).Inc()
	return c.Status(fiber.StatusOK).JSON(res)
}

type moderateRequest struct {
	Text  string `json:"text"`
	Mode  string `json:"mode"`
	Actor string `json:"actor"`
}

// handleModerate runs the full pipeline including escalation. Requests
// without an actor get a fresh anonymous id, so strikes only accumulate for
// callers that identify themselves.
func (s *Server) handleModerate(c *fiber.Ctx) error {
	var req moderateRequest
	if err := c.BodyParser(&req); err != nil {
		return clientError(c, "invalid JSON body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return clientError(c, "text cannot be empty")
	}
	mode, err := models.ParseMode(req.Mode)
	if err != nil {
		return clientError(c, "invalid mode, must be one of: full, sentence, block")
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		actor = "anon-" + uuid.NewString()
	}

	outcome, err := s.core.Moderate(c.Context(), models.Message{Actor: actor, Text: req.Text}, mode)
	if err != nil {
		return s.serverError(c, err)
	}
	s.decisions.WithLabelValues("moderate", flaggedLabel(outcome.Decision.Flagged)).Inc()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"actor":      actor,
		"is_profane": outcome.Decision.Flagged,
		"confidence": outcome.Decision.Confidence,
		"label":      outcome.Decision.Label,
		"filtered":   outcome.Filtered,
		"strikes":    outcome.Strikes,
		"banned":     outcome.Banned,
	})
}

func (s *Server) handleCheckImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return clientError(c, "missing image file")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := s.allowed[ext]; !ok {
		return clientError(c, "unsupported image extension: "+ext)
	}
	if file.Size > int64(s.maxUpload) {
		return clientError(c, "image exceeds maximum upload size")
	}

	src, err := file.Open()
	if err != nil {
		return s.serverError(c, err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return s.serverError(c, err)
	}

	decision, err := s.core.CheckImage(c.Context(), data)
	if err != nil {
		return s.serverError(c, err)
	}
	s.decisions.WithLabelValues("check_image", flaggedLabel(decision.Flagged)).Inc()
	return c.Status(fiber.StatusOK).JSON(decision)
}

func clientError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func (s *Server) serverError(c *fiber.Ctx, err error) error {
	if errors.Is(err, core.ErrClassifierUnavailable) {
		s.logger.WithError(err).Warn("classifier unavailable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "classification unavailable"})
	}
	s.logger.WithError(err).Error("moderation request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

func flaggedLabel(flagged bool) string {
	if flagged {
		return "true"
	}
	return "false"
}
