// Package httpapi is the public and admin HTTP surface of the service.
package httpapi

import (
	"ColorPredict/internal/core/ports"
	"ColorPredict/internal/core/verification"
	"ColorPredict/internal/shared/config"
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Deps are the collaborators of the HTTP server.
type Deps struct {
	Store        *verification.Store
	Tokens       ports.TokenPort
	Bus          ports.EventBus
	Gatherer     prometheus.Gatherer // Optional; nil disables /metrics
	AdminChatIDs []int64
}

// Server wraps the fiber app.
type Server struct {
	app      *fiber.App
	cfg      *config.HTTPConfig
	deps     Deps
	admins   map[int64]bool
	validate *validator.Validate
	log      zerolog.Logger
}

// NewServer builds the app and registers every route.
func NewServer(cfg *config.HTTPConfig, deps Deps, baseLogger *zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		deps:     deps,
		admins:   make(map[int64]bool, len(deps.AdminChatIDs)),
		validate: newValidator(),
		log:      baseLogger.With().Str("component", "http_server").Logger(),
	}
	for _, id := range deps.AdminChatIDs {
		s.admins[id] = true
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "ColorPredict",
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		ErrorHandler:          s.errorHandler,
	})
	s.routes()
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) routes() {
	s.app.Use(recover.New())
	s.app.Use(requestLogger(s.log))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return success(c, "ok", nil)
	})
	if s.deps.Gatherer != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := s.app.Group("/api")
	api.Post("/verify-account", limiter.New(limiter.Config{
		Max:        s.cfg.SubmitRateLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fail(c, fiber.StatusTooManyRequests, "Too many requests. Please try again later.")
		},
	}), s.handleSubmit)

	// Action links authenticate with their own signed token, so the
	// bearer check is applied per route.
	bearer := adminAuth(s.deps.Tokens, s.log)
	admin := api.Group("/admin/account-verifications")
	admin.Get("/", bearer, s.handleList)
	admin.Get("/status/:status", bearer, s.handleListByStatus)
	admin.Get("/:id", s.linkActionOr(bearer), s.handleGet)
	admin.Post("/:id", bearer, s.handleUpdate)
}

// Start listens on the configured address until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.ListenAddr).Msg("HTTP server listening")
		errCh <- s.app.Listen(s.cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		s.log.Error().Err(err).Msg("HTTP server failed")
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down HTTP server...")
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		s.log.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}
	s.log.Info().Msg("HTTP server stopped gracefully")
	return nil
}

// errorHandler renders errors returned by handlers in the envelope.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fail(c, fe.Code, fe.Message)
	}

	status, msg := statusFor(err)
	if status == fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}
	return fail(c, status, msg)
}
