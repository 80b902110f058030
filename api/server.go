package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	things "github.com/goliatone/go-things"
	"github.com/goliatone/go-things/metrics"
	"github.com/goliatone/go-things/middleware/callerware"
)

// Authenticator resolves callers and issues tokens
type Authenticator interface {
	callerware.CallerResolver
	Login(ctx context.Context, username, password string) (string, error)
}

// Server exposes the secured thing repository over HTTP
type Server struct {
	app     *fiber.App
	auth    Authenticator
	repo    things.ThingRepository
	logger  things.Logger
	metrics *metrics.Metrics
}

// Option configures the server
type Option func(*Server)

// WithLogger sets the server logger
func WithLogger(logger things.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records request metrics and exposes them on /metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New builds the fiber app and registers every route. repo is expected to
// be the secured repository; the server performs no role checks itself.
func New(auth Authenticator, repo things.ThingRepository, opts ...Option) *Server {
	s := &Server{
		auth:   auth,
		repo:   repo,
		logger: noopLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "go-things",
		DisableStartupMessage: true,
		StrictRouting:         false,
		ErrorHandler:          s.errorHandler,
	})

	s.routes()

	return s
}

func (s *Server) routes() {
	if s.metrics != nil {
		s.app.Use(s.metrics.Middleware())
		s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	s.app.Use(recover.New())

	s.app.Post("/login", s.login)

	secured := s.app.Group("/things", callerware.New(callerware.Config{
		Resolver:     s.auth,
		AllowBasic:   true,
		ErrorHandler: s.errorHandler,
		ResolvedListeners: []callerware.ResolvedListener{
			func(c *fiber.Ctx, caller things.Caller) error {
				s.logger.Debug("caller resolved", "username", caller.Username, "path", c.Path())
				return nil
			},
		},
	}))

	secured.Get("/", s.listThings)
	secured.Get("/count", s.countThings)
	secured.Get("/:id", s.getThing)
	secured.Post("/", s.createThing)
	secured.Put("/:id", s.updateThing)
	secured.Delete("/:id", s.deleteThing)
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown is called
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
