package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	apperrors "github.com/astrasemi/qualitylens/internal/errors"
	"github.com/astrasemi/qualitylens/internal/observability"
	"github.com/astrasemi/qualitylens/internal/server/handlers"
	servermw "github.com/astrasemi/qualitylens/internal/server/middleware"
)

const (
	defaultReadTimeout = 30 * time.Second
	// Covers one provider round trip plus encoding.
	defaultWriteTimeout = 90 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	// writeHeadroom is kept between the handler bound and the write deadline
	// so a timed out provider call still gets its degraded answer written.
	writeHeadroom = 10 * time.Second
)

// Options configures the HTTP server.
type Options struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// HandlerTimeout is the longest an insight call may run. WriteTimeout is
	// raised to at least HandlerTimeout plus headroom.
	HandlerTimeout time.Duration

	// Insight serves POST /api/quality-insight. When nil the route answers 500.
	Insight handlers.InsightService

	// AdminToken enables POST /admin/signal when non-empty.
	AdminToken string
}

func (o Options) withDefaults() Options {
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = defaultReadTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteTimeout
	}
	if o.HandlerTimeout > 0 {
		o.WriteTimeout = max(o.WriteTimeout, o.HandlerTimeout+writeHeadroom)
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = defaultIdleTimeout
	}
	return o
}

// Server is the quality insight backend.
type Server struct {
	router *chi.Mux
	server *http.Server
	opts   Options
}

// New builds the router with middleware and routes installed. The listener
// is not opened until Start.
func New(opts Options) *Server {
	s := &Server{
		router: chi.NewRouter(),
		opts:   opts.withDefaults(),
	}

	// Order matters: ids first so metrics and panics can report them.
	s.router.Use(middleware.RealIP, servermw.RequestID, servermw.RequestMetrics, servermw.Recovery)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperrors.RespondWithError(w, r, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apperrors.RespondWithError(w, r, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s.registerRoutes()
	return s
}

// Addr is the host:port the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Start listens on Addr and blocks until the server stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	if logger := observability.ServerLogger; logger != nil {
		logger.Info("Quality insight server listening",
			zap.String("addr", s.server.Addr),
			zap.Bool("insight_configured", s.opts.Insight != nil),
			zap.Duration("write_timeout", s.opts.WriteTimeout))
	}

	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if logger := observability.ServerLogger; logger != nil {
		logger.Info("Draining HTTP server")
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Port() int {
	return s.opts.Port
}
