package server

import (
	"net/http"

	"github.com/fulmenhq/gofulmen/signals"
	"go.uber.org/zap"

	"github.com/astrasemi/qualitylens/internal/insight"
	"github.com/astrasemi/qualitylens/internal/observability"
	"github.com/astrasemi/qualitylens/internal/server/handlers"
)

const (
	adminSignalPath = "/admin/signal"

	// Per-minute rate and burst for the admin signal endpoint.
	adminRateLimit = 10
	adminRateBurst = 5
)

func (s *Server) registerRoutes() {
	s.router.Post(insight.Endpoint, handlers.NewQualityInsightHandler(s.opts.Insight).ServeHTTP)

	for path, probe := range map[string]http.HandlerFunc{
		"/health":         handlers.HealthHandler,
		"/health/live":    handlers.LivenessHandler,
		"/health/ready":   handlers.ReadinessHandler,
		"/health/startup": handlers.StartupHandler,
	} {
		s.router.Get(path, probe)
	}

	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", MetricsHandler)

	if s.opts.AdminToken != "" {
		s.mountAdminSignals()
	} else if logger := observability.ServerLogger; logger != nil {
		logger.Debug("Admin signal endpoint disabled; no admin token configured")
	}
}

// mountAdminSignals exposes reload and shutdown over HTTP behind a bearer
// token.
func (s *Server) mountAdminSignals() {
	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.opts.AdminToken,
		RateLimit: adminRateLimit,
		RateBurst: adminRateBurst,
	})
	s.router.Post(adminSignalPath, handler.ServeHTTP)

	if logger := observability.ServerLogger; logger != nil {
		logger.Warn("Admin signal endpoint enabled; keep this server off public networks",
			zap.String("path", adminSignalPath),
			zap.Int("rate_per_minute", adminRateLimit),
			zap.Int("burst", adminRateBurst))
	}
}
