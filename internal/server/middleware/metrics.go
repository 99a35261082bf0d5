package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/astrasemi/qualitylens/internal/insight"
	"github.com/astrasemi/qualitylens/internal/observability"
)

// statusRecorder captures the status code and body size written downstream.
type statusRecorder struct {
	http.ResponseWriter
	status       int
	bytesWritten int64
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytesWritten += int64(n)
	return n, err
}

// knownEndpoints are the label values used when no chi route pattern is
// available. Anything else is "/unknown" to keep label cardinality bounded.
var knownEndpoints = map[string]string{
	"/":              "/",
	insight.Endpoint: insight.Endpoint,
	"/version":       "/version",
	"/metrics":       "/metrics",
	"/admin/signal":  "/admin/signal",
}

func getEndpointPattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	path := r.URL.Path
	if path == "/health" || strings.HasPrefix(path, "/health/") {
		return "/health/*"
	}
	if endpoint, ok := knownEndpoints[path]; ok {
		return endpoint
	}
	return "/unknown"
}

// RequestMetrics emits per-request HTTP metrics when telemetry is enabled
// and logs one completion line per request.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		endpoint := getEndpointPattern(r)
		requestSize := r.ContentLength
		if requestSize < 0 {
			requestSize = 0
		}

		if sys := observability.TelemetrySystem; sys != nil {
			emitRequestMetrics(sys, r.Method, endpoint, rec.status, duration, requestSize, rec.bytesWritten)
		}

		if logger := observability.ServerLogger; logger != nil {
			logger.Info("HTTP request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("endpoint", endpoint),
				zap.Int("status", rec.status),
				zap.Duration("duration", duration),
				zap.Int64("request_size", requestSize),
				zap.Int64("response_size", rec.bytesWritten),
				zap.String("requestID", GetRequestID(r.Context())),
			)
		}
	})
}

func emitRequestMetrics(sys *telemetry.System, method, endpoint string, status int, duration time.Duration, requestSize, responseSize int64) {
	statusText := strconv.Itoa(status)
	labels := map[string]string{
		"method":   method,
		"endpoint": endpoint,
		"status":   statusText,
	}
	sizeLabels := map[string]string{
		"method":   method,
		"endpoint": endpoint,
	}

	_ = sys.Counter("http_requests_total", 1, labels)
	_ = sys.Histogram("http_request_duration_ms", duration, labels)
	_ = sys.Gauge("http_request_size_bytes", float64(requestSize), sizeLabels)
	_ = sys.Gauge("http_response_size_bytes", float64(responseSize), sizeLabels)

	if status < http.StatusBadRequest {
		return
	}
	errorType := "client_error"
	if status >= http.StatusInternalServerError {
		errorType = "server_error"
	}
	_ = sys.Counter("http_errors_total", 1, map[string]string{
		"method":     method,
		"endpoint":   endpoint,
		"status":     statusText,
		"error_type": errorType,
	})
}
