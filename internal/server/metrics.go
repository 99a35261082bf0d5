package server

import (
	"io"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	apperrors "github.com/astrasemi/qualitylens/internal/errors"
	"github.com/astrasemi/qualitylens/internal/observability"
)

const (
	fallbackExporterPort = 9090
	prometheusTextFormat = "text/plain; version=0.0.4"
)

var metricsProxyClient = &http.Client{Timeout: 5 * time.Second}

// hopHeaders are not forwarded from the exporter response.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

func exporterURL() string {
	port := observability.GetMetricsPort()
	if port == 0 {
		port = fallbackExporterPort
	}
	return "http://127.0.0.1:" + strconv.Itoa(port) + "/metrics"
}

// MetricsHandler serves /metrics on the main listener by relaying the
// Prometheus exporter's own endpoint.
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	if observability.PrometheusExporter == nil {
		apperrors.RespondWithError(w, r, errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "Metrics exporter not initialized"))
		return
	}

	target := exporterURL()
	upstreamFailure := func(code, message string, cause error) {
		envelope, _ := errors.NewErrorEnvelope(code, message).WithContext(map[string]interface{}{
			"metrics_url":    target,
			"original_error": cause.Error(),
		})
		apperrors.RespondWithError(w, r, envelope)
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		upstreamFailure("INTERNAL_ERROR", "Unable to construct metrics request", err)
		return
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := metricsProxyClient.Do(req)
	if err != nil {
		upstreamFailure("EXTERNAL_SERVICE_ERROR", "Prometheus exporter unavailable", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	for key, values := range resp.Header {
		if hopHeaders[textproto.CanonicalMIMEHeaderKey(key)] {
			continue
		}
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", prometheusTextFormat)
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil && observability.ServerLogger != nil {
		observability.ServerLogger.Warn("Relaying exporter output failed", zap.Error(err))
	}
}
