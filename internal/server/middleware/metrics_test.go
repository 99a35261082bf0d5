package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrasemi/qualitylens/internal/insight"
	"github.com/astrasemi/qualitylens/internal/observability"
)

func withCollector(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: collector})
	require.NoError(t, err)

	previous := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() { observability.TelemetrySystem = previous })
	return collector
}

func withoutTelemetry(t *testing.T) {
	t.Helper()
	previous := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = previous })
}

func TestRequestMetricsEmitsCountersAndSizes(t *testing.T) {
	collector := withCollector(t)

	handler := RequestMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"riskLevel":"LOW"}`))
	}))

	req := httptest.NewRequest(http.MethodPost, insight.Endpoint, strings.NewReader(`{"text":"operators skip the torque check"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Positive(t, collector.CountMetricsByName("http_requests_total"))
	assert.Positive(t, collector.CountMetricsByName("http_request_duration_ms"))
	assert.Positive(t, collector.CountMetricsByName("http_request_size_bytes"))
	assert.Positive(t, collector.CountMetricsByName("http_response_size_bytes"))
	assert.Zero(t, collector.CountMetricsByName("http_errors_total"))
}

func TestRequestMetricsCountsErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		status int
	}{
		{name: "bad request", status: http.StatusBadRequest},
		{name: "upstream failure", status: http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			collector := withCollector(t)
			handler := RequestMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, insight.Endpoint, nil))

			assert.Equal(t, tc.status, rec.Code)
			assert.Positive(t, collector.CountMetricsByName("http_errors_total"))
		})
	}
}

func TestRequestMetricsWithoutTelemetry(t *testing.T) {
	withoutTelemetry(t)

	handler := RequestMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestStatusRecorderDefaultsToOK(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	n, err := rec.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, http.StatusOK, rec.status)
	assert.EqualValues(t, 3, rec.bytesWritten)
}

func TestGetEndpointPattern(t *testing.T) {
	cases := map[string]string{
		"/":              "/",
		"/health":        "/health/*",
		"/health/ready":  "/health/*",
		"/version":       "/version",
		insight.Endpoint: insight.Endpoint,
		"/admin/signal":  "/admin/signal",
		"/api/other/123": "/unknown",
	}
	for path, want := range cases {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		assert.Equal(t, want, getEndpointPattern(req), path)
	}
}

func TestGetEndpointPatternPrefersChiRoute(t *testing.T) {
	var seen string
	r := chi.NewRouter()
	r.Get("/items/{id}", func(w http.ResponseWriter, req *http.Request) {
		seen = getEndpointPattern(req)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	assert.Equal(t, "/items/{id}", seen)
}

func TestRequestIDHonorsValidClientHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "line-7-shift-b")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "line-7-shift-b", seen)
	assert.Equal(t, "line-7-shift-b", rec.Header().Get(RequestIDHeader))
}

func TestRequestIDReplacesUnusableClientHeader(t *testing.T) {
	for _, bad := range []string{"has space", strings.Repeat("x", maxRequestIDLength+1)} {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, bad)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.NotEqual(t, bad, seen)
		assert.Len(t, seen, 36, "expected generated UUID")
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	}
}

func TestRecoveryInsightEndpointUsesFlatBody(t *testing.T) {
	withoutTelemetry(t)

	handler := RequestID(Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodPost, insight.Endpoint, nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body insight.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body.Error)
	assert.Equal(t, "req-1", body.RequestID)
}

func TestRecoveryOtherRoutesUseEnvelope(t *testing.T) {
	withoutTelemetry(t)

	handler := RequestID(Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	req.Header.Set(RequestIDHeader, "req-2")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Contains(t, body.Error.Message, "boom")
	assert.Equal(t, "req-2", body.Error.RequestID)
}
