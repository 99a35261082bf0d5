// Package metrics names the application's Prometheus series and records
// them through the global telemetry system. Every recorder is a no-op
// while metrics are disabled.
package metrics

import (
	"strconv"
	"time"

	"github.com/astrasemi/qualitylens/internal/observability"
)

// Series names.
const (
	OperationsTotal = "app_operations_total"

	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"

	InsightRequestsTotal = "insight_requests_total"
	InsightDuration      = "insight_duration_ms"
	InsightTokensTotal   = "insight_tokens_total"

	ErrorsTotalName      = "errors_total"
	PanicsTotalName      = "panics_total"
	ErrorsByEndpointName = "errors_by_endpoint"
)

type labels = map[string]string

func count(name string, value float64, l labels) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Counter(name, value, l)
	}
}

func observe(name string, d time.Duration, l labels) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Histogram(name, d, l)
	}
}

func set(name string, value float64) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Gauge(name, value, nil)
	}
}

func outcome(ok bool, good, bad string) string {
	if ok {
		return good
	}
	return bad
}

// RecordOperation counts one CLI or server operation by outcome.
func RecordOperation(operation string, success bool) {
	count(OperationsTotal, 1, labels{
		"operation": operation,
		"status":    outcome(success, "success", "failure"),
	})
}

// RecordInsight counts one served insight by source (model, mock, fallback
// or degraded) and normalized risk level, and times it.
func RecordInsight(source, riskLevel string, duration time.Duration) {
	count(InsightRequestsTotal, 1, labels{"source": source, "risk_level": riskLevel})
	observe(InsightDuration, duration, labels{"source": source})
}

// RecordInsightTokens adds provider token usage. Zero counts and an
// unnamed provider record nothing.
func RecordInsightTokens(provider string, prompt, completion int) {
	if provider == "" {
		return
	}
	for kind, n := range map[string]int{"prompt": prompt, "completion": completion} {
		if n > 0 {
			count(InsightTokensTotal, float64(n), labels{"provider": provider, "kind": kind})
		}
	}
}

func RecordHealthCheck(check string, healthy bool, duration time.Duration) {
	count(HealthCheckTotal, 1, labels{"check": check, "status": outcome(healthy, "healthy", "unhealthy")})
	observe(HealthCheckDuration, duration, labels{"check": check})
}

// SetServerStartTime records the start time as a Unix timestamp.
func SetServerStartTime(unix int64) { set(ServerStartTime, float64(unix)) }

func SetServerUptime(seconds int64) { set(ServerUptime, float64(seconds)) }

// RecordError counts an error response by code and status.
func RecordError(code string, status int) {
	count(ErrorsTotalName, 1, labels{"error_code": code, "http_status": strconv.Itoa(status)})
}

func RecordErrorByEndpoint(endpoint, code string) {
	count(ErrorsByEndpointName, 1, labels{"endpoint": endpoint, "error_code": code})
}

// RecordPanic counts a recovered handler panic.
func RecordPanic() { count(PanicsTotalName, 1, nil) }
