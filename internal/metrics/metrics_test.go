package metrics

import (
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrasemi/qualitylens/internal/observability"
)

func setupTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: collector})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() { observability.TelemetrySystem = original })

	return collector
}

func TestRecordInsight(t *testing.T) {
	collector := setupTelemetry(t)

	RecordInsight("model", "HIGH", 120*time.Millisecond)
	RecordInsight("mock", "MEDIUM", time.Millisecond)

	assert.Equal(t, 2, collector.CountMetricsByName(InsightRequestsTotal))
	assert.Equal(t, 2, collector.CountMetricsByName(InsightDuration))
}

func TestRecordInsightTokensSkipsEmpty(t *testing.T) {
	collector := setupTelemetry(t)

	RecordInsightTokens("openai", 100, 0)
	RecordInsightTokens("", 10, 10)

	assert.Equal(t, 1, collector.CountMetricsByName(InsightTokensTotal))
}

func TestRecordErrorFamily(t *testing.T) {
	collector := setupTelemetry(t)

	RecordError("INVALID_INPUT", 400)
	RecordErrorByEndpoint("/api/quality-insight", "INVALID_INPUT")
	RecordPanic()
	RecordOperation("quality_insight", true)
	RecordHealthCheck("ailink", true, time.Millisecond)

	assert.Equal(t, 1, collector.CountMetricsByName(ErrorsTotalName))
	assert.Equal(t, 1, collector.CountMetricsByName(ErrorsByEndpointName))
	assert.Equal(t, 1, collector.CountMetricsByName(PanicsTotalName))
	assert.Equal(t, 1, collector.CountMetricsByName(OperationsTotal))
	assert.Equal(t, 1, collector.CountMetricsByName(HealthCheckTotal))
}

func TestRecordersNoopWithoutTelemetry(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = original })

	assert.NotPanics(t, func() {
		RecordInsight("model", "LOW", time.Second)
		RecordInsightTokens("openai", 1, 1)
		RecordError("X", 500)
		SetServerStartTime(time.Now().Unix())
		SetServerUptime(1)
	})
}
