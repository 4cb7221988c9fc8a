package metrics

import (
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptlens/promptlens/internal/observability"
)

func setupTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	original := observability.TelemetrySystem
	require.NoError(t, observability.InitTelemetry(&telemetry.Config{Enabled: true, Emitter: collector}))
	t.Cleanup(func() {
		observability.TelemetrySystem = original
	})
	return collector
}

func TestRecordersWithoutTelemetry(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = original })

	assert.NotPanics(t, func() {
		RecordPromptLoad("fresh", 3, time.Millisecond)
		RecordPromptLoadError("watch")
		RecordRender("prompt", true, 0)
		RecordHealthCheck("prompts", true, time.Millisecond)
		SetServerStartTime(1)
		SetServerUptime(1)
		RecordError("NOT_FOUND", 404)
		RecordPanic()
		RecordErrorByEndpoint("/prompts/{id}", "NOT_FOUND")
	})
}

func TestRecordPromptLoad(t *testing.T) {
	collector := setupTelemetry(t)

	RecordPromptLoad("cache", 12, 5*time.Millisecond)

	assert.Greater(t, collector.CountMetricsByName(PromptLoadsTotal), 0)
	assert.Greater(t, collector.CountMetricsByName(PromptLoadDuration), 0)
	assert.Greater(t, collector.CountMetricsByName(PromptsLoaded), 0)
}

func TestRecordRender(t *testing.T) {
	collector := setupTelemetry(t)

	RecordRender("prompt", true, 0)
	assert.Greater(t, collector.CountMetricsByName(PromptRendersTotal), 0)
	assert.Equal(t, 0, collector.CountMetricsByName(PromptRenderMissing))

	RecordRender("format", true, 2)
	assert.Greater(t, collector.CountMetricsByName(PromptRenderMissing), 0)
}

func TestRecordErrors(t *testing.T) {
	collector := setupTelemetry(t)

	RecordError("NOT_FOUND", 404)
	RecordErrorByEndpoint("/prompts/{id}", "NOT_FOUND")
	RecordPanic()

	assert.Greater(t, collector.CountMetricsByName(ErrorsTotalName), 0)
	assert.Greater(t, collector.CountMetricsByName(ErrorsByEndpointName), 0)
	assert.Greater(t, collector.CountMetricsByName(PanicsTotalName), 0)
}
