package metrics

import (
	"time"

	"github.com/promptlens/promptlens/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Prompt tree metrics
	PromptLoadsTotal    = "prompt_loads_total"
	PromptLoadDuration  = "prompt_load_duration_ms"
	PromptLoadErrors    = "prompt_load_errors_total"
	PromptsLoaded       = "prompts_loaded"
	PromptRendersTotal  = "prompt_renders_total"
	PromptRenderMissing = "prompt_render_unresolved_total"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// RecordPromptLoad records a completed load with where the tree came from.
func RecordPromptLoad(origin string, prompts int, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(
		PromptLoadsTotal,
		1,
		map[string]string{"origin": origin},
	)
	_ = observability.TelemetrySystem.Histogram(
		PromptLoadDuration,
		duration,
		map[string]string{"origin": origin},
	)
	_ = observability.TelemetrySystem.Gauge(
		PromptsLoaded,
		float64(prompts),
		nil,
	)
}

// RecordPromptLoadError records a load that failed.
func RecordPromptLoadError(trigger string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			PromptLoadErrors,
			1,
			map[string]string{"trigger": trigger},
		)
	}
}

// RecordRender records a render request. Renders that left placeholders
// unresolved are also counted separately.
func RecordRender(kind string, success bool, unresolved int) {
	if observability.TelemetrySystem == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	_ = observability.TelemetrySystem.Counter(
		PromptRendersTotal,
		1,
		map[string]string{
			"kind":   kind,
			"status": status,
		},
	)
	if unresolved > 0 {
		_ = observability.TelemetrySystem.Counter(
			PromptRenderMissing,
			1,
			map[string]string{"kind": kind},
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}

// SetServerUptime records the server uptime in seconds
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerUptime,
			float64(seconds),
			nil,
		)
	}
}
