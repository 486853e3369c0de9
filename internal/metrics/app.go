package metrics

import (
	"time"

	"github.com/factlens/factlens/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Gateway operation metrics
	OperationsTotal       = "app_operations_total"
	OperationsErrorsTotal = "app_operations_errors_total"
	OperationDuration     = "app_operation_duration_ms"

	// Upstream call metrics
	UpstreamCallsTotal = "app_upstream_calls_total"

	// Rate limiter metrics
	RateLimitedTotal = "app_rate_limited_total"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// RecordOperation records a gateway operation, tagging whether the
// answer came from cache.
func RecordOperation(operation string, success, cacheHit bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	source := "upstream"
	if cacheHit {
		source = "cache"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			OperationsTotal,
			1,
			map[string]string{
				"operation": operation,
				"status":    status,
				"source":    source,
			},
		)
	}
}

// RecordOperationError records a gateway operation error
func RecordOperationError(operation string, errorType string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			OperationsErrorsTotal,
			1,
			map[string]string{
				"operation":  operation,
				"error_type": errorType,
			},
		)
	}
}

// RecordOperationDuration records how long a gateway operation took
func RecordOperationDuration(operation string, duration time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Histogram(
			OperationDuration,
			duration,
			map[string]string{
				"operation": operation,
			},
		)
	}
}

// RecordUpstreamCall records one call to an upstream source
func RecordUpstreamCall(upstream string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			UpstreamCallsTotal,
			1,
			map[string]string{
				"upstream": upstream,
				"status":   status,
			},
		)
	}
}

// RecordRateLimited records a request denied by the per-client limiter
func RecordRateLimited(operation string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitedTotal,
			1,
			map[string]string{
				"operation": operation,
			},
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
