// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package metrics

import (
	"go.opentelemetry.io/otel/metric/noop"
)

// NoopMetrics returns a Metrics instance backed by no-op OTel instruments.
// Use this when telemetry is disabled to keep the same API surface.
func NoopMetrics() *Metrics {
	meter := noop.NewMeterProvider().Meter("noop")

	// noop meter never returns errors
	transitions, _ := meter.Int64Counter("db_circuit_breaker_transitions_total")
	rejections, _ := meter.Int64Counter("db_circuit_breaker_rejections_total")
	retries, _ := meter.Int64Counter("db_retry_attempts_total")
	timeouts, _ := meter.Int64Counter("db_operation_timeouts_total")
	duration, _ := meter.Float64Histogram("db_operation_duration_ms")
	active, _ := meter.Int64UpDownCounter("db_operations_active")
	score, _ := meter.Int64Gauge("db_health_score")
	alerts, _ := meter.Int64Counter("db_alerts_dispatched_total")

	return &Metrics{
		CircuitStateTransitions: transitions,
		CircuitRejections:       rejections,
		RetryAttempts:           retries,
		OperationTimeouts:       timeouts,
		OperationDuration:       duration,
		OperationsActive:        active,
		HealthScore:             score,
		AlertsDispatched:        alerts,
	}
}
