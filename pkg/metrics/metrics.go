// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package metrics

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared by every instrument.
const (
	AttrBreaker       = "breaker"
	AttrFromState     = "from_state"
	AttrToState       = "to_state"
	AttrOperationType = "operation_type"
	AttrOutcome       = "outcome"
	AttrSeverity      = "severity"
	AttrStatus        = "status"
)

// Metrics holds the resilience layer OTel instruments.
// All fields are guaranteed non-nil after construction via NewMetrics or NoopMetrics.
type Metrics struct {
	// CircuitStateTransitions counts breaker state changes.
	CircuitStateTransitions metric.Int64Counter

	// CircuitRejections counts calls rejected while the circuit is open.
	CircuitRejections metric.Int64Counter

	// RetryAttempts counts attempts beyond the first inside a breaker call.
	RetryAttempts metric.Int64Counter

	// OperationTimeouts counts operations that exceeded their deadline, by operation type.
	OperationTimeouts metric.Int64Counter

	// OperationDuration records the wall-clock duration of guarded operations.
	OperationDuration metric.Float64Histogram

	// OperationsActive tracks operations currently registered with the timeout handler.
	OperationsActive metric.Int64UpDownCounter

	// HealthScore records the most recent health score.
	HealthScore metric.Int64Gauge

	// AlertsDispatched counts alerts handed to the notifier, by severity.
	AlertsDispatched metric.Int64Counter
}

// NewMetrics creates a Metrics instance with real OTel instruments registered on the provided meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	transitions, err := meter.Int64Counter(
		"db_circuit_breaker_transitions_total",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_circuit_breaker_transitions_total counter: %w", err)
	}

	rejections, err := meter.Int64Counter(
		"db_circuit_breaker_rejections_total",
		metric.WithDescription("Calls rejected by an open circuit"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_circuit_breaker_rejections_total counter: %w", err)
	}

	retries, err := meter.Int64Counter(
		"db_retry_attempts_total",
		metric.WithDescription("Retry attempts after a transient failure"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_retry_attempts_total counter: %w", err)
	}

	timeouts, err := meter.Int64Counter(
		"db_operation_timeouts_total",
		metric.WithDescription("Operations that exceeded their timeout"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_operation_timeouts_total counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"db_operation_duration_ms",
		metric.WithDescription("Duration of guarded database operations"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_operation_duration_ms histogram: %w", err)
	}

	active, err := meter.Int64UpDownCounter(
		"db_operations_active",
		metric.WithDescription("Operations currently tracked by the timeout handler"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_operations_active up_down_counter: %w", err)
	}

	score, err := meter.Int64Gauge(
		"db_health_score",
		metric.WithDescription("Latest database health score"),
		metric.WithUnit("{score}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_health_score gauge: %w", err)
	}

	alerts, err := meter.Int64Counter(
		"db_alerts_dispatched_total",
		metric.WithDescription("Health alerts handed to the notifier"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_alerts_dispatched_total counter: %w", err)
	}

	return &Metrics{
		CircuitStateTransitions: transitions,
		CircuitRejections:       rejections,
		RetryAttempts:           retries,
		OperationTimeouts:       timeouts,
		OperationDuration:       duration,
		OperationsActive:        active,
		HealthScore:             score,
		AlertsDispatched:        alerts,
	}, nil
}

// OrNoop returns m, or a no-op instance when m is nil.
func OrNoop(m *Metrics) *Metrics {
	if m == nil {
		return NoopMetrics()
	}

	return m
}
