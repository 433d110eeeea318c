// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package model

import "time"

// HealthStatus is the coarse health classification of the database.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// PoolStats is what a driver reports about its connection pool.
type PoolStats struct {
	TotalConnections  int
	ActiveConnections int
	IdleConnections   int
	MaxConnections    int
}

// Utilization returns the percentage of the pool in use. MaxConnections is used
// as the denominator when known, otherwise the open connection count.
func (p PoolStats) Utilization() float64 {
	capacity := p.MaxConnections
	if capacity <= 0 {
		capacity = p.TotalConnections
	}

	if capacity <= 0 {
		return 0
	}

	return float64(p.ActiveConnections) / float64(capacity) * 100
}

// ConnectionPoolMetrics is the monitor's rolling view of the database.
type ConnectionPoolMetrics struct {
	TotalConnections  int `json:"totalConnections"`
	ActiveConnections int `json:"activeConnections"`
	IdleConnections   int `json:"idleConnections"`
	BusyConnections   int `json:"busyConnections"`

	AvgQueryTimeMs    float64 `json:"avgQueryTime"`
	SlowQueries       int64   `json:"slowQueries"`
	FailedQueries     int64   `json:"failedQueries"`
	SuccessfulQueries int64   `json:"successfulQueries"`

	HealthScore     int          `json:"healthScore"`
	Status          HealthStatus `json:"status"`
	LastHealthCheck time.Time    `json:"lastHealthCheck"`

	PoolUtilization    float64 `json:"poolUtilization"`
	ConnectionTimeouts int64   `json:"connectionTimeouts"`
	ConnectionErrors   int64   `json:"connectionErrors"`

	CircuitBreakerState    CircuitState `json:"circuitBreakerState"`
	CircuitBreakerFailures int          `json:"circuitBreakerFailures"`
}

// ErrorRate returns failed/(failed+successful) as a percentage, or 0 with no samples.
func (m ConnectionPoolMetrics) ErrorRate() float64 {
	total := m.FailedQueries + m.SuccessfulQueries
	if total == 0 {
		return 0
	}

	return float64(m.FailedQueries) / float64(total) * 100
}

// HealthChecks records the pass/fail outcome of each health check step.
type HealthChecks struct {
	Connectivity        bool `json:"connectivity"`
	QueryPerformance    bool `json:"queryPerformance"`
	PoolHealth          bool `json:"poolHealth"`
	CircuitBreakerState bool `json:"circuitBreakerState"`
}

// Failed returns how many checks did not pass.
func (c HealthChecks) Failed() int {
	failed := 0

	for _, ok := range []bool{c.Connectivity, c.QueryPerformance, c.PoolHealth, c.CircuitBreakerState} {
		if !ok {
			failed++
		}
	}

	return failed
}

// HealthCheckResult is the outcome of one monitor health check. Failures are
// findings in Errors and Warnings, never returned as Go errors.
type HealthCheckResult struct {
	Healthy   bool                  `json:"healthy"`
	Status    HealthStatus          `json:"status"`
	Score     int                   `json:"score"`
	Timestamp time.Time             `json:"timestamp"`
	Checks    HealthChecks          `json:"checks"`
	Metrics   ConnectionPoolMetrics `json:"metrics"`
	Errors    []string              `json:"errors"`
	Warnings  []string              `json:"warnings"`
}
