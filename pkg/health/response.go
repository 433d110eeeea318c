// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package health

import (
	"net/http"
	"time"

	"github.com/LerianStudio/dbguard/pkg/model"
)

// Response is the full health snapshot served on /health.
type Response struct {
	Status    model.HealthStatus `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
	UptimeMs  int64              `json:"uptime"`
	Version   string             `json:"version"`
	Database  Database           `json:"database"`
	Checks    model.HealthChecks `json:"checks"`
	Alerts    []model.Alert      `json:"alerts"`
}

// Database groups the database-facing parts of the snapshot.
type Database struct {
	Connected      bool           `json:"connected"`
	ConnectionPool ConnectionPool `json:"connectionPool"`
	Performance    Performance    `json:"performance"`
	Reliability    Reliability    `json:"reliability"`
}

// ConnectionPool is the pool section of the snapshot.
type ConnectionPool struct {
	Total       int     `json:"total"`
	Active      int     `json:"active"`
	Idle        int     `json:"idle"`
	Utilization float64 `json:"utilization"`
}

// Performance is the query performance section of the snapshot.
type Performance struct {
	AverageQueryTime  float64 `json:"averageQueryTime"`
	SlowQueries       int64   `json:"slowQueries"`
	SuccessfulQueries int64   `json:"successfulQueries"`
	FailedQueries     int64   `json:"failedQueries"`
	ErrorRate         float64 `json:"errorRate"`
}

// BreakerSummary is the circuit breaker section of the snapshot.
type BreakerSummary struct {
	State     model.CircuitState `json:"state"`
	Failures  int                `json:"failures"`
	Successes int                `json:"successes"`
	Requests  int64              `json:"requests"`
}

// Reliability groups breaker and timeout figures.
type Reliability struct {
	CircuitBreaker   BreakerSummary `json:"circuitBreaker"`
	ActiveOperations int            `json:"activeOperations"`
	Timeouts         int64          `json:"timeouts"`
}

// Liveness is the /live answer.
type Liveness struct {
	Alive     bool      `json:"alive"`
	Timestamp time.Time `json:"timestamp"`
}

// Readiness is the /ready answer. Reason is set only when not ready.
type Readiness struct {
	Ready     bool      `json:"ready"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

// HTTPStatus maps a snapshot status to a probe status code.
func (r Response) HTTPStatus() int {
	if r.Status == model.HealthHealthy || r.Status == model.HealthDegraded {
		return http.StatusOK
	}

	return http.StatusServiceUnavailable
}
