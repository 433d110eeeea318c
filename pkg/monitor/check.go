// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package monitor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/db"
	"github.com/LerianStudio/dbguard/pkg/metrics"
	"github.com/LerianStudio/dbguard/pkg/model"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PerformHealthCheck runs the connectivity, query performance, pool and circuit
// breaker checks. Failures are reported as findings in the result. When alerts are
// enabled, breached thresholds are dispatched before returning.
func (m *Monitor) PerformHealthCheck(ctx context.Context) model.HealthCheckResult {
	timestamp := m.now()

	var (
		checks   model.HealthChecks
		errs     = []string{}
		warnings = []string{}
	)

	cb := m.breakerMetrics()

	connectivityStart := time.Now()

	if err := m.probeConnectivity(ctx); err != nil {
		errs = append(errs, fmt.Sprintf("Connectivity check failed: %v", err))
	} else {
		checks.Connectivity = true
		m.RecordQueryTime(time.Since(connectivityStart))

		performanceStart := time.Now()

		if err := m.testQueryPerformance(ctx); err != nil {
			errs = append(errs, fmt.Sprintf("Query performance check failed: %v", err))
		} else if elapsed := time.Since(performanceStart); elapsed < m.cfg.Alerts.Thresholds.QueryTime {
			checks.QueryPerformance = true
		} else {
			warnings = append(warnings, fmt.Sprintf("Query performance degraded: %dms", elapsed.Milliseconds()))
		}

		utilization := m.updatePoolMetrics(cb)
		if utilization < m.cfg.Alerts.Thresholds.PoolUtilization {
			checks.PoolHealth = true
		} else {
			warnings = append(warnings, fmt.Sprintf("High pool utilization: %s%%", formatNumber(utilization)))
		}

		if cb.State == model.CircuitClosed {
			checks.CircuitBreakerState = true
		} else {
			warnings = append(warnings, fmt.Sprintf("Circuit breaker is %s", cb.State))
		}
	}

	m.mu.Lock()
	slow := m.stats.AvgQueryTimeMs > durationMs(m.cfg.Alerts.Thresholds.QueryTime)
	m.mu.Unlock()

	score := CalculateHealthScore(checks, len(warnings), len(errs), cb.State, slow)
	status := DeriveStatus(score, len(errs), len(warnings), m.cfg.Alerts.Thresholds.HealthScore)

	m.mu.Lock()
	m.stats.HealthScore = score
	m.stats.Status = status
	m.stats.LastHealthCheck = timestamp
	m.stats.CircuitBreakerState = cb.State
	m.stats.CircuitBreakerFailures = cb.Failures
	snapshot := m.stats
	m.mu.Unlock()

	m.instruments.HealthScore.Record(ctx, int64(score), metric.WithAttributes(attribute.String(metrics.AttrStatus, string(status))))

	result := model.HealthCheckResult{
		Healthy:   status == model.HealthHealthy,
		Status:    status,
		Score:     score,
		Timestamp: timestamp,
		Checks:    checks,
		Metrics:   snapshot,
		Errors:    errs,
		Warnings:  warnings,
	}

	if m.cfg.Alerts.Enabled {
		m.checkAndSendAlerts(ctx, result)
	}

	return result
}

// Ping runs the trivial connectivity probe without touching monitor state.
func (m *Monitor) Ping(ctx context.Context) error {
	return m.probeConnectivity(ctx)
}

func (m *Monitor) probeConnectivity(ctx context.Context) error {
	var one int

	return m.client.QueryRow(ctx, ConnectivityQuery).Scan(&one)
}

// testQueryPerformance runs the probe query and a minimal transaction.
func (m *Monitor) testQueryPerformance(ctx context.Context) error {
	rows, err := m.client.Query(ctx, m.probeQuery)
	if err != nil {
		return err
	}

	for rows.Next() { //nolint:revive // drain
	}

	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}

	if err := rows.Close(); err != nil {
		return err
	}

	return m.client.Transaction(ctx, func(ctx context.Context, tx db.Querier) error {
		var one int
		return tx.QueryRow(ctx, ConnectivityQuery).Scan(&one)
	})
}

// updatePoolMetrics refreshes pool figures from driver stats, or estimates them from
// the breaker state when the client reports none. It returns the utilization.
func (m *Monitor) updatePoolMetrics(cb model.CircuitBreakerMetrics) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stats, ok := db.StatsOf(m.client); ok {
		m.stats.TotalConnections = stats.TotalConnections
		m.stats.ActiveConnections = stats.ActiveConnections
		m.stats.IdleConnections = stats.IdleConnections
		m.stats.BusyConnections = stats.ActiveConnections
		m.stats.PoolUtilization = stats.Utilization()

		return m.stats.PoolUtilization
	}

	m.stats.PoolUtilization = constant.EstimatedUtilizationOther
	if cb.State == model.CircuitOpen {
		m.stats.PoolUtilization = constant.EstimatedUtilizationOpen
	}

	m.stats.ConnectionErrors = int64(cb.Failures)

	return m.stats.PoolUtilization
}

func (m *Monitor) breakerMetrics() model.CircuitBreakerMetrics {
	if m.breaker == nil {
		return model.CircuitBreakerMetrics{State: model.CircuitClosed}
	}

	return m.breaker.Metrics()
}

// CalculateHealthScore starts at 100 and deducts 20 per failed check, 10 per warning,
// 25 per error, 30 for an open circuit or 15 for a half-open one, and 10 when the
// average query time is above threshold. The result is clamped to [0, 100].
func CalculateHealthScore(checks model.HealthChecks, warnings, errs int, state model.CircuitState, slowQueries bool) int {
	score := constant.HealthScoreMax

	score -= checks.Failed() * constant.HealthScoreFailedCheck
	score -= warnings * constant.HealthScoreWarning
	score -= errs * constant.HealthScoreError

	switch state {
	case model.CircuitOpen:
		score -= constant.HealthScoreCircuitOpen
	case model.CircuitHalfOpen:
		score -= constant.HealthScoreCircuitHalf
	}

	if slowQueries {
		score -= constant.HealthScoreSlowQueries
	}

	return max(0, min(constant.HealthScoreMax, score))
}

// DeriveStatus maps findings to a status: any error is unhealthy; any warning or a
// score under threshold is degraded; otherwise healthy.
func DeriveStatus(score, errs, warnings, threshold int) model.HealthStatus {
	switch {
	case errs > 0:
		return model.HealthUnhealthy
	case warnings > 0 || score < threshold:
		return model.HealthDegraded
	default:
		return model.HealthHealthy
	}
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// formatNumber prints v without trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
