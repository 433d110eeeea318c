// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package health

import (
	"fmt"
	"strconv"
	"time"

	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/model"
)

// GenerateAlerts derives the snapshot alert list. These alerts are reported
// on /health only; dispatching to notifiers is the monitor's job.
func GenerateAlerts(cb model.CircuitBreakerMetrics, pool model.ConnectionPoolMetrics, now time.Time) []model.Alert {
	alerts := make([]model.Alert, 0)

	add := func(severity model.Severity, msg string) {
		alerts = append(alerts, model.Alert{Severity: severity, Message: msg, Timestamp: now})
	}

	switch cb.State {
	case model.CircuitOpen:
		add(model.SeverityCritical, "Database circuit breaker is OPEN - blocking all operations")
	case model.CircuitHalfOpen:
		add(model.SeverityWarning, "Database circuit breaker is HALF_OPEN - testing recovery")
	}

	switch util := pool.PoolUtilization; {
	case util > constant.SnapshotPoolCritical:
		add(model.SeverityCritical, fmt.Sprintf("High connection pool utilization: %s%%", number(util)))
	case util > constant.SnapshotPoolWarning:
		add(model.SeverityWarning, fmt.Sprintf("Elevated connection pool utilization: %s%%", number(util)))
	}

	critical := float64(constant.SnapshotQueryTimeCritical.Milliseconds())
	warning := float64(constant.SnapshotQueryTimeWarning.Milliseconds())

	switch avg := pool.AvgQueryTimeMs; {
	case avg > critical:
		add(model.SeverityCritical, fmt.Sprintf("Very slow query performance: %sms average", number(avg)))
	case avg > warning:
		add(model.SeverityWarning, fmt.Sprintf("Slow query performance: %sms average", number(avg)))
	}

	switch score := pool.HealthScore; {
	case score < constant.SnapshotScoreCritical:
		add(model.SeverityCritical, fmt.Sprintf("Low database health score: %d", score))
	case score < constant.SnapshotScoreWarning:
		add(model.SeverityWarning, fmt.Sprintf("Degraded database health score: %d", score))
	}

	if pool.FailedQueries+pool.SuccessfulQueries > 0 {
		switch rate := pool.ErrorRate(); {
		case rate > constant.SnapshotErrorRateCritical:
			add(model.SeverityCritical, fmt.Sprintf("High error rate: %.2f%%", rate))
		case rate > constant.SnapshotErrorRateWarning:
			add(model.SeverityWarning, fmt.Sprintf("Elevated error rate: %.2f%%", rate))
		}
	}

	return alerts
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
