// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package monitor

import (
	"context"
	"fmt"
	"strings"

	"github.com/LerianStudio/dbguard/pkg/metrics"
	"github.com/LerianStudio/dbguard/pkg/model"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AlertReasons lists every breached threshold for result, in a stable order.
func AlertReasons(result model.HealthCheckResult, t model.AlertThresholds) []string {
	var reasons []string

	if result.Score < t.HealthScore {
		reasons = append(reasons, fmt.Sprintf("Low health score: %d", result.Score))
	}

	if result.Metrics.PoolUtilization > t.PoolUtilization {
		reasons = append(reasons, fmt.Sprintf("High pool utilization: %s%%", formatNumber(result.Metrics.PoolUtilization)))
	}

	if result.Metrics.AvgQueryTimeMs > durationMs(t.QueryTime) {
		reasons = append(reasons, fmt.Sprintf("Slow query performance: %sms", formatNumber(result.Metrics.AvgQueryTimeMs)))
	}

	if result.Metrics.FailedQueries+result.Metrics.SuccessfulQueries > 0 {
		if rate := result.Metrics.ErrorRate(); rate > t.ErrorRate {
			reasons = append(reasons, fmt.Sprintf("High error rate: %.2f%%", rate))
		}
	}

	if t.ConnectionTimeouts > 0 && result.Metrics.ConnectionTimeouts >= t.ConnectionTimeouts {
		reasons = append(reasons, fmt.Sprintf("Connection timeouts: %d", result.Metrics.ConnectionTimeouts))
	}

	return reasons
}

// ComposeAlert folds reasons into a single alert. It reports false when there is nothing to send.
func ComposeAlert(result model.HealthCheckResult, reasons []string) (model.Alert, bool) {
	if len(reasons) == 0 {
		return model.Alert{}, false
	}

	severity := model.SeverityWarning
	if result.Status == model.HealthUnhealthy {
		severity = model.SeverityCritical
	}

	return model.Alert{
		Severity:  severity,
		Message:   "Database health alert: " + strings.Join(reasons, ", "),
		Timestamp: result.Timestamp,
	}, true
}

func (m *Monitor) checkAndSendAlerts(ctx context.Context, result model.HealthCheckResult) {
	alert, ok := ComposeAlert(result, AlertReasons(result, m.cfg.Alerts.Thresholds))
	if !ok {
		return
	}

	m.sendAlert(ctx, alert, result)
}

// sendAlert dispatches alert unless the same key fired inside the cooldown window.
// A failing cooldown store lets the alert through.
func (m *Monitor) sendAlert(ctx context.Context, alert model.Alert, result model.HealthCheckResult) {
	allowed, err := m.cooldown.Acquire(ctx, alert.Key(), m.cfg.Alerts.Cooldown)
	if err != nil {
		m.logger.Errorf("Alert cooldown store unavailable, sending alert anyway: %v", err)

		allowed = true
	}

	if !allowed {
		m.logger.Debugf("Alert suppressed by cooldown: %s", alert.Key())
		return
	}

	m.logger.Warnf("Database Alert [%s]: %s", strings.ToUpper(string(alert.Severity)), alert.Message)

	m.instruments.AlertsDispatched.Add(ctx, 1, metric.WithAttributes(attribute.String(metrics.AttrSeverity, string(alert.Severity))))

	if m.notifier == nil {
		return
	}

	if err := m.notifier.Notify(ctx, model.NewAlertPayload(alert, result)); err != nil {
		m.logger.Errorf("Failed to send alert notification: %v", err)
	}
}
