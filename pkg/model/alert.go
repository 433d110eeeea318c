// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package model

import "time"

// Severity of an alert.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AlertThresholds are the limits the monitor compares its metrics against.
type AlertThresholds struct {
	HealthScore        int           `json:"healthScore"`
	PoolUtilization    float64       `json:"poolUtilization"`
	QueryTime          time.Duration `json:"queryTime"`
	ErrorRate          float64       `json:"errorRate"`
	ConnectionTimeouts int64         `json:"connectionTimeouts"`
}

// AlertConfig is immutable after the monitor is constructed.
type AlertConfig struct {
	Enabled    bool            `json:"enabled"`
	WebhookURL string          `json:"webhookUrl,omitempty"`
	Thresholds AlertThresholds `json:"thresholds"`
	Cooldown   time.Duration   `json:"cooldown"`
}

// Alert is a single notification. Alerts with the same Severity and Message
// are deduplicated inside the cooldown window.
type Alert struct {
	Severity  Severity  `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Key returns the deduplication key of the alert.
func (a Alert) Key() string {
	return string(a.Severity) + "-" + a.Message
}

// AlertPayload is the body delivered to notifiers.
type AlertPayload struct {
	Severity    Severity              `json:"severity"`
	Message     string                `json:"message"`
	Timestamp   string                `json:"timestamp"`
	HealthScore int                   `json:"healthScore"`
	Status      HealthStatus          `json:"status"`
	Metrics     ConnectionPoolMetrics `json:"metrics"`
	Errors      []string              `json:"errors"`
	Warnings    []string              `json:"warnings"`
}

// NewAlertPayload builds the notifier body for alert out of a health check result.
func NewAlertPayload(alert Alert, result HealthCheckResult) AlertPayload {
	return AlertPayload{
		Severity:    alert.Severity,
		Message:     alert.Message,
		Timestamp:   result.Timestamp.UTC().Format(time.RFC3339Nano),
		HealthScore: result.Score,
		Status:      result.Status,
		Metrics:     result.Metrics,
		Errors:      result.Errors,
		Warnings:    result.Warnings,
	}
}
