// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package constant

import "time"

// Connection Monitor Configuration
const (
	// ConnectionMonitorInterval is the period between background health checks.
	ConnectionMonitorInterval = 30 * time.Second

	// MaxQueryTimeSamples bounds the rolling latency window.
	MaxQueryTimeSamples = 100

	// AlertCooldown suppresses identical alerts inside this window.
	AlertCooldown = 5 * time.Minute
)

// Alert threshold defaults.
const (
	AlertThresholdHealthScore        = 70
	AlertThresholdPoolUtilization    = 80.0
	AlertThresholdQueryTime          = 1000 * time.Millisecond
	AlertThresholdErrorRate          = 5.0
	AlertThresholdConnectionTimeouts = 3
)

// Health score deductions.
const (
	HealthScoreMax            = 100
	HealthScoreFailedCheck    = 20
	HealthScoreWarning        = 10
	HealthScoreError          = 25
	HealthScoreCircuitOpen    = 30
	HealthScoreCircuitHalf    = 15
	HealthScoreSlowQueries    = 10
	EstimatedUtilizationOpen  = 100.0
	EstimatedUtilizationOther = 50.0
)

// Health statuses.
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusDegraded  = "degraded"
	HealthStatusUnhealthy = "unhealthy"
)

// Alert severities.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Readiness limits.
const (
	ReadinessMaxPoolUtilization = 95.0
	ReadinessMinHealthScore     = 50
)

// Generated alert bands for the health snapshot.
const (
	SnapshotPoolCritical      = 90.0
	SnapshotPoolWarning       = 80.0
	SnapshotQueryTimeCritical = 5000 * time.Millisecond
	SnapshotQueryTimeWarning  = 1000 * time.Millisecond
	SnapshotScoreCritical     = 50
	SnapshotScoreWarning      = 70
	SnapshotErrorRateCritical = 10.0
	SnapshotErrorRateWarning  = 5.0
)

// Alert cooldown store key prefix in Redis.
const RedisAlertCooldownPrefix = "dbguard:alert:"
