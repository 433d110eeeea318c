// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package monitor

import (
	"time"

	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/model"
)

// Config holds monitor configuration.
type Config struct {
	Alerts model.AlertConfig
	// ProbeTable, when set, is read by the query performance step.
	ProbeTable string
	// Interval is the background check period used by Start when it is given no interval.
	Interval time.Duration
}

// DefaultAlertThresholds returns the built-in alert thresholds.
func DefaultAlertThresholds() model.AlertThresholds {
	return model.AlertThresholds{
		HealthScore:        constant.AlertThresholdHealthScore,
		PoolUtilization:    constant.AlertThresholdPoolUtilization,
		QueryTime:          constant.AlertThresholdQueryTime,
		ErrorRate:          constant.AlertThresholdErrorRate,
		ConnectionTimeouts: constant.AlertThresholdConnectionTimeouts,
	}
}

// DefaultConfig returns a config with alerts enabled and built-in thresholds.
func DefaultConfig() Config {
	return Config{
		Alerts: model.AlertConfig{
			Enabled:    true,
			Thresholds: DefaultAlertThresholds(),
			Cooldown:   constant.AlertCooldown,
		},
		Interval: constant.ConnectionMonitorInterval,
	}
}

// withDefaults fills zero thresholds, cooldown and interval. Enabled is kept as given.
func (c Config) withDefaults() Config {
	d := DefaultAlertThresholds()
	t := &c.Alerts.Thresholds

	if t.HealthScore <= 0 {
		t.HealthScore = d.HealthScore
	}

	if t.PoolUtilization <= 0 {
		t.PoolUtilization = d.PoolUtilization
	}

	if t.QueryTime <= 0 {
		t.QueryTime = d.QueryTime
	}

	if t.ErrorRate <= 0 {
		t.ErrorRate = d.ErrorRate
	}

	if t.ConnectionTimeouts <= 0 {
		t.ConnectionTimeouts = d.ConnectionTimeouts
	}

	if c.Alerts.Cooldown <= 0 {
		c.Alerts.Cooldown = constant.AlertCooldown
	}

	if c.Interval <= 0 {
		c.Interval = constant.ConnectionMonitorInterval
	}

	return c
}
