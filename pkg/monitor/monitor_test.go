// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/model"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMonitor(t *testing.T, client *fakeClient, breaker BreakerState, opts ...Option) *Monitor {
	t.Helper()

	m, err := New(client, breaker, DefaultConfig(), &log.NoneLogger{}, opts...)
	require.NoError(t, err)

	return m
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, nil, DefaultConfig(), nil)
	assert.ErrorIs(t, err, constant.ErrInvalidConfig)

	cfg := DefaultConfig()
	cfg.ProbeTable = "vendors; DROP TABLE vendors"

	_, err = New(&fakeClient{}, nil, cfg, nil)
	assert.ErrorIs(t, err, constant.ErrInvalidConfig)
}

func TestNew_FillsDefaults(t *testing.T) {
	t.Parallel()

	m, err := New(&fakeClient{}, nil, Config{}, nil)
	require.NoError(t, err)

	cfg := m.Config()
	assert.Equal(t, DefaultAlertThresholds(), cfg.Alerts.Thresholds)
	assert.Equal(t, constant.AlertCooldown, cfg.Alerts.Cooldown)
	assert.Equal(t, constant.ConnectionMonitorInterval, cfg.Interval)
	assert.False(t, cfg.Alerts.Enabled)

	snap := m.Metrics()
	assert.Equal(t, 100, snap.HealthScore)
	assert.Equal(t, model.HealthHealthy, snap.Status)
	assert.Equal(t, model.CircuitClosed, snap.CircuitBreakerState)
}

func TestCalculateHealthScore(t *testing.T) {
	t.Parallel()

	allPass := model.HealthChecks{Connectivity: true, QueryPerformance: true, PoolHealth: true, CircuitBreakerState: true}
	oneFailed := model.HealthChecks{Connectivity: true, QueryPerformance: false, PoolHealth: true, CircuitBreakerState: true}

	tests := []struct {
		name     string
		checks   model.HealthChecks
		warnings int
		errs     int
		state    model.CircuitState
		slow     bool
		want     int
	}{
		{name: "perfect", checks: allPass, state: model.CircuitClosed, want: 100},
		{name: "one failed check and one warning", checks: oneFailed, warnings: 1, state: model.CircuitClosed, want: 70},
		{name: "half open", checks: allPass, state: model.CircuitHalfOpen, want: 85},
		{name: "open", checks: allPass, state: model.CircuitOpen, want: 70},
		{name: "slow queries", checks: allPass, state: model.CircuitClosed, slow: true, want: 90},
		{name: "error", checks: allPass, errs: 1, state: model.CircuitClosed, want: 75},
		{name: "clamped at zero", checks: model.HealthChecks{}, errs: 1, state: model.CircuitOpen, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, CalculateHealthScore(tt.checks, tt.warnings, tt.errs, tt.state, tt.slow))
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.HealthUnhealthy, DeriveStatus(100, 1, 0, 70))
	assert.Equal(t, model.HealthDegraded, DeriveStatus(100, 0, 1, 70))
	assert.Equal(t, model.HealthDegraded, DeriveStatus(69, 0, 0, 70))
	assert.Equal(t, model.HealthHealthy, DeriveStatus(70, 0, 0, 70))
	assert.Equal(t, model.HealthHealthy, DeriveStatus(100, 0, 0, 70))
}

func TestPerformHealthCheck_Healthy(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	notifier := &recordingNotifier{}
	m := newTestMonitor(t, client, nil, WithNotifier(notifier))

	res := m.PerformHealthCheck(context.Background())

	assert.True(t, res.Healthy)
	assert.Equal(t, model.HealthHealthy, res.Status)
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, 0, res.Checks.Failed())
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.InDelta(t, constant.EstimatedUtilizationOther, res.Metrics.PoolUtilization, 0.001)
	assert.Equal(t, 1, m.SampleCount())
	assert.Empty(t, notifier.Payloads())
	assert.Contains(t, client.Queries(), "SELECT current_timestamp")
	assert.Contains(t, client.Queries(), ConnectivityQuery)
}

func TestPerformHealthCheck_ConnectivityFailure(t *testing.T) {
	t.Parallel()

	client := &fakeClient{rowErr: errors.New("dial tcp: connection refused")}
	notifier := &recordingNotifier{}
	m := newTestMonitor(t, client, nil, WithNotifier(notifier))

	res := m.PerformHealthCheck(context.Background())

	assert.False(t, res.Healthy)
	assert.Equal(t, model.HealthUnhealthy, res.Status)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 4, res.Checks.Failed())
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Connectivity check failed: dial tcp: connection refused")
	assert.Zero(t, m.SampleCount())

	payloads := notifier.Payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, model.SeverityCritical, payloads[0].Severity)
	assert.Equal(t, "Database health alert: Low health score: 0", payloads[0].Message)
	assert.Equal(t, model.HealthUnhealthy, payloads[0].Status)
	assert.Equal(t, res.Errors, payloads[0].Errors)
}

func TestPerformHealthCheck_OpenBreakerEstimatesFullPool(t *testing.T) {
	t.Parallel()

	breaker := fakeBreaker{m: model.CircuitBreakerMetrics{State: model.CircuitOpen, Failures: 5}}
	notifier := &recordingNotifier{}
	m := newTestMonitor(t, &fakeClient{}, breaker, WithNotifier(notifier))

	res := m.PerformHealthCheck(context.Background())

	assert.Equal(t, model.HealthDegraded, res.Status)
	assert.Equal(t, 10, res.Score)
	assert.Equal(t, []string{"High pool utilization: 100%", "Circuit breaker is OPEN"}, res.Warnings)
	assert.Equal(t, model.CircuitOpen, res.Metrics.CircuitBreakerState)
	assert.Equal(t, 5, res.Metrics.CircuitBreakerFailures)
	assert.Equal(t, int64(5), res.Metrics.ConnectionErrors)

	payloads := notifier.Payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, model.SeverityWarning, payloads[0].Severity)
	assert.Equal(t, "Database health alert: Low health score: 10, High pool utilization: 100%", payloads[0].Message)
}

func TestPerformHealthCheck_DriverPoolStats(t *testing.T) {
	t.Parallel()

	client := statsClient{fakeClient: &fakeClient{}, stats: model.PoolStats{TotalConnections: 10, ActiveConnections: 9, IdleConnections: 1, MaxConnections: 10}}
	notifier := &recordingNotifier{}

	m, err := New(client, nil, DefaultConfig(), nil, WithNotifier(notifier))
	require.NoError(t, err)

	res := m.PerformHealthCheck(context.Background())

	assert.Equal(t, 70, res.Score)
	assert.Equal(t, model.HealthDegraded, res.Status)
	assert.Equal(t, []string{"High pool utilization: 90%"}, res.Warnings)
	assert.Equal(t, 10, res.Metrics.TotalConnections)
	assert.Equal(t, 9, res.Metrics.ActiveConnections)
	assert.Equal(t, 9, res.Metrics.BusyConnections)
	assert.Equal(t, 1, res.Metrics.IdleConnections)

	payloads := notifier.Payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, "Database health alert: High pool utilization: 90%", payloads[0].Message)
}

func TestPerformHealthCheck_SlowQueries(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Alerts.Enabled = false
	cfg.Alerts.Thresholds.QueryTime = time.Microsecond

	m, err := New(&fakeClient{delay: time.Millisecond}, nil, cfg, nil)
	require.NoError(t, err)

	res := m.PerformHealthCheck(context.Background())

	assert.False(t, res.Checks.QueryPerformance)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Query performance degraded")
	assert.Equal(t, 60, res.Score)
	assert.Equal(t, model.HealthDegraded, res.Status)
	assert.GreaterOrEqual(t, res.Metrics.SlowQueries, int64(1))
}

func TestPerformHealthCheck_ProbeFailureIsAnError(t *testing.T) {
	t.Parallel()

	m := newTestMonitor(t, &fakeClient{txErr: errors.New("could not begin")}, nil)

	res := m.PerformHealthCheck(context.Background())

	assert.True(t, res.Checks.Connectivity)
	assert.False(t, res.Checks.QueryPerformance)
	assert.Equal(t, model.HealthUnhealthy, res.Status)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "could not begin")
}

func TestPerformHealthCheck_ProbeTable(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ProbeTable = "public.vendors"

	client := &fakeClient{}
	m, err := New(client, nil, cfg, nil)
	require.NoError(t, err)

	m.PerformHealthCheck(context.Background())

	assert.Contains(t, client.Queries(), "SELECT 1 FROM public.vendors LIMIT 1")
}

func TestAlertDeduplicationWithinCooldown(t *testing.T) {
	t.Parallel()

	client := &fakeClient{rowErr: errors.New("connection refused")}
	notifier := &recordingNotifier{}
	m := newTestMonitor(t, client, nil, WithNotifier(notifier))

	m.PerformHealthCheck(context.Background())
	m.PerformHealthCheck(context.Background())

	assert.Len(t, notifier.Payloads(), 1)
}

func TestAlertsDisabled(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Alerts.Enabled = false

	notifier := &recordingNotifier{}
	m, err := New(&fakeClient{rowErr: errors.New("down")}, nil, cfg, nil, WithNotifier(notifier))
	require.NoError(t, err)

	m.PerformHealthCheck(context.Background())

	assert.Empty(t, notifier.Payloads())
}

func TestAlertSentWhenCooldownStoreFails(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{err: errors.New("webhook returned 500")}
	m := newTestMonitor(t, &fakeClient{rowErr: errors.New("down")}, nil,
		WithNotifier(notifier), WithCooldownStore(failingCooldown{}))

	m.PerformHealthCheck(context.Background())
	m.PerformHealthCheck(context.Background())

	assert.Len(t, notifier.Payloads(), 2)
}

func TestRecordQueryTime_RollingWindow(t *testing.T) {
	t.Parallel()

	m := newTestMonitor(t, &fakeClient{}, nil)

	for i := 0; i < constant.MaxQueryTimeSamples; i++ {
		m.RecordQueryTime(10 * time.Millisecond)
	}

	assert.Equal(t, constant.MaxQueryTimeSamples, m.SampleCount())
	assert.InDelta(t, 10.0, m.Metrics().AvgQueryTimeMs, 0.0001)

	for i := 0; i < constant.MaxQueryTimeSamples; i++ {
		m.RecordQueryTime(2 * time.Second)
	}

	snap := m.Metrics()
	assert.Equal(t, constant.MaxQueryTimeSamples, m.SampleCount())
	assert.InDelta(t, 2000.0, snap.AvgQueryTimeMs, 0.0001)
	assert.Equal(t, int64(constant.MaxQueryTimeSamples), snap.SlowQueries)
}

func TestRecordQueryResultAndTimeouts(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	m := newTestMonitor(t, &fakeClient{}, nil, WithNotifier(notifier))

	m.RecordQueryResult(true)
	m.RecordQueryResult(false)

	for i := 0; i < 3; i++ {
		m.RecordTimeout()
	}

	snap := m.Metrics()
	assert.Equal(t, int64(1), snap.SuccessfulQueries)
	assert.Equal(t, int64(1), snap.FailedQueries)
	assert.Equal(t, int64(3), snap.ConnectionTimeouts)
	assert.InDelta(t, 50.0, snap.ErrorRate(), 0.001)

	m.PerformHealthCheck(context.Background())

	payloads := notifier.Payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, "Database health alert: High error rate: 50.00%, Connection timeouts: 3", payloads[0].Message)
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	m := newTestMonitor(t, client, nil)

	ticks := make(chan time.Time)

	var stopped atomic.Int32

	m.tickerFactory = func(time.Duration) (<-chan time.Time, func()) {
		return ticks, func() { stopped.Add(1) }
	}

	m.Start(time.Hour)
	assert.True(t, m.Running())

	ticks <- time.Now()
	ticks <- time.Now()

	require.Eventually(t, func() bool { return m.SampleCount() >= 1 }, time.Second, 5*time.Millisecond)

	m.Stop()
	assert.False(t, m.Running())
	assert.Equal(t, int32(1), stopped.Load())

	m.Stop()
	assert.Equal(t, int32(1), stopped.Load())
}

func TestStart_RestartsRunningLoop(t *testing.T) {
	t.Parallel()

	m := newTestMonitor(t, &fakeClient{}, nil)

	var started, stopped atomic.Int32

	m.tickerFactory = func(time.Duration) (<-chan time.Time, func()) {
		started.Add(1)
		return make(chan time.Time), func() { stopped.Add(1) }
	}

	m.Start(0)
	require.Eventually(t, func() bool { return started.Load() == 1 }, time.Second, time.Millisecond)

	m.Start(0)
	require.Eventually(t, func() bool { return started.Load() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), stopped.Load())

	m.Stop()
	assert.Equal(t, int32(2), stopped.Load())
}

func TestMonitorLoopSurvivesPanickingNotifier(t *testing.T) {
	t.Parallel()

	m := newTestMonitor(t, &fakeClient{rowErr: errors.New("down")}, nil, WithNotifier(panicNotifier{}))

	ticks := make(chan time.Time)
	m.tickerFactory = func(time.Duration) (<-chan time.Time, func()) {
		return ticks, func() {}
	}

	m.Start(time.Hour)

	ticks <- time.Now()
	ticks <- time.Now()

	m.Stop()
	assert.False(t, m.Running())
}

type panicNotifier struct{}

func (panicNotifier) Notify(context.Context, model.AlertPayload) error {
	panic("notifier exploded")
}
