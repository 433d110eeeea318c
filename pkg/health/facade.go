// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package health turns breaker, monitor and timeout figures into probe answers.
package health

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/LerianStudio/dbguard/pkg"
	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/model"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
	"golang.org/x/sync/singleflight"
)

// Checker is the monitor surface the facade reads.
type Checker interface {
	PerformHealthCheck(ctx context.Context) model.HealthCheckResult
	Metrics() model.ConnectionPoolMetrics
	Ping(ctx context.Context) error
}

// BreakerMetrics exposes a circuit breaker snapshot.
type BreakerMetrics interface {
	Metrics() model.CircuitBreakerMetrics
}

// OperationCounter reports in-flight guarded operations.
type OperationCounter interface {
	ActiveOperationCount() int
}

// Option customizes a Facade.
type Option func(*Facade)

// WithVersion sets the version reported in snapshots.
func WithVersion(v string) Option {
	return func(f *Facade) {
		if v != "" {
			f.version = v
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Facade) {
		if now != nil {
			f.now = now
		}
	}
}

// Facade keeps no health state of its own beyond its start time.
type Facade struct {
	checker Checker
	breaker BreakerMetrics
	ops     OperationCounter
	logger  log.Logger

	version string
	now     func() time.Time
	started time.Time

	group singleflight.Group
}

// NewFacade builds a facade over the three components.
func NewFacade(checker Checker, breaker BreakerMetrics, ops OperationCounter, logger log.Logger, opts ...Option) (*Facade, error) {
	if checker == nil || breaker == nil || ops == nil {
		return nil, fmt.Errorf("health facade requires monitor, breaker and timeout handler: %w", constant.ErrInvalidConfig)
	}

	if logger == nil {
		logger = &log.NoneLogger{}
	}

	f := &Facade{
		checker: checker,
		breaker: breaker,
		ops:     ops,
		logger:  logger,
		version: constant.DefaultVersion,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(f)
	}

	f.started = f.now()

	return f, nil
}

// Uptime returns how long the facade has been running.
func (f *Facade) Uptime() time.Duration {
	return f.now().Sub(f.started)
}

// Liveness runs a single connectivity probe.
func (f *Facade) Liveness(ctx context.Context) Liveness {
	err := f.ping(ctx)
	if err != nil {
		f.logger.Warnf("Liveness probe failed: %v", err)
	}

	return Liveness{Alive: err == nil, Timestamp: f.now().UTC()}
}

// Readiness refuses traffic while the breaker is open, the pool is nearly
// exhausted or the last health score is too low. Otherwise it probes like
// Liveness.
func (f *Facade) Readiness(ctx context.Context) Readiness {
	notReady := func(reason string) Readiness {
		return Readiness{Ready: false, Timestamp: f.now().UTC(), Reason: reason}
	}

	if f.breaker.Metrics().State == model.CircuitOpen {
		return notReady("Circuit breaker is open")
	}

	pool := f.checker.Metrics()

	if pool.PoolUtilization > constant.ReadinessMaxPoolUtilization {
		return notReady("Connection pool exhausted")
	}

	if pool.HealthScore < constant.ReadinessMinHealthScore {
		return notReady("Health score too low")
	}

	if err := f.ping(ctx); err != nil {
		return notReady(err.Error())
	}

	return Readiness{Ready: true, Timestamp: f.now().UTC()}
}

// Health runs a full health check and assembles the snapshot. Concurrent
// callers share one in-flight check.
func (f *Facade) Health(ctx context.Context) Response {
	v, _, _ := f.group.Do("health", func() (any, error) {
		return f.buildHealth(ctx), nil
	})

	resp, ok := v.(Response)
	if !ok {
		return f.unhealthy(fmt.Errorf("unexpected health result %T", v))
	}

	return resp
}

func (f *Facade) buildHealth(ctx context.Context) Response {
	result, err := f.runCheck(ctx)
	if err != nil {
		f.logger.Errorf("Health check failed: %v", err)

		return f.unhealthy(err)
	}

	cb := f.breaker.Metrics()
	pool := f.checker.Metrics()
	now := f.now().UTC()

	status := result.Status
	if status == "" {
		status = model.HealthUnhealthy
	}

	return Response{
		Status:    status,
		Timestamp: now,
		UptimeMs:  f.Uptime().Milliseconds(),
		Version:   f.version,
		Database: Database{
			Connected: result.Checks.Connectivity,
			ConnectionPool: ConnectionPool{
				Total:       pool.TotalConnections,
				Active:      pool.ActiveConnections,
				Idle:        pool.IdleConnections,
				Utilization: pool.PoolUtilization,
			},
			Performance: Performance{
				AverageQueryTime:  pool.AvgQueryTimeMs,
				SlowQueries:       pool.SlowQueries,
				SuccessfulQueries: pool.SuccessfulQueries,
				FailedQueries:     pool.FailedQueries,
				ErrorRate:         roundTo2(pool.ErrorRate()),
			},
			Reliability: Reliability{
				CircuitBreaker: BreakerSummary{
					State:     cb.State,
					Failures:  cb.Failures,
					Successes: cb.Successes,
					Requests:  cb.Requests,
				},
				ActiveOperations: f.ops.ActiveOperationCount(),
				Timeouts:         pool.ConnectionTimeouts,
			},
		},
		Checks: result.Checks,
		Alerts: GenerateAlerts(cb, pool, now),
	}
}

// runCheck reports a panicking check by its panic value alone.
func (f *Facade) runCheck(ctx context.Context) (result model.HealthCheckResult, err error) {
	err = pkg.Recover(f.logger, "health check", func() error {
		result = f.checker.PerformHealthCheck(ctx)
		return nil
	})

	var panicErr *pkg.PanicError
	if errors.As(err, &panicErr) {
		err = fmt.Errorf("%v", panicErr.Value)
	}

	return result, err
}

func (f *Facade) ping(ctx context.Context) error {
	return pkg.Recover(f.logger, "connectivity probe", func() error {
		return f.checker.Ping(ctx)
	})
}

// unhealthy is the well-formed answer used when the check itself could not run.
func (f *Facade) unhealthy(cause error) Response {
	now := f.now().UTC()

	return Response{
		Status:    model.HealthUnhealthy,
		Timestamp: now,
		UptimeMs:  f.Uptime().Milliseconds(),
		Version:   f.version,
		Database: Database{
			Performance: Performance{ErrorRate: 100},
			Reliability: Reliability{
				CircuitBreaker: BreakerSummary{State: model.CircuitUnknown},
			},
		},
		Alerts: []model.Alert{{
			Severity:  model.SeverityCritical,
			Message:   "Database health check failed: " + cause.Error(),
			Timestamp: now,
		}},
	}
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
