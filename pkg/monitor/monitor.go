// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/LerianStudio/dbguard/pkg"
	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/db"
	"github.com/LerianStudio/dbguard/pkg/metrics"
	"github.com/LerianStudio/dbguard/pkg/model"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
)

// BreakerState exposes circuit breaker metrics to the monitor.
type BreakerState interface {
	Metrics() model.CircuitBreakerMetrics
}

// Notifier delivers an alert payload.
type Notifier interface {
	Notify(ctx context.Context, payload model.AlertPayload) error
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithNotifier sets the alert notifier.
func WithNotifier(n Notifier) Option {
	return func(m *Monitor) {
		m.notifier = n
	}
}

// WithCooldownStore replaces the in-memory alert cooldown store.
func WithCooldownStore(s CooldownStore) Option {
	return func(m *Monitor) {
		if s != nil {
			m.cooldown = s
		}
	}
}

// WithMetrics records the health score and dispatched alerts on mt.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Monitor) {
		m.instruments = metrics.OrNoop(mt)
	}
}

// newRealTicker returns a channel that ticks every d and a stop func.
func newRealTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Monitor runs periodic database health checks, keeps rolling query samples and
// dispatches alerts when thresholds are breached. It is safe for concurrent use.
type Monitor struct {
	client      db.Client
	breaker     BreakerState
	cfg         Config
	probeQuery  string
	logger      log.Logger
	notifier    Notifier
	cooldown    CooldownStore
	instruments *metrics.Metrics
	now         func() time.Time

	// tickerFactory is overridable in tests for deterministic behavior.
	tickerFactory func(time.Duration) (<-chan time.Time, func())

	mu         sync.Mutex
	queryTimes []time.Duration
	stats      model.ConnectionPoolMetrics

	loopMu sync.Mutex
	stop   chan struct{}
	done   chan struct{}
}

// New creates a monitor for client. breaker may be nil, in which case the circuit is
// reported as CLOSED.
func New(client db.Client, breaker BreakerState, cfg Config, logger log.Logger, opts ...Option) (*Monitor, error) {
	if client == nil {
		return nil, pkg.ValidateBusinessError(constant.ErrInvalidConfig, "client", "database client is required")
	}

	if logger == nil {
		logger = &log.NoneLogger{}
	}

	cfg = cfg.withDefaults()

	probe, err := BuildProbeQuery(cfg.ProbeTable)
	if err != nil {
		return nil, err
	}

	m := &Monitor{
		client:        client,
		breaker:       breaker,
		cfg:           cfg,
		probeQuery:    probe,
		logger:        logger,
		cooldown:      NewMemoryCooldown(),
		instruments:   metrics.NoopMetrics(),
		now:           time.Now,
		tickerFactory: newRealTicker,
		queryTimes:    make([]time.Duration, 0, constant.MaxQueryTimeSamples),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.stats = model.ConnectionPoolMetrics{
		HealthScore:         constant.HealthScoreMax,
		Status:              model.HealthHealthy,
		LastHealthCheck:     m.now(),
		CircuitBreakerState: model.CircuitClosed,
	}

	return m, nil
}

// Config returns the effective configuration.
func (m *Monitor) Config() Config {
	return m.cfg
}

// Start launches the background health check loop. A running loop is stopped first.
// interval <= 0 uses the configured interval.
func (m *Monitor) Start(interval time.Duration) {
	if interval <= 0 {
		interval = m.cfg.Interval
	}

	m.loopMu.Lock()
	defer m.loopMu.Unlock()

	m.stopLocked()

	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	stop, done := m.stop, m.done

	pkg.GoNamed(m.logger, "db-connection-monitor", func() {
		m.monitorLoop(interval, stop, done)
	})

	m.logger.Infof("Database connection monitoring started (interval: %v)", interval)
}

// Stop signals the loop to shut down and waits for it to finish. It is a no-op when not running.
func (m *Monitor) Stop() {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()

	if m.stopLocked() {
		m.logger.Info("Database connection monitoring stopped")
	}
}

// Running reports whether the background loop is active.
func (m *Monitor) Running() bool {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()

	return m.stop != nil
}

func (m *Monitor) stopLocked() bool {
	if m.stop == nil {
		return false
	}

	close(m.stop)
	<-m.done

	m.stop = nil
	m.done = nil

	return true
}

// monitorLoop performs one health check per tick until stop is closed.
func (m *Monitor) monitorLoop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	tickCh, stopTicker := m.tickerFactory(interval)
	defer stopTicker()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-stop:
			return
		case <-tickCh:
			_ = pkg.Recover(m.logger, "db-health-check", func() error {
				checkCtx, cancelCheck := context.WithTimeout(ctx, m.checkBudget(interval))
				defer cancelCheck()

				result := m.PerformHealthCheck(checkCtx)
				if !result.Healthy {
					m.logger.Warnf("Database health check: status=%s score=%d errors=%v warnings=%v",
						result.Status, result.Score, result.Errors, result.Warnings)
				}

				return nil
			})
		}
	}
}

// checkBudget bounds a background check so it never outlives its interval.
func (m *Monitor) checkBudget(interval time.Duration) time.Duration {
	if interval < constant.TimeoutHealthCheck*2 {
		return interval
	}

	return constant.TimeoutHealthCheck * 2
}
