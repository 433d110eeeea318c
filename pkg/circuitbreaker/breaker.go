// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/LerianStudio/dbguard/pkg"
	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/metrics"
	"github.com/LerianStudio/dbguard/pkg/model"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Operation is the unit of work guarded by the breaker.
type Operation func(ctx context.Context) (any, error)

// StateChangeFunc is called after every state transition, outside the breaker lock.
// Transitions are delivered one at a time, in the order they were committed.
type StateChangeFunc func(name string, from, to model.CircuitState)

// Option customizes a CircuitBreaker.
type Option func(*CircuitBreaker)

// WithMetrics records transitions, rejections and retries on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(cb *CircuitBreaker) {
		cb.metrics = metrics.OrNoop(m)
	}
}

// WithStateChange registers a transition listener.
func WithStateChange(fn StateChangeFunc) Option {
	return func(cb *CircuitBreaker) {
		if fn != nil {
			cb.listeners = append(cb.listeners, fn)
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) {
		if now != nil {
			cb.now = now
		}
	}
}

// WithSleep overrides the backoff wait. The function must return early with an error when ctx ends.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(cb *CircuitBreaker) {
		if sleep != nil {
			cb.sleep = sleep
		}
	}
}

type transition struct {
	from, to model.CircuitState
}

// CircuitBreaker is a three-state breaker with bounded retries and a per-attempt timeout.
// It is safe for concurrent use.
type CircuitBreaker struct {
	name      string
	cfg       Config
	logger    log.Logger
	metrics   *metrics.Metrics
	listeners []StateChangeFunc
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error

	// delivering serializes the drain of pending transitions.
	delivering sync.Mutex

	mu          sync.Mutex
	pending     []transition
	state       model.CircuitState
	failures    int
	successes   int
	requests    int64
	lastFailure time.Time
	lastSuccess time.Time
	nextAttempt time.Time
}

// New creates a closed circuit breaker. Zero fields of cfg take their defaults.
func New(name string, cfg Config, logger log.Logger, opts ...Option) *CircuitBreaker {
	if logger == nil {
		logger = &log.NoneLogger{}
	}

	cb := &CircuitBreaker{
		name:    name,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		metrics: metrics.NoopMetrics(),
		now:     time.Now,
		sleep:   sleepContext,
		state:   model.CircuitClosed,
	}

	for _, opt := range opts {
		opt(cb)
	}

	return cb
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Config returns a copy of the effective configuration.
func (cb *CircuitBreaker) Config() Config {
	return cb.cfg
}

// Execute runs op through the breaker. An open circuit rejects with *pkg.CircuitOpenError
// without invoking op. Retryable failures are retried with exponential backoff; a
// non-retryable failure is returned as is after a single attempt; exhausting the
// attempts yields *pkg.RetryExhaustedError. The failure counter moves once per call;
// a call the caller cancelled is not counted.
func (cb *CircuitBreaker) Execute(ctx context.Context, operation string, op Operation) (any, error) {
	if op == nil {
		return nil, pkg.ValidateBusinessError(constant.ErrInvalidConfig, "operation", "operation function is required")
	}

	if err := cb.admit(operation); err != nil {
		return nil, err
	}

	attempts := cb.cfg.Retry.Attempts

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			cb.metrics.RetryAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String(metrics.AttrBreaker, cb.name)))
		}

		result, err := cb.runAttempt(ctx, operation, op)
		if err == nil {
			cb.onSuccess()

			return result, nil
		}

		lastErr = err

		if errors.Is(ctx.Err(), context.Canceled) {
			cb.logger.Warnf("Circuit breaker [%s] operation %q cancelled by caller: %v", cb.name, operation, err)

			return nil, err
		}

		if ctx.Err() != nil {
			cb.logger.Warnf("Circuit breaker [%s] operation %q ran out of time: %v", cb.name, operation, err)
			cb.onFailure()

			return nil, err
		}

		if !cb.cfg.IsRetryable(err) {
			cb.logger.Warnf("Circuit breaker [%s] operation %q failed with non-retryable error: %v", cb.name, operation, err)
			cb.onFailure()

			return nil, err
		}

		if attempt == attempts {
			break
		}

		delay := pkg.BackoffDelay(cb.cfg.Retry.InitialDelay, cb.cfg.Retry.BackoffMultiplier, attempt, cb.cfg.Retry.MaxDelay)

		cb.logger.Warnf("Circuit breaker [%s] operation %q attempt %d/%d failed, retrying in %v: %v",
			cb.name, operation, attempt, attempts, delay, err)

		if sleepErr := cb.sleep(ctx, delay); sleepErr != nil {
			if !errors.Is(ctx.Err(), context.Canceled) {
				cb.onFailure()
			}

			return nil, &pkg.RetryExhaustedError{
				Operation: operation,
				Code:      constant.ErrRetryExhausted.Error(),
				Attempts:  attempt,
				Err:       errors.Join(lastErr, sleepErr),
			}
		}
	}

	cb.logger.Errorf("Circuit breaker [%s] operation %q failed after %d attempts: %v", cb.name, operation, attempts, lastErr)
	cb.onFailure()

	return nil, &pkg.RetryExhaustedError{
		Operation: operation,
		Code:      constant.ErrRetryExhausted.Error(),
		Attempts:  attempts,
		Err:       lastErr,
	}
}

// Do is the typed form of Execute.
func Do[T any](ctx context.Context, cb *CircuitBreaker, operation string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if op == nil {
		return zero, pkg.ValidateBusinessError(constant.ErrInvalidConfig, "operation", "operation function is required")
	}

	result, err := cb.Execute(ctx, operation, func(ctx context.Context) (any, error) {
		return op(ctx)
	})
	if err != nil {
		return zero, err
	}

	typed, ok := result.(T)
	if !ok && result != nil {
		return zero, fmt.Errorf("circuit breaker [%s]: unexpected result type %T", cb.name, result)
	}

	return typed, nil
}

// State returns the current state.
func (cb *CircuitBreaker) State() model.CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// Metrics returns a consistent snapshot of the breaker counters.
func (cb *CircuitBreaker) Metrics() model.CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return model.CircuitBreakerMetrics{
		State:           cb.state,
		Failures:        cb.failures,
		Successes:       cb.successes,
		Requests:        cb.requests,
		LastFailureTime: timePtr(cb.lastFailure),
		LastSuccessTime: timePtr(cb.lastSuccess),
		NextAttemptTime: timePtr(cb.nextAttempt),
	}
}

// Reset returns the breaker to CLOSED with zeroed counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()

	from := cb.state
	cb.state = model.CircuitClosed
	cb.failures = 0
	cb.successes = 0
	cb.requests = 0
	cb.lastFailure = time.Time{}
	cb.lastSuccess = time.Time{}
	cb.nextAttempt = time.Time{}

	if from != model.CircuitClosed {
		cb.pending = append(cb.pending, transition{from: from, to: model.CircuitClosed})
	}

	cb.mu.Unlock()

	cb.logger.Infof("Circuit breaker [%s] manually reset", cb.name)

	cb.flush()
}

// ForceState moves the breaker to state. Forcing OPEN schedules the next attempt one timeout from now.
func (cb *CircuitBreaker) ForceState(state model.CircuitState) error {
	if !state.IsValid() {
		return pkg.ValidateBusinessError(constant.ErrInvalidConfig, "circuitState", fmt.Sprintf("unknown circuit state %q", state))
	}

	cb.mu.Lock()
	cb.transitionLocked(state, cb.now())
	cb.mu.Unlock()

	cb.logger.Warnf("Circuit breaker [%s] state forced to %s", cb.name, state)

	cb.flush()

	return nil
}

// admit counts the request and rejects it if the circuit is open and not yet due for a probe.
func (cb *CircuitBreaker) admit(operation string) error {
	now := cb.now()

	cb.mu.Lock()

	cb.requests++
	cb.decayLocked(now)

	if cb.state == model.CircuitOpen {
		if now.Before(cb.nextAttempt) {
			snapshot := cb.snapshotLocked()
			cb.mu.Unlock()

			cb.logger.Warnf("Circuit breaker [%s] is OPEN - request %q rejected immediately", cb.name, operation)
			cb.metrics.CircuitRejections.Add(context.Background(), 1,
				metric.WithAttributes(attribute.String(metrics.AttrBreaker, cb.name)))

			return &pkg.CircuitOpenError{
				Operation: operation,
				Code:      constant.ErrCircuitOpen.Error(),
				State:     model.CircuitOpen,
				Metrics:   snapshot,
			}
		}

		cb.transitionLocked(model.CircuitHalfOpen, now)
	}

	cb.mu.Unlock()

	cb.flush()

	return nil
}

// decayLocked drops one failure when the last failure is older than the monitor window.
func (cb *CircuitBreaker) decayLocked(now time.Time) {
	if cb.failures > 0 && !cb.lastFailure.IsZero() && now.Sub(cb.lastFailure) > cb.cfg.MonitorWindow {
		cb.failures--
	}
}

func (cb *CircuitBreaker) onSuccess() {
	now := cb.now()

	cb.mu.Lock()

	cb.successes++
	cb.lastSuccess = now

	switch cb.state {
	case model.CircuitHalfOpen:
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.transitionLocked(model.CircuitClosed, now)
		}
	case model.CircuitClosed:
		if cb.failures > 0 {
			cb.failures--
		}
	}

	cb.mu.Unlock()

	cb.flush()
}

func (cb *CircuitBreaker) onFailure() {
	now := cb.now()

	cb.mu.Lock()

	cb.failures++
	cb.lastFailure = now

	switch cb.state {
	case model.CircuitHalfOpen:
		cb.transitionLocked(model.CircuitOpen, now)
	case model.CircuitClosed:
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.transitionLocked(model.CircuitOpen, now)
		}
	}

	cb.mu.Unlock()

	cb.flush()
}

// transitionLocked applies the entry rules of the target state and queues the
// transition for delivery when the state actually changed.
func (cb *CircuitBreaker) transitionLocked(to model.CircuitState, now time.Time) {
	from := cb.state
	cb.state = to

	switch to {
	case model.CircuitOpen:
		cb.nextAttempt = now.Add(cb.cfg.Timeout)
		cb.successes = 0
	case model.CircuitHalfOpen:
		cb.nextAttempt = time.Time{}
		cb.successes = 0
	case model.CircuitClosed:
		cb.nextAttempt = time.Time{}
		cb.failures = 0
	}

	if from != to {
		cb.pending = append(cb.pending, transition{from: from, to: to})
	}
}

// flush delivers queued transitions in commit order. One goroutine drains at a
// time; a caller that finds the drain busy leaves its transitions to the active
// drainer, which re-checks the queue after releasing it.
func (cb *CircuitBreaker) flush() {
	for {
		if !cb.delivering.TryLock() {
			return
		}

		for {
			cb.mu.Lock()

			if len(cb.pending) == 0 {
				cb.mu.Unlock()
				break
			}

			t := cb.pending[0]
			cb.pending = cb.pending[1:]
			cb.mu.Unlock()

			cb.notify(t)
		}

		cb.delivering.Unlock()

		cb.mu.Lock()
		idle := len(cb.pending) == 0
		cb.mu.Unlock()

		if idle {
			return
		}
	}
}

func (cb *CircuitBreaker) notify(t transition) {
	cb.logger.Warnf("Circuit Breaker [%s] state changed: %s -> %s", cb.name, t.from, t.to)

	switch t.to {
	case model.CircuitOpen:
		cb.logger.Errorf("Circuit Breaker [%s] OPENED - database is unhealthy, requests will fast-fail", cb.name)
	case model.CircuitHalfOpen:
		cb.logger.Infof("Circuit Breaker [%s] HALF-OPEN - testing database recovery", cb.name)
	case model.CircuitClosed:
		cb.logger.Infof("Circuit Breaker [%s] CLOSED - database is healthy", cb.name)
	}

	cb.metrics.CircuitStateTransitions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(metrics.AttrBreaker, cb.name),
		attribute.String(metrics.AttrFromState, t.from.String()),
		attribute.String(metrics.AttrToState, t.to.String()),
	))

	for _, fn := range cb.listeners {
		_ = pkg.Recover(cb.logger, "circuit-breaker-state-listener", func() error {
			fn(cb.name, t.from, t.to)
			return nil
		})
	}
}

func (cb *CircuitBreaker) snapshotLocked() model.CircuitBreakerMetrics {
	return model.CircuitBreakerMetrics{
		State:           cb.state,
		Failures:        cb.failures,
		Successes:       cb.successes,
		Requests:        cb.requests,
		LastFailureTime: timePtr(cb.lastFailure),
		LastSuccessTime: timePtr(cb.lastSuccess),
		NextAttemptTime: timePtr(cb.nextAttempt),
	}
}

type attemptOutcome struct {
	result any
	err    error
}

// runAttempt races op against the per-attempt timeout. A panic in op is returned as an error.
func (cb *CircuitBreaker) runAttempt(ctx context.Context, operation string, op Operation) (any, error) {
	timeoutErr := pkg.NewTimeoutError(model.OperationContext{Name: operation}, cb.cfg.AttemptTimeout)

	attemptCtx, cancel := context.WithTimeoutCause(ctx, cb.cfg.AttemptTimeout, timeoutErr)
	defer cancel()

	done := make(chan attemptOutcome, 1)

	go func() {
		var out attemptOutcome

		out.err = pkg.Recover(cb.logger, fmt.Sprintf("circuit breaker [%s] operation %q", cb.name, operation), func() error {
			var err error

			out.result, err = op(attemptCtx)

			return err
		})

		done <- out
	}()

	select {
	case out := <-done:
		if out.err != nil && attemptCtx.Err() != nil {
			return nil, context.Cause(attemptCtx)
		}

		return out.result, out.err
	case <-attemptCtx.Done():
		return nil, context.Cause(attemptCtx)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}
