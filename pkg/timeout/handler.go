// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package timeout

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LerianStudio/dbguard/pkg"
	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/metrics"
	"github.com/LerianStudio/dbguard/pkg/model"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Operation is the unit of work raced against its budget. It must honor ctx to
// stop early; cancellation is best effort and a backend may still finish the work.
type Operation func(ctx context.Context) (any, error)

// Option customizes a Handler.
type Option func(*Handler)

// WithMetrics records timeouts, durations and active operations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = metrics.OrNoop(m)
	}
}

// WithIDGenerator overrides the operation ID source.
func WithIDGenerator(fn func() string) Option {
	return func(h *Handler) {
		if fn != nil {
			h.newID = fn
		}
	}
}

type trackedOperation struct {
	info   model.ActiveOperation
	cancel context.CancelCauseFunc
}

// Handler computes per-operation budgets and tracks in-flight operations so they
// can be cancelled on shutdown.
type Handler struct {
	timeouts map[model.OperationType]time.Duration
	logger   log.Logger
	metrics  *metrics.Metrics
	newID    func() string

	mu  sync.Mutex
	ops map[string]*trackedOperation
}

// NewHandler creates a Handler.
func NewHandler(cfg Config, logger log.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = &log.NoneLogger{}
	}

	h := &Handler{
		timeouts: cfg.merged(),
		logger:   logger,
		metrics:  metrics.NoopMetrics(),
		newID:    uuid.NewString,
		ops:      make(map[string]*trackedOperation),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// ResolveTimeout returns base(type) x complexity x record-count tier.
// Unknown operation types use the query budget.
func (h *Handler) ResolveTimeout(opCtx model.OperationContext) time.Duration {
	base, ok := h.timeouts[opCtx.OperationType]
	if !ok {
		base = h.timeouts[model.OperationQuery]
	}

	budget := float64(base) * complexityMultiplier(opCtx.Complexity) * recordCountMultiplier(opCtx.RecordCount)

	return time.Duration(budget)
}

// ExecuteWithTimeout races op against its budget. customTimeout > 0 overrides the
// computed budget. The outcome is always reported in the result, never as a panic or
// a separate error; a late result from a timed-out op is discarded.
func (h *Handler) ExecuteWithTimeout(ctx context.Context, opCtx model.OperationContext, op Operation, customTimeout time.Duration) model.TimeoutResult[any] {
	id := h.newID()
	result := model.TimeoutResult[any]{OperationID: id, Context: opCtx}

	if op == nil {
		result.Err = pkg.ValidateBusinessError(constant.ErrInvalidConfig, "operation", "operation function is required")
		return result
	}

	budget := customTimeout
	if budget <= 0 {
		budget = h.ResolveTimeout(opCtx)
	}

	start := time.Now()

	deadlineCtx, cancelDeadline := context.WithTimeoutCause(ctx, budget, pkg.NewTimeoutError(opCtx, budget))
	defer cancelDeadline()

	runCtx, cancel := context.WithCancelCause(deadlineCtx)
	defer cancel(nil)

	h.register(id, opCtx, start, budget, cancel)
	defer h.unregister(id)

	value, err := h.race(runCtx, id, op)

	result.Duration = time.Since(start)

	typeAttr := metric.WithAttributes(attribute.String(metrics.AttrOperationType, string(opCtx.OperationType)))
	h.metrics.OperationDuration.Record(ctx, float64(result.Duration.Microseconds())/1000, typeAttr)

	if err != nil {
		result.Err = err
		result.TimedOut = pkg.IsTimeout(err)

		if result.TimedOut {
			h.metrics.OperationTimeouts.Add(ctx, 1, typeAttr)
			h.logger.Warnf("Operation %s timed out after %v: %v", id, budget, err)
		}

		return result
	}

	result.Success = true
	result.Result = value

	return result
}

// Run is the typed form of ExecuteWithTimeout.
func Run[T any](ctx context.Context, h *Handler, opCtx model.OperationContext, op func(ctx context.Context) (T, error), customTimeout time.Duration) model.TimeoutResult[T] {
	var untyped Operation
	if op != nil {
		untyped = func(ctx context.Context) (any, error) {
			return op(ctx)
		}
	}

	res := h.ExecuteWithTimeout(ctx, opCtx, untyped, customTimeout)

	typed := model.TimeoutResult[T]{
		OperationID: res.OperationID,
		Success:     res.Success,
		Err:         res.Err,
		TimedOut:    res.TimedOut,
		Duration:    res.Duration,
		Context:     res.Context,
	}

	if res.Success && res.Result != nil {
		v, ok := res.Result.(T)
		if !ok {
			typed.Success = false
			typed.Err = fmt.Errorf("operation %s: unexpected result type %T", res.OperationID, res.Result)

			return typed
		}

		typed.Result = v
	}

	return typed
}

type raceOutcome struct {
	value any
	err   error
}

func (h *Handler) race(ctx context.Context, id string, op Operation) (any, error) {
	done := make(chan raceOutcome, 1)

	go func() {
		var out raceOutcome

		out.err = pkg.Recover(h.logger, "operation "+id, func() error {
			var err error

			out.value, err = op(ctx)

			return err
		})

		done <- out
	}()

	select {
	case out := <-done:
		if out.err != nil && ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}

		return out.value, out.err
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}
}

// CancelOperation signals the operation with id to stop. It reports whether the id was active.
func (h *Handler) CancelOperation(id string) bool {
	h.mu.Lock()
	op, ok := h.ops[id]

	if ok {
		delete(h.ops, id)
	}
	h.mu.Unlock()

	if !ok {
		return false
	}

	op.cancel(cancelledError(id))
	h.metrics.OperationsActive.Add(context.Background(), -1)
	h.logger.Infof("Operation %s cancelled", id)

	return true
}

// CancelAllOperations cancels every active operation and returns how many were cancelled.
func (h *Handler) CancelAllOperations() int {
	h.mu.Lock()
	ops := h.ops
	h.ops = make(map[string]*trackedOperation)
	h.mu.Unlock()

	for id, op := range ops {
		op.cancel(cancelledError(id))
	}

	if n := len(ops); n > 0 {
		h.metrics.OperationsActive.Add(context.Background(), -int64(n))
		h.logger.Infof("Cancelled %d active operations", n)
	}

	return len(ops)
}

// ActiveOperationCount returns the number of in-flight operations.
func (h *Handler) ActiveOperationCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.ops)
}

// ActiveOperations returns the in-flight operations ordered by start time.
func (h *Handler) ActiveOperations() []model.ActiveOperation {
	h.mu.Lock()

	out := make([]model.ActiveOperation, 0, len(h.ops))
	for _, op := range h.ops {
		out = append(out, op.info)
	}
	h.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})

	return out
}

func (h *Handler) register(id string, opCtx model.OperationContext, start time.Time, budget time.Duration, cancel context.CancelCauseFunc) {
	h.mu.Lock()
	h.ops[id] = &trackedOperation{
		info: model.ActiveOperation{
			ID:        id,
			Context:   opCtx,
			StartedAt: start,
			Timeout:   budget,
		},
		cancel: cancel,
	}
	h.mu.Unlock()

	h.metrics.OperationsActive.Add(context.Background(), 1)
}

func (h *Handler) unregister(id string) {
	h.mu.Lock()
	_, ok := h.ops[id]
	delete(h.ops, id)
	h.mu.Unlock()

	if ok {
		h.metrics.OperationsActive.Add(context.Background(), -1)
	}
}

func cancelledError(id string) error {
	return fmt.Errorf("operation %s cancelled: %w", id, constant.ErrOperationCancelled)
}
