// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package reliable composes the timeout handler, circuit breaker and
// connection monitor in front of a database client.
package reliable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LerianStudio/dbguard/pkg"
	"github.com/LerianStudio/dbguard/pkg/circuitbreaker"
	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/db"
	"github.com/LerianStudio/dbguard/pkg/model"
	"github.com/LerianStudio/dbguard/pkg/timeout"

	libCommons "github.com/LerianStudio/lib-commons/v3/commons"
	"github.com/LerianStudio/lib-commons/v3/commons/log"
	libOtel "github.com/LerianStudio/lib-commons/v3/commons/opentelemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Func is a unit of database work. It must honor ctx.
type Func func(ctx context.Context, c db.Client) (any, error)

// Recorder receives per-operation samples. *monitor.Monitor implements it.
type Recorder interface {
	RecordQueryTime(d time.Duration)
	RecordQueryResult(success bool)
	RecordTimeout()
}

// Option customizes a Client.
type Option func(*Client)

// WithRecorder feeds operation samples to r.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// Client runs every operation as timeout(breaker(fn)). The timeout budget
// covers all retry attempts and backoff sleeps.
type Client struct {
	raw      db.Client
	breaker  *circuitbreaker.CircuitBreaker
	timeouts *timeout.Handler
	recorder Recorder
	logger   log.Logger
}

// New builds a reliable client around raw.
func New(raw db.Client, breaker *circuitbreaker.CircuitBreaker, timeouts *timeout.Handler, logger log.Logger, opts ...Option) (*Client, error) {
	if raw == nil || breaker == nil || timeouts == nil {
		return nil, fmt.Errorf("reliable client requires a database client, breaker and timeout handler: %w", constant.ErrInvalidConfig)
	}

	if logger == nil {
		logger = &log.NoneLogger{}
	}

	c := &Client{
		raw:      raw,
		breaker:  breaker,
		timeouts: timeouts,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Raw returns the unguarded client, for probes that must bypass the breaker.
func (c *Client) Raw() db.Client {
	return c.raw
}

// Breaker returns the circuit breaker guarding this client.
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

// Timeouts returns the timeout handler bounding this client.
func (c *Client) Timeouts() *timeout.Handler {
	return c.timeouts
}

// Close closes the underlying client.
func (c *Client) Close() error {
	return c.raw.Close()
}

// Execute runs fn under the operation's timeout budget, through the breaker.
// Errors are *pkg.TimeoutError, *pkg.CircuitOpenError, *pkg.RetryExhaustedError
// or the non-retryable error fn returned.
func (c *Client) Execute(ctx context.Context, opCtx model.OperationContext, fn Func) (any, error) {
	if fn == nil {
		return nil, pkg.ValidateBusinessError(constant.ErrInvalidConfig, "operation", "operation function is required")
	}

	if opCtx.OperationType == "" {
		opCtx.OperationType = model.OperationQuery
	}

	name := operationName(opCtx)

	_, tracer, reqID, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "reliable.execute")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("db.operation.type", string(opCtx.OperationType)),
		attribute.String("db.operation.name", name),
	)

	if opCtx.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", opCtx.Table))
	}

	res := c.timeouts.ExecuteWithTimeout(ctx, opCtx, func(ctx context.Context) (any, error) {
		return c.breaker.Execute(ctx, name, func(ctx context.Context) (any, error) {
			return fn(ctx, c.raw)
		})
	}, 0)

	span.SetAttributes(attribute.String("app.request.operation_id", res.OperationID))

	c.record(res)

	if !res.Success {
		libOtel.HandleSpanError(&span, "Database operation failed", res.Err)

		c.logger.Debugf("Database operation %s (%s) failed after %v: %v", name, res.OperationID, res.Duration, res.Err)

		return nil, res.Err
	}

	return res.Result, nil
}

// Query runs a read operation. OperationType defaults to query.
func (c *Client) Query(ctx context.Context, opCtx model.OperationContext, fn Func) (any, error) {
	if opCtx.OperationType == "" {
		opCtx.OperationType = model.OperationQuery
	}

	return c.Execute(ctx, opCtx, fn)
}

// Transaction runs fn inside a database transaction. OperationType defaults to
// transaction. A retried attempt runs in a fresh transaction.
func (c *Client) Transaction(ctx context.Context, opCtx model.OperationContext, fn db.TxFunc) error {
	if fn == nil {
		return pkg.ValidateBusinessError(constant.ErrInvalidConfig, "operation", "transaction function is required")
	}

	if opCtx.OperationType == "" {
		opCtx.OperationType = model.OperationTransaction
	}

	_, err := c.Execute(ctx, opCtx, func(ctx context.Context, client db.Client) (any, error) {
		return nil, client.Transaction(ctx, fn)
	})

	return err
}

// Run is the typed form of Execute.
func Run[T any](ctx context.Context, c *Client, opCtx model.OperationContext, fn func(ctx context.Context, client db.Client) (T, error)) (T, error) {
	var zero T

	if fn == nil {
		return zero, pkg.ValidateBusinessError(constant.ErrInvalidConfig, "operation", "operation function is required")
	}

	result, err := c.Execute(ctx, opCtx, func(ctx context.Context, client db.Client) (any, error) {
		return fn(ctx, client)
	})
	if err != nil {
		return zero, err
	}

	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("operation %s: unexpected result type %T", operationName(opCtx), result)
	}

	return typed, nil
}

// record skips rejected calls; they never reached the database.
func (c *Client) record(res model.TimeoutResult[any]) {
	if c.recorder == nil {
		return
	}

	var rejected *pkg.CircuitOpenError
	if errors.As(res.Err, &rejected) {
		return
	}

	c.recorder.RecordQueryTime(res.Duration)
	c.recorder.RecordQueryResult(res.Success)

	if res.TimedOut {
		c.recorder.RecordTimeout()
	}
}

func operationName(opCtx model.OperationContext) string {
	if opCtx.Name != "" {
		return opCtx.Name
	}

	return string(opCtx.OperationType)
}
