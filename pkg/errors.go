// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/model"
)

// CircuitOpenError records an operation rejected by an open circuit breaker.
// The wrapped operation was never invoked.
type CircuitOpenError struct {
	Operation string
	Code      string
	State     model.CircuitState
	Metrics   model.CircuitBreakerMetrics
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	if e.Metrics.NextAttemptTime != nil {
		return fmt.Sprintf("circuit breaker is %s for operation %q, next attempt at %s",
			e.State, e.Operation, e.Metrics.NextAttemptTime.UTC().Format(time.RFC3339))
	}

	return fmt.Sprintf("circuit breaker is %s for operation %q", e.State, e.Operation)
}

// Is matches constant.ErrCircuitOpen so callers can use errors.Is.
func (e *CircuitOpenError) Is(target error) bool {
	return target == constant.ErrCircuitOpen
}

// RetryExhaustedError records that every configured attempt failed.
type RetryExhaustedError struct {
	Operation string
	Code      string
	Attempts  int
	Err       error
}

// Error implements the error interface.
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("operation %q failed after %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

// Unwrap returns the last underlying error.
func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// Is matches constant.ErrRetryExhausted.
func (e *RetryExhaustedError) Is(target error) bool {
	return target == constant.ErrRetryExhausted
}

// TimeoutError records an attempt that exceeded its budget. It is distinct from
// an ordinary failure so callers can tell "too slow" from "failed".
type TimeoutError struct {
	OperationType model.OperationType
	Name          string
	Table         string
	Code          string
	Timeout       time.Duration
}

// NewTimeoutError builds a TimeoutError for the given operation context.
func NewTimeoutError(opCtx model.OperationContext, timeout time.Duration) *TimeoutError {
	return &TimeoutError{
		OperationType: opCtx.OperationType,
		Name:          opCtx.Name,
		Table:         opCtx.Table,
		Code:          constant.ErrOperationTimeout.Error(),
		Timeout:       timeout,
	}
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "database operation timed out after %s", e.Timeout)

	if e.OperationType != "" {
		fmt.Fprintf(&b, ": %s", e.OperationType)
	}

	if e.Name != "" {
		fmt.Fprintf(&b, " (%s)", e.Name)
	}

	if e.Table != "" {
		fmt.Fprintf(&b, " on table %s", e.Table)
	}

	return b.String()
}

// Is matches constant.ErrOperationTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == constant.ErrOperationTimeout
}

// IsTimeout reports whether err is or wraps a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// ValidationError records an invalid configuration value.
type ValidationError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string
	Message    string
	Code       string
	Err        error `json:"err,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if strings.TrimSpace(e.Code) != "" {
		return fmt.Sprintf("%s - %s", e.Code, e.Message)
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidateBusinessError maps a sentinel code to its typed error. The sentinel stays
// reachable through errors.Is. Unknown sentinels are returned unchanged.
func ValidateBusinessError(err error, entityType string, args ...any) error {
	errorMap := map[error]error{
		constant.ErrInvalidConfig: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidConfig.Error(),
			Title:      "Invalid Configuration",
			Message:    fmt.Sprintf("Invalid value for '%s': %v", entityType, fmt.Sprint(args...)),
			Err:        constant.ErrInvalidConfig,
		},
		constant.ErrUnsupportedDriver: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrUnsupportedDriver.Error(),
			Title:      "Unsupported Driver",
			Message:    fmt.Sprintf("The database driver %v is not supported. Use 'pgx' or 'postgres'.", fmt.Sprint(args...)),
			Err:        constant.ErrUnsupportedDriver,
		},
		constant.ErrOperationCancelled: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrOperationCancelled.Error(),
			Title:      "Operation Cancelled",
			Message:    fmt.Sprintf("The operation %v was cancelled before completion.", fmt.Sprint(args...)),
			Err:        constant.ErrOperationCancelled,
		},
		constant.ErrNotifierFailed: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrNotifierFailed.Error(),
			Title:      "Notifier Failed",
			Message:    fmt.Sprintf("Alert delivery failed: %v", fmt.Sprint(args...)),
			Err:        constant.ErrNotifierFailed,
		},
		constant.ErrHealthCheckFailed: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrHealthCheckFailed.Error(),
			Title:      "Health Check Failed",
			Message:    fmt.Sprintf("The database health check failed: %v", fmt.Sprint(args...)),
			Err:        constant.ErrHealthCheckFailed,
		},
	}

	if mappedError, found := errorMap[err]; found {
		return mappedError
	}

	return err
}
