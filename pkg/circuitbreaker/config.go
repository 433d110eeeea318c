// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package circuitbreaker

import (
	"time"

	"github.com/LerianStudio/dbguard/pkg/constant"
)

// RetryConfig controls the retry loop inside Execute.
type RetryConfig struct {
	Attempts          int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// Config holds circuit breaker configuration. It is copied on construction and never mutated.
type Config struct {
	// FailureThreshold is the failure count that opens the circuit.
	FailureThreshold int
	// SuccessThreshold is the success count that closes a half-open circuit.
	SuccessThreshold int
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration
	// MonitorWindow is the age after which the failure count decays by one per call.
	MonitorWindow time.Duration
	// AttemptTimeout bounds every single attempt.
	AttemptTimeout time.Duration
	Retry          RetryConfig
	// IsRetryable classifies attempt errors. Defaults to DefaultRetryClassifier.
	IsRetryable RetryClassifier
}

// DefaultConfig returns the default breaker configuration.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: constant.CircuitBreakerFailureThreshold,
		SuccessThreshold: constant.CircuitBreakerSuccessThreshold,
		Timeout:          constant.CircuitBreakerTimeout,
		MonitorWindow:    constant.CircuitBreakerMonitorWindow,
		AttemptTimeout:   constant.CircuitBreakerAttemptTimeout,
		Retry: RetryConfig{
			Attempts:          constant.RetryAttempts,
			InitialDelay:      constant.RetryInitialDelay,
			MaxDelay:          constant.RetryMaxDelay,
			BackoffMultiplier: constant.RetryBackoffMultiplier,
		},
		IsRetryable: DefaultRetryClassifier,
	}
}

// withDefaults fills every zero field from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()

	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}

	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = d.SuccessThreshold
	}

	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}

	if c.MonitorWindow <= 0 {
		c.MonitorWindow = d.MonitorWindow
	}

	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = d.AttemptTimeout
	}

	if c.Retry.Attempts <= 0 {
		c.Retry.Attempts = d.Retry.Attempts
	}

	if c.Retry.InitialDelay < 0 {
		c.Retry.InitialDelay = d.Retry.InitialDelay
	}

	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = d.Retry.MaxDelay
	}

	if c.Retry.BackoffMultiplier <= 0 {
		c.Retry.BackoffMultiplier = d.Retry.BackoffMultiplier
	}

	if c.IsRetryable == nil {
		c.IsRetryable = d.IsRetryable
	}

	return c
}
