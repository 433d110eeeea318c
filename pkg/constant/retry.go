// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package constant

import "time"

// Circuit Breaker Configuration
const (
	// CircuitBreakerFailureThreshold is the failure count that trips a closed breaker open.
	CircuitBreakerFailureThreshold = 5

	// CircuitBreakerSuccessThreshold is the success count that closes a half-open breaker.
	CircuitBreakerSuccessThreshold = 3

	// CircuitBreakerTimeout is how long an open breaker waits before probing recovery.
	CircuitBreakerTimeout = 60 * time.Second

	// CircuitBreakerMonitorWindow is the age after which the last failure starts to decay.
	CircuitBreakerMonitorWindow = 5 * time.Minute

	// CircuitBreakerAttemptTimeout bounds a single attempt inside the retry loop.
	CircuitBreakerAttemptTimeout = 30 * time.Second
)

// Retry Configuration
const (
	// RetryAttempts is the number of tries the breaker makes before giving up.
	RetryAttempts = 3

	// RetryInitialDelay is the delay before the second attempt.
	RetryInitialDelay = 1 * time.Second

	// RetryMaxDelay is the upper bound for the backoff delay.
	RetryMaxDelay = 30 * time.Second

	// RetryBackoffMultiplier is applied to the delay on each successive retry.
	RetryBackoffMultiplier = 2.0
)

// Circuit Breaker State Names
const (
	CircuitBreakerStateClosed   = "CLOSED"
	CircuitBreakerStateOpen     = "OPEN"
	CircuitBreakerStateHalfOpen = "HALF_OPEN"
	CircuitBreakerStateUnknown  = "UNKNOWN"
)

// Webhook notifier breaker (sony/gobreaker) configuration.
const (
	NotifierBreakerMaxRequests uint32 = 1
	NotifierBreakerInterval           = 2 * time.Minute
	NotifierBreakerTimeout            = 30 * time.Second
	NotifierBreakerThreshold   uint32 = 3
	NotifierRequestTimeout            = 10 * time.Second
)
