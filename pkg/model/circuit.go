// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package model

import (
	"time"

	"github.com/LerianStudio/dbguard/pkg/constant"
)

// CircuitState is the state of a circuit breaker.
type CircuitState string

const (
	// CircuitClosed lets every call through.
	CircuitClosed CircuitState = constant.CircuitBreakerStateClosed
	// CircuitOpen rejects every call until the recovery timeout elapses.
	CircuitOpen CircuitState = constant.CircuitBreakerStateOpen
	// CircuitHalfOpen lets calls through to probe recovery.
	CircuitHalfOpen CircuitState = constant.CircuitBreakerStateHalfOpen
	// CircuitUnknown is reported when no breaker state could be read.
	CircuitUnknown CircuitState = constant.CircuitBreakerStateUnknown
)

// String implements fmt.Stringer.
func (s CircuitState) String() string {
	return string(s)
}

// IsValid reports whether s is one of the three known states.
func (s CircuitState) IsValid() bool {
	switch s {
	case CircuitClosed, CircuitOpen, CircuitHalfOpen:
		return true
	default:
		return false
	}
}

// CircuitBreakerMetrics is a point-in-time copy of a breaker's counters.
// NextAttemptTime is non-nil only while the breaker is OPEN.
type CircuitBreakerMetrics struct {
	State           CircuitState `json:"state"`
	Failures        int          `json:"failures"`
	Successes       int          `json:"successes"`
	Requests        int64        `json:"requests"`
	LastFailureTime *time.Time   `json:"lastFailureTime,omitempty"`
	LastSuccessTime *time.Time   `json:"lastSuccessTime,omitempty"`
	NextAttemptTime *time.Time   `json:"nextAttemptTime,omitempty"`
}
