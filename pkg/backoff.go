// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"math"
	"time"
)

// BackoffDelay returns the wait before retry number attempt (1-based):
// initial * multiplier^(attempt-1), capped at maxDelay.
func BackoffDelay(initial time.Duration, multiplier float64, attempt int, maxDelay time.Duration) time.Duration {
	if initial <= 0 {
		return 0
	}

	if attempt < 1 {
		attempt = 1
	}

	if multiplier < 1 {
		multiplier = 1
	}

	delay := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if maxDelay > 0 && (delay > float64(maxDelay) || math.IsInf(delay, 1)) {
		return maxDelay
	}

	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(delay)
}
