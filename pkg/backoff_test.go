// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"testing"
	"time"

	"github.com/LerianStudio/dbguard/pkg/constant"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		initial    time.Duration
		multiplier float64
		attempt    int
		max        time.Duration
		want       time.Duration
	}{
		{name: "first retry uses initial delay", initial: time.Second, multiplier: 2, attempt: 1, max: 30 * time.Second, want: time.Second},
		{name: "second retry doubles", initial: time.Second, multiplier: 2, attempt: 2, max: 30 * time.Second, want: 2 * time.Second},
		{name: "third retry quadruples", initial: time.Second, multiplier: 2, attempt: 3, max: 30 * time.Second, want: 4 * time.Second},
		{name: "capped at max", initial: time.Second, multiplier: 2, attempt: 10, max: 30 * time.Second, want: 30 * time.Second},
		{name: "zero attempt treated as first", initial: time.Second, multiplier: 2, attempt: 0, max: 30 * time.Second, want: time.Second},
		{name: "zero initial returns zero", initial: 0, multiplier: 2, attempt: 3, max: 30 * time.Second, want: 0},
		{name: "multiplier below one is flat", initial: time.Second, multiplier: 0.5, attempt: 4, max: 30 * time.Second, want: time.Second},
		{name: "huge attempt does not overflow", initial: time.Second, multiplier: 2, attempt: 5000, max: time.Minute, want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, BackoffDelay(tt.initial, tt.multiplier, tt.attempt, tt.max))
		})
	}
}

func TestBackoffDelay_DefaultRetrySchedule(t *testing.T) {
	t.Parallel()

	delays := make([]time.Duration, 0, constant.RetryAttempts-1)
	for attempt := 1; attempt < constant.RetryAttempts; attempt++ {
		delays = append(delays, BackoffDelay(constant.RetryInitialDelay, constant.RetryBackoffMultiplier, attempt, constant.RetryMaxDelay))
	}

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}
