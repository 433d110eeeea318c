// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestDefaultRetryClassifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "transient network", err: errors.New("connection reset by peer"), want: true},
		{name: "authentication", err: errors.New("password Authentication failed for user"), want: false},
		{name: "permission denied", err: errors.New("permission denied for table vendors"), want: false},
		{name: "syntax", err: errors.New("syntax error at or near"), want: false},
		{name: "invalid", err: errors.New("invalid input value"), want: false},
		{name: "malformed", err: errors.New("malformed array literal"), want: false},
		{name: "caller cancelled", err: context.Canceled, want: false},
		{name: "wrapped cancel", err: fmt.Errorf("query: %w", context.Canceled), want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "pg auth class", err: &pgconn.PgError{Code: "28P01", Message: "bad password"}, want: false},
		{name: "pg undefined table", err: &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, want: false},
		{name: "pg data exception", err: &pgconn.PgError{Code: "22003", Message: "numeric out of range"}, want: false},
		{name: "pg unique violation", err: &pgconn.PgError{Code: "23505", Message: "duplicate key"}, want: false},
		{name: "pg serialization failure", err: &pgconn.PgError{Code: "40001", Message: "could not serialize access"}, want: true},
		{name: "pg admin shutdown", err: &pgconn.PgError{Code: "57P01", Message: "terminating connection"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, DefaultRetryClassifier(tt.err))
		})
	}
}

func TestPatternClassifier_IgnoresBlankPatterns(t *testing.T) {
	t.Parallel()

	c := PatternClassifier("", "  ", "Lock Timeout")

	assert.True(t, c(errors.New("anything")))
	assert.False(t, c(errors.New("canceling statement due to lock timeout")))
}

func TestAllRetryable(t *testing.T) {
	t.Parallel()

	c := AllRetryable(DefaultRetryClassifier, PatternClassifier("read-only"), nil)

	assert.True(t, c(errors.New("connection refused")))
	assert.False(t, c(errors.New("cannot execute in a read-only transaction")))
	assert.False(t, c(errors.New("syntax error")))
	assert.False(t, c(nil))
}
