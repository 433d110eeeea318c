// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package circuitbreaker

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// RetryClassifier reports whether an operation error is worth retrying.
type RetryClassifier func(err error) bool

// NonRetryablePatterns are message fragments that mark an error as permanent.
var NonRetryablePatterns = []string{
	"authentication",
	"permission denied",
	"syntax error",
	"invalid",
	"malformed",
}

// nonRetryableSQLStateClasses are PostgreSQL SQLSTATE classes that will fail the same way again:
// 22 data exception, 23 integrity constraint violation, 28 invalid authorization, 42 syntax or access rule.
var nonRetryableSQLStateClasses = map[string]struct{}{
	"22": {},
	"23": {},
	"28": {},
	"42": {},
}

// DefaultRetryClassifier treats caller cancellation, PostgreSQL errors in a permanent
// SQLSTATE class, and errors whose message matches NonRetryablePatterns as non-retryable.
func DefaultRetryClassifier(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		if _, permanent := nonRetryableSQLStateClasses[pgErr.Code[:2]]; permanent {
			return false
		}
	}

	return PatternClassifier(NonRetryablePatterns...)(err)
}

// PatternClassifier returns a classifier that marks an error non-retryable when its
// message contains any of patterns, case-insensitively.
func PatternClassifier(patterns ...string) RetryClassifier {
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			lowered = append(lowered, p)
		}
	}

	return func(err error) bool {
		if err == nil {
			return false
		}

		msg := strings.ToLower(err.Error())
		for _, p := range lowered {
			if strings.Contains(msg, p) {
				return false
			}
		}

		return true
	}
}

// AllRetryable combines classifiers: an error is retryable only if every classifier agrees.
func AllRetryable(classifiers ...RetryClassifier) RetryClassifier {
	return func(err error) bool {
		for _, c := range classifiers {
			if c != nil && !c(err) {
				return false
			}
		}

		return err != nil
	}
}
