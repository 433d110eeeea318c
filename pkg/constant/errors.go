// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package constant

import (
	"errors"
)

// List of errors that can be returned.
// Standardized error codes.
var (
	ErrCircuitOpen        = errors.New("DBG-0001")
	ErrRetryExhausted     = errors.New("DBG-0002")
	ErrOperationTimeout   = errors.New("DBG-0003")
	ErrOperationCancelled = errors.New("DBG-0004")
	ErrInvalidConfig      = errors.New("DBG-0005")
	ErrNotifierFailed     = errors.New("DBG-0006")
	ErrHealthCheckFailed  = errors.New("DBG-0007")
	ErrUnsupportedDriver  = errors.New("DBG-0008")
)
