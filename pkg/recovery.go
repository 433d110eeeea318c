// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"fmt"
	"runtime/debug"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
)

// PanicError is a recovered panic turned into an error.
type PanicError struct {
	Name  string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Name, e.Value)
}

// Recover runs fn and returns its error. A panic is logged with its stack trace and
// returned as a *PanicError.
func Recover(logger log.Logger, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("%s panic recovered: %v\nStack: %s", name, r, string(debug.Stack()))

			err = &PanicError{Name: name, Value: r}
		}
	}()

	return fn()
}

// GoNamed starts fn on its own goroutine. A panic is logged under name instead of
// crashing the process.
func GoNamed(logger log.Logger, name string, fn func()) {
	go func() {
		_ = Recover(logger, "goroutine "+name, func() error {
			fn()
			return nil
		})
	}()
}
