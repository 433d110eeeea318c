// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package notifier delivers database health alerts to external sinks.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/model"
)

// Notifier is the delivery contract consumed by the connection monitor.
type Notifier interface {
	Notify(ctx context.Context, payload model.AlertPayload) error
}

// Multi fans an alert out to every configured notifier. Delivery keeps going
// when one sink fails; the returned error joins every failure.
type Multi struct {
	notifiers []Notifier
}

// NewMulti builds a fan-out notifier. Nil entries are skipped.
func NewMulti(notifiers ...Notifier) *Multi {
	m := &Multi{}

	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}

	return m
}

// Len reports how many sinks are attached.
func (m *Multi) Len() int {
	return len(m.notifiers)
}

// Notify delivers payload to every sink.
func (m *Multi) Notify(ctx context.Context, payload model.AlertPayload) error {
	var errs []error

	for _, n := range m.notifiers {
		if err := n.Notify(ctx, payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func wrapFailure(sink string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s notifier: %w: %w", sink, constant.ErrNotifierFailed, err)
}
