// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/LerianStudio/dbguard/pkg/db"
	"github.com/LerianStudio/dbguard/pkg/model"
)

type fakeRows struct{}

func (fakeRows) Next() bool        { return false }
func (fakeRows) Scan(...any) error { return nil }
func (fakeRows) Err() error        { return nil }
func (fakeRows) Close() error      { return nil }

type fakeClient struct {
	mu       sync.Mutex
	rowErr   error
	queryErr error
	txErr    error
	delay    time.Duration
	queries  []string
}

func (c *fakeClient) record(q string) {
	c.mu.Lock()
	c.queries = append(c.queries, q)
	c.mu.Unlock()
}

func (c *fakeClient) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.queries...)
}

func (c *fakeClient) SetRowErr(err error) {
	c.mu.Lock()
	c.rowErr = err
	c.mu.Unlock()
}

func (c *fakeClient) Exec(_ context.Context, q string, _ ...any) (int64, error) {
	c.record(q)
	return 0, nil
}

func (c *fakeClient) Query(_ context.Context, q string, _ ...any) (db.Rows, error) {
	c.record(q)

	if c.queryErr != nil {
		return nil, c.queryErr
	}

	return fakeRows{}, nil
}

func (c *fakeClient) QueryRow(_ context.Context, q string, _ ...any) db.Row {
	c.record(q)

	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	c.mu.Lock()
	err := c.rowErr
	c.mu.Unlock()

	if err != nil {
		return db.StaticRow{Err: err}
	}

	return db.StaticRow{Values: []any{1}}
}

func (c *fakeClient) Ping(context.Context) error { return nil }

func (c *fakeClient) Transaction(ctx context.Context, fn db.TxFunc) error {
	if c.txErr != nil {
		return c.txErr
	}

	return fn(ctx, c)
}

func (c *fakeClient) Close() error { return nil }

type statsClient struct {
	*fakeClient
	stats model.PoolStats
}

func (c statsClient) PoolStats() model.PoolStats { return c.stats }

type fakeBreaker struct {
	m model.CircuitBreakerMetrics
}

func (b fakeBreaker) Metrics() model.CircuitBreakerMetrics { return b.m }

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []model.AlertPayload
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, p model.AlertPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.payloads = append(n.payloads, p)

	return n.err
}

func (n *recordingNotifier) Payloads() []model.AlertPayload {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]model.AlertPayload(nil), n.payloads...)
}

type failingCooldown struct{}

func (failingCooldown) Acquire(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis: connection refused")
}
