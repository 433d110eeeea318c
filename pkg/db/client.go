// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package db

import (
	"context"

	"github.com/LerianStudio/dbguard/pkg/model"
)

// Row is a single result row.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a forward-only result cursor. Close must be called when done.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Querier runs statements. It is satisfied by both a connection pool and an open transaction.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
}

// TxFunc runs inside a transaction. Returning an error rolls the transaction back.
type TxFunc func(ctx context.Context, tx Querier) error

// Client is the database client guarded by the resilience layer.
//
//go:generate mockgen --destination=client.mock.go --package=db . Client
type Client interface {
	Querier
	Ping(ctx context.Context) error
	Transaction(ctx context.Context, fn TxFunc) error
	Close() error
}

// PoolStatsProvider is implemented by clients that can report pool usage.
type PoolStatsProvider interface {
	PoolStats() model.PoolStats
}

// StatsOf returns the pool stats of c and whether c reports them.
func StatsOf(c Client) (model.PoolStats, bool) {
	if p, ok := c.(PoolStatsProvider); ok {
		return p.PoolStats(), true
	}

	return model.PoolStats{}, false
}
