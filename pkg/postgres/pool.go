// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package postgres

import (
	"context"
	"fmt"

	"github.com/LerianStudio/dbguard/pkg"
	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/db"
	"github.com/LerianStudio/dbguard/pkg/model"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is a pgxpool backed db.Client.
type Pool struct {
	pool   *pgxpool.Pool
	dbName string
	logger log.Logger
}

// NewPool parses connString, opens a pool of at most maxConns connections and pings it.
func NewPool(ctx context.Context, connString, dbName string, maxConns int, logger log.Logger) (*Pool, error) {
	if logger == nil {
		logger = &log.NoneLogger{}
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse postgres connection string: %w", err)
	}

	if maxConns <= 0 {
		maxConns = constant.PostgresMaxOpenConns
	}

	cfg.MaxConns = int32(maxConns) //nolint:gosec // bounded by configuration
	cfg.MaxConnLifetime = constant.PostgresConnMaxLifetime
	cfg.MaxConnIdleTime = constant.PostgresConnMaxIdleTime

	logger.Infof("Connecting to PostgreSQL [%s] via pgxpool: %s", dbName, pkg.RedactConnectionString(connString))

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		logger.Errorf("Error creating pgx pool: %v", err)
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Errorf("Error pinging PostgreSQL: %v", err)

		return nil, err
	}

	logger.Infof("Connected to PostgreSQL [%s]", dbName)

	return &Pool{pool: pool, dbName: dbName, logger: logger}, nil
}

// Exec runs a statement and returns the affected row count.
func (p *Pool) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return pgxExecutor{p.pool}.Exec(ctx, query, args...)
}

// Query runs a query returning rows.
func (p *Pool) Query(ctx context.Context, query string, args ...any) (db.Rows, error) {
	return pgxExecutor{p.pool}.Query(ctx, query, args...)
}

// QueryRow runs a query expected to return at most one row.
func (p *Pool) QueryRow(ctx context.Context, query string, args ...any) db.Row {
	return pgxExecutor{p.pool}.QueryRow(ctx, query, args...)
}

// Ping verifies the database is reachable.
func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Transaction runs fn in a transaction, committing on nil and rolling back otherwise.
func (p *Pool) Transaction(ctx context.Context, fn db.TxFunc) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(ctx, pgxExecutor{tx})
	})
}

// PoolStats reports pgxpool usage.
func (p *Pool) PoolStats() model.PoolStats {
	s := p.pool.Stat()

	return model.PoolStats{
		TotalConnections:  int(s.TotalConns()),
		ActiveConnections: int(s.AcquiredConns()),
		IdleConnections:   int(s.IdleConns()),
		MaxConnections:    int(s.MaxConns()),
	}
}

// Close closes every pooled connection.
func (p *Pool) Close() error {
	p.pool.Close()
	p.logger.Infof("Closed PostgreSQL pool [%s]", p.dbName)

	return nil
}

type pgxRunner interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxExecutor adapts *pgxpool.Pool and pgx.Tx to db.Querier.
type pgxExecutor struct {
	runner pgxRunner
}

func (e pgxExecutor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := e.runner.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (e pgxExecutor) Query(ctx context.Context, query string, args ...any) (db.Rows, error) {
	rows, err := e.runner.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return pgxRows{rows: rows}, nil
}

func (e pgxExecutor) QueryRow(ctx context.Context, query string, args ...any) db.Row {
	return e.runner.QueryRow(ctx, query, args...)
}

// pgxRows gives pgx.Rows an error-returning Close.
type pgxRows struct {
	rows pgx.Rows
}

func (r pgxRows) Next() bool             { return r.rows.Next() }
func (r pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r pgxRows) Err() error             { return r.rows.Err() }

func (r pgxRows) Close() error {
	r.rows.Close()
	return r.rows.Err()
}
