// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/LerianStudio/dbguard/pkg"
	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/db"
	"github.com/LerianStudio/dbguard/pkg/model"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
	_ "github.com/jackc/pgx/v5/stdlib" // Registers the "pgx" driver with database/sql
	_ "github.com/lib/pq"              // Registers the "postgres" driver with database/sql
)

// ErrNotConnected is returned by a Connection used before Connect succeeded.
var ErrNotConnected = errors.New("postgres connection is not established")

// Connection is a database/sql backed db.Client.
type Connection struct {
	ConnectionString   string
	DBName             string
	Driver             string
	ConnectionDB       *sql.DB
	Connected          bool
	Logger             log.Logger
	MaxOpenConnections int
	MaxIdleConnections int
}

// sqlDriverName maps a configured driver to its database/sql registration name.
func sqlDriverName(driver string) (string, error) {
	switch driver {
	case constant.DriverPgxStdlib:
		return "pgx", nil
	case constant.DriverPostgres, "":
		return "postgres", nil
	default:
		return "", pkg.ValidateBusinessError(constant.ErrUnsupportedDriver, "driver", driver)
	}
}

// Connect initializes the connection with the PostgreSQL DB.
func (c *Connection) Connect(ctx context.Context) error {
	if c.Logger == nil {
		c.Logger = &log.NoneLogger{}
	}

	driverName, err := sqlDriverName(c.Driver)
	if err != nil {
		return err
	}

	c.Logger.Infof("Connecting to PostgreSQL [%s] via %s: %s", c.DBName, driverName, pkg.RedactConnectionString(c.ConnectionString))

	conn, err := sql.Open(driverName, c.ConnectionString)
	if err != nil {
		c.Logger.Errorf("Error opening connection: %v", err)
		return err
	}

	if err := conn.PingContext(ctx); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			c.Logger.Errorf("Error closing connection: %v", closeErr)
		}

		c.Logger.Errorf("Error pinging PostgreSQL: %v", err)

		return err
	}

	maxOpen := c.MaxOpenConnections
	if maxOpen <= 0 {
		maxOpen = constant.PostgresMaxOpenConns
	}

	maxIdle := c.MaxIdleConnections
	if maxIdle <= 0 {
		maxIdle = constant.PostgresMaxIdleConns
	}

	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxIdle)
	conn.SetConnMaxLifetime(constant.PostgresConnMaxLifetime)
	conn.SetConnMaxIdleTime(constant.PostgresConnMaxIdleTime)

	c.ConnectionDB = conn
	c.Connected = true

	c.Logger.Infof("Connected to PostgreSQL [%s]", c.DBName)

	return nil
}

// GetDB returns the postgres connection, initializing it if necessary.
func (c *Connection) GetDB(ctx context.Context) (*sql.DB, error) {
	if c.ConnectionDB == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.ConnectionDB, nil
}

// Exec runs a statement and returns the affected row count.
func (c *Connection) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if c.ConnectionDB == nil {
		return 0, ErrNotConnected
	}

	return sqlExecutor{c.ConnectionDB}.Exec(ctx, query, args...)
}

// Query runs a query returning rows.
func (c *Connection) Query(ctx context.Context, query string, args ...any) (db.Rows, error) {
	if c.ConnectionDB == nil {
		return nil, ErrNotConnected
	}

	return sqlExecutor{c.ConnectionDB}.Query(ctx, query, args...)
}

// QueryRow runs a query expected to return at most one row.
func (c *Connection) QueryRow(ctx context.Context, query string, args ...any) db.Row {
	if c.ConnectionDB == nil {
		return db.StaticRow{Err: ErrNotConnected}
	}

	return sqlExecutor{c.ConnectionDB}.QueryRow(ctx, query, args...)
}

// Ping verifies the database is reachable.
func (c *Connection) Ping(ctx context.Context) error {
	if c.ConnectionDB == nil {
		return ErrNotConnected
	}

	return c.ConnectionDB.PingContext(ctx)
}

// Transaction runs fn in a transaction, committing on nil and rolling back otherwise.
func (c *Connection) Transaction(ctx context.Context, fn db.TxFunc) error {
	if c.ConnectionDB == nil {
		return ErrNotConnected
	}

	tx, err := c.ConnectionDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, sqlExecutor{tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			c.Logger.Errorf("Error rolling back transaction: %v", rbErr)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// PoolStats reports database/sql pool usage.
func (c *Connection) PoolStats() model.PoolStats {
	if c.ConnectionDB == nil {
		return model.PoolStats{}
	}

	return statsFromDBStats(c.ConnectionDB.Stats())
}

// Close closes the pool.
func (c *Connection) Close() error {
	if c.ConnectionDB == nil {
		return nil
	}

	c.Connected = false

	return c.ConnectionDB.Close()
}

func statsFromDBStats(s sql.DBStats) model.PoolStats {
	return model.PoolStats{
		TotalConnections:  s.OpenConnections,
		ActiveConnections: s.InUse,
		IdleConnections:   s.Idle,
		MaxConnections:    s.MaxOpenConnections,
	}
}

type sqlRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqlExecutor adapts *sql.DB and *sql.Tx to db.Querier.
type sqlExecutor struct {
	runner sqlRunner
}

func (e sqlExecutor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := e.runner.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		// some statements do not report affected rows
		return 0, nil
	}

	return n, nil
}

func (e sqlExecutor) Query(ctx context.Context, query string, args ...any) (db.Rows, error) {
	rows, err := e.runner.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (e sqlExecutor) QueryRow(ctx context.Context, query string, args ...any) db.Row {
	return e.runner.QueryRowContext(ctx, query, args...)
}
