// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package postgres

import (
	"context"
	"net"
	"net/url"
	"strconv"

	"github.com/LerianStudio/dbguard/pkg"
	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/db"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
)

// Client is a db.Client that reports pool stats.
type Client interface {
	db.Client
	db.PoolStatsProvider
}

// Config selects the driver and pool size of the primary database.
type Config struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN renders cfg as a postgres:// URL accepted by both pgx and lib/pq.
func (cfg Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()

	return u.String()
}

// Open connects to the database using the configured driver.
func Open(ctx context.Context, cfg Config, logger log.Logger) (Client, error) {
	switch cfg.Driver {
	case constant.DriverPgx, "":
		return NewPool(ctx, cfg.DSN(), cfg.Name, cfg.MaxOpenConns, logger)
	case constant.DriverPgxStdlib, constant.DriverPostgres:
		conn := &Connection{
			ConnectionString:   cfg.DSN(),
			DBName:             cfg.Name,
			Driver:             cfg.Driver,
			Logger:             logger,
			MaxOpenConnections: cfg.MaxOpenConns,
			MaxIdleConnections: cfg.MaxIdleConns,
		}

		if err := conn.Connect(ctx); err != nil {
			return nil, err
		}

		return conn, nil
	default:
		return nil, pkg.ValidateBusinessError(constant.ErrUnsupportedDriver, "driver", cfg.Driver)
	}
}
