// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package constant

import "time"

// Operation timeout budgets, selected by operation type.
const (
	TimeoutQuery          = 30 * time.Second
	TimeoutTransaction    = 60 * time.Second
	TimeoutMigration      = 300 * time.Second
	TimeoutConnection     = 10 * time.Second
	TimeoutBatchInsert    = 120 * time.Second
	TimeoutBatchUpdate    = 180 * time.Second
	TimeoutBatchDelete    = 180 * time.Second
	TimeoutAggregation    = 90 * time.Second
	TimeoutFullTextSearch = 45 * time.Second
	TimeoutReporting      = 300 * time.Second
	TimeoutHealthCheck    = 5 * time.Second
	TimeoutMetrics        = 10 * time.Second
)

// Complexity multipliers applied on top of the base budget.
const (
	ComplexitySimpleMultiplier  = 0.5
	ComplexityMediumMultiplier  = 1.0
	ComplexityComplexMultiplier = 2.0
)

// Record count tiers used to scale batch budgets.
const (
	RecordCountSmall  = 100
	RecordCountMedium = 1000
	RecordCountLarge  = 10000

	RecordCountSmallMultiplier  = 1.0
	RecordCountMediumMultiplier = 1.5
	RecordCountLargeMultiplier  = 2.0
	RecordCountHugeMultiplier   = 3.0
)

// PostgreSQL Pool Configuration
const (
	PostgresMaxOpenConns    = 25
	PostgresMaxIdleConns    = 10
	PostgresConnMaxLifetime = 10 * time.Minute
	PostgresConnMaxIdleTime = 1 * time.Minute
)

// Supported database drivers.
const (
	// DriverPgx uses a native pgxpool.
	DriverPgx = "pgx"
	// DriverPgxStdlib uses database/sql over the pgx stdlib driver.
	DriverPgxStdlib = "pgx-stdlib"
	// DriverPostgres uses database/sql over lib/pq.
	DriverPostgres = "postgres"
)

const (
	PostgresDefaultPort = 5432
	RabbitMQDefaultPort = "5672"
)
