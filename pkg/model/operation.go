// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package model

import "time"

// OperationType classifies a unit of database work for timeout budgeting.
type OperationType string

const (
	OperationQuery          OperationType = "query"
	OperationTransaction    OperationType = "transaction"
	OperationMigration      OperationType = "migration"
	OperationConnection     OperationType = "connection"
	OperationBatchInsert    OperationType = "batchInsert"
	OperationBatchUpdate    OperationType = "batchUpdate"
	OperationBatchDelete    OperationType = "batchDelete"
	OperationAggregation    OperationType = "aggregation"
	OperationFullTextSearch OperationType = "fullTextSearch"
	OperationReporting      OperationType = "reporting"
	OperationHealthCheck    OperationType = "healthCheck"
	OperationMetrics        OperationType = "metrics"
)

// Complexity is a coarse cost tier for an operation.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// OperationContext describes a unit of work. It only drives timeout selection
// and error messages; it carries no execution logic.
type OperationContext struct {
	OperationType OperationType `json:"operationType"`
	Name          string        `json:"name,omitempty"`
	Table         string        `json:"table,omitempty"`
	RecordCount   int           `json:"recordCount,omitempty"`
	Complexity    Complexity    `json:"complexity,omitempty"`
}

// TimeoutResult is the outcome of a timed execution. When Success is true
// Result holds the value and Err is nil; otherwise Err is set.
type TimeoutResult[T any] struct {
	OperationID string           `json:"operationId"`
	Success     bool             `json:"success"`
	Result      T                `json:"result,omitempty"`
	Err         error            `json:"-"`
	TimedOut    bool             `json:"timedOut"`
	Duration    time.Duration    `json:"duration"`
	Context     OperationContext `json:"context"`
}

// ActiveOperation describes an in-flight timed operation.
type ActiveOperation struct {
	ID        string           `json:"id"`
	Context   OperationContext `json:"context"`
	StartedAt time.Time        `json:"startedAt"`
	Timeout   time.Duration    `json:"timeout"`
}
