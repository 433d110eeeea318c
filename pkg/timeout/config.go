// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/model"
)

// Config holds per-operation-type timeout budgets. Types missing from Timeouts
// fall back to the built-in table.
type Config struct {
	Timeouts map[model.OperationType]time.Duration
}

// DefaultTimeouts returns the built-in budget for every operation type.
func DefaultTimeouts() map[model.OperationType]time.Duration {
	return map[model.OperationType]time.Duration{
		model.OperationQuery:          constant.TimeoutQuery,
		model.OperationTransaction:    constant.TimeoutTransaction,
		model.OperationMigration:      constant.TimeoutMigration,
		model.OperationConnection:     constant.TimeoutConnection,
		model.OperationBatchInsert:    constant.TimeoutBatchInsert,
		model.OperationBatchUpdate:    constant.TimeoutBatchUpdate,
		model.OperationBatchDelete:    constant.TimeoutBatchDelete,
		model.OperationAggregation:    constant.TimeoutAggregation,
		model.OperationFullTextSearch: constant.TimeoutFullTextSearch,
		model.OperationReporting:      constant.TimeoutReporting,
		model.OperationHealthCheck:    constant.TimeoutHealthCheck,
		model.OperationMetrics:        constant.TimeoutMetrics,
	}
}

// merged returns the default table overlaid with the positive entries of c.Timeouts.
func (c Config) merged() map[model.OperationType]time.Duration {
	table := DefaultTimeouts()

	for opType, d := range c.Timeouts {
		if d > 0 {
			table[opType] = d
		}
	}

	return table
}

func complexityMultiplier(c model.Complexity) float64 {
	switch c {
	case model.ComplexitySimple:
		return constant.ComplexitySimpleMultiplier
	case model.ComplexityComplex:
		return constant.ComplexityComplexMultiplier
	default:
		return constant.ComplexityMediumMultiplier
	}
}

func recordCountMultiplier(n int) float64 {
	switch {
	case n < constant.RecordCountSmall:
		return constant.RecordCountSmallMultiplier
	case n < constant.RecordCountMedium:
		return constant.RecordCountMediumMultiplier
	case n < constant.RecordCountLarge:
		return constant.RecordCountLargeMultiplier
	default:
		return constant.RecordCountHugeMultiplier
	}
}
