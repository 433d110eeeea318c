// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package health

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Exposition(t *testing.T) {
	t.Parallel()

	f := newTestFacade(t, healthyChecker(), closedBreaker(), fakeOps(1))

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewCollector(f)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 17)

	expected := `
# HELP db_circuit_breaker_state db_circuit_breaker_state
# TYPE db_circuit_breaker_state gauge
db_circuit_breaker_state{value="CLOSED"} 1
# HELP db_connections_total db_connections_total
# TYPE db_connections_total gauge
db_connections_total 10
# HELP db_queries_failed_total db_queries_failed_total
# TYPE db_queries_failed_total counter
db_queries_failed_total 3
`

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"db_circuit_breaker_state", "db_connections_total", "db_queries_failed_total"))
}
