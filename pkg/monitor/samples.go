// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package monitor

import (
	"time"

	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/model"
)

// RecordQueryTime adds a latency sample to the rolling window and counts it as slow
// when it is above the query time threshold.
func (m *Monitor) RecordQueryTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queryTimes) >= constant.MaxQueryTimeSamples {
		copy(m.queryTimes, m.queryTimes[1:])
		m.queryTimes = m.queryTimes[:len(m.queryTimes)-1]
	}

	m.queryTimes = append(m.queryTimes, d)

	if d > m.cfg.Alerts.Thresholds.QueryTime {
		m.stats.SlowQueries++
	}

	var total time.Duration
	for _, s := range m.queryTimes {
		total += s
	}

	m.stats.AvgQueryTimeMs = durationMs(total) / float64(len(m.queryTimes))
}

// RecordQueryResult counts a successful or failed query.
func (m *Monitor) RecordQueryResult(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if success {
		m.stats.SuccessfulQueries++
	} else {
		m.stats.FailedQueries++
	}
}

// RecordTimeout counts a query that exceeded its budget.
func (m *Monitor) RecordTimeout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.ConnectionTimeouts++
}

// SampleCount returns how many latency samples are in the rolling window.
func (m *Monitor) SampleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.queryTimes)
}

// Metrics returns a snapshot of the current pool metrics.
func (m *Monitor) Metrics() model.ConnectionPoolMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stats
}
