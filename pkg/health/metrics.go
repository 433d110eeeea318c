// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package health

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// Flat metric keys.
const (
	MetricConnectionsTotal     = "db_connections_total"
	MetricConnectionsActive    = "db_connections_active"
	MetricConnectionsIdle      = "db_connections_idle"
	MetricPoolUtilization      = "db_pool_utilization_percent"
	MetricQueryDurationAvg     = "db_query_duration_avg_ms"
	MetricQueriesSlow          = "db_queries_slow_total"
	MetricQueriesSuccessful    = "db_queries_successful_total"
	MetricQueriesFailed        = "db_queries_failed_total"
	MetricHealthScore          = "db_health_score"
	MetricBreakerState         = "db_circuit_breaker_state"
	MetricBreakerFailures      = "db_circuit_breaker_failures"
	MetricBreakerSuccesses     = "db_circuit_breaker_successes"
	MetricBreakerRequests      = "db_circuit_breaker_requests"
	MetricOperationsActive     = "db_operations_active"
	MetricTimeoutsTotal        = "db_timeouts_total"
	MetricServiceUptime        = "db_service_uptime_ms"
	MetricLastHealthCheckEpoch = "db_last_health_check"
)

var counterKeys = map[string]bool{
	MetricQueriesSlow:       true,
	MetricQueriesSuccessful: true,
	MetricQueriesFailed:     true,
	MetricTimeoutsTotal:     true,
}

// Metrics returns the flat key/value export. Values are float64 except the
// breaker state, which is a string.
func (f *Facade) Metrics() map[string]any {
	cb := f.breaker.Metrics()
	pool := f.checker.Metrics()

	var lastCheck float64
	if !pool.LastHealthCheck.IsZero() {
		lastCheck = float64(pool.LastHealthCheck.UnixMilli())
	}

	return map[string]any{
		MetricConnectionsTotal:     float64(pool.TotalConnections),
		MetricConnectionsActive:    float64(pool.ActiveConnections),
		MetricConnectionsIdle:      float64(pool.IdleConnections),
		MetricPoolUtilization:      pool.PoolUtilization,
		MetricQueryDurationAvg:     pool.AvgQueryTimeMs,
		MetricQueriesSlow:          float64(pool.SlowQueries),
		MetricQueriesSuccessful:    float64(pool.SuccessfulQueries),
		MetricQueriesFailed:        float64(pool.FailedQueries),
		MetricHealthScore:          float64(pool.HealthScore),
		MetricBreakerState:         string(cb.State),
		MetricBreakerFailures:      float64(cb.Failures),
		MetricBreakerSuccesses:     float64(cb.Successes),
		MetricBreakerRequests:      float64(cb.Requests),
		MetricOperationsActive:     float64(f.ops.ActiveOperationCount()),
		MetricTimeoutsTotal:        float64(pool.ConnectionTimeouts),
		MetricServiceUptime:        float64(f.Uptime().Milliseconds()),
		MetricLastHealthCheckEpoch: lastCheck,
	}
}

// Collector exposes Facade.Metrics to Prometheus. Numeric values become
// gauges, or counters for the query and timeout totals. String values become
// a gauge fixed at 1 with the value as a label.
type Collector struct {
	facade *Facade
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector wraps f.
func NewCollector(f *Facade) *Collector {
	return &Collector{facade: f}
}

// Describe sends nothing, which registers the collector as unchecked. The key
// set is fixed but descriptors are built per scrape.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	values := c.facade.Metrics()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, key := range keys {
		switch v := values[key].(type) {
		case float64:
			valueType := prometheus.GaugeValue
			if counterKeys[key] {
				valueType = prometheus.CounterValue
			}

			ch <- prometheus.MustNewConstMetric(prometheus.NewDesc(key, key, nil, nil), valueType, v)
		case string:
			ch <- prometheus.MustNewConstMetric(prometheus.NewDesc(key, key, []string{"value"}, nil), prometheus.GaugeValue, 1, v)
		}
	}
}
