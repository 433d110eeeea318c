// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package in

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LerianStudio/dbguard/pkg/health"
	"github.com/LerianStudio/dbguard/pkg/model"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
	"github.com/LerianStudio/lib-commons/v3/commons/opentelemetry"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	status model.HealthStatus
	alive  bool
	ready  health.Readiness
	gotCtx context.Context
}

func (p *fakeProber) Health(ctx context.Context) health.Response {
	p.gotCtx = ctx

	return health.Response{Status: p.status, Version: "9.9.9", Alerts: []model.Alert{}}
}

func (p *fakeProber) Liveness(context.Context) health.Liveness {
	return health.Liveness{Alive: p.alive}
}

func (p *fakeProber) Readiness(context.Context) health.Readiness {
	return p.ready
}

const headerRequestID = "X-Request-Id"

func newTestApp(p *fakeProber, g prometheus.Gatherer) *fiber.App {
	return NewRoutes(RouteDeps{
		Logger: &log.NoneLogger{},
		Telemetry: &opentelemetry.Telemetry{
			TelemetryConfig: opentelemetry.TelemetryConfig{LibraryName: "dbguard-test"},
		},
		Health:   &HealthHandler{Prober: p, ProbeTimeout: time.Second},
		Gatherer: g,
	})
}

func doGet(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	req.Header.Set(headerRequestID, "9b7c0e0e-2f4a-4c36-8f0b-3d2f3c5f7a11")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body
}

func TestHealthRoute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status model.HealthStatus
		code   int
	}{
		{model.HealthHealthy, fiber.StatusOK},
		{model.HealthDegraded, fiber.StatusOK},
		{model.HealthUnhealthy, fiber.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()

			p := &fakeProber{status: tt.status}

			code, body := doGet(t, newTestApp(p, prometheus.NewRegistry()), "/health")
			assert.Equal(t, tt.code, code)

			var got health.Response
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.status, got.Status)

			_, hasDeadline := p.gotCtx.Deadline()
			assert.True(t, hasDeadline, "probe timeout applied")
		})
	}
}

func TestLiveRoute(t *testing.T) {
	t.Parallel()

	code, body := doGet(t, newTestApp(&fakeProber{alive: true}, nil), "/live")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, string(body), `"alive":true`)

	code, _ = doGet(t, newTestApp(&fakeProber{alive: false}, nil), "/live")
	assert.Equal(t, fiber.StatusServiceUnavailable, code)
}

func TestReadyRoute(t *testing.T) {
	t.Parallel()

	code, body := doGet(t, newTestApp(&fakeProber{ready: health.Readiness{Ready: true}}, nil), "/ready")
	assert.Equal(t, fiber.StatusOK, code)
	assert.NotContains(t, string(body), "reason")

	p := &fakeProber{ready: health.Readiness{Ready: false, Reason: "Circuit breaker is open"}}

	code, body = doGet(t, newTestApp(p, nil), "/ready")
	assert.Equal(t, fiber.StatusServiceUnavailable, code)

	var got health.Readiness
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Circuit breaker is open", got.Reason)
}

func TestVersionRoute(t *testing.T) {
	t.Parallel()

	code, body := doGet(t, newTestApp(&fakeProber{}, nil), "/version")
	assert.Equal(t, fiber.StatusOK, code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.NotEmpty(t, got["version"])
	assert.NotEmpty(t, got["requestDate"])
}

func TestMetricsRoute(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "db_health_score", Help: "score"})
	gauge.Set(85)
	reg.MustRegister(gauge)

	code, body := doGet(t, newTestApp(&fakeProber{}, reg), "/metrics")
	assert.Equal(t, fiber.StatusOK, code)
	assert.True(t, strings.Contains(string(body), "db_health_score 85"), string(body))
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	code, _ := doGet(t, newTestApp(&fakeProber{}, nil), "/nope")
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestRoutes_GeneratesRequestID(t *testing.T) {
	t.Parallel()

	app := newTestApp(&fakeProber{alive: true}, nil)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/live", nil))
	require.NoError(t, err)

	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get(headerRequestID))
}

func TestSwaggerDocRoute(t *testing.T) {
	t.Parallel()

	app := newTestApp(&fakeProber{}, prometheus.NewRegistry())

	code, body := doGet(t, app, "/swagger/doc.json")

	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, string(body), `"/ready"`)
	assert.Contains(t, string(body), "DB Guard")
}
