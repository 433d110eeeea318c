// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package in

import (
	"context"
	"time"

	"github.com/LerianStudio/dbguard/pkg/health"

	libCommons "github.com/LerianStudio/lib-commons/v3/commons"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Prober is the health facade surface served over HTTP.
type Prober interface {
	Health(ctx context.Context) health.Response
	Liveness(ctx context.Context) health.Liveness
	Readiness(ctx context.Context) health.Readiness
}

// HealthHandler serves the database probe endpoints.
type HealthHandler struct {
	Prober Prober
	// ProbeTimeout bounds each probe. Zero leaves the request context as is.
	ProbeTimeout time.Duration
}

// GetHealth answers 200 for healthy or degraded, 503 for unhealthy.
//
//	@Summary	Database health snapshot
//	@Tags		Probes
//	@Produce	json
//	@Success	200	{object}	health.Response
//	@Failure	503	{object}	health.Response
//	@Router		/health [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	ctx, span, cancel := h.start(c, "handler.get_health")
	defer cancel()
	defer span.End()

	resp := h.Prober.Health(ctx)

	span.SetAttributes(
		attribute.String("app.health.status", string(resp.Status)),
		attribute.Int("app.health.alerts", len(resp.Alerts)),
	)

	return c.Status(resp.HTTPStatus()).JSON(resp)
}

// GetLive answers 200 when the database answers a trivial query.
//
//	@Summary	Liveness probe
//	@Tags		Probes
//	@Produce	json
//	@Success	200	{object}	health.Liveness
//	@Failure	503	{object}	health.Liveness
//	@Router		/live [get]
func (h *HealthHandler) GetLive(c *fiber.Ctx) error {
	ctx, span, cancel := h.start(c, "handler.get_live")
	defer cancel()
	defer span.End()

	live := h.Prober.Liveness(ctx)

	status := fiber.StatusOK
	if !live.Alive {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(live)
}

// GetReady answers 503 with a reason while the database should not take traffic.
//
//	@Summary	Readiness probe
//	@Tags		Probes
//	@Produce	json
//	@Success	200	{object}	health.Readiness
//	@Failure	503	{object}	health.Readiness
//	@Router		/ready [get]
func (h *HealthHandler) GetReady(c *fiber.Ctx) error {
	ctx, span, cancel := h.start(c, "handler.get_ready")
	defer cancel()
	defer span.End()

	ready := h.Prober.Readiness(ctx)

	status := fiber.StatusOK
	if !ready.Ready {
		status = fiber.StatusServiceUnavailable

		span.SetAttributes(attribute.String("app.readiness.reason", ready.Reason))
	}

	return c.Status(status).JSON(ready)
}

func (h *HealthHandler) start(c *fiber.Ctx, name string) (context.Context, trace.Span, context.CancelFunc) {
	ctx := c.UserContext()
	cancel := context.CancelFunc(func() {})

	if h.ProbeTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.ProbeTimeout)
	}

	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, name)

	return ctx, span, cancel
}
