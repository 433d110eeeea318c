// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package in

import (
	"github.com/LerianStudio/lib-commons/v3/commons/log"
	commonsHttp "github.com/LerianStudio/lib-commons/v3/commons/net/http"
	"github.com/LerianStudio/lib-commons/v3/commons/opentelemetry"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	fiberSwagger "github.com/swaggo/fiber-swagger"
)

// RouteDeps holds what the probe router serves.
type RouteDeps struct {
	Logger    log.Logger
	Telemetry *opentelemetry.Telemetry
	Health    *HealthHandler
	Gatherer  prometheus.Gatherer
}

// NewRoutes builds the probe router.
func NewRoutes(deps RouteDeps) *fiber.App {
	f := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			return commonsHttp.HandleFiberError(ctx, err)
		},
	})

	tl := deps.Telemetry
	if tl == nil {
		tl = &opentelemetry.Telemetry{}
	}

	tlMid := commonsHttp.NewTelemetryMiddleware(tl)

	f.Use(recover.New())
	f.Use(tlMid.WithTelemetry(tl))
	f.Use(cors.New())
	f.Use(commonsHttp.WithHTTPLogging(commonsHttp.WithCustomLogger(deps.Logger)))

	// Probes
	f.Get("/health", deps.Health.GetHealth)
	f.Get("/live", deps.Health.GetLive)
	f.Get("/ready", deps.Health.GetReady)

	// Version
	f.Get("/version", commonsHttp.Version)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	f.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Doc
	f.Get("/swagger/*", WithSwaggerEnvConfig(), fiberSwagger.WrapHandler)

	f.Use(tlMid.EndTracingSpans)

	return f
}
