// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	"time"

	"github.com/LerianStudio/dbguard/pkg/circuitbreaker"
	"github.com/LerianStudio/dbguard/pkg/health"
	"github.com/LerianStudio/dbguard/pkg/monitor"
	"github.com/LerianStudio/dbguard/pkg/reliable"
	"github.com/LerianStudio/dbguard/pkg/timeout"

	libCommons "github.com/LerianStudio/lib-commons/v3/commons"
	"github.com/LerianStudio/lib-commons/v3/commons/log"
)

// Service is the application glue where we put all top-level components to be used.
type Service struct {
	*Server
	log.Logger
	Client   *reliable.Client
	Breakers *circuitbreaker.Manager
	Monitor  *monitor.Monitor
	Timeouts *timeout.Handler
	Health   *health.Facade

	monitorInterval time.Duration
	// cleanups run in reverse order on shutdown.
	cleanups []func()
}

// Run starts the connection monitor and the probe server and blocks until shutdown.
// This is the only necessary code to run an app in the main.go
func (app *Service) Run() {
	app.Monitor.Start(app.monitorInterval)

	libCommons.NewLauncher(
		libCommons.WithLogger(app.Logger),
		libCommons.RunApp("Probe Server", app.Server),
	).Run()

	app.Shutdown()
}

// Shutdown stops the monitor, cancels in-flight guarded operations and releases
// every resource acquired during startup.
func (app *Service) Shutdown() {
	app.Info("Starting graceful shutdown...")

	if app.Monitor != nil {
		app.Monitor.Stop()
	}

	if app.Timeouts != nil {
		if n := app.Timeouts.CancelAllOperations(); n > 0 {
			app.Infof("Cancelled %d in-flight database operations", n)
		}
	}

	if app.Breakers != nil {
		for name, m := range app.Breakers.Snapshot() {
			app.Infof("Circuit breaker %s final state %s (failures=%d requests=%d)", name, m.State, m.Failures, m.Requests)
		}
	}

	runCleanups(app.cleanups)
	app.cleanups = nil

	app.Info("Graceful shutdown complete")
}

func runCleanups(cleanups []func()) {
	for i := len(cleanups) - 1; i >= 0; i-- {
		if cleanups[i] != nil {
			cleanups[i]()
		}
	}
}
