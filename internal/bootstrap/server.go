// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	libCommons "github.com/LerianStudio/lib-commons/v3/commons"
	"github.com/LerianStudio/lib-commons/v3/commons/log"
	libServer "github.com/LerianStudio/lib-commons/v3/commons/server"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// Server represents the probe http server.
type Server struct {
	app           *fiber.App
	serverAddress string
	logger        log.Logger
	// shutdown, when set, replaces the OS signals as the stop trigger.
	shutdown <-chan struct{}
}

// ServerAddress returns is a convenience method to return the server address.
func (s *Server) ServerAddress() string {
	return s.serverAddress
}

// NewServer creates an instance of Server.
func NewServer(cfg *Config, app *fiber.App, logger log.Logger) *Server {
	return &Server{
		app:           app,
		serverAddress: cfg.Address(),
		logger:        logger,
	}
}

// WithShutdownChannel makes Run stop when ch is closed.
func (s *Server) WithShutdownChannel(ch <-chan struct{}) *Server {
	s.shutdown = ch

	return s
}

// Run serves until a stop signal arrives, then drains in-flight probes.
// Telemetry is flushed by the Service cleanups, after the monitor stops.
func (s *Server) Run(_ *libCommons.Launcher) error {
	sm := libServer.NewServerManager(nil, nil, s.logger)

	if s.app != nil {
		sm = sm.WithHTTPServer(s.app, s.ServerAddress())
	}

	if s.shutdown != nil {
		sm = sm.WithShutdownChannel(s.shutdown)
	}

	if err := sm.StartWithGracefulShutdownWithError(); err != nil {
		return errors.Wrap(err, "failed to run the server")
	}

	return nil
}
