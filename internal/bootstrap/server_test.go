// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	"testing"
	"time"

	"github.com/LerianStudio/dbguard/pkg/timeout"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
	libServer "github.com/LerianStudio/lib-commons/v3/commons/server"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Run_StopsOnShutdownChannel(t *testing.T) {
	t.Parallel()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	listening := make(chan struct{})

	app.Hooks().OnListen(func(fiber.ListenData) error {
		close(listening)
		return nil
	})

	stop := make(chan struct{})
	srv := NewServer(&Config{ServerAddress: "127.0.0.1:0"}, app, &log.NoneLogger{}).WithShutdownChannel(stop)

	done := make(chan error, 1)

	go func() { done <- srv.Run(nil) }()

	select {
	case <-listening:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start listening")
	}

	close(stop)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_Run_RequiresApp(t *testing.T) {
	t.Parallel()

	srv := NewServer(&Config{ServerAddress: "127.0.0.1:0"}, nil, &log.NoneLogger{})

	err := srv.Run(nil)
	require.ErrorIs(t, err, libServer.ErrNoServersConfigured)
	assert.Contains(t, err.Error(), "failed to run the server")
}

func TestService_Shutdown_RunsCleanupsOnce(t *testing.T) {
	t.Parallel()

	var calls []string

	svc := &Service{
		Logger:   &log.NoneLogger{},
		Timeouts: timeout.NewHandler(timeout.Config{}, &log.NoneLogger{}),
		cleanups: []func(){
			func() { calls = append(calls, "telemetry") },
			func() { calls = append(calls, "database") },
		},
	}

	svc.Shutdown()
	svc.Shutdown()

	assert.Equal(t, []string{"database", "telemetry"}, calls)
}
