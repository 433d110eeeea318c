// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	libCommons "github.com/LerianStudio/lib-commons/v3/commons"

	"github.com/LerianStudio/dbguard/internal/bootstrap"
)

// @title			DB Guard
// @version		1.0.0
// @description	Database health, liveness and readiness probes
// @host			localhost:4010
// @BasePath		/
func main() {
	libCommons.InitLocalEnvConfig()

	svc, err := bootstrap.InitServers()
	if err != nil {
		// The structured logger is created inside InitServers.
		fmt.Fprintf(os.Stderr, "Failed to initialize dbguard: %v\n", err)
		os.Exit(1)
	}

	svc.Run()
}
