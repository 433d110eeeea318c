// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package notifier

import (
	"context"

	"github.com/LerianStudio/dbguard/pkg/model"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
)

// LogNotifier writes alerts to the structured logger. Critical alerts go out
// at error level, everything else at warn.
type LogNotifier struct {
	logger log.Logger
}

// NewLogNotifier returns a LogNotifier. A nil logger discards output.
func NewLogNotifier(logger log.Logger) *LogNotifier {
	if logger == nil {
		logger = &log.NoneLogger{}
	}

	return &LogNotifier{logger: logger}
}

// Notify logs the payload.
func (n *LogNotifier) Notify(_ context.Context, payload model.AlertPayload) error {
	if payload.Severity == model.SeverityCritical {
		n.logger.Errorf("Database alert notification [%s] score=%d status=%s: %s",
			payload.Severity, payload.HealthScore, payload.Status, payload.Message)

		return nil
	}

	n.logger.Warnf("Database alert notification [%s] score=%d status=%s: %s",
		payload.Severity, payload.HealthScore, payload.Status, payload.Message)

	return nil
}
