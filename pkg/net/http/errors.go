// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package http

import (
	"strconv"
	"time"

	"github.com/LerianStudio/dbguard/pkg"

	commonsHttp "github.com/LerianStudio/lib-commons/v3/commons/net/http"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// WithError maps a resilience error to its HTTP answer. Handlers that run work
// through reliable.Client return with it; the probe routes never produce these
// errors. Anything else falls through to the lib-commons fiber error handler.
func WithError(c *fiber.Ctx, err error) error {
	var (
		validation pkg.ValidationError
		open       *pkg.CircuitOpenError
		timeout    *pkg.TimeoutError
		exhausted  *pkg.RetryExhaustedError
	)

	switch {
	case errors.As(err, &validation):
		return BadRequest(c, validation.Code, validation.Title, validation.Message)
	case errors.As(err, &open):
		return ServiceUnavailable(c, open.Code, "Circuit Open", open.Error(), retryAfter(open))
	case errors.As(err, &timeout):
		return GatewayTimeout(c, timeout.Code, "Operation Timeout", timeout.Error())
	case errors.As(err, &exhausted):
		return ServiceUnavailable(c, exhausted.Code, "Retries Exhausted", exhausted.Error(), "")
	default:
		return commonsHttp.HandleFiberError(c, err)
	}
}

func retryAfter(open *pkg.CircuitOpenError) string {
	next := open.Metrics.NextAttemptTime
	if next == nil {
		return ""
	}

	secs := int(time.Until(*next).Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}

	return strconv.Itoa(secs)
}
