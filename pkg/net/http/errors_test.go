// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/LerianStudio/dbguard/pkg"
	"github.com/LerianStudio/dbguard/pkg/circuitbreaker"
	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/db"
	"github.com/LerianStudio/dbguard/pkg/model"
	"github.com/LerianStudio/dbguard/pkg/reliable"
	"github.com/LerianStudio/dbguard/pkg/timeout"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestWithError(t *testing.T) {
	t.Parallel()

	next := time.Now().Add(30 * time.Second)

	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		retryAfter string
	}{
		{
			name:   "validation",
			err:    pkg.ValidateBusinessError(constant.ErrInvalidConfig, "monitor", "probe table"),
			status: fiber.StatusBadRequest,
			code:   constant.ErrInvalidConfig.Error(),
		},
		{
			name: "circuit open",
			err: fmt.Errorf("query users: %w", &pkg.CircuitOpenError{
				Operation: "users",
				Code:      constant.ErrCircuitOpen.Error(),
				State:     model.CircuitOpen,
				Metrics:   model.CircuitBreakerMetrics{State: model.CircuitOpen, NextAttemptTime: &next},
			}),
			status:     fiber.StatusServiceUnavailable,
			code:       constant.ErrCircuitOpen.Error(),
			retryAfter: "30",
		},
		{
			name:   "timeout",
			err:    pkg.NewTimeoutError(model.OperationContext{OperationType: model.OperationQuery}, time.Second),
			status: fiber.StatusGatewayTimeout,
			code:   constant.ErrOperationTimeout.Error(),
		},
		{
			name: "retries exhausted",
			err: &pkg.RetryExhaustedError{
				Operation: "users",
				Code:      constant.ErrRetryExhausted.Error(),
				Attempts:  3,
				Err:       errors.New("connection reset"),
			},
			status:     fiber.StatusServiceUnavailable,
			code:       constant.ErrRetryExhausted.Error(),
			retryAfter: defaultRetryAfter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := fiber.New(fiber.Config{DisableStartupMessage: true})
			app.Get("/", func(c *fiber.Ctx) error { return WithError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
			require.NoError(t, err)

			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.retryAfter, resp.Header.Get(headerRetryAfter))

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			var got ResponseError
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.code, got.Code)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestWithError_FallsThroughToFiberHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "fiber error", err: fiber.ErrNotFound, status: fiber.StatusNotFound},
		{name: "unknown", err: errors.New("something broke"), status: fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := fiber.New(fiber.Config{DisableStartupMessage: true})
			app.Get("/", func(c *fiber.Ctx) error { return WithError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
			require.NoError(t, err)

			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Empty(t, resp.Header.Get(headerRetryAfter))
		})
	}
}

func TestWithError_ReliableClientCircuitOpen(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	breaker := circuitbreaker.New("postgres", circuitbreaker.Config{Timeout: time.Minute}, nil)
	require.NoError(t, breaker.ForceState(model.CircuitOpen))

	client, err := reliable.New(db.NewMockClient(ctrl), breaker, timeout.NewHandler(timeout.Config{}, nil), nil)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/users", func(c *fiber.Ctx) error {
		rows, err := client.Query(c.UserContext(), model.OperationContext{Name: "list users", Table: "users"},
			func(context.Context, db.Client) (any, error) {
				t.Error("operation must not run while the circuit is open")
				return nil, nil
			})
		if err != nil {
			return WithError(c, err)
		}

		return c.JSON(rows)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/users", nil)
	req.Header.Set(headerRequestID, "req-42")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "req-42", resp.Header.Get(headerRequestID))

	secs, err := strconv.Atoi(resp.Header.Get(headerRetryAfter))
	require.NoError(t, err)
	assert.InDelta(t, 60, secs, 1)

	var got ResponseError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, constant.ErrCircuitOpen.Error(), got.Code)
	assert.Equal(t, "Circuit Open", got.Title)
}
