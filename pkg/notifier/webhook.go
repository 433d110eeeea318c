// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/model"

	libCommons "github.com/LerianStudio/lib-commons/v3/commons"
	"github.com/LerianStudio/lib-commons/v3/commons/log"
	libOtel "github.com/LerianStudio/lib-commons/v3/commons/opentelemetry"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// WebhookOption customizes a WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(w *WebhookNotifier) {
		if client != nil {
			w.client = client
		}
	}
}

// WithBreakerSettings overrides the delivery breaker settings. Name and
// OnStateChange are always set by the notifier.
func WithBreakerSettings(settings gobreaker.Settings) WebhookOption {
	return func(w *WebhookNotifier) {
		w.settings = settings
	}
}

// WebhookNotifier POSTs alert payloads as JSON. A dedicated breaker stops a
// dead endpoint from slowing every health check down.
type WebhookNotifier struct {
	url      string
	client   *http.Client
	logger   log.Logger
	settings gobreaker.Settings
	breaker  *gobreaker.CircuitBreaker
}

// NewWebhookNotifier builds a notifier for url.
func NewWebhookNotifier(url string, logger log.Logger, opts ...WebhookOption) (*WebhookNotifier, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook url is required: %w", constant.ErrInvalidConfig)
	}

	if logger == nil {
		logger = &log.NoneLogger{}
	}

	w := &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: constant.NotifierRequestTimeout},
		logger: logger,
		settings: gobreaker.Settings{
			MaxRequests: constant.NotifierBreakerMaxRequests,
			Interval:    constant.NotifierBreakerInterval,
			Timeout:     constant.NotifierBreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= constant.NotifierBreakerThreshold
			},
		},
	}

	for _, opt := range opts {
		opt(w)
	}

	w.settings.Name = "webhook-notifier"
	w.settings.OnStateChange = func(name string, from, to gobreaker.State) {
		w.logger.Warnf("Circuit Breaker [%s] state changed: %s -> %s", name, from.String(), to.String())
	}

	w.breaker = gobreaker.NewCircuitBreaker(w.settings)

	return w, nil
}

// State exposes the delivery breaker state.
func (w *WebhookNotifier) State() gobreaker.State {
	return w.breaker.State()
}

// Notify POSTs payload to the webhook. Non-2xx responses count as failures.
func (w *WebhookNotifier) Notify(ctx context.Context, payload model.AlertPayload) error {
	_, tracer, reqID, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "notifier.webhook.notify")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.alert.severity", string(payload.Severity)),
	)

	body, err := json.Marshal(payload)
	if err != nil {
		libOtel.HandleSpanError(&span, "Failed to marshal alert payload", err)

		return wrapFailure("webhook", err)
	}

	_, err = w.breaker.Execute(func() (any, error) {
		return nil, w.post(ctx, body, reqID)
	})
	if err != nil {
		libOtel.HandleSpanError(&span, "Failed to deliver webhook alert", err)

		return wrapFailure("webhook", err)
	}

	return nil
}

func (w *WebhookNotifier) post(ctx context.Context, body []byte, reqID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	if reqID != "" {
		req.Header.Set("X-Request-Id", reqID)
	}

	start := time.Now()

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}

	w.logger.Debugf("Webhook alert delivered in %s", time.Since(start))

	return nil
}
