// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/model"

	libCommons "github.com/LerianStudio/lib-commons/v3/commons"
	"github.com/LerianStudio/lib-commons/v3/commons/log"
	libOtel "github.com/LerianStudio/lib-commons/v3/commons/opentelemetry"
	libRabbitmq "github.com/LerianStudio/lib-commons/v3/commons/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"
)

// Channel is the subset of *amqp.Channel the notifier needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
}

var _ Channel = (*amqp.Channel)(nil)

// RabbitMQNotifier publishes alerts as persistent JSON messages.
type RabbitMQNotifier struct {
	channel    func() (Channel, error)
	exchange   string
	routingKey string
	logger     log.Logger

	mu       sync.Mutex
	declared bool
}

// NewRabbitMQNotifier builds a notifier that publishes to exchange with routingKey
// over conn. The connection is opened eagerly; when the broker is down it is
// retried on the next publish.
func NewRabbitMQNotifier(conn *libRabbitmq.RabbitMQConnection, exchange, routingKey string, logger log.Logger) (*RabbitMQNotifier, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is required: %w", constant.ErrInvalidConfig)
	}

	if logger == nil {
		logger = &log.NoneLogger{}
	}

	if _, err := conn.GetNewConnect(); err != nil {
		logger.Errorf("Failed to connect to RabbitMQ during initialization: %v", err)
		logger.Warn("RabbitMQ connection will be retried on the next alert")
	} else {
		logger.Info("RabbitMQ alert publisher connected successfully")
	}

	return newRabbitMQNotifier(func() (Channel, error) {
		if err := conn.EnsureChannel(); err != nil {
			return nil, err
		}

		if conn.Channel == nil {
			return nil, amqp.ErrClosed
		}

		return conn.Channel, nil
	}, exchange, routingKey, logger), nil
}

func newRabbitMQNotifier(channel func() (Channel, error), exchange, routingKey string, logger log.Logger) *RabbitMQNotifier {
	if logger == nil {
		logger = &log.NoneLogger{}
	}

	return &RabbitMQNotifier{
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}
}

// Notify publishes payload.
func (n *RabbitMQNotifier) Notify(ctx context.Context, payload model.AlertPayload) error {
	_, tracer, reqID, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "notifier.rabbitmq.publish_alert")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.exchange", n.exchange),
		attribute.String("app.request.key", n.routingKey),
	)

	body, err := json.Marshal(payload)
	if err != nil {
		libOtel.HandleSpanError(&span, "Failed to marshal alert payload", err)

		return wrapFailure("rabbitmq", err)
	}

	ch, err := n.ensureChannel()
	if err != nil {
		libOtel.HandleSpanError(&span, "Failed to ensure RabbitMQ channel", err)

		n.logger.Errorf("RabbitMQ channel unavailable for exchange %q: %v", n.exchange, err)

		return wrapFailure("rabbitmq", err)
	}

	headers := amqp.Table{
		"x-alert-severity": string(payload.Severity),
	}

	if reqID != "" {
		headers["x-request-id"] = reqID
	}

	err = ch.PublishWithContext(ctx, n.exchange, n.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Headers:      headers,
		Body:         body,
	})
	if err != nil {
		libOtel.HandleSpanError(&span, "Failed to publish alert", err)

		n.logger.Errorf("Failed to publish alert to exchange %q: %v", n.exchange, err)

		return wrapFailure("rabbitmq", err)
	}

	return nil
}

// ensureChannel returns a live channel and declares the durable topic exchange
// the first time one is available.
func (n *RabbitMQNotifier) ensureChannel() (Channel, error) {
	ch, err := n.channel()
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.exchange != "" && !n.declared {
		if err := ch.ExchangeDeclare(n.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare exchange %q: %w", n.exchange, err)
		}

		n.declared = true
	}

	return ch, nil
}
