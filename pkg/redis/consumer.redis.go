// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package redis

import (
	"context"
	"fmt"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v3/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v3/commons/opentelemetry"
	libRedis "github.com/LerianStudio/lib-commons/v3/commons/redis"
	"go.opentelemetry.io/otel/attribute"
)

// ConsumerRedisRepository is a Redis implementation of RedisRepository.
type ConsumerRedisRepository struct {
	conn *libRedis.RedisConnection
}

var _ RedisRepository = (*ConsumerRedisRepository)(nil)

// NewConsumerRedis returns a new instance of ConsumerRedisRepository using the given Redis connection.
func NewConsumerRedis(rc *libRedis.RedisConnection) (*ConsumerRedisRepository, error) {
	r := &ConsumerRedisRepository{
		conn: rc,
	}

	if _, err := r.conn.GetClient(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return r, nil
}

// SetNX stores key only when it is absent.
func (rc *ConsumerRedisRepository) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	_, tracer, reqID, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.redis.set_nx")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.key", key),
		attribute.String("app.request.ttl", ttl.String()),
	)

	rds, err := rc.conn.GetClient(ctx)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to get redis", err)

		return false, err
	}

	ok, err := rds.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to setnx on redis", err)

		return false, err
	}

	return ok, nil
}
