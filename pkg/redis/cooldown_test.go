// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LerianStudio/dbguard/pkg/constant"

	"github.com/LerianStudio/lib-commons/v3/commons/log"
	libRedis "github.com/LerianStudio/lib-commons/v3/commons/redis"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newMiniredisRepo(t *testing.T) (*miniredis.Miniredis, *ConsumerRedisRepository) {
	t.Helper()

	mr := miniredis.RunT(t)
	conn := &libRedis.RedisConnection{
		Address: []string{mr.Addr()},
		Logger:  &log.NoneLogger{},
	}

	t.Cleanup(func() { _ = conn.Close() })

	repo, err := NewConsumerRedis(conn)
	require.NoError(t, err)

	return mr, repo
}

func TestNewConsumerRedis_Unreachable(t *testing.T) {
	t.Parallel()

	conn := &libRedis.RedisConnection{
		Address: []string{"127.0.0.1:1"},
		Logger:  &log.NoneLogger{},
	}

	_, err := NewConsumerRedis(conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestCooldown_SuppressesInsideWindow(t *testing.T) {
	t.Parallel()

	mr, repo := newMiniredisRepo(t)
	cd := NewCooldown(repo)
	ctx := context.Background()

	ok, err := cd.Acquire(ctx, "critical-Database health alert: Low health score: 40", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cd.Acquire(ctx, "critical-Database health alert: Low health score: 40", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, mr.Exists(constant.RedisAlertCooldownPrefix+"critical-Database health alert: Low health score: 40"))

	ok, err = cd.Acquire(ctx, "warning-other", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "distinct keys have independent windows")
}

func TestCooldown_WindowExpires(t *testing.T) {
	t.Parallel()

	mr, repo := newMiniredisRepo(t)
	cd := NewCooldown(repo)
	ctx := context.Background()

	ok, err := cd.Acquire(ctx, "k", 5*time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 5*time.Minute, mr.TTL(constant.RedisAlertCooldownPrefix+"k"))

	ok, err = cd.Acquire(ctx, "k", 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(5*time.Minute + time.Second)

	assert.False(t, mr.Exists(constant.RedisAlertCooldownPrefix+"k"))

	ok, err = cd.Acquire(ctx, "k", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCooldown_ZeroWindowAlwaysFires(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	repo := NewMockRedisRepository(ctrl)

	ok, err := NewCooldown(repo).Acquire(context.Background(), "k", 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCooldown_RepositoryError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	repo := NewMockRedisRepository(ctrl)

	boom := errors.New("connection reset")

	repo.EXPECT().
		SetNX(gomock.Any(), constant.RedisAlertCooldownPrefix+"k", gomock.Any(), time.Minute).
		Return(false, boom)

	ok, err := NewCooldown(repo).Acquire(context.Background(), "k", time.Minute)
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
}
