// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package db

import (
	"errors"
	"testing"
	"time"

	"github.com/LerianStudio/dbguard/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type statsClient struct {
	*MockClient
	stats model.PoolStats
}

func (s statsClient) PoolStats() model.PoolStats {
	return s.stats
}

func TestStatsOf(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	plain := NewMockClient(ctrl)
	_, ok := StatsOf(plain)
	assert.False(t, ok)

	withStats := statsClient{MockClient: plain, stats: model.PoolStats{TotalConnections: 10, ActiveConnections: 4}}
	stats, ok := StatsOf(withStats)
	require.True(t, ok)
	assert.Equal(t, 10, stats.TotalConnections)
	assert.Equal(t, 4, stats.ActiveConnections)
}

func TestStaticRow_Scan(t *testing.T) {
	t.Parallel()

	var (
		one int
		now time.Time
		s   string
	)

	ts := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, StaticRow{Values: []any{int64(1), ts, nil}}.Scan(&one, &now, &s))
	assert.Equal(t, 1, one)
	assert.Equal(t, ts, now)
	assert.Empty(t, s)

	boom := errors.New("no rows in result set")
	assert.ErrorIs(t, StaticRow{Err: boom}.Scan(&one), boom)

	assert.Error(t, StaticRow{Values: []any{1}}.Scan(&one, &s))
	assert.Error(t, StaticRow{Values: []any{1}}.Scan(one))
	assert.Error(t, StaticRow{Values: []any{"text"}}.Scan(&now))
}
