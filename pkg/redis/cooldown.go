// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/monitor"
)

// Cooldown shares alert deduplication windows across replicas through Redis.
type Cooldown struct {
	repo   RedisRepository
	prefix string
}

var _ monitor.CooldownStore = (*Cooldown)(nil)

// NewCooldown builds a cooldown store on repo. Keys are namespaced with
// constant.RedisAlertCooldownPrefix.
func NewCooldown(repo RedisRepository) *Cooldown {
	return &Cooldown{repo: repo, prefix: constant.RedisAlertCooldownPrefix}
}

// Acquire claims the window for key. It fails when Redis is unreachable; the
// monitor decides what to do with that.
func (c *Cooldown) Acquire(ctx context.Context, key string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}

	ok, err := c.repo.SetNX(ctx, c.prefix+key, time.Now().UTC().Format(time.RFC3339Nano), window)
	if err != nil {
		return false, fmt.Errorf("acquire alert cooldown %q: %w", key, err)
	}

	return ok, nil
}
