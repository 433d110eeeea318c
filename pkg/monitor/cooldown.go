// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package monitor

import (
	"context"
	"sync"
	"time"
)

// CooldownStore decides whether an alert key may fire. Acquire returns true and
// starts a new window for key when no window for it is active.
type CooldownStore interface {
	Acquire(ctx context.Context, key string, window time.Duration) (bool, error)
}

// MemoryCooldown is a process-local CooldownStore.
type MemoryCooldown struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

// NewMemoryCooldown creates an empty in-memory cooldown store.
func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{
		last: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Acquire implements CooldownStore.
func (c *MemoryCooldown) Acquire(_ context.Context, key string, window time.Duration) (bool, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, at := range c.last {
		if now.Sub(at) >= window {
			delete(c.last, k)
		}
	}

	if at, ok := c.last[key]; ok && now.Sub(at) < window {
		return false, nil
	}

	c.last[key] = now

	return true, nil
}
