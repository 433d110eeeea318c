// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package redis

import (
	"context"
	"time"
)

// RedisRepository is the key/value surface the alert cooldown store relies on.
//
//go:generate mockgen --destination=repository.mock.go --package=redis . RedisRepository
type RedisRepository interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}
