// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// quota.go persists the per-day model call count in Valkey so the daily cap
// survives process restarts and is shared by concurrent batch runs.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// quotaKeyPrefix is the Valkey key prefix for daily call counters.
	quotaKeyPrefix = "quota:rpd:"

	// DefaultQuotaTTL keeps a day's counter around long enough to cover
	// every timezone that might still be on that UTC date.
	DefaultQuotaTTL = 48 * time.Hour
)

// QuotaCounter is a Valkey-backed daily call counter.
type QuotaCounter struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQuotaCounter creates a counter backed by the given Valkey client.
func NewQuotaCounter(client *redis.Client, ttl time.Duration) *QuotaCounter {
	if ttl == 0 {
		ttl = DefaultQuotaTTL
	}
	return &QuotaCounter{client: client, ttl: ttl}
}

// QuotaKey returns the Valkey key for a UTC day ("2006-01-02").
func QuotaKey(day string) string {
	return quotaKeyPrefix + day
}

// Count returns the number of calls recorded for day. A missing key is zero.
func (q *QuotaCounter) Count(ctx context.Context, day string) (int, error) {
	n, err := q.client.Get(ctx, QuotaKey(day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get quota %s: %w", day, err)
	}
	return n, nil
}

// Incr records one call for day and returns the new total.
func (q *QuotaCounter) Incr(ctx context.Context, day string) (int, error) {
	key := QuotaKey(day)

	pipe := q.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, q.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("incr quota %s: %w", day, err)
	}
	return int(incr.Val()), nil
}
