package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper 基于 redis SetNX 的一次性标记。
// ttl = 0 表示永不过期（用于持久化的 "already shown" 标记）。
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{rdb: rdb, ttl: ttl, logger: logger}
}

// AcquireOnce tries to set the flag for scope+key.
// Returns true if this is the FIRST acquisition, false on a duplicate.
func (d *Deduper) AcquireOnce(ctx context.Context, scope, key string) bool {
	full := fmt.Sprintf("dedup:%s:%s", scope, key)

	ok, err := d.rdb.SetNX(ctx, full, 1, d.ttl).Result()
	if err != nil {
		// Redis 不可用时不阻止处理，返回 true
		if d.logger != nil {
			d.logger.Warn("Redis dedup check failed, allowing processing",
				zap.String("scope", scope),
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return true
	}

	if !ok && d.logger != nil {
		d.logger.Info("Duplicate suppressed",
			zap.String("scope", scope),
			zap.String("key", key),
			zap.String("dedup_key", full),
		)
	}
	return ok
}

// Release drops the flag so the scope+key can be acquired again.
func (d *Deduper) Release(ctx context.Context, scope, key string) error {
	return d.rdb.Del(ctx, fmt.Sprintf("dedup:%s:%s", scope, key)).Err()
}
