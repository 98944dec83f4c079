// Package roster caches the backend's group member view in redis. The cache
// is generation-stamped per list so a roster change invalidates every cached
// (date, caller) variant at once.
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"routinehub/internal/model"
)

// RosterAPI is the backend call behind the cache.
type RosterAPI interface {
	FetchRoster(ctx context.Context, userID, listID int, date string) (*model.Roster, error)
}

type Cache struct {
	rdb    *redis.Client
	api    RosterAPI
	ttl    time.Duration
	logger *zap.Logger
}

func NewCache(rdb *redis.Client, api RosterAPI, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{rdb: rdb, api: api, ttl: ttl, logger: logger}
}

// Get returns the roster for (list, date) as seen by the caller, from cache
// when fresh. Redis being down degrades to a straight backend fetch.
func (c *Cache) Get(ctx context.Context, userID, listID int, date string) (*model.Roster, error) {
	key := c.key(ctx, userID, listID, date)

	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var r model.Roster
		if jsonErr := json.Unmarshal(data, &r); jsonErr == nil {
			return &r, nil
		}
		// 缓存数据坏了就当 miss 处理
	} else if err != redis.Nil {
		c.logger.Warn("Roster cache read failed", zap.String("key", key), zap.Error(err))
	}

	r, err := c.api.FetchRoster(ctx, userID, listID, date)
	if err != nil {
		return nil, err
	}

	if data, jsonErr := json.Marshal(r); jsonErr == nil {
		if setErr := c.rdb.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			c.logger.Warn("Roster cache write failed", zap.String("key", key), zap.Error(setErr))
		}
	}
	return r, nil
}

// Invalidate bumps the list's generation so all cached variants go stale.
func (c *Cache) Invalidate(ctx context.Context, listID int) error {
	err := c.rdb.Incr(ctx, c.genKey(listID)).Err()
	if err != nil {
		c.logger.Warn("Roster cache invalidation failed", zap.Int("list_id", listID), zap.Error(err))
		return err
	}
	c.logger.Info("Roster cache invalidated", zap.Int("list_id", listID))
	return nil
}

func (c *Cache) key(ctx context.Context, userID, listID int, date string) string {
	gen, err := c.rdb.Get(ctx, c.genKey(listID)).Int64()
	if err != nil && err != redis.Nil {
		gen = 0
	}
	return fmt.Sprintf("roster:%d:g%d:%s:u%d", listID, gen, date, userID)
}

func (c *Cache) genKey(listID int) string {
	return fmt.Sprintf("roster_gen:%d", listID)
}
