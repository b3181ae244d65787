package notify

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// UnreadCache кэширует счётчик непрочитанных в Redis.
// Без клиента все методы ничего не делают и счётчик всегда читается из базы
type UnreadCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewUnreadCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *UnreadCache {
	return &UnreadCache{client: client, ttl: ttl, logger: logger}
}

func unreadKey(userID int64) string {
	return "notifications:unread:" + strconv.FormatInt(userID, 10)
}

func (c *UnreadCache) enabled() bool {
	return c != nil && c.client != nil
}

// Get значение из кэша и признак попадания
func (c *UnreadCache) Get(ctx context.Context, userID int64) (int, bool) {
	if !c.enabled() {
		return 0, false
	}

	value, err := c.client.Get(ctx, unreadKey(userID)).Int()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Unread cache read failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		return 0, false
	}

	return value, true
}

func (c *UnreadCache) Set(ctx context.Context, userID int64, count int) {
	if !c.enabled() {
		return
	}

	if err := c.client.Set(ctx, unreadKey(userID), count, c.ttl).Err(); err != nil {
		c.logger.Warn("Unread cache write failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (c *UnreadCache) Invalidate(ctx context.Context, userID int64) {
	if !c.enabled() {
		return
	}

	if err := c.client.Del(ctx, unreadKey(userID)).Err(); err != nil {
		c.logger.Warn("Unread cache invalidation failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
