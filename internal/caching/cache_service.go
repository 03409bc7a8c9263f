package caching

import (
	"context"
	"fmt"
	"strings"
	"time"

	"barangayhealth/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "barangay"

// DefaultSuppressionTTL is how long a stock alert stays suppressed once sent.
const DefaultSuppressionTTL = 45 * 24 * time.Hour

// SuppressionCache remembers which item/condition pairs were already alerted.
// Marks expire on their own; there is no clear operation.
type SuppressionCache interface {
	HasBeenNotified(ctx context.Context, itemKey string, kind models.AlertKind) (bool, error)
	MarkAsNotified(ctx context.Context, itemKey string, kind models.AlertKind) error
}

type redisSuppressionCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisClient builds a client, accepting both host:port and redis:// addresses.
func NewRedisClient(addr, password string, db int, logger *zap.Logger) *redis.Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsedAddr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping failed on initialization", zap.String("addr", parsedAddr), zap.Error(err))
	} else {
		logger.Debug("redis connection established", zap.String("addr", parsedAddr))
	}

	return client
}

func NewSuppressionCache(client redis.Cmdable, ttl time.Duration) SuppressionCache {
	if ttl <= 0 {
		ttl = DefaultSuppressionTTL
	}
	return &redisSuppressionCache{client: client, ttl: ttl}
}

func suppressionKey(itemKey string, kind models.AlertKind) string {
	return fmt.Sprintf("%s:stock_alert:%s:%s", keyPrefix, itemKey, kind)
}

func (r *redisSuppressionCache) HasBeenNotified(ctx context.Context, itemKey string, kind models.AlertKind) (bool, error) {
	n, err := r.client.Exists(ctx, suppressionKey(itemKey, kind)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s/%s: %w", itemKey, kind, err)
	}
	return n > 0, nil
}

func (r *redisSuppressionCache) MarkAsNotified(ctx context.Context, itemKey string, kind models.AlertKind) error {
	if err := r.client.Set(ctx, suppressionKey(itemKey, kind), "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s/%s: %w", itemKey, kind, err)
	}
	return nil
}
