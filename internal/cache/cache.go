package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

// compile-time check: *Cache must satisfy port.Cache
var _ port.Cache = (*Cache)(nil)

// NewCache uses a client owned by the caller, which is responsible for closing it.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// GetVideoDetails returns nil, nil on a cache miss.
func (c *Cache) GetVideoDetails(ctx context.Context, id uuid.UUID) ([]byte, error) {
	logger.Debugf(ctx, "getting entry in cache for video #%s...", id)

	val, err := c.client.Get(ctx, getCacheKey(id.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

// SetVideoDetails is best effort: a failed write only costs a later miss.
func (c *Cache) SetVideoDetails(ctx context.Context, id uuid.UUID, data []byte, ttl time.Duration) {
	logger.Debugf(ctx, "creating entry in cache for video #%s, valid for %s...", id, ttl)

	if err := c.client.Set(ctx, getCacheKey(id.String()), data, ttl).Err(); err != nil {
		logger.Warnf(ctx, "redis set failed for video #%s: %v", id, err)
	}
}

func (c *Cache) DeleteVideoDetails(ctx context.Context, id uuid.UUID) error {
	logger.Debugf(ctx, "deleting entry in cache for video #%s...", id)

	if err := c.client.Del(ctx, getCacheKey(id.String())).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func getCacheKey(id string) string {
	return "video:" + id
}
