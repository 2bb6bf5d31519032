package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps the last good room snapshot under a single key
type RedisCache struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisCache creates a cache storing the snapshot at <keyPrefix>rooms:snapshot
func NewRedisCache(client redis.Cmdable, keyPrefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		key:    fmt.Sprintf("%srooms:snapshot", keyPrefix),
		ttl:    ttl,
	}
}

// Get returns the cached snapshot
func (c *RedisCache) Get(ctx context.Context) ([]models.Room, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errs.Mark(errs.New("no cached room snapshot"), errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read room snapshot: %w", err)
	}

	var rooms []models.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode room snapshot: %w", err)
	}
	return rooms, nil
}

// Set replaces the cached snapshot
func (c *RedisCache) Set(ctx context.Context, rooms []models.Room) error {
	data, err := json.Marshal(rooms)
	if err != nil {
		return fmt.Errorf("failed to encode room snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write room snapshot: %w", err)
	}
	return nil
}
