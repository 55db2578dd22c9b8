package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tkondo/chatwire/internal/config"
	"github.com/tkondo/chatwire/internal/domain"
)

const keyPrefix = "chatwire:history"

// RedisCache stores room history as JSON values with a TTL.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func key(room string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, room)
}

func (c *RedisCache) Get(ctx context.Context, room string) ([]domain.MessageView, error) {
	data, err := c.client.Get(ctx, key(room)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var messages []domain.MessageView
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached history: %w", err)
	}
	return messages, nil
}

func (c *RedisCache) Set(ctx context.Context, room string, messages []domain.MessageView, ttl time.Duration) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := c.client.Set(ctx, key(room), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, room string) error {
	if err := c.client.Del(ctx, key(room)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate in redis: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
