// Package cache holds the room-history cache used by the history
// service: redis-backed when configured, in-process otherwise.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/tkondo/chatwire/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// MessageCache caches the full history of a room, keyed by room name.
// The pipeline invalidates a room's entry after each durable write.
type MessageCache interface {
	Get(ctx context.Context, room string) ([]domain.MessageView, error)
	Set(ctx context.Context, room string, messages []domain.MessageView, ttl time.Duration) error
	Invalidate(ctx context.Context, room string) error
}
