package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/tkondo/chatwire/internal/cache"
	"github.com/tkondo/chatwire/internal/domain"
	"github.com/tkondo/chatwire/internal/storage"
)

// RoomFinder looks up a durable room without creating it.
type RoomFinder interface {
	FindByName(ctx context.Context, name string) (*domain.ChatRoom, error)
}

// MessageLister reads a room's stored messages.
type MessageLister interface {
	ListByRoom(ctx context.Context, roomID string) ([]domain.MessageView, error)
}

// History serves the full stored history of a room, ordered by creation
// time ascending. Results are cached per room name; concurrent fetches
// for the same room collapse into one store read.
type History struct {
	rooms    RoomFinder
	messages MessageLister
	cache    cache.MessageCache
	ttl      time.Duration
	sf       singleflight.Group
}

func NewHistory(rooms RoomFinder, messages MessageLister, msgCache cache.MessageCache, ttl time.Duration) *History {
	return &History{
		rooms:    rooms,
		messages: messages,
		cache:    msgCache,
		ttl:      ttl,
	}
}

// Messages returns every message of the named room, or an empty list if
// the room has never been created durably.
func (h *History) Messages(ctx context.Context, roomName string) ([]domain.MessageView, error) {
	if roomName == "" {
		return nil, domain.ErrRoomRequired
	}

	v, err, _ := h.sf.Do(roomName, func() (interface{}, error) {
		return h.fetch(ctx, roomName)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.MessageView), nil
}

func (h *History) fetch(ctx context.Context, roomName string) ([]domain.MessageView, error) {
	cached, err := h.cache.Get(ctx, roomName)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn().Err(err).Str("module", "app.history").Str("room", roomName).Msg("history cache get failed")
	}

	room, err := h.rooms.FindByName(ctx, roomName)
	if errors.Is(err, storage.ErrNotFound) {
		// Room not created yet: no messages, nothing worth caching.
		return []domain.MessageView{}, nil
	}
	if err != nil {
		return nil, err
	}

	messages, err := h.messages.ListByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	if err := h.cache.Set(ctx, roomName, messages, h.ttl); err != nil {
		log.Warn().Err(err).Str("module", "app.history").Str("room", roomName).Msg("history cache set failed")
	}
	return messages, nil
}
