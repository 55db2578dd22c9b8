package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tkondo/chatwire/internal/cache"
	"github.com/tkondo/chatwire/internal/domain"
	"github.com/tkondo/chatwire/internal/storage"
)

type countingLister struct {
	mu    sync.Mutex
	calls int
	views []domain.MessageView
}

func (c *countingLister) ListByRoom(ctx context.Context, roomID string) ([]domain.MessageView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.views, nil
}

func (c *countingLister) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type staticRoomFinder struct {
	room *domain.ChatRoom
}

func (f *staticRoomFinder) FindByName(ctx context.Context, name string) (*domain.ChatRoom, error) {
	if f.room == nil {
		return nil, storage.ErrNotFound
	}
	return f.room, nil
}

func TestHistory_UnknownRoomIsEmpty(t *testing.T) {
	h := NewHistory(&staticRoomFinder{}, &countingLister{}, cache.NewMemoryCache(), time.Minute)

	messages, err := h.Messages(context.Background(), "never-created")
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if messages == nil {
		t.Fatal("expected an empty list, got nil")
	}
	if len(messages) != 0 {
		t.Errorf("expected no messages, got %d", len(messages))
	}
}

func TestHistory_BlankRoomRejected(t *testing.T) {
	h := NewHistory(&staticRoomFinder{}, &countingLister{}, cache.NewMemoryCache(), time.Minute)

	if _, err := h.Messages(context.Background(), ""); err != domain.ErrRoomRequired {
		t.Errorf("expected ErrRoomRequired, got %v", err)
	}
}

func TestHistory_CachesPerRoom(t *testing.T) {
	lister := &countingLister{views: []domain.MessageView{{ID: "m1", Content: "hi"}}}
	finder := &staticRoomFinder{room: &domain.ChatRoom{ID: "r1", Name: "lobby"}}
	msgCache := cache.NewMemoryCache()
	h := NewHistory(finder, lister, msgCache, time.Minute)
	ctx := context.Background()

	first, err := h.Messages(ctx, "lobby")
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	second, err := h.Messages(ctx, "lobby")
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}

	if lister.Calls() != 1 {
		t.Errorf("expected one store read, got %d", lister.Calls())
	}
	if len(first) != 1 || len(second) != 1 || first[0].ID != second[0].ID {
		t.Errorf("expected identical cached results, got %+v and %+v", first, second)
	}

	// An invalidated room is re-read from the store.
	if err := msgCache.Invalidate(ctx, "lobby"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, err := h.Messages(ctx, "lobby"); err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if lister.Calls() != 2 {
		t.Errorf("expected a second store read after invalidation, got %d", lister.Calls())
	}
}
