package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tkondo/chatwire/internal/cache"
	"github.com/tkondo/chatwire/internal/domain"
)

// RoomStore resolves the durable room a message belongs to.
type RoomStore interface {
	FindOrCreateByName(ctx context.Context, name string) (*domain.ChatRoom, error)
}

// MessageStore persists messages.
type MessageStore interface {
	Create(ctx context.Context, msg *domain.Message) error
}

// Pipeline accepts a send request, broadcasts it to the room
// immediately, then persists it in the background. A failed persist is
// logged and never reported to the sender: every room member has
// already seen the message, and the accepted inconsistency is a
// visible-but-unpersisted message.
type Pipeline struct {
	router         *Router
	rooms          RoomStore
	messages       MessageStore
	cache          cache.MessageCache
	persistTimeout time.Duration
	wg             sync.WaitGroup
}

func NewPipeline(router *Router, rooms RoomStore, messages MessageStore, msgCache cache.MessageCache) *Pipeline {
	return &Pipeline{
		router:         router,
		rooms:          rooms,
		messages:       messages,
		cache:          msgCache,
		persistTimeout: 10 * time.Second,
	}
}

// Send validates, assigns the message id and timestamp, broadcasts to
// the room, and schedules the durable write. The broadcast and the
// persisted row carry the same id and timestamp so clients can
// deduplicate against history.
func (p *Pipeline) Send(roomID, content string, author domain.Author) (*domain.MessageView, error) {
	if author.ID == "" {
		return nil, domain.ErrNotRegistered
	}
	if roomID == "" {
		return nil, domain.ErrRoomRequired
	}
	if content == "" {
		return nil, domain.ErrContentRequired
	}

	now := time.Now().UTC()
	msg := domain.Message{
		ID:         uuid.NewString(),
		Content:    content,
		ChatRoomID: roomID,
		UserID:     author.ID,
		User:       domain.User{ID: author.ID, Name: author.Name},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	view := msg.View()

	// Optimistic delivery: recipients see the message before the
	// durable write starts, so send latency is independent of
	// persistence latency.
	p.router.Broadcast(roomID, "receive_message", view)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.persist(roomID, msg)
	}()

	return &view, nil
}

// persist resolves the durable room by name and writes the message row.
// Not cancelled on disconnect; a sender that drops right after Send
// still gets its message stored.
func (p *Pipeline) persist(roomName string, msg domain.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), p.persistTimeout)
	defer cancel()

	room, err := p.rooms.FindOrCreateByName(ctx, roomName)
	if err != nil {
		log.Error().Err(err).Str("module", "app.pipeline").Str("room", roomName).Str("msg", msg.ID).Msg("failed to resolve room, message not persisted")
		return
	}

	msg.ChatRoomID = room.ID
	msg.User = domain.User{} // author row already exists, do not upsert
	if err := p.messages.Create(ctx, &msg); err != nil {
		log.Error().Err(err).Str("module", "app.pipeline").Str("room", roomName).Str("msg", msg.ID).Msg("failed to persist message")
		return
	}

	if err := p.cache.Invalidate(ctx, roomName); err != nil {
		log.Warn().Err(err).Str("module", "app.pipeline").Str("room", roomName).Msg("failed to invalidate history cache")
	}
}

// Wait blocks until all scheduled persists have finished. Used on
// shutdown to drain in-flight writes.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}
