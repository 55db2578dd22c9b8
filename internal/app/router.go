package app

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Recipient is the delivery end of one live connection. Send must not
// block; a recipient that cannot accept data drops the event.
type Recipient interface {
	Send(event string, data any)
}

// Router owns live room membership and performs fan-out. Delivery is
// best-effort and fire-and-forget: a slow or gone recipient is not
// retried and the sender is never told.
type Router struct {
	mu    sync.RWMutex
	conns map[string]Recipient
	rooms map[string]map[string]struct{}
}

func NewRouter() *Router {
	return &Router{
		conns: make(map[string]Recipient),
		rooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers a live connection for delivery.
func (r *Router) Attach(connectionID string, rcpt Recipient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connectionID] = rcpt
	log.Info().Str("module", "app.router").Str("conn", connectionID).Msg("connection attached")
}

// Detach removes a connection and its membership in every room. Called
// on disconnect; late joins for a detached connection are ignored.
func (r *Router) Detach(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connectionID)
	for roomID, members := range r.rooms {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
	log.Info().Str("module", "app.router").Str("conn", connectionID).Msg("connection detached")
}

// Join idempotently subscribes a connection to a room. Joining is
// purely in-memory; the durable room is untouched.
func (r *Router) Join(connectionID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[connectionID]; !ok {
		return
	}
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[roomID] = members
	}
	members[connectionID] = struct{}{}
	log.Info().Str("module", "app.router").Str("conn", connectionID).Str("room", roomID).Msg("joined room")
}

// Broadcast delivers an event to every connection currently in the
// room, including the sender when it is a member.
func (r *Router) Broadcast(roomID, event string, data any) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for connectionID := range r.rooms[roomID] {
		if rcpt, ok := r.conns[connectionID]; ok {
			rcpt.Send(event, data)
		}
	}
}

// BroadcastAll delivers an event to every attached connection,
// registered or not.
func (r *Router) BroadcastAll(event string, data any) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rcpt := range r.conns {
		rcpt.Send(event, data)
	}
}
