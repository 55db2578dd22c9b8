// Package app holds the in-memory core shared by every connection
// task: the presence registry, the room router, the message pipeline
// and the history service.
package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tkondo/chatwire/internal/domain"
)

type presenceEntry struct {
	connectionID string
	userID       string
	name         string
}

// Presence is the process-wide mapping from live connection to bound
// identity. It is the source of truth for "who is online now"; it never
// pushes updates itself, the connection controller broadcasts snapshots
// after every mutation.
type Presence struct {
	mu     sync.RWMutex
	byConn map[string]*presenceEntry
	order  []*presenceEntry
}

func NewPresence() *Presence {
	return &Presence{byConn: make(map[string]*presenceEntry)}
}

// Put binds an identity to a connection. Re-registering a live
// connection updates the entry in place and keeps its original
// position in the snapshot order.
func (p *Presence) Put(connectionID, userID, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, ok := p.byConn[connectionID]; ok {
		entry.userID = userID
		entry.name = name
		return
	}
	entry := &presenceEntry{connectionID: connectionID, userID: userID, name: name}
	p.byConn[connectionID] = entry
	p.order = append(p.order, entry)
	log.Info().Str("module", "app.presence").Str("conn", connectionID).Str("user", userID).Msg("presence entry added")
}

// Remove drops the entry for a connection; no-op if the connection
// never registered.
func (p *Presence) Remove(connectionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byConn[connectionID]; !ok {
		return
	}
	delete(p.byConn, connectionID)
	for i, entry := range p.order {
		if entry.connectionID == connectionID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "app.presence").Str("conn", connectionID).Msg("presence entry removed")
}

// Snapshot returns the currently registered identities in registration
// order.
func (p *Presence) Snapshot() []domain.PresenceEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.PresenceEntry, 0, len(p.order))
	for _, entry := range p.order {
		out = append(out, domain.PresenceEntry{
			ID:           entry.userID,
			Name:         entry.name,
			ConnectionID: entry.connectionID,
			Status:       "online",
		})
	}
	return out
}
