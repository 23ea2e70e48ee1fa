// Package lobbyservice fans out rooms_update snapshots to every
// /ws/lobby subscriber whenever a room's status changes, per
// spec.md §2's "Lobby service" and §4.4's "notify the lobby service".
package lobbyservice

import (
	"sync"

	"github.com/dgonzalez7/three-thirteen/internal/protocol"
)

// Bus fans out RoomsUpdatePayload snapshots to every subscribed
// channel. Modeled on the pack's dashboard event bus: subscribers get
// a buffered channel and are dropped from, not blocked by, a full one.
type Bus struct {
	mu      sync.RWMutex
	clients map[chan protocol.RoomsUpdatePayload]struct{}
}

// NewBus constructs an empty subscriber bus.
func NewBus() *Bus {
	return &Bus{
		clients: make(map[chan protocol.RoomsUpdatePayload]struct{}),
	}
}

// Subscribe registers a new lobby subscriber and returns its channel.
func (b *Bus) Subscribe() chan protocol.RoomsUpdatePayload {
	ch := make(chan protocol.RoomsUpdatePayload, 8)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber's channel.
func (b *Bus) Unsubscribe(ch chan protocol.RoomsUpdatePayload) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
	close(ch)
}

// Publish fans snapshot out to every current subscriber, dropping it
// for any subscriber whose channel is full rather than blocking.
func (b *Bus) Publish(snapshot protocol.RoomsUpdatePayload) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
