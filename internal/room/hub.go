package room

import (
	"fmt"
	"sync"

	"github.com/dgonzalez7/three-thirteen/internal/lobbyservice"
	"github.com/dgonzalez7/three-thirteen/internal/protocol"
)

// RoomCount is the fixed number of rooms this service hosts, per
// spec.md §3.
const RoomCount = 10

// Hub owns the fixed set of rooms and the lobby-view fan-out bus.
// Modeled on the teacher's Hub, which owned every Room keyed by id;
// generalized from a dynamic registry to the spec's fixed roster.
type Hub struct {
	rooms     map[string]*Room
	roomCount int
	bus       *lobbyservice.Bus

	mu sync.RWMutex // guards rooms map iteration order only; entries never added/removed
}

// NewHub pre-creates roomCount rooms. Production deployments use
// RoomCount (10, per spec.md §3); a smaller count is accepted for
// local/test runs.
func NewHub(roomCount int) *Hub {
	h := &Hub{
		rooms:     make(map[string]*Room, roomCount),
		roomCount: roomCount,
		bus:       lobbyservice.NewBus(),
	}
	for i := 1; i <= roomCount; i++ {
		id := RoomIDFor(i)
		h.rooms[id] = NewRoom(id, h.onRoomStatusChange)
	}
	return h
}

// onRoomStatusChange republishes a full rooms_update snapshot whenever
// any room's lobby roster or game presence changes (which may or may
// not change its derived Status), per spec.md §4.4. The snapshot
// must be built inside the spawned goroutine, not in its argument
// list: Snapshot locks every room in turn, including the one whose
// mutation just triggered this callback, and that room's lock is
// still held by the caller at this point. `go h.bus.Publish(h.Snapshot())`
// would evaluate Snapshot() synchronously before the goroutine starts,
// self-deadlocking on that room's lock.
func (h *Hub) onRoomStatusChange(_ *Room) {
	go func() {
		h.bus.Publish(h.Snapshot())
	}()
}

// GetRoom looks up a room by id.
func (h *Hub) GetRoom(id string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[id]
	return r, ok
}

// Snapshot builds the full rooms_update payload across every room,
// ordered room-1..room-N.
func (h *Hub) Snapshot() protocol.RoomsUpdatePayload {
	summaries := make([]protocol.RoomSummary, 0, h.roomCount)
	for i := 1; i <= h.roomCount; i++ {
		id := RoomIDFor(i)
		r := h.rooms[id]
		r.Lock()
		summaries = append(summaries, r.Summary())
		r.Unlock()
	}
	return protocol.RoomsUpdatePayload{Rooms: summaries}
}

// SubscribeLobby registers a new /ws/lobby subscriber and returns its
// channel, along with the current snapshot to send immediately.
func (h *Hub) SubscribeLobby() (chan protocol.RoomsUpdatePayload, protocol.RoomsUpdatePayload) {
	return h.bus.Subscribe(), h.Snapshot()
}

// UnsubscribeLobby removes a /ws/lobby subscriber.
func (h *Hub) UnsubscribeLobby(ch chan protocol.RoomsUpdatePayload) {
	h.bus.Unsubscribe(ch)
}

// RoomIDValid reports whether id names one of the fixed rooms, for
// path-parameter validation in the HTTP layer.
func (h *Hub) RoomIDValid(id string) bool {
	_, ok := h.rooms[id]
	return ok
}

// String is used only in startup logging.
func (h *Hub) String() string {
	return fmt.Sprintf("hub(%d rooms)", h.roomCount)
}
