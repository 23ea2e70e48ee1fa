package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestJoinLobbyThroughHubDoesNotDeadlockStatusCallback exercises the
// real Hub-wired onRoomStatusChange callback (not a trivial stand-in),
// since that callback's Snapshot() call locks every room in turn,
// including the one whose mutation just triggered it while its lock
// is still held by the caller.
func TestJoinLobbyThroughHubDoesNotDeadlockStatusCallback(t *testing.T) {
	hub := NewHub(2)
	r, ok := hub.GetRoom("room-1")
	require.True(t, ok)

	done := make(chan struct{})
	go func() {
		r.Lock()
		r.JoinLobby("p1", "Alice")
		r.Unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("JoinLobby deadlocked: status-change callback likely re-locked this room synchronously")
	}

	// The room's lock must be free again for a second command.
	lockedAgain := make(chan struct{})
	go func() {
		r.Lock()
		r.Unlock()
		close(lockedAgain)
	}()
	select {
	case <-lockedAgain:
	case <-time.After(2 * time.Second):
		t.Fatal("room lock still held after JoinLobby returned")
	}
}
