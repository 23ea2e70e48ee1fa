package room

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgonzalez7/three-thirteen/internal/protocol"
)

func newTestConn() *Conn {
	return &Conn{instanceID: "test", send: make(chan []byte, sendBuffer)}
}

func TestJoinLobbyThenStartGame(t *testing.T) {
	r := NewRoom("room-1", nil)
	require.Empty(t, r.JoinLobby("p1", "Alice"))
	require.Empty(t, r.JoinLobby("p2", "Bob"))
	require.Equal(t, StatusGathering, r.Status())

	require.Empty(t, r.StartGame())
	require.NotNil(t, r.Game)
	require.Equal(t, StatusInGame, r.Status())
}

func TestJoinLobbyRejectsDuplicateNameCaseInsensitive(t *testing.T) {
	r := NewRoom("room-1", nil)
	require.Empty(t, r.JoinLobby("p1", "Alice"))
	require.Equal(t, protocol.ErrDuplicateName, r.JoinLobby("p2", "ALICE"))
}

func TestJoinLobbyRejectsWhenFull(t *testing.T) {
	r := NewRoom("room-1", nil)
	for i := 0; i < MaxPlayers; i++ {
		id := string(rune('a' + i))
		require.Empty(t, r.JoinLobby(id, id))
	}
	require.Equal(t, protocol.ErrRoomFull, r.JoinLobby("overflow", "Overflow"))
}

func TestStartGameRequiresTwoPlayers(t *testing.T) {
	r := NewRoom("room-1", nil)
	require.Empty(t, r.JoinLobby("p1", "Alice"))
	require.Equal(t, protocol.ErrNotInLobby, r.StartGame())
}

func TestStartGameRejectsWhenAlreadyInProgress(t *testing.T) {
	r := NewRoom("room-1", nil)
	require.Empty(t, r.JoinLobby("p1", "Alice"))
	require.Empty(t, r.JoinLobby("p2", "Bob"))
	require.Empty(t, r.StartGame())
	require.Equal(t, protocol.ErrRoomBusy, r.StartGame())
}

func TestConnectReplacesPriorSocket(t *testing.T) {
	r := NewRoom("room-1", nil)
	first := newTestConn()
	second := newTestConn()

	r.Connect("p1", first)
	r.Connect("p1", second)
	if _, ok := <-first.send; ok {
		t.Fatalf("expected first connection's send channel to be closed by replacement")
	}

	require.Same(t, second, r.Connections["p1"])
}

func TestDisconnectDropsLobbyPlayerWhileGathering(t *testing.T) {
	r := NewRoom("room-1", nil)
	require.Empty(t, r.JoinLobby("p1", "Alice"))
	require.Empty(t, r.JoinLobby("p2", "Bob"))

	c := newTestConn()
	r.Connect("p1", c)
	r.Disconnect("p1", c)

	require.Len(t, r.LobbyPlayers, 1)
	require.Equal(t, "p2", r.LobbyPlayers[0].ID)
}

func TestDisconnectIgnoresStaleConnection(t *testing.T) {
	r := NewRoom("room-1", nil)
	require.Empty(t, r.JoinLobby("p1", "Alice"))

	old := newTestConn()
	current := newTestConn()
	r.Connect("p1", old)
	r.Connect("p1", current)

	// old was already replaced; disconnecting it must not drop p1.
	r.Disconnect("p1", old)
	require.Len(t, r.LobbyPlayers, 1)
}

func TestStatusChangeCallbackFires(t *testing.T) {
	var fired int
	r := NewRoom("room-1", func(*Room) { fired++ })
	r.JoinLobby("p1", "Alice")
	r.JoinLobby("p2", "Bob")
	require.Equal(t, 2, fired)
}

func TestGameStateEnvelopeRedactsOtherHands(t *testing.T) {
	r := NewRoom("room-1", nil)
	require.Empty(t, r.JoinLobby("p1", "Alice"))
	require.Empty(t, r.JoinLobby("p2", "Bob"))
	require.Empty(t, r.StartGame())

	env := r.GameStateEnvelopeFor("p1")
	payload, ok := env.Payload.(protocol.GameStatePayload)
	require.True(t, ok)
	require.NotEmpty(t, payload.YourHand)

	for _, p := range payload.Players {
		if p.ID != "p1" {
			require.NotZero(t, p.HandCount)
		}
	}
}
