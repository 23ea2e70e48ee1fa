package room

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgonzalez7/three-thirteen/internal/protocol"
)

func drainLatest(t *testing.T, c *Conn) protocol.Envelope {
	t.Helper()
	var env protocol.Envelope
	var raw []byte
	for {
		select {
		case raw = <-c.send:
		default:
			require.NotNil(t, raw, "expected at least one queued message")
			require.NoError(t, json.Unmarshal(raw, &env))
			return env
		}
	}
}

func joinPayload(roomID, name string) []byte {
	env := protocol.Envelope{
		Type:    protocol.MsgJoinLobby,
		Payload: protocol.JoinLobbyPayload{RoomID: roomID, PlayerName: name},
	}
	raw, _ := json.Marshal(env)
	return raw
}

func TestDispatcherJoinLobbyBroadcastsUpdate(t *testing.T) {
	r := NewRoom("room-1", nil)
	d := NewDispatcher()
	c := newTestConn()
	r.Connect("alice", c)

	raw := joinPayload("room-1", "Alice")
	d.Handle(r, "alice", protocol.Envelope{Type: protocol.MsgJoinLobby}, raw)

	require.Len(t, r.LobbyPlayers, 1)
	env := drainLatest(t, c)
	require.Equal(t, protocol.MsgLobbyUpdate, env.Type)
}

func TestDispatcherJoinLobbyRejectsBlankName(t *testing.T) {
	r := NewRoom("room-1", nil)
	d := NewDispatcher()
	c := newTestConn()
	r.Connect("alice", c)

	raw := joinPayload("room-1", "   ")
	d.Handle(r, "alice", protocol.Envelope{Type: protocol.MsgJoinLobby}, raw)

	require.Empty(t, r.LobbyPlayers)
	env := drainLatest(t, c)
	require.Equal(t, protocol.MsgError, env.Type)
}

func TestDispatcherDrawBeforeGameStartIsWrongPhase(t *testing.T) {
	r := NewRoom("room-1", nil)
	d := NewDispatcher()
	c := newTestConn()
	r.Connect("alice", c)

	env := protocol.Envelope{Type: protocol.MsgDrawCard, Payload: protocol.DrawCardPayload{RoomID: "room-1", Source: "pile"}}
	raw, _ := json.Marshal(env)
	d.Handle(r, "alice", protocol.Envelope{Type: protocol.MsgDrawCard}, raw)

	out := drainLatest(t, c)
	require.Equal(t, protocol.MsgError, out.Type)
	payload, ok := out.Payload.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, string(protocol.ErrWrongPhase), payload["message"])
}

func TestDispatcherEndGameResetsRoomAndBroadcastsLobbyReset(t *testing.T) {
	r := NewRoom("room-1", nil)
	d := NewDispatcher()
	c1, c2 := newTestConn(), newTestConn()
	r.Connect("alice", c1)
	r.Connect("bob", c2)
	require.Empty(t, r.JoinLobby("alice", "Alice"))
	require.Empty(t, r.JoinLobby("bob", "Bob"))
	require.Empty(t, r.StartGame())

	d.Handle(r, "alice", protocol.Envelope{Type: protocol.MsgEndGame}, []byte(`{"type":"end_game","payload":{"room_id":"room-1"}}`))

	require.Nil(t, r.Game)
	require.Equal(t, StatusEmpty, r.Status())

	env := drainLatest(t, c1)
	require.Equal(t, protocol.MsgLobbyReset, env.Type)
}
