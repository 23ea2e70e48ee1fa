package room

import (
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/dgonzalez7/three-thirteen/internal/cards"
	"github.com/dgonzalez7/three-thirteen/internal/game"
	"github.com/dgonzalez7/three-thirteen/internal/protocol"
)

// Status is a Room's derived lifecycle state, per spec.md §3.
type Status string

const (
	StatusEmpty     Status = "empty"
	StatusGathering Status = "gathering"
	StatusInGame    Status = "in_game"
)

const (
	MaxPlayers   = 8
	resetDelay   = 2 * time.Second
	minGameStart = 2
)

// LobbyPlayer is one entry in a Room's pre-game roster.
type LobbyPlayer struct {
	ID   string
	Name string
}

// Room owns exactly one mutex guarding its full state — lobby roster,
// connections and optional in-progress game — per spec.md §4.4.
type Room struct {
	mu sync.Mutex

	ID   string
	Name string

	LobbyPlayers []LobbyPlayer
	Connections  map[string]*Conn // player_id -> active connection
	Game         *game.GameState

	onStatusChange func(room *Room)
}

// NewRoom constructs one of the ten fixed rooms.
func NewRoom(id string, onStatusChange func(room *Room)) *Room {
	return &Room{
		ID:             id,
		Name:           strings.ReplaceAll(id, "-", " "),
		Connections:    make(map[string]*Conn),
		onStatusChange: onStatusChange,
	}
}

// Status derives the room's lifecycle phase: empty iff no lobby
// players and no game; in_game iff a game is present; gathering
// otherwise.
func (r *Room) Status() Status {
	switch {
	case r.Game != nil:
		return StatusInGame
	case len(r.LobbyPlayers) == 0:
		return StatusEmpty
	default:
		return StatusGathering
	}
}

// Summary builds this room's rooms_update entry. Callers must hold r.mu
// (or not care about a momentarily stale snapshot).
func (r *Room) Summary() protocol.RoomSummary {
	return protocol.RoomSummary{
		RoomID:      r.ID,
		RoomName:    r.Name,
		Status:      string(r.Status()),
		PlayerCount: len(r.LobbyPlayers),
		MaxPlayers:  MaxPlayers,
	}
}

// notifyStatusChange must be called after any mutation that could
// change Status(), with r.mu already held.
func (r *Room) notifyStatusChange() {
	if r.onStatusChange != nil {
		r.onStatusChange(r)
	}
}

// Lock/Unlock expose the room's single mutex to the dispatcher, which
// serializes the full read-parse-mutate-broadcast pipeline under it
// per spec.md §4.4 and §5.
func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

// lobbyIndex returns the index of playerID in LobbyPlayers, or -1.
func (r *Room) lobbyIndex(playerID string) int {
	for i, p := range r.LobbyPlayers {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// JoinLobby implements spec.md §6's join_lobby command. Must be called
// with r.mu held.
func (r *Room) JoinLobby(playerID, name string) protocol.ErrorCode {
	status := r.Status()
	if status != StatusEmpty && status != StatusGathering {
		return protocol.ErrNotInLobby
	}
	if len(r.LobbyPlayers) >= MaxPlayers {
		return protocol.ErrRoomFull
	}
	lower := strings.ToLower(name)
	for _, p := range r.LobbyPlayers {
		if strings.ToLower(p.Name) == lower {
			return protocol.ErrDuplicateName
		}
	}
	r.LobbyPlayers = append(r.LobbyPlayers, LobbyPlayer{ID: playerID, Name: name})
	r.notifyStatusChange()
	return ""
}

// LeaveLobby implements spec.md §6's leave_lobby command. Must be
// called with r.mu held.
func (r *Room) LeaveLobby(playerID string) protocol.ErrorCode {
	if r.Status() != StatusGathering {
		return protocol.ErrNotInLobby
	}
	idx := r.lobbyIndex(playerID)
	if idx < 0 {
		return protocol.ErrNotInLobby
	}
	r.LobbyPlayers = append(r.LobbyPlayers[:idx], r.LobbyPlayers[idx+1:]...)
	r.notifyStatusChange()
	return ""
}

// StartGame implements spec.md §4.3 start_game: requires 2..8 lobby
// players and randomizes seating order. Must be called with r.mu held.
func (r *Room) StartGame() protocol.ErrorCode {
	if r.Game != nil {
		return protocol.ErrRoomBusy
	}
	if len(r.LobbyPlayers) < minGameStart {
		return protocol.ErrNotInLobby
	}

	seated := make([]LobbyPlayer, len(r.LobbyPlayers))
	copy(seated, r.LobbyPlayers)
	rand.Shuffle(len(seated), func(i, j int) { seated[i], seated[j] = seated[j], seated[i] })

	ids := make([]string, len(seated))
	names := make([]string, len(seated))
	for i, p := range seated {
		ids[i] = p.ID
		names[i] = p.Name
	}

	g, err := game.NewGame(ids, names)
	if err != nil {
		return protocol.ErrNotInLobby
	}
	r.Game = g
	r.notifyStatusChange()
	return ""
}

// EndGame implements spec.md §4.3 end_game: destroys the game, clears
// the lobby roster, and returns the room to empty. Must be called with
// r.mu held.
func (r *Room) EndGame() {
	r.Game = nil
	r.LobbyPlayers = nil
	r.notifyStatusChange()
}

// ResetAfterFinish schedules the same transition as EndGame, after a
// short delay so clients can render the final message before the view
// changes (grounded on the teacher's 2-second post-match pause).
func (r *Room) ResetAfterFinish(broadcastReset func()) {
	go func() {
		time.Sleep(resetDelay)
		r.mu.Lock()
		defer r.mu.Unlock()
		r.EndGame()
		broadcastReset()
	}()
}

// Connect registers conn as playerID's active connection, closing and
// replacing any prior connection for that player (spec.md §4.5,
// "last-writer-wins"). Must be called with r.mu held.
func (r *Room) Connect(playerID string, conn *Conn) {
	if old, ok := r.Connections[playerID]; ok {
		log.Printf("[room %s] player %s reconnected (old=%s new=%s), closing old socket",
			r.ID, playerID, old.InstanceID(), conn.InstanceID())
		old.Close()
	}
	r.Connections[playerID] = conn
}

// Disconnect removes playerID's connection if it still matches conn
// (a stale callback from an already-replaced connection is a no-op),
// and drops the player from the lobby roster iff the room is still
// gathering. Must be called with r.mu held.
func (r *Room) Disconnect(playerID string, conn *Conn) {
	if cur, ok := r.Connections[playerID]; !ok || cur != conn {
		return
	}
	delete(r.Connections, playerID)

	if r.Status() == StatusGathering {
		if idx := r.lobbyIndex(playerID); idx >= 0 {
			r.LobbyPlayers = append(r.LobbyPlayers[:idx], r.LobbyPlayers[idx+1:]...)
			r.notifyStatusChange()
		}
	}
}

// Broadcast enqueues env on every currently connected player's socket.
// Must be called with r.mu held; per spec.md §9, broadcasts are
// enqueued under the lock but delivered asynchronously by each
// connection's writer.
func (r *Room) Broadcast(env protocol.Envelope) {
	for _, c := range r.Connections {
		c.Enqueue(env)
	}
}

// SendTo enqueues env for a single player only (used for `error`
// responses, which spec.md §6 restricts to the command originator).
func (r *Room) SendTo(playerID string, env protocol.Envelope) {
	if c, ok := r.Connections[playerID]; ok {
		c.Enqueue(env)
	}
}

// LobbyUpdateEnvelope builds the lobby_update broadcast for the room's
// current roster and status.
func (r *Room) LobbyUpdateEnvelope() protocol.Envelope {
	players := make([]protocol.LobbyPlayer, len(r.LobbyPlayers))
	for i, p := range r.LobbyPlayers {
		players[i] = protocol.LobbyPlayer{ID: p.ID, Name: p.Name}
	}
	return protocol.Envelope{
		Type: protocol.MsgLobbyUpdate,
		Payload: protocol.LobbyUpdatePayload{
			Players: players,
			Status:  string(r.Status()),
		},
	}
}

// GameStateEnvelopeFor builds the personalized game_state broadcast for
// recipientID: their own hand in full, every other player's hand
// collapsed to a count, per spec.md §6. Cards are copied into the
// envelope so later in-place mutation of the game's live slices cannot
// alias an already-enqueued broadcast (spec.md §9's "immutable state
// snapshots for broadcast").
func (r *Room) GameStateEnvelopeFor(recipientID string) protocol.Envelope {
	g := r.Game
	players := make([]protocol.PublicPlayer, len(g.Players))
	var yourHand []cards.Card
	for i, p := range g.Players {
		pub := protocol.PublicPlayer{
			ID:              p.ID,
			Name:            p.Name,
			CumulativeScore: p.CumulativeScore,
			HasGoneOut:      p.HasGoneOutThisRound,
		}
		if p.ID == recipientID {
			yourHand = append(yourHand, p.Hand...)
		} else {
			pub.HandCount = len(p.Hand)
		}
		players[i] = pub
	}

	discard := make([]cards.Card, len(g.DiscardPile))
	copy(discard, g.DiscardPile)

	return protocol.Envelope{
		Type: protocol.MsgGameState,
		Payload: protocol.GameStatePayload{
			RoundNumber:        g.RoundNumber,
			WildRank:           g.WildRank,
			Phase:              string(g.Phase),
			TurnPhase:          string(g.TurnPhase),
			CurrentPlayerIndex: g.CurrentIndex,
			DrawPileCount:      len(g.DrawPile),
			DiscardPile:        discard,
			Players:            players,
			YourHand:           yourHand,
		},
	}
}

// BroadcastGameState sends every connected player their own
// personalized game_state snapshot.
func (r *Room) BroadcastGameState() {
	for playerID, c := range r.Connections {
		c.Enqueue(r.GameStateEnvelopeFor(playerID))
	}
}

// ErrorEnvelope wraps an ErrorCode as the wire `error` message.
func ErrorEnvelope(code protocol.ErrorCode) protocol.Envelope {
	return protocol.Envelope{
		Type:    protocol.MsgError,
		Payload: protocol.ErrorPayload{Message: string(code)},
	}
}

// RoundOverEnvelope builds the round_over broadcast from the game's
// most recent scoring pass.
func RoundOverEnvelope(g *game.GameState) protocol.Envelope {
	results := make([]protocol.RoundResultEntry, len(g.RoundResults))
	for i, r := range g.RoundResults {
		penalty := make([]cards.Card, len(r.PenaltyCards))
		copy(penalty, r.PenaltyCards)
		results[i] = protocol.RoundResultEntry{
			PlayerID:        r.PlayerID,
			PlayerName:      r.PlayerName,
			RoundPoints:     r.RoundPoints,
			CumulativeScore: r.CumulativeScore,
			PenaltyCards:    penalty,
		}
	}
	return protocol.Envelope{
		Type: protocol.MsgRoundOver,
		Payload: protocol.RoundOverPayload{
			RoundNumber: g.RoundNumber,
			Results:     results,
		},
	}
}

// GameFinishedEnvelope builds the game_finished broadcast from the
// game's final leaderboard.
func GameFinishedEnvelope(g *game.GameState) protocol.Envelope {
	board := make([]protocol.LeaderboardEntry, len(g.Leaderboard))
	for i, e := range g.Leaderboard {
		board[i] = protocol.LeaderboardEntry{ID: e.ID, Name: e.Name, Score: e.Score}
	}
	return protocol.Envelope{
		Type:    protocol.MsgGameFinished,
		Payload: protocol.GameFinishedPayload{Leaderboard: board},
	}
}

// PlayerWentOutEnvelope builds the player_went_out notification.
func PlayerWentOutEnvelope(name string) protocol.Envelope {
	return protocol.Envelope{
		Type:    protocol.MsgPlayerWentOut,
		Payload: protocol.PlayerWentOutPayload{PlayerName: name},
	}
}

// LobbyResetEnvelope builds the lobby_reset signal.
func LobbyResetEnvelope() protocol.Envelope {
	return protocol.Envelope{Type: protocol.MsgLobbyReset, Payload: protocol.LobbyResetPayload{}}
}

// RoomIDFor formats the fixed id of the nth room (1-indexed), per
// spec.md §3's "room-{1..10}".
func RoomIDFor(n int) string {
	return fmt.Sprintf("room-%d", n)
}
