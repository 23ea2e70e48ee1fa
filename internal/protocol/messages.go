// Package protocol defines the typed wire format of spec.md §6: the
// envelope every inbound command and outbound message is wrapped in,
// and one payload struct per message type.
package protocol

import "github.com/dgonzalez7/three-thirteen/internal/cards"

// MessageType identifies the kind of message sent over the wire.
type MessageType string

const (
	// Client -> Server commands.
	MsgJoinLobby   MessageType = "join_lobby"
	MsgLeaveLobby  MessageType = "leave_lobby"
	MsgStartGame   MessageType = "start_game"
	MsgDrawCard    MessageType = "draw_card"
	MsgDiscardCard MessageType = "discard_card"
	MsgGoOut       MessageType = "go_out"
	MsgNextRound   MessageType = "next_round"
	MsgEndGame     MessageType = "end_game"

	// Server -> Client messages.
	MsgRoomsUpdate   MessageType = "rooms_update"
	MsgLobbyUpdate   MessageType = "lobby_update"
	MsgGameState     MessageType = "game_state"
	MsgPlayerWentOut MessageType = "player_went_out"
	MsgRoundOver     MessageType = "round_over"
	MsgGameFinished  MessageType = "game_finished"
	MsgLobbyReset    MessageType = "lobby_reset"
	MsgError         MessageType = "error"
)

// Envelope is the top-level wire format for all messages.
type Envelope struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// --- Client -> Server payloads ---

// JoinLobbyPayload is sent to join a room's lobby roster.
type JoinLobbyPayload struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

// LeaveLobbyPayload is sent to leave a room's lobby roster.
type LeaveLobbyPayload struct {
	RoomID string `json:"room_id"`
}

// StartGamePayload requests the room start a game from its lobby roster.
type StartGamePayload struct {
	RoomID string `json:"room_id"`
}

// DrawCardPayload requests a card from the pile or discard.
type DrawCardPayload struct {
	RoomID string `json:"room_id"`
	Source string `json:"source"` // "pile" or "discard"
}

// DiscardCardPayload discards a card from the sender's hand.
type DiscardCardPayload struct {
	RoomID string `json:"room_id"`
	CardID string `json:"card_id"`
}

// GoOutPayload nominates a leftover card and attempts to go out.
type GoOutPayload struct {
	RoomID string `json:"room_id"`
	CardID string `json:"card_id"`
}

// NextRoundPayload confirms readiness to advance past round_over.
type NextRoundPayload struct {
	RoomID string `json:"room_id"`
}

// EndGamePayload ends the current game and resets the room to empty.
type EndGamePayload struct {
	RoomID string `json:"room_id"`
}

// --- Server -> Client payloads ---

// RoomSummary is one room's entry in a rooms_update message.
type RoomSummary struct {
	RoomID      string `json:"room_id"`
	RoomName    string `json:"room_name"`
	Status      string `json:"status"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
}

// RoomsUpdatePayload lists every room's current summary.
type RoomsUpdatePayload struct {
	Rooms []RoomSummary `json:"rooms"`
}

// LobbyPlayer is one player entry in a lobby_update message.
type LobbyPlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LobbyUpdatePayload carries a room's lobby roster and status.
type LobbyUpdatePayload struct {
	Players []LobbyPlayer `json:"players"`
	Status  string        `json:"status"`
}

// PublicPlayer is one player's publicly visible state within game_state.
type PublicPlayer struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	CumulativeScore int    `json:"cumulative_score"`
	HasGoneOut      bool   `json:"has_gone_out"`
	HandCount       int    `json:"hand_count,omitempty"`
}

// GameStatePayload is a per-recipient snapshot: Hand is filled only for
// the recipient; every other player appears in Players with HandCount
// set instead of a hand.
type GameStatePayload struct {
	RoundNumber        int            `json:"round_number"`
	WildRank           cards.Rank     `json:"wild_rank"`
	Phase              string         `json:"phase"`
	TurnPhase          string         `json:"turn_phase"`
	CurrentPlayerIndex int            `json:"current_player_index"`
	DrawPileCount      int            `json:"draw_pile_count"`
	DiscardPile        []cards.Card   `json:"discard_pile"`
	Players            []PublicPlayer `json:"players"`
	YourHand           []cards.Card   `json:"your_hand"`
}

// PlayerWentOutPayload notifies the room who went out this round.
type PlayerWentOutPayload struct {
	PlayerName string `json:"player_name"`
}

// RoundResultEntry is one player's outcome in a round_over message.
type RoundResultEntry struct {
	PlayerID        string       `json:"player_id"`
	PlayerName      string       `json:"player_name"`
	RoundPoints     int          `json:"round_points"`
	CumulativeScore int          `json:"cumulative_score"`
	PenaltyCards    []cards.Card `json:"penalty_cards"`
}

// RoundOverPayload reports every player's round result.
type RoundOverPayload struct {
	RoundNumber int                `json:"round_number"`
	Results     []RoundResultEntry `json:"results"`
}

// LeaderboardEntry is one player's final standing.
type LeaderboardEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// GameFinishedPayload reports the final leaderboard, ascending by score.
type GameFinishedPayload struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// LobbyResetPayload signals clients to return to the lobby view; it
// carries no fields.
type LobbyResetPayload struct{}

// ErrorPayload reports a rejected command to its originator only.
type ErrorPayload struct {
	Message string `json:"message"`
}

// --- HTTP types ---

// HealthResponse is the plain-text body of GET /health (kept as a type
// for symmetry with the other endpoints; the handler writes "ok"
// directly rather than marshaling this).
type HealthResponse struct {
	Status string `json:"status"`
}
