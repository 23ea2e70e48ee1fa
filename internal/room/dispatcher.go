package room

import (
	"log"
	"strings"

	"github.com/dgonzalez7/three-thirteen/internal/game"
	"github.com/dgonzalez7/three-thirteen/internal/protocol"
)

// Dispatcher implements the command-handling pipeline of spec.md §4.6:
// acquire the target room's lock, parse the payload, invoke the
// matching operation, broadcast the result, release. Room lookup by
// id happens one level up, in the connection handler.
type Dispatcher struct{}

// NewDispatcher builds a dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Handle processes one decoded inbound command from playerID, already
// known to be connected to r. raw is the original frame, used to
// extract the payload by field name since Envelope.Payload decodes to
// a generic map under encoding/json.
func (d *Dispatcher) Handle(r *Room, playerID string, env protocol.Envelope, raw []byte) {
	r.Lock()
	defer r.Unlock()

	switch env.Type {
	case protocol.MsgJoinLobby:
		d.handleJoinLobby(r, playerID, raw)
	case protocol.MsgLeaveLobby:
		d.handleLeaveLobby(r, playerID)
	case protocol.MsgStartGame:
		d.handleStartGame(r, playerID)
	case protocol.MsgDrawCard:
		d.handleDraw(r, playerID, raw)
	case protocol.MsgDiscardCard:
		d.handleDiscard(r, playerID, raw)
	case protocol.MsgGoOut:
		d.handleGoOut(r, playerID, raw)
	case protocol.MsgNextRound:
		d.handleNextRound(r, playerID)
	case protocol.MsgEndGame:
		d.handleEndGame(r, playerID)
	default:
		r.SendTo(playerID, ErrorEnvelope(protocol.ErrMalformedCommand))
	}
}

func (d *Dispatcher) handleJoinLobby(r *Room, playerID string, raw []byte) {
	var payload protocol.JoinLobbyPayload
	name, ok := parseJoinName(raw, &payload)
	if !ok {
		r.SendTo(playerID, ErrorEnvelope(protocol.ErrMalformedCommand))
		return
	}
	if code := r.JoinLobby(playerID, name); code != "" {
		r.SendTo(playerID, ErrorEnvelope(code))
		return
	}
	r.Broadcast(r.LobbyUpdateEnvelope())
}

func parseJoinName(raw []byte, payload *protocol.JoinLobbyPayload) (string, bool) {
	if err := ExtractPayload(raw, payload); err != nil {
		return "", false
	}
	name := strings.TrimSpace(payload.PlayerName)
	if name == "" || len(name) > 20 {
		return "", false
	}
	return name, true
}

func (d *Dispatcher) handleLeaveLobby(r *Room, playerID string) {
	if code := r.LeaveLobby(playerID); code != "" {
		r.SendTo(playerID, ErrorEnvelope(code))
		return
	}
	r.Broadcast(r.LobbyUpdateEnvelope())
}

func (d *Dispatcher) handleStartGame(r *Room, playerID string) {
	if code := r.StartGame(); code != "" {
		r.SendTo(playerID, ErrorEnvelope(code))
		return
	}
	r.BroadcastGameState()
}

func (d *Dispatcher) handleDraw(r *Room, playerID string, raw []byte) {
	g := r.Game
	if g == nil {
		r.SendTo(playerID, ErrorEnvelope(protocol.ErrWrongPhase))
		return
	}
	var payload protocol.DrawCardPayload
	if err := ExtractPayload(raw, &payload); err != nil {
		r.SendTo(playerID, ErrorEnvelope(protocol.ErrMalformedCommand))
		return
	}
	var source game.DrawSource
	switch payload.Source {
	case "pile":
		source = game.SourcePile
	case "discard":
		source = game.SourceDiscard
	default:
		r.SendTo(playerID, ErrorEnvelope(protocol.ErrMalformedCommand))
		return
	}
	if err := g.Draw(playerID, source); err != nil {
		r.SendTo(playerID, ErrorEnvelope(toErrorCode(err)))
		return
	}
	r.BroadcastGameState()
}

func (d *Dispatcher) handleDiscard(r *Room, playerID string, raw []byte) {
	g := r.Game
	if g == nil {
		r.SendTo(playerID, ErrorEnvelope(protocol.ErrWrongPhase))
		return
	}
	var payload protocol.DiscardCardPayload
	if err := ExtractPayload(raw, &payload); err != nil {
		r.SendTo(playerID, ErrorEnvelope(protocol.ErrMalformedCommand))
		return
	}
	if err := g.Discard(playerID, payload.CardID); err != nil {
		r.SendTo(playerID, ErrorEnvelope(toErrorCode(err)))
		return
	}
	d.broadcastPostMove(r, g)
}

func (d *Dispatcher) handleGoOut(r *Room, playerID string, raw []byte) {
	g := r.Game
	if g == nil {
		r.SendTo(playerID, ErrorEnvelope(protocol.ErrWrongPhase))
		return
	}
	var payload protocol.GoOutPayload
	if err := ExtractPayload(raw, &payload); err != nil {
		r.SendTo(playerID, ErrorEnvelope(protocol.ErrMalformedCommand))
		return
	}
	player := g.PlayerByID(playerID)
	if err := g.GoOut(playerID, payload.CardID); err != nil {
		r.SendTo(playerID, ErrorEnvelope(toErrorCode(err)))
		return
	}
	r.Broadcast(PlayerWentOutEnvelope(player.Name))
	r.BroadcastGameState()
}

func (d *Dispatcher) handleNextRound(r *Room, playerID string) {
	g := r.Game
	if g == nil {
		r.SendTo(playerID, ErrorEnvelope(protocol.ErrWrongPhase))
		return
	}
	prevRound := g.RoundNumber
	if err := g.NextRound(playerID); err != nil {
		r.SendTo(playerID, ErrorEnvelope(toErrorCode(err)))
		return
	}
	if g.Phase == game.PhaseFinished {
		r.Broadcast(GameFinishedEnvelope(g))
		r.ResetAfterFinish(func() {
			r.Broadcast(LobbyResetEnvelope())
		})
		return
	}
	if g.RoundNumber != prevRound {
		r.BroadcastGameState()
	}
}

func (d *Dispatcher) handleEndGame(r *Room, playerID string) {
	if r.Game == nil {
		r.SendTo(playerID, ErrorEnvelope(protocol.ErrWrongPhase))
		return
	}
	r.EndGame()
	r.Broadcast(LobbyResetEnvelope())
}

// broadcastPostMove sends round_over instead of game_state when a
// discard just closed out the round, per spec.md §6.
func (d *Dispatcher) broadcastPostMove(r *Room, g *game.GameState) {
	if g.Phase == game.PhaseRoundOver {
		r.Broadcast(RoundOverEnvelope(g))
		return
	}
	r.BroadcastGameState()
}

// toErrorCode maps a game package sentinel error to its wire code.
func toErrorCode(err error) protocol.ErrorCode {
	switch err {
	case game.ErrNotYourTurn:
		return protocol.ErrNotYourTurn
	case game.ErrWrongPhase:
		return protocol.ErrWrongPhase
	case game.ErrUnknownCard:
		return protocol.ErrUnknownCard
	case game.ErrInvalidGoOut:
		return protocol.ErrInvalidGoOut
	case game.ErrEmptyDiscard:
		return protocol.ErrEmptyDiscard
	case game.ErrNotEnoughSeat:
		return protocol.ErrNotInLobby
	case game.ErrRoomBusy:
		return protocol.ErrRoomBusy
	default:
		log.Printf("dispatcher: unexpected game error: %v", err)
		return protocol.ErrMalformedCommand
	}
}
