// Package game implements the per-room game state machine of
// spec.md §4.3: round/dealer/turn cursor, draw/discard piles, hands,
// go-out and round-boundary transitions.
package game

import (
	"errors"

	"github.com/dgonzalez7/three-thirteen/internal/cards"
	"github.com/dgonzalez7/three-thirteen/internal/evaluator"
)

// Phase is the hand-level phase of a GameState.
type Phase string

const (
	PhasePlaying    Phase = "playing"
	PhaseFinalTurns Phase = "final_turns"
	PhaseRoundOver  Phase = "round_over"
	PhaseFinished   Phase = "finished"
)

// TurnPhase is whether the current player must draw or discard.
type TurnPhase string

const (
	TurnDraw    TurnPhase = "draw"
	TurnDiscard TurnPhase = "discard"
)

// DrawSource names where draw_card pulls from.
type DrawSource string

const (
	SourcePile    DrawSource = "pile"
	SourceDiscard DrawSource = "discard"
)

var (
	ErrRoomBusy      = errors.New("room_busy")
	ErrNotYourTurn   = errors.New("not_your_turn")
	ErrWrongPhase    = errors.New("wrong_phase")
	ErrUnknownCard   = errors.New("unknown_card")
	ErrInvalidGoOut  = errors.New("invalid_go_out")
	ErrEmptyDiscard  = errors.New("empty_discard")
	ErrNotEnoughSeat = errors.New("not_enough_players")
)

// Player is one seated player's in-hand state.
type Player struct {
	ID                  string
	Name                string
	Hand                []cards.Card
	CumulativeScore     int
	HasGoneOutThisRound bool
	NextRoundConfirmed  bool
}

// RoundResult is one player's outcome when a round ends.
type RoundResult struct {
	PlayerID        string
	PlayerName      string
	RoundPoints     int
	CumulativeScore int
	PenaltyCards    []cards.Card
}

// LeaderboardEntry is one player's final standing.
type LeaderboardEntry struct {
	ID    string
	Name  string
	Score int
}

// GameState is the full authoritative state of one hand in progress
// inside a Room, per spec.md §3.
type GameState struct {
	RoundNumber    int
	WildRank       cards.Rank
	Players        []*Player
	DealerIndex    int
	CurrentIndex   int
	TurnPhase      TurnPhase
	DrawPile       []cards.Card
	DiscardPile    []cards.Card
	Phase          Phase
	WentOutPlayer  string
	FinalTurnsLeft int
	RoundResults   []RoundResult
	Leaderboard    []LeaderboardEntry
}

// DealSize is the number of cards each player holds at the start of
// the current round's draw phase.
func (g *GameState) DealSize() int {
	return cards.DealSize(g.RoundNumber)
}

func (g *GameState) playerIndex(id string) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (g *GameState) handIndex(p *Player, cardID string) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

func (g *GameState) advanceCursor() {
	g.CurrentIndex = (g.CurrentIndex + 1) % len(g.Players)
}

// NewGame builds a fresh GameState for round 1 from a seated roster
// (seating order already randomized by the caller) and a uniformly
// random dealer index.
func NewGame(seatedIDs []string, seatedNames []string) (*GameState, error) {
	if len(seatedIDs) < 2 || len(seatedIDs) > 8 {
		return nil, ErrNotEnoughSeat
	}
	players := make([]*Player, len(seatedIDs))
	for i := range seatedIDs {
		players[i] = &Player{ID: seatedIDs[i], Name: seatedNames[i]}
	}
	g := &GameState{
		RoundNumber: 1,
		Players:     players,
		DealerIndex: cards.PickDealer(len(players)),
	}
	g.dealRound()
	return g, nil
}

// dealRound builds a fresh shuffled deck for RoundNumber, deals
// DealSize cards to each player clockwise from dealer+1, and seeds the
// draw/discard piles.
func (g *GameState) dealRound() {
	g.WildRank = cards.WildRankForRound(g.RoundNumber)
	deck := cards.Shuffle(cards.NewCompositeDeck(cards.DecksFor(len(g.Players))))

	dealSize := g.DealSize()
	n := len(g.Players)
	start := (g.DealerIndex + 1) % n

	for _, p := range g.Players {
		p.Hand = nil
		p.HasGoneOutThisRound = false
		p.NextRoundConfirmed = false
	}

	cursor := 0
	for round := 0; round < dealSize; round++ {
		for i := 0; i < n; i++ {
			seat := (start + i) % n
			g.Players[seat].Hand = append(g.Players[seat].Hand, deck[cursor])
			cursor++
		}
	}

	g.DrawPile = deck[cursor:]
	g.DiscardPile = []cards.Card{g.popDrawTop()}

	g.CurrentIndex = start
	g.TurnPhase = TurnDraw
	g.Phase = PhasePlaying
	g.WentOutPlayer = ""
	g.FinalTurnsLeft = 0
	g.RoundResults = nil
	g.Leaderboard = nil
}

func (g *GameState) popDrawTop() cards.Card {
	top := g.DrawPile[len(g.DrawPile)-1]
	g.DrawPile = g.DrawPile[:len(g.DrawPile)-1]
	return top
}

func (g *GameState) discardTop() cards.Card {
	return g.DiscardPile[len(g.DiscardPile)-1]
}

// reshuffleDiscardIntoDrawPile rebuilds DrawPile from every discard
// except the current top, per spec.md §4.3 draw: the top card stays in
// place as the new discard pile's sole member.
func (g *GameState) reshuffleDiscardIntoDrawPile() {
	top := g.discardTop()
	rest := g.DiscardPile[:len(g.DiscardPile)-1]
	g.DrawPile = cards.Shuffle(rest)
	g.DiscardPile = []cards.Card{top}
}

// CurrentPlayer returns the player whose turn it currently is.
func (g *GameState) CurrentPlayer() *Player {
	return g.Players[g.CurrentIndex]
}

// PlayerByID looks up a seated player by id, or nil if not seated.
func (g *GameState) PlayerByID(id string) *Player {
	if idx := g.playerIndex(id); idx >= 0 {
		return g.Players[idx]
	}
	return nil
}

// handPenalty runs the evaluator's secondary algorithm for p's current
// hand under g's wild rank.
func (g *GameState) handPenalty(p *Player) evaluator.PenaltyResult {
	return evaluator.Evaluate(p.Hand, g.WildRank)
}
