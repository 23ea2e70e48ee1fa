package game

import (
	"sort"

	"github.com/dgonzalez7/three-thirteen/internal/cards"
	"github.com/dgonzalez7/three-thirteen/internal/evaluator"
)

// Draw implements spec.md §4.3 draw(player_id, source).
func (g *GameState) Draw(playerID string, source DrawSource) error {
	if g.Phase != PhasePlaying && g.Phase != PhaseFinalTurns {
		return ErrWrongPhase
	}
	if g.CurrentPlayer().ID != playerID {
		return ErrNotYourTurn
	}
	if g.TurnPhase != TurnDraw {
		return ErrWrongPhase
	}

	var drawn cards.Card
	switch source {
	case SourcePile:
		if len(g.DrawPile) == 0 {
			if len(g.DiscardPile) <= 1 {
				return ErrEmptyDiscard
			}
			g.reshuffleDiscardIntoDrawPile()
		}
		drawn = g.popDrawTop()
	case SourceDiscard:
		if len(g.DiscardPile) == 0 {
			return ErrEmptyDiscard
		}
		drawn = g.DiscardPile[len(g.DiscardPile)-1]
		g.DiscardPile = g.DiscardPile[:len(g.DiscardPile)-1]
	default:
		return ErrWrongPhase
	}

	p := g.CurrentPlayer()
	p.Hand = append(p.Hand, drawn)
	g.TurnPhase = TurnDiscard
	return nil
}

// Discard implements spec.md §4.3 discard(player_id, card_id).
func (g *GameState) Discard(playerID, cardID string) error {
	if g.CurrentPlayer().ID != playerID {
		return ErrNotYourTurn
	}
	if g.TurnPhase != TurnDiscard {
		return ErrWrongPhase
	}

	p := g.CurrentPlayer()
	idx := g.handIndex(p, cardID)
	if idx < 0 {
		return ErrUnknownCard
	}

	card := p.Hand[idx]
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	g.DiscardPile = append(g.DiscardPile, card)

	switch g.Phase {
	case PhasePlaying:
		g.advanceCursor()
		g.TurnPhase = TurnDraw
	case PhaseFinalTurns:
		// A later player whose final-turn hand happens to form a
		// going-out partition scores 0 without becoming the recorded
		// went_out_player_id (spec.md §9 open question resolution).
		if evaluator.CanGoOut(p.Hand, g.WildRank) {
			p.HasGoneOutThisRound = true
		}
		g.FinalTurnsLeft--
		if g.FinalTurnsLeft == 0 {
			g.endRound()
		} else {
			g.advanceCursor()
			g.TurnPhase = TurnDraw
		}
	default:
		return ErrWrongPhase
	}
	return nil
}

// GoOut implements spec.md §4.3 go_out(player_id, card_id).
func (g *GameState) GoOut(playerID, cardID string) error {
	if g.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	if g.CurrentPlayer().ID != playerID {
		return ErrNotYourTurn
	}
	if g.TurnPhase != TurnDiscard {
		return ErrWrongPhase
	}

	p := g.CurrentPlayer()
	idx := g.handIndex(p, cardID)
	if idx < 0 {
		return ErrUnknownCard
	}

	remainder := make([]cards.Card, 0, len(p.Hand)-1)
	for i, c := range p.Hand {
		if i != idx {
			remainder = append(remainder, c)
		}
	}
	if !evaluator.CanGoOut(remainder, g.WildRank) {
		// Invalid go-out leaves state unchanged: no mutation above this
		// point touched p.Hand or any pile.
		return ErrInvalidGoOut
	}

	card := p.Hand[idx]
	p.Hand = remainder
	g.DiscardPile = append(g.DiscardPile, card)
	g.WentOutPlayer = playerID
	p.HasGoneOutThisRound = true
	g.FinalTurnsLeft = len(g.Players) - 1
	g.Phase = PhaseFinalTurns
	g.advanceCursor()
	g.TurnPhase = TurnDraw
	return nil
}

// endRound computes round scoring and transitions to round_over, per
// spec.md §4.3 "Round scoring".
func (g *GameState) endRound() {
	results := make([]RoundResult, 0, len(g.Players))
	for _, p := range g.Players {
		var points int
		var penaltyCards []cards.Card
		if p.HasGoneOutThisRound {
			points = 0
		} else {
			outcome := g.handPenalty(p)
			points = outcome.Points
			penaltyCards = outcome.PenaltyCards
		}
		p.CumulativeScore += points
		results = append(results, RoundResult{
			PlayerID:        p.ID,
			PlayerName:      p.Name,
			RoundPoints:     points,
			CumulativeScore: p.CumulativeScore,
			PenaltyCards:    penaltyCards,
		})
	}
	g.RoundResults = results
	g.Phase = PhaseRoundOver
}

// NextRound implements spec.md §4.3 next_round per-player confirmation.
// Once every seated player has confirmed, the round advances (or the
// game finishes); until then it only records the confirmation. Returns
// an error only when the command is rejected.
func (g *GameState) NextRound(playerID string) error {
	if g.Phase != PhaseRoundOver {
		return ErrWrongPhase
	}
	p := g.PlayerByID(playerID)
	if p == nil {
		return ErrUnknownCard
	}
	p.NextRoundConfirmed = true

	for _, pl := range g.Players {
		if !pl.NextRoundConfirmed {
			return nil
		}
	}

	if g.RoundNumber == 11 {
		g.Phase = PhaseFinished
		g.Leaderboard = g.buildLeaderboard()
		return nil
	}

	g.RoundNumber++
	g.DealerIndex = (g.DealerIndex + 1) % len(g.Players)
	g.dealRound()
	return nil
}

// buildLeaderboard sorts players by ascending cumulative score, ties
// preserving seating order (stable sort).
func (g *GameState) buildLeaderboard() []LeaderboardEntry {
	entries := make([]LeaderboardEntry, len(g.Players))
	for i, p := range g.Players {
		entries[i] = LeaderboardEntry{ID: p.ID, Name: p.Name, Score: p.CumulativeScore}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score < entries[j].Score
	})
	return entries
}
