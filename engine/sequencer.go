package engine

import "sort"

// Turn sequencer: computes who acts next from completion flags and phase.
// OrderIndex assignment is immutable once the game starts, so the scan order
// never changes mid-game even when players are removed and gaps appear.

// playersInOrder returns the players sorted by OrderIndex.
func (g *GameState) playersInOrder() []*Player {
	ordered := make([]*Player, 0, len(g.Players))
	for i := range g.Players {
		ordered = append(ordered, &g.Players[i])
	}
	sort.Slice(ordered, func(a, b int) bool {
		return ordered[a].OrderIndex < ordered[b].OrderIndex
	})
	return ordered
}

// advanceTurn selects the next active player after a completed ordinary turn:
// the first player in OrderIndex order, scanning just past the current active
// player and wrapping, whose turn is not yet complete. When no such player
// exists the round is over and the final round begins.
//
// Returned events describe the transition (turn change, possibly preceded by
// final-round entry).
func (g *GameState) advanceTurn() []Event {
	if g.allTurnsCompleted() {
		return g.enterFinalRound()
	}

	ordered := g.playersInOrder()
	start := 0
	for i, p := range ordered {
		if p.ID == g.ActivePlayer {
			start = i + 1
			break
		}
	}
	for i := 0; i < len(ordered); i++ {
		p := ordered[(start+i)%len(ordered)]
		if !p.HasCompletedTurn {
			g.ActivePlayer = p.ID
			return []Event{{Type: EventTurnChanged, Active: p.ID}}
		}
	}
	// Unreachable: allTurnsCompleted was false above.
	return g.enterFinalRound()
}

// enterFinalRound flips the final-round flag and hands the decisive extra
// turn to the player who went first. If that player was removed during the
// ordinary round, the extra turn falls to the earliest remaining player in
// order, so the active player always points at a live player.
func (g *GameState) enterFinalRound() []Event {
	g.FinalRound = true
	g.RoundIndex++
	if g.PlayerByID(g.FirstPlayer) == nil {
		g.FirstPlayer = g.playersInOrder()[0].ID
	}
	g.ActivePlayer = g.FirstPlayer
	return []Event{
		{Type: EventFinalRoundStarted, Active: g.FirstPlayer},
		{Type: EventTurnChanged, Active: g.FirstPlayer},
	}
}

// advanceAfterRemoval re-seats the active player after the current active
// player was removed: the next remaining player with an incomplete turn,
// scanning in OrderIndex order past the removed player's slot, falling back
// to the first remaining player when every turn is complete. Exactly one
// player stays active whenever the phase is active.
func (g *GameState) advanceAfterRemoval(removedOrderIndex int) []Event {
	ordered := g.playersInOrder()
	if len(ordered) == 0 {
		return nil
	}
	start := 0
	for i, p := range ordered {
		if p.OrderIndex > removedOrderIndex {
			start = i
			break
		}
	}
	for i := 0; i < len(ordered); i++ {
		p := ordered[(start+i)%len(ordered)]
		if !p.HasCompletedTurn {
			g.ActivePlayer = p.ID
			return []Event{{Type: EventTurnChanged, Active: p.ID}}
		}
	}
	first := ordered[0]
	g.ActivePlayer = first.ID
	return []Event{{Type: EventTurnChanged, Active: first.ID}}
}
