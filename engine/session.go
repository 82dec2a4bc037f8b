package engine

import "fmt"

// Session lifecycle: setup → lobby → active → ended, with paused reachable
// from and returning to active. This file is the only place the Phase field
// changes outside of the final-round endings in actions.go.

// OpenLobby moves a freshly created session from setup to lobby, allowing
// players to join.
func (g *GameState) OpenLobby() ([]Event, error) {
	if g.Phase != PhaseSetup {
		return nil, fmt.Errorf("open lobby in phase %s: %w", g.Phase, ErrWrongPhase)
	}
	g.Phase = PhaseLobby
	return []Event{{Type: EventLobbyOpened}}, nil
}

// AddPlayer joins a player to the session. Joins are accepted only while the
// session is in the lobby; OrderIndex is assigned in join order and becomes
// immutable once the game starts (modulo the optional shuffle in StartGame).
func (g *GameState) AddPlayer(id PlayerID, name string) ([]Event, error) {
	if g.Phase != PhaseLobby {
		return nil, fmt.Errorf("join in phase %s: %w", g.Phase, ErrWrongPhase)
	}
	if g.PlayerByID(id) != nil {
		return nil, fmt.Errorf("join %s: %w", id, ErrDuplicatePlayer)
	}
	next := 0
	for i := range g.Players {
		if g.Players[i].OrderIndex >= next {
			next = g.Players[i].OrderIndex + 1
		}
	}
	g.Players = append(g.Players, Player{
		ID:         id,
		Name:       name,
		OrderIndex: next,
	})
	return []Event{{Type: EventPlayerJoined, Player: id}}, nil
}

// AddGift registers a hidden gift in the pool. Gifts can be added while the
// session is being set up or while players are gathering in the lobby.
func (g *GameState) AddGift(id GiftID) ([]Event, error) {
	if g.Phase != PhaseSetup && g.Phase != PhaseLobby {
		return nil, fmt.Errorf("add gift in phase %s: %w", g.Phase, ErrWrongPhase)
	}
	if g.GiftByID(id) != nil {
		return nil, fmt.Errorf("add gift %s: %w", id, ErrDuplicateGift)
	}
	g.Gifts = append(g.Gifts, Gift{
		ID:       id,
		Status:   GiftHidden,
		Position: len(g.Gifts),
	})
	return []Event{{Type: EventGiftAdded, Gift: id}}, nil
}

// StartGame begins play. Requires at least two players. Order is either join
// order or a Fisher-Yates shuffle across all players, per config; the
// resulting first player becomes both the active player and the recorded
// FirstPlayer used to re-enter the final round.
func (g *GameState) StartGame() ([]Event, error) {
	if g.Phase != PhaseLobby {
		return nil, fmt.Errorf("start in phase %s: %w", g.Phase, ErrWrongPhase)
	}
	if len(g.Players) < 2 {
		return nil, fmt.Errorf("start with %d players: %w", len(g.Players), ErrNotEnoughPlayers)
	}

	if g.Config.RandomizeOrder {
		g.shuffleOrder()
	}

	var first *Player
	for i := range g.Players {
		p := &g.Players[i]
		p.HasCompletedTurn = false
		if first == nil || p.OrderIndex < first.OrderIndex {
			first = p
		}
	}

	g.Phase = PhaseActive
	g.FinalRound = false
	g.RoundIndex = 0
	g.ActivePlayer = first.ID
	g.FirstPlayer = first.ID

	return []Event{
		{Type: EventGameStarted, Active: first.ID},
		{Type: EventTurnChanged, Active: first.ID},
	}, nil
}

// shuffleOrder reassigns OrderIndex via Fisher-Yates over 0..n-1.
func (g *GameState) shuffleOrder() {
	n := len(g.Players)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := int(g.randN(uint64(i + 1)))
		perm[i], perm[j] = perm[j], perm[i]
	}
	for i := range g.Players {
		g.Players[i].OrderIndex = perm[i]
	}
}

// Pause suspends an active game.
func (g *GameState) Pause() ([]Event, error) {
	if g.Phase != PhaseActive {
		return nil, fmt.Errorf("pause in phase %s: %w", g.Phase, ErrWrongPhase)
	}
	g.Phase = PhasePaused
	return []Event{{Type: EventGamePaused}}, nil
}

// Resume returns a paused game to active play.
func (g *GameState) Resume() ([]Event, error) {
	if g.Phase != PhasePaused {
		return nil, fmt.Errorf("resume in phase %s: %w", g.Phase, ErrWrongPhase)
	}
	g.Phase = PhaseActive
	return []Event{{Type: EventGameResumed}}, nil
}

// EndGame ends the session by admin action, regardless of round state.
func (g *GameState) EndGame() ([]Event, error) {
	if g.Phase != PhaseActive && g.Phase != PhasePaused {
		return nil, fmt.Errorf("end in phase %s: %w", g.Phase, ErrWrongPhase)
	}
	g.Phase = PhaseEnded
	g.ActivePlayer = NoPlayer
	g.FinalRound = false
	return []Event{{Type: EventGameEnded}}, nil
}

// RemovePlayer deletes a player from the session. Any gift they owned is
// released back into the stealable pool unowned. If the removed player was
// active during play, the turn advances so that exactly one player remains
// active; removing the last player ends the game.
func (g *GameState) RemovePlayer(playerID PlayerID) ([]Event, error) {
	idx := -1
	for i := range g.Players {
		if g.Players[i].ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("remove %s: %w", playerID, ErrPlayerNotFound)
	}
	removed := g.Players[idx]

	events := []Event{{Type: EventPlayerRemoved, Player: playerID, Gift: removed.CurrentGift}}

	if removed.CurrentGift != NoGift {
		if err := g.release(removed.CurrentGift); err != nil {
			return nil, err
		}
	}
	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)

	if g.Phase == PhaseActive {
		if len(g.Players) == 0 {
			g.Phase = PhaseEnded
			g.ActivePlayer = NoPlayer
			g.FinalRound = false
			return append(events, Event{Type: EventGameEnded}), nil
		}
		if g.ActivePlayer == playerID {
			events = append(events, g.advanceAfterRemoval(removed.OrderIndex)...)
		}
	}
	return events, nil
}
