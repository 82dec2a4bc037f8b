package engine

import "fmt"

// Player-facing operations: pick, steal, keep. All preconditions are hard
// checks: a failed call returns a typed error and performs no mutation.

// checkActor validates phase, turn ownership, and the per-round completion
// gate shared by pick and steal.
func (g *GameState) checkActor(actorID PlayerID) (*Player, error) {
	if g.Phase != PhaseActive {
		return nil, fmt.Errorf("act in phase %s: %w", g.Phase, ErrWrongPhase)
	}
	actor := g.PlayerByID(actorID)
	if actor == nil {
		return nil, fmt.Errorf("actor %s: %w", actorID, ErrPlayerNotFound)
	}
	if g.ActivePlayer != actorID {
		return nil, fmt.Errorf("actor %s: %w", actorID, ErrNotYourTurn)
	}
	// The completion gate is relaxed during the final round, where the chain
	// of steals can revisit players who already took their ordinary turn.
	if actor.HasCompletedTurn && !g.FinalRound {
		return nil, fmt.Errorf("actor %s: %w", actorID, ErrTurnAlreadyTaken)
	}
	return actor, nil
}

// PickGift claims a hidden gift for the active player. Outside the final
// round the turn then advances through the sequencer. During the final round
// a pick signals that the steal chain has stopped: the game ends immediately.
func (g *GameState) PickGift(giftID GiftID, actorID PlayerID) ([]Event, error) {
	actor, err := g.checkActor(actorID)
	if err != nil {
		return nil, err
	}
	if gift := g.GiftByID(giftID); gift == nil {
		return nil, fmt.Errorf("pick %s: %w", giftID, ErrGiftNotFound)
	}

	wasFinal := g.FinalRound
	if err := g.reveal(giftID, actorID); err != nil {
		return nil, err
	}
	if actor.CurrentGift != NoGift {
		// Final-round pick while holding a gift: the held gift returns to
		// the pool unowned so the ledger never shows one player owning two.
		if err := g.release(actor.CurrentGift); err != nil {
			return nil, err
		}
	}
	actor.CurrentGift = giftID
	actor.HasCompletedTurn = true
	g.History = append(g.History, ActionRecord{
		Type:   ActionPick,
		Player: actorID,
		Gift:   giftID,
	})

	events := []Event{{Type: EventGiftPicked, Player: actorID, Gift: giftID}}
	if wasFinal {
		g.Phase = PhaseEnded
		g.ActivePlayer = NoPlayer
		return append(events, Event{Type: EventGameEnded}), nil
	}
	return append(events, g.advanceTurn()...), nil
}

// StealGift takes a revealed gift from its current owner. The turn passes to
// the victim, not to the next player in order; stealing creates a reactive
// chain. During the final round the actor's prior gift is swapped to the
// victim so every player in the chain always holds exactly one gift.
func (g *GameState) StealGift(giftID GiftID, actorID PlayerID) ([]Event, error) {
	actor, err := g.checkActor(actorID)
	if err != nil {
		return nil, err
	}
	gift := g.GiftByID(giftID)
	if gift == nil {
		return nil, fmt.Errorf("steal %s: %w", giftID, ErrGiftNotFound)
	}
	switch gift.Status {
	case GiftRevealed:
	case GiftHidden:
		return nil, fmt.Errorf("steal %s: %w", giftID, ErrGiftHidden)
	default:
		return nil, fmt.Errorf("steal %s: %w", giftID, ErrGiftLocked)
	}
	if gift.Owner == actorID {
		return nil, fmt.Errorf("steal %s: %w", giftID, ErrAlreadyOwned)
	}
	if !g.Config.AllowImmediateStealback && g.wasJustStolenFrom(giftID, actorID) {
		return nil, fmt.Errorf("steal %s: %w", giftID, ErrStealBackForbidden)
	}

	wasFinal := g.FinalRound
	victimID := gift.Owner
	if err := g.transfer(giftID, actorID); err != nil {
		return nil, err
	}
	g.History = append(g.History, ActionRecord{
		Type:      ActionSteal,
		Player:    actorID,
		Gift:      giftID,
		PrevOwner: victimID,
	})

	priorGift := actor.CurrentGift
	actor.CurrentGift = giftID
	events := []Event{{Type: EventGiftStolen, Player: actorID, Gift: giftID, PrevOwner: victimID}}

	victim := g.PlayerByID(victimID)
	if victim == nil {
		// Unowned revealed gift (released when its holder was removed).
		// Claiming it behaves like a pick for turn purposes: there is no one
		// to hand the chain to, and any prior gift returns to the pool.
		if priorGift != NoGift {
			if err := g.release(priorGift); err != nil {
				return nil, err
			}
		}
		actor.HasCompletedTurn = true
		if wasFinal {
			g.Phase = PhaseEnded
			g.ActivePlayer = NoPlayer
			return append(events, Event{Type: EventGameEnded}), nil
		}
		return append(events, g.advanceTurn()...), nil
	}

	if priorGift != NoGift {
		// Final-round chain: swap the actor's prior gift to the victim
		// instead of leaving it ownerless. Not a steal against that gift, so
		// its steal count is untouched.
		victim.CurrentGift = priorGift
		if pg := g.GiftByID(priorGift); pg != nil {
			pg.Owner = victimID
		}
		g.ActivePlayer = victimID
		return append(events, Event{Type: EventTurnChanged, Active: victimID}), nil
	}

	actor.HasCompletedTurn = true
	if !wasFinal && g.allTurnsCompleted() {
		// The steal completed the last ordinary turn. The round is over
		// before the victim reset applies, so the victim keeps their
		// completion flag and the final round begins.
		victim.CurrentGift = NoGift
		return append(events, g.enterFinalRound()...), nil
	}

	victim.CurrentGift = NoGift
	victim.HasCompletedTurn = false
	g.ActivePlayer = victimID
	return append(events, Event{Type: EventTurnChanged, Active: victimID}), nil
}

// KeepGift is the final-round decline: the active player keeps what they
// hold and the game ends.
func (g *GameState) KeepGift(actorID PlayerID) ([]Event, error) {
	if g.Phase != PhaseActive {
		return nil, fmt.Errorf("keep in phase %s: %w", g.Phase, ErrWrongPhase)
	}
	if g.PlayerByID(actorID) == nil {
		return nil, fmt.Errorf("actor %s: %w", actorID, ErrPlayerNotFound)
	}
	if !g.FinalRound {
		return nil, fmt.Errorf("keep: %w", ErrNotFinalRound)
	}
	if g.ActivePlayer != actorID {
		return nil, fmt.Errorf("actor %s: %w", actorID, ErrNotYourTurn)
	}
	g.Phase = PhaseEnded
	g.ActivePlayer = NoPlayer
	g.FinalRound = false
	return []Event{{Type: EventGameEnded, Player: actorID}}, nil
}
