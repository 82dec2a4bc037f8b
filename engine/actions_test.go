package engine

import (
	"errors"
	"testing"
)

func TestPickPreconditions(t *testing.T) {
	g := newActiveGame(t, 3, 3, DefaultConfig())

	if _, err := g.PickGift("g1", "p2"); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("pick by non-active err = %v, want ErrNotYourTurn", err)
	}
	if _, err := g.PickGift("missing", "p1"); !errors.Is(err, ErrGiftNotFound) {
		t.Errorf("pick unknown gift err = %v, want ErrGiftNotFound", err)
	}
	if _, err := g.PickGift("g1", "ghost"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("pick by unknown player err = %v, want ErrPlayerNotFound", err)
	}

	if _, err := g.PickGift("g1", "p1"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if _, err := g.PickGift("g1", "p2"); !errors.Is(err, ErrGiftNotHidden) {
		t.Errorf("pick revealed gift err = %v, want ErrGiftNotHidden", err)
	}
}

func TestPickRevealsAndAdvances(t *testing.T) {
	g := newActiveGame(t, 3, 3, DefaultConfig())
	events, err := g.PickGift("g1", "p1")
	if err != nil {
		t.Fatalf("pick: %v", err)
	}

	gift := g.GiftByID("g1")
	if gift.Status != GiftRevealed || gift.Owner != "p1" || gift.StealCount != 0 {
		t.Errorf("gift = %+v, want revealed/p1/0 steals", gift)
	}
	p1 := g.PlayerByID("p1")
	if p1.CurrentGift != "g1" || !p1.HasCompletedTurn {
		t.Errorf("p1 = %+v, want g1 held and turn complete", p1)
	}
	if g.ActivePlayer != "p2" {
		t.Errorf("ActivePlayer = %s, want p2", g.ActivePlayer)
	}
	if len(g.History) != 1 || g.History[0].Type != ActionPick || g.History[0].PrevOwner != NoPlayer {
		t.Errorf("history = %+v, want single pick with no previous owner", g.History)
	}
	if events[0].Type != EventGiftPicked || events[len(events)-1].Type != EventTurnChanged {
		t.Errorf("events = %+v, want gift_picked then turn_changed", events)
	}
}

func TestStealPreconditions(t *testing.T) {
	g := newActiveGame(t, 3, 3, DefaultConfig())

	if _, err := g.StealGift("g1", "p1"); !errors.Is(err, ErrGiftHidden) {
		t.Errorf("steal hidden gift err = %v, want ErrGiftHidden", err)
	}

	if _, err := g.PickGift("g1", "p1"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if _, err := g.StealGift("g1", "p3"); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("steal out of turn err = %v, want ErrNotYourTurn", err)
	}

	// p2 steals g1, turn chains to victim p1 (p3 still to play).
	if _, err := g.StealGift("g1", "p2"); err != nil {
		t.Fatalf("steal: %v", err)
	}
	if _, err := g.StealGift("g1", "p1"); !errors.Is(err, ErrStealBackForbidden) {
		t.Errorf("immediate steal-back err = %v, want ErrStealBackForbidden", err)
	}
}

func TestStealOwnGiftRejected(t *testing.T) {
	g := newActiveGame(t, 3, 3, DefaultConfig())
	if _, err := g.PickGift("g1", "p1"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if _, err := g.StealGift("g1", "p2"); err != nil {
		t.Fatalf("steal: %v", err)
	}
	// Chain handed to p1; p1 now owns nothing, g1 belongs to p2.
	if _, err := g.PickGift("g2", "p1"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	// p3's turn; p3 picks then nothing; instead check self-steal via p2's
	// final-round turn below is out of scope here. Steal own gift directly:
	g2 := g.GiftByID("g2")
	if g2.Owner != "p1" {
		t.Fatalf("g2 owner = %s, want p1", g2.Owner)
	}
	if _, err := g.StealGift("g3", "p3"); !errors.Is(err, ErrGiftHidden) {
		t.Fatalf("unexpected: %v", err)
	}
	if _, err := g.PickGift("g3", "p3"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	// Final round: p1 active, owns g2. Stealing g2 is a self-steal.
	if !g.FinalRound {
		t.Fatal("expected final round after all turns complete")
	}
	if _, err := g.StealGift("g2", "p1"); !errors.Is(err, ErrAlreadyOwned) {
		t.Errorf("self steal err = %v, want ErrAlreadyOwned", err)
	}
}

func TestStealTurnPassesToVictim(t *testing.T) {
	g := newActiveGame(t, 4, 4, DefaultConfig())
	if _, err := g.PickGift("g1", "p1"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	events, err := g.StealGift("g1", "p2")
	if err != nil {
		t.Fatalf("steal: %v", err)
	}

	if g.ActivePlayer != "p1" {
		t.Errorf("ActivePlayer = %s, want victim p1 (not next-in-order p3)", g.ActivePlayer)
	}
	victim := g.PlayerByID("p1")
	if victim.CurrentGift != NoGift || victim.HasCompletedTurn {
		t.Errorf("victim = %+v, want giftless with turn flag reset", victim)
	}
	actor := g.PlayerByID("p2")
	if actor.CurrentGift != "g1" || !actor.HasCompletedTurn {
		t.Errorf("actor = %+v, want g1 held and turn complete", actor)
	}
	gift := g.GiftByID("g1")
	if gift.Owner != "p2" || gift.StealCount != 1 || gift.Status != GiftRevealed {
		t.Errorf("gift = %+v, want owner p2, 1 steal, revealed", gift)
	}
	last := events[len(events)-1]
	if last.Type != EventTurnChanged || last.Active != "p1" {
		t.Errorf("last event = %+v, want turn_changed to victim", last)
	}
}

func TestStealBackAllowedWhenConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowImmediateStealback = true
	cfg.MaxStealsPerGift = 5
	g := newActiveGame(t, 3, 3, cfg)
	if _, err := g.PickGift("g1", "p1"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if _, err := g.StealGift("g1", "p2"); err != nil {
		t.Fatalf("steal: %v", err)
	}
	if _, err := g.StealGift("g1", "p1"); err != nil {
		t.Errorf("steal-back with allowImmediateStealback: %v", err)
	}
}

func TestStealOfReleasedGiftActsLikePick(t *testing.T) {
	g := newActiveGame(t, 3, 3, DefaultConfig())
	if _, err := g.PickGift("g1", "p1"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if _, err := g.RemovePlayer("p1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	gift := g.GiftByID("g1")
	if gift.Status != GiftRevealed || gift.Owner != NoPlayer {
		t.Fatalf("released gift = %+v, want revealed/unowned", gift)
	}

	// p2 claims the unowned gift: no victim, so the turn advances in order.
	if _, err := g.StealGift("g1", "p2"); err != nil {
		t.Fatalf("claim released gift: %v", err)
	}
	if g.ActivePlayer != "p3" {
		t.Errorf("ActivePlayer = %s, want p3", g.ActivePlayer)
	}
	if g.PlayerByID("p2").CurrentGift != "g1" {
		t.Error("p2 does not hold the claimed gift")
	}
}

func TestKeepOnlyInFinalRound(t *testing.T) {
	g := newActiveGame(t, 2, 2, DefaultConfig())
	if _, err := g.KeepGift("p1"); !errors.Is(err, ErrNotFinalRound) {
		t.Errorf("keep in ordinary round err = %v, want ErrNotFinalRound", err)
	}

	if _, err := g.PickGift("g1", "p1"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if _, err := g.PickGift("g2", "p2"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if !g.FinalRound {
		t.Fatal("expected final round")
	}
	if _, err := g.KeepGift("p2"); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("keep by non-active err = %v, want ErrNotYourTurn", err)
	}
	if _, err := g.KeepGift("p1"); err != nil {
		t.Fatalf("keep: %v", err)
	}
	if g.Phase != PhaseEnded || g.ActivePlayer != NoPlayer || g.FinalRound {
		t.Errorf("after keep: phase=%s active=%q final=%v, want ended/none/false",
			g.Phase, g.ActivePlayer, g.FinalRound)
	}
}

func TestFinalRoundPickEndsGame(t *testing.T) {
	g := newActiveGame(t, 2, 3, DefaultConfig())
	if _, err := g.PickGift("g1", "p1"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if _, err := g.PickGift("g2", "p2"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if !g.FinalRound || g.ActivePlayer != "p1" {
		t.Fatalf("final round active=%s final=%v, want p1/true", g.ActivePlayer, g.FinalRound)
	}

	events, err := g.PickGift("g3", "p1")
	if err != nil {
		t.Fatalf("final-round pick: %v", err)
	}
	if g.Phase != PhaseEnded || g.ActivePlayer != NoPlayer {
		t.Errorf("after final pick: phase=%s active=%q, want ended/none", g.Phase, g.ActivePlayer)
	}
	if events[len(events)-1].Type != EventGameEnded {
		t.Errorf("events = %+v, want game_ended last", events)
	}

	// p1 traded g1 for g3; the old gift goes back to the pool unowned
	// rather than leaving p1 on two ownership rows.
	if got := g.PlayerByID("p1").CurrentGift; got != "g3" {
		t.Errorf("p1 gift = %s, want g3", got)
	}
	if g1 := g.GiftByID("g1"); g1.Owner != NoPlayer || g1.Status != GiftRevealed {
		t.Errorf("g1 owner=%q status=%s, want unowned/revealed", g1.Owner, g1.Status)
	}
}

func TestFinalRoundStealSwapsGifts(t *testing.T) {
	g := newActiveGame(t, 2, 3, DefaultConfig())
	if _, err := g.PickGift("g1", "p1"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if _, err := g.PickGift("g2", "p2"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	// Final round: p1 (holding g1) steals g2 from p2. The gifts swap so both
	// players keep exactly one gift during the chain.
	if _, err := g.StealGift("g2", "p1"); err != nil {
		t.Fatalf("final-round steal: %v", err)
	}

	if got := g.PlayerByID("p1").CurrentGift; got != "g2" {
		t.Errorf("p1 gift = %s, want g2", got)
	}
	if got := g.PlayerByID("p2").CurrentGift; got != "g1" {
		t.Errorf("p2 gift = %s, want g1 (swapped back)", got)
	}
	if got := g.GiftByID("g1").Owner; got != "p2" {
		t.Errorf("g1 owner = %s, want p2", got)
	}
	if got := g.GiftByID("g1").StealCount; got != 0 {
		t.Errorf("g1 steal count = %d, want 0 (swap is not a steal)", got)
	}
	if g.ActivePlayer != "p2" {
		t.Errorf("ActivePlayer = %s, want victim p2", g.ActivePlayer)
	}
	if g.Phase != PhaseActive || !g.FinalRound {
		t.Errorf("phase=%s final=%v, want active chain to continue", g.Phase, g.FinalRound)
	}
}

func TestStealCountNeverExceedsCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowImmediateStealback = true
	cfg.MaxStealsPerGift = 2
	g := newActiveGame(t, 4, 4, cfg)

	if _, err := g.PickGift("g1", "p1"); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if _, err := g.StealGift("g1", "p2"); err != nil {
		t.Fatalf("first steal: %v", err)
	}
	// Victim p1 is active again; second steal locks the gift.
	if _, err := g.StealGift("g1", "p1"); err != nil {
		t.Fatalf("second steal: %v", err)
	}

	gift := g.GiftByID("g1")
	if gift.Status != GiftLocked || gift.StealCount != 2 {
		t.Fatalf("gift = %+v, want locked at 2 steals", gift)
	}

	// Third steal fails with GiftLocked regardless of actor.
	if _, err := g.StealGift("g1", "p2"); !errors.Is(err, ErrGiftLocked) {
		t.Errorf("steal of locked gift err = %v, want ErrGiftLocked", err)
	}
	if gift.StealCount != 2 {
		t.Errorf("steal count mutated to %d by failed steal", gift.StealCount)
	}
}
