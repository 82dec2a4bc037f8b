package engine

import "fmt"

// Gift ownership ledger. These are the only code paths that mutate a gift's
// status, owner, or steal count. Callers hold responsibility for phase and
// turn preconditions; the ledger enforces gift-level invariants.

// reveal assigns a hidden gift to its first owner. StealCount stays 0.
func (g *GameState) reveal(giftID GiftID, ownerID PlayerID) error {
	gift := g.GiftByID(giftID)
	if gift == nil {
		return fmt.Errorf("reveal %s: %w", giftID, ErrGiftNotFound)
	}
	switch gift.Status {
	case GiftHidden:
	case GiftLocked:
		return fmt.Errorf("reveal %s: %w", giftID, ErrGiftLocked)
	default:
		return fmt.Errorf("reveal %s: %w", giftID, ErrGiftNotHidden)
	}
	gift.Status = GiftRevealed
	gift.Owner = ownerID
	return nil
}

// transfer moves a revealed gift to a new owner and increments its steal
// count. Reaching the steal ceiling locks the gift permanently: no further
// transfer or reveal is accepted for it.
func (g *GameState) transfer(giftID GiftID, newOwnerID PlayerID) error {
	gift := g.GiftByID(giftID)
	if gift == nil {
		return fmt.Errorf("transfer %s: %w", giftID, ErrGiftNotFound)
	}
	switch gift.Status {
	case GiftRevealed:
	case GiftLocked:
		return fmt.Errorf("transfer %s: %w", giftID, ErrGiftLocked)
	default:
		return fmt.Errorf("transfer %s: %w", giftID, ErrGiftHidden)
	}
	if gift.StealCount >= g.Config.MaxStealsPerGift {
		// StealCount at ceiling without the locked status should not occur,
		// but the ceiling is the invariant that matters.
		gift.Status = GiftLocked
		return fmt.Errorf("transfer %s: %w", giftID, ErrGiftLocked)
	}
	gift.Owner = newOwnerID
	gift.StealCount++
	if gift.StealCount >= g.Config.MaxStealsPerGift {
		gift.Status = GiftLocked
	}
	return nil
}

// release detaches a gift from a removed player. A revealed gift re-enters
// the stealable pool unowned rather than returning to hidden; its steal
// count is unchanged. Locked gifts stay locked and keep no owner.
func (g *GameState) release(giftID GiftID) error {
	gift := g.GiftByID(giftID)
	if gift == nil {
		return fmt.Errorf("release %s: %w", giftID, ErrGiftNotFound)
	}
	gift.Owner = NoPlayer
	return nil
}
