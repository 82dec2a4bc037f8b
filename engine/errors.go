package engine

import "errors"

// Precondition violations. All are hard checks: a failed operation performs
// no state mutation, and none of these are retriable.
var (
	ErrWrongPhase         = errors.New("operation not allowed in current phase")
	ErrNotYourTurn        = errors.New("actor is not the active player")
	ErrTurnAlreadyTaken   = errors.New("actor has already completed their turn this round")
	ErrNotEnoughPlayers   = errors.New("at least two players required to start")
	ErrNotFinalRound      = errors.New("keep is only allowed during the final round")
	ErrGiftNotHidden      = errors.New("gift has already been revealed")
	ErrGiftHidden         = errors.New("gift has not been revealed yet")
	ErrGiftLocked         = errors.New("gift has reached its steal limit and is locked")
	ErrAlreadyOwned       = errors.New("actor already owns this gift")
	ErrStealBackForbidden = errors.New("cannot immediately steal back from the player who just stole from you")
	ErrPlayerNotFound     = errors.New("player not found in session")
	ErrGiftNotFound       = errors.New("gift not found in session")
	ErrDuplicatePlayer    = errors.New("player already in session")
	ErrDuplicateGift      = errors.New("gift already in session")
)
