// Package engine implements the White Elephant gift-exchange rules.
//
// The engine is a pure turn-state machine: a GameState value plus action
// methods that validate preconditions, mutate the state, and return the
// domain events the mutation produced. It performs no I/O and holds no
// references to the store or transport, which keeps every rule unit-testable
// in isolation. The service adapter owns persistence and broadcasting.
package engine

// Player is one participant in a session. OrderIndex defines the turn
// sequence and is immutable once the game starts.
type Player struct {
	ID               PlayerID
	Name             string
	OrderIndex       int
	CurrentGift      GiftID // NoGift when the player holds nothing
	HasCompletedTurn bool
	IsAdmin          bool
}

// Gift is one item in the exchange pool.
//
// Invariants: Status == GiftHidden implies Owner == NoPlayer, and
// Status == GiftLocked implies StealCount >= Config.MaxStealsPerGift with
// ownership permanently frozen.
type Gift struct {
	ID         GiftID
	Status     GiftStatus
	Owner      PlayerID
	StealCount int
	Position   int
}

// ActionRecord is one entry in the append-only action history. Records are
// never updated or deleted; they are the sole source of truth for the
// steal-back rule and for audit.
type ActionRecord struct {
	Type      ActionType
	Player    PlayerID
	Gift      GiftID
	PrevOwner PlayerID // NoPlayer for picks
}

// GameState is the complete, self-contained state of one session. It is a
// plain value: Clone yields an independent snapshot, so callers can restore
// the pre-action state when a downstream commit fails.
type GameState struct {
	Code         string
	Phase        Phase
	Config       Config
	Players      []Player
	Gifts        []Gift
	History      []ActionRecord
	ActivePlayer PlayerID
	FirstPlayer  PlayerID // recorded once at game start; re-activated for the final round
	RoundIndex   int
	FinalRound   bool

	rng uint64
}

// NewGame creates a session in the setup phase with its admin as the first
// player. Exactly one admin exists per session, set here and never reassigned.
func NewGame(code string, adminID PlayerID, adminName string, cfg Config, seed uint64) GameState {
	g := GameState{
		Code:   code,
		Phase:  PhaseSetup,
		Config: cfg,
		rng:    seed,
	}
	if g.rng == 0 {
		g.rng = 1 // xorshift can't start at 0
	}
	g.Players = append(g.Players, Player{
		ID:         adminID,
		Name:       adminName,
		OrderIndex: 0,
		IsAdmin:    true,
	})
	return g
}

// Seed replaces the internal random state, applying the same zero guard as
// NewGame. Used when a session is rebuilt from persisted rows, which bypass
// the constructor.
func (g *GameState) Seed(seed uint64) {
	g.rng = seed
	if g.rng == 0 {
		g.rng = 1
	}
}

// nextRand is an inline xorshift64 step.
func (g *GameState) nextRand() uint64 {
	x := g.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	g.rng = x
	return x
}

// randN returns a random number in [0, n).
func (g *GameState) randN(n uint64) uint64 {
	return g.nextRand() % n
}

// Clone returns a deep copy of the state, independent of the receiver.
func (g *GameState) Clone() GameState {
	c := *g
	c.Players = append([]Player(nil), g.Players...)
	c.Gifts = append([]Gift(nil), g.Gifts...)
	c.History = append([]ActionRecord(nil), g.History...)
	return c
}

// PlayerByID returns a pointer into the Players slice, or nil.
func (g *GameState) PlayerByID(id PlayerID) *Player {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i]
		}
	}
	return nil
}

// GiftByID returns a pointer into the Gifts slice, or nil.
func (g *GameState) GiftByID(id GiftID) *Gift {
	for i := range g.Gifts {
		if g.Gifts[i].ID == id {
			return &g.Gifts[i]
		}
	}
	return nil
}

// Admin returns the session's admin player, or nil if it was removed.
func (g *GameState) Admin() *Player {
	for i := range g.Players {
		if g.Players[i].IsAdmin {
			return &g.Players[i]
		}
	}
	return nil
}

// HiddenGiftCount returns how many gifts are still unrevealed.
func (g *GameState) HiddenGiftCount() int {
	n := 0
	for i := range g.Gifts {
		if g.Gifts[i].Status == GiftHidden {
			n++
		}
	}
	return n
}

// wasJustStolenFrom reports whether the single most recent steal of the given
// gift took it from candidate. Older steal history for the same gift does not
// block later non-adjacent re-steals; this is a point-in-time check against
// the last steal only.
func (g *GameState) wasJustStolenFrom(gift GiftID, candidate PlayerID) bool {
	for i := len(g.History) - 1; i >= 0; i-- {
		rec := g.History[i]
		if rec.Gift != gift || rec.Type != ActionSteal {
			continue
		}
		return rec.PrevOwner == candidate
	}
	return false
}

// allTurnsCompleted reports whether every player has completed a turn this
// round.
func (g *GameState) allTurnsCompleted() bool {
	for i := range g.Players {
		if !g.Players[i].HasCompletedTurn {
			return false
		}
	}
	return true
}
