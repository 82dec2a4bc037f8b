package engine

// Config holds the per-session rule settings, fixed at session creation.
type Config struct {
	MaxStealsPerGift        int  // steal ceiling before a gift locks
	RandomizeOrder          bool // shuffle turn order at game start
	AllowImmediateStealback bool // permit re-stealing from the player who just stole from you
	TurnTimerEnabled        bool // advisory turn timer (not enforced by the engine)
	TurnTimerSeconds        int
}

// DefaultConfig returns the standard White Elephant rule settings.
func DefaultConfig() Config {
	return Config{
		MaxStealsPerGift:        2,
		RandomizeOrder:          false,
		AllowImmediateStealback: false,
		TurnTimerEnabled:        false,
		TurnTimerSeconds:        60,
	}
}
