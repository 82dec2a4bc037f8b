package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nicrpayne/white-elephant-sub000/engine"
)

// Session is the persisted record for one game instance.
type Session struct {
	ID             uuid.UUID  `json:"id"`
	SessionCode    string     `json:"session_code"` // 8 chars, unique
	GameStatus     string     `json:"game_status"`  // setup|lobby|active|paused|ended
	ActivePlayerID *uuid.UUID `json:"active_player_id"`
	FirstPlayerID  *uuid.UUID `json:"first_player_id"`
	RoundIndex     int        `json:"round_index"`
	IsFinalRound   bool       `json:"is_final_round"`

	MaxStealsPerGift        int  `json:"max_steals_per_gift"`
	RandomizeOrder          bool `json:"randomize_order"`
	AllowImmediateStealback bool `json:"allow_immediate_stealback"`
	TurnTimerEnabled        bool `json:"turn_timer_enabled"`
	TurnTimerSeconds        int  `json:"turn_timer_seconds"`

	CreatedAt time.Time `json:"created_at"`
}

// Config extracts the engine rule settings from the session record.
func (s *Session) Config() engine.Config {
	return engine.Config{
		MaxStealsPerGift:        s.MaxStealsPerGift,
		RandomizeOrder:          s.RandomizeOrder,
		AllowImmediateStealback: s.AllowImmediateStealback,
		TurnTimerEnabled:        s.TurnTimerEnabled,
		TurnTimerSeconds:        s.TurnTimerSeconds,
	}
}
