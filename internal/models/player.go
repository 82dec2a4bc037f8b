package models

import (
	"time"

	"github.com/google/uuid"
)

// Player is the persisted record for one participant. OrderIndex is unique
// within a session and defines the turn sequence.
type Player struct {
	ID               uuid.UUID  `json:"id"`
	SessionID        uuid.UUID  `json:"session_id"`
	DisplayName      string     `json:"display_name"`
	OrderIndex       int        `json:"order_index"`
	CurrentGiftID    *uuid.UUID `json:"current_gift_id"`
	IsAdmin          bool       `json:"is_admin"`
	HasCompletedTurn bool       `json:"has_completed_turn"`
	AvatarSeed       string     `json:"avatar_seed"`
	JoinedAt         time.Time  `json:"joined_at"`
}
