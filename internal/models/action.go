package models

import (
	"time"

	"github.com/google/uuid"
)

// Action is one entry in the append-only action log. Rows are never updated
// or deleted; PreviousOwnerID is a historical reference that survives player
// removal.
type Action struct {
	ID              uuid.UUID  `json:"id"`
	SessionID       uuid.UUID  `json:"session_id"`
	PlayerID        uuid.UUID  `json:"player_id"`
	ActionType      string     `json:"action_type"` // pick|steal
	GiftID          uuid.UUID  `json:"gift_id"`
	PreviousOwnerID *uuid.UUID `json:"previous_owner_id"`
	CreatedAt       time.Time  `json:"created_at"`
}
