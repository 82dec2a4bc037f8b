package models

import "github.com/google/uuid"

// Gift is the persisted record for one item in the exchange pool. Name,
// image, link and description are presentation data the rule engine never
// interprets; they stay hidden from clients until the gift is revealed.
type Gift struct {
	ID             uuid.UUID  `json:"id"`
	SessionID      uuid.UUID  `json:"session_id"`
	Name           string     `json:"name"`
	ImageURL       string     `json:"image_url"`
	Link           *string    `json:"link"`
	Description    *string    `json:"description"`
	Status         string     `json:"status"` // hidden|revealed|locked
	StealCount     int        `json:"steal_count"`
	CurrentOwnerID *uuid.UUID `json:"current_owner_id"`
	Position       *int       `json:"position"`
}
