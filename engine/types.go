package engine

// PlayerID identifies a player within a session. The service layer maps these
// to persisted UUIDs; the engine treats them as opaque.
type PlayerID string

// GiftID identifies a gift within a session.
type GiftID string

// NoPlayer and NoGift are the zero values for the ID types.
const (
	NoPlayer PlayerID = ""
	NoGift   GiftID   = ""
)

// Phase is the session-level lifecycle state.
type Phase string

const (
	PhaseSetup  Phase = "setup"
	PhaseLobby  Phase = "lobby"
	PhaseActive Phase = "active"
	PhasePaused Phase = "paused"
	PhaseEnded  Phase = "ended"
)

// GiftStatus is the visibility/ownership state of a gift.
//
// A "stolen" value exists in the persisted schema for display purposes but is
// not a distinct machine state: it means revealed with StealCount > 0.
type GiftStatus string

const (
	GiftHidden   GiftStatus = "hidden"
	GiftRevealed GiftStatus = "revealed"
	GiftLocked   GiftStatus = "locked"
)

// ActionType is the kind of a recorded action.
type ActionType string

const (
	ActionPick  ActionType = "pick"
	ActionSteal ActionType = "steal"
)

// EventType identifies a domain event emitted by the engine. All consumers
// (broadcast, sound, logging, export) subscribe to this one event stream.
type EventType string

const (
	EventLobbyOpened       EventType = "lobby_opened"
	EventPlayerJoined      EventType = "player_joined"
	EventPlayerRemoved     EventType = "player_removed"
	EventGiftAdded         EventType = "gift_added"
	EventGameStarted       EventType = "game_started"
	EventTurnChanged       EventType = "turn_changed"
	EventGiftPicked        EventType = "gift_picked"
	EventGiftStolen        EventType = "gift_stolen"
	EventFinalRoundStarted EventType = "final_round_started"
	EventGamePaused        EventType = "game_paused"
	EventGameResumed       EventType = "game_resumed"
	EventGameEnded         EventType = "game_ended"
)

// Event is a single domain event. Fields are populated as relevant to Type:
// Active carries the new active player for EventTurnChanged and
// EventFinalRoundStarted; PrevOwner carries the steal victim for
// EventGiftStolen.
type Event struct {
	Type      EventType
	Player    PlayerID
	Gift      GiftID
	PrevOwner PlayerID
	Active    PlayerID
}
