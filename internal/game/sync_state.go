package game

import (
	"sort"

	"github.com/google/uuid"

	"github.com/nicrpayne/white-elephant-sub000/engine"
)

// PlayerView is the client-visible form of one player.
type PlayerView struct {
	ID               uuid.UUID  `json:"id"`
	DisplayName      string     `json:"displayName"`
	OrderIndex       int        `json:"orderIndex"`
	CurrentGiftID    *uuid.UUID `json:"currentGiftId,omitempty"`
	IsAdmin          bool       `json:"isAdmin"`
	HasCompletedTurn bool       `json:"hasCompletedTurn"`
	AvatarSeed       string     `json:"avatarSeed,omitempty"`
}

// GiftView is the client-visible form of one gift. Name, image, link and
// description are withheld while the gift is hidden; clients see only the
// wrapped placeholder until a pick reveals it.
type GiftView struct {
	ID             uuid.UUID  `json:"id"`
	Status         string     `json:"status"`
	StealCount     int        `json:"stealCount"`
	StealsLeft     int        `json:"stealsLeft"`
	CurrentOwnerID *uuid.UUID `json:"currentOwnerId,omitempty"`
	Position       int        `json:"position"`
	Name           string     `json:"name,omitempty"`
	ImageURL       string     `json:"imageUrl,omitempty"`
	Link           *string    `json:"link,omitempty"`
	Description    *string    `json:"description,omitempty"`
}

// StateView is the full session snapshot broadcast to clients. It is derived
// from the engine state on every send, never cached, so any consumer applying
// it twice converges on the same picture.
type StateView struct {
	SessionID      uuid.UUID    `json:"sessionId"`
	SessionCode    string       `json:"sessionCode"`
	GameStatus     string       `json:"gameStatus"`
	ActivePlayerID *uuid.UUID   `json:"activePlayerId,omitempty"`
	RoundIndex     int          `json:"roundIndex"`
	IsFinalRound   bool         `json:"isFinalRound"`
	Players        []PlayerView `json:"players"`
	Gifts          []GiftView   `json:"gifts"`
	HiddenGifts    int          `json:"hiddenGifts"`
}

// BuildStateView renders the current state for clients. Caller holds g.Mu.
func (g *ExchangeGame) BuildStateView() *StateView {
	v := &StateView{
		SessionID:      g.Session.ID,
		SessionCode:    g.State.Code,
		GameStatus:     string(g.State.Phase),
		ActivePlayerID: playerUUID(g.State.ActivePlayer),
		RoundIndex:     g.State.RoundIndex,
		IsFinalRound:   g.State.FinalRound,
		HiddenGifts:    g.State.HiddenGiftCount(),
	}
	for i := range g.State.Players {
		ep := &g.State.Players[i]
		pid := playerUUID(ep.ID)
		if pid == nil {
			continue
		}
		pv := PlayerView{
			ID:               *pid,
			DisplayName:      ep.Name,
			OrderIndex:       ep.OrderIndex,
			CurrentGiftID:    giftUUID(ep.CurrentGift),
			IsAdmin:          ep.IsAdmin,
			HasCompletedTurn: ep.HasCompletedTurn,
		}
		if row, ok := g.Players[*pid]; ok {
			pv.AvatarSeed = row.AvatarSeed
		}
		v.Players = append(v.Players, pv)
	}
	sort.Slice(v.Players, func(i, j int) bool {
		return v.Players[i].OrderIndex < v.Players[j].OrderIndex
	})

	for i := range g.State.Gifts {
		v.Gifts = append(v.Gifts, g.giftView(&g.State.Gifts[i]))
	}
	sort.Slice(v.Gifts, func(i, j int) bool {
		return v.Gifts[i].Position < v.Gifts[j].Position
	})
	return v
}

// giftView renders one gift, withholding presentation data while hidden.
func (g *ExchangeGame) giftView(eg *engine.Gift) GiftView {
	gid := giftUUID(eg.ID)
	gv := GiftView{
		Status:         string(eg.Status),
		StealCount:     eg.StealCount,
		CurrentOwnerID: playerUUID(eg.Owner),
		Position:       eg.Position,
	}
	if gid != nil {
		gv.ID = *gid
	}
	if left := g.State.Config.MaxStealsPerGift - eg.StealCount; left > 0 {
		gv.StealsLeft = left
	}
	if eg.Status == engine.GiftHidden {
		return gv
	}
	if gid != nil {
		if row, ok := g.Gifts[*gid]; ok {
			gv.Name = row.Name
			gv.ImageURL = row.ImageURL
			gv.Link = row.Link
			gv.Description = row.Description
		}
	}
	return gv
}
