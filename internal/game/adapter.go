// adapter.go: bridge between engine.GameState and the persisted records.
package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/nicrpayne/white-elephant-sub000/engine"
	"github.com/nicrpayne/white-elephant-sub000/internal/database"
	"github.com/nicrpayne/white-elephant-sub000/internal/models"
)

// playerUUID converts an engine player ID back to a nullable UUID.
func playerUUID(id engine.PlayerID) *uuid.UUID {
	if id == engine.NoPlayer {
		return nil
	}
	u, err := uuid.Parse(string(id))
	if err != nil {
		return nil
	}
	return &u
}

// giftUUID converts an engine gift ID back to a nullable UUID.
func giftUUID(id engine.GiftID) *uuid.UUID {
	if id == engine.NoGift {
		return nil
	}
	u, err := uuid.Parse(string(id))
	if err != nil {
		return nil
	}
	return &u
}

// sessionRow syncs the session record from the authoritative engine state.
func (g *ExchangeGame) sessionRow() *models.Session {
	s := g.Session
	s.GameStatus = string(g.State.Phase)
	s.ActivePlayerID = playerUUID(g.State.ActivePlayer)
	s.FirstPlayerID = playerUUID(g.State.FirstPlayer)
	s.RoundIndex = g.State.RoundIndex
	s.IsFinalRound = g.State.FinalRound
	return s
}

// playerRow syncs one player record from engine state. Returns nil for
// players the engine no longer knows (just removed).
func (g *ExchangeGame) playerRow(id uuid.UUID) *models.Player {
	ep := g.State.PlayerByID(engine.PlayerID(id.String()))
	row, ok := g.Players[id]
	if ep == nil || !ok {
		return nil
	}
	row.OrderIndex = ep.OrderIndex
	row.CurrentGiftID = giftUUID(ep.CurrentGift)
	row.HasCompletedTurn = ep.HasCompletedTurn
	return row
}

// giftRow syncs one gift record from engine state.
func (g *ExchangeGame) giftRow(id uuid.UUID) *models.Gift {
	eg := g.State.GiftByID(engine.GiftID(id.String()))
	row, ok := g.Gifts[id]
	if eg == nil || !ok {
		return nil
	}
	row.Status = string(eg.Status)
	row.StealCount = eg.StealCount
	row.CurrentOwnerID = playerUUID(eg.Owner)
	pos := eg.Position
	row.Position = &pos
	return row
}

// buildTurnWrite assembles the atomic commit for one engine action: the
// session row plus every player and gift the emitted events touched, the
// appended action record for picks and steals, and the player deletion for
// removals.
func (g *ExchangeGame) buildTurnWrite(events []engine.Event) database.TurnWrite {
	w := database.TurnWrite{Session: g.sessionRow()}

	playerIDs := make(map[uuid.UUID]bool)
	giftIDs := make(map[uuid.UUID]bool)
	addPlayer := func(id engine.PlayerID) {
		if u := playerUUID(id); u != nil {
			playerIDs[*u] = true
		}
	}
	addGift := func(id engine.GiftID) {
		if u := giftUUID(id); u != nil {
			giftIDs[*u] = true
		}
	}

	for _, ev := range events {
		addPlayer(ev.Player)
		addPlayer(ev.PrevOwner)
		addPlayer(ev.Active)
		addGift(ev.Gift)

		switch ev.Type {
		case engine.EventGameStarted:
			// Order may have been shuffled; every player row changes.
			for pid := range g.Players {
				playerIDs[pid] = true
			}
		case engine.EventGiftStolen:
			// A final-round swap also moves the actor's prior gift, now
			// held by the victim.
			if victim := g.State.PlayerByID(ev.PrevOwner); victim != nil {
				addGift(victim.CurrentGift)
			}
		case engine.EventGameEnded:
			// Game over writes the whole board: a chain-ending pick can
			// release a gift no event names, so every row is reconciled.
			for pid := range g.Players {
				playerIDs[pid] = true
			}
			for gid := range g.Gifts {
				giftIDs[gid] = true
			}
		case engine.EventPlayerRemoved:
			if u := playerUUID(ev.Player); u != nil {
				delete(playerIDs, *u)
				w.RemovePlayerID = u
			}
		}
	}

	for pid := range playerIDs {
		if row := g.playerRow(pid); row != nil {
			w.Players = append(w.Players, row)
		}
	}
	for gid := range giftIDs {
		if row := g.giftRow(gid); row != nil {
			w.Gifts = append(w.Gifts, row)
		}
	}

	if rec := lastActionRecord(events, &g.State); rec != nil {
		w.Action = &models.Action{
			ID:         uuid.New(),
			SessionID:  g.Session.ID,
			PlayerID:   *playerUUID(rec.Player),
			ActionType: string(rec.Type),
			GiftID:     *giftUUID(rec.Gift),
			CreatedAt:  time.Now().UTC(),
		}
		if prev := playerUUID(rec.PrevOwner); prev != nil {
			w.Action.PreviousOwnerID = prev
		}
	}
	return w
}

// lastActionRecord returns the history entry appended by this action, if the
// events include a pick or steal.
func lastActionRecord(events []engine.Event, st *engine.GameState) *engine.ActionRecord {
	for _, ev := range events {
		if ev.Type == engine.EventGiftPicked || ev.Type == engine.EventGiftStolen {
			if len(st.History) == 0 {
				return nil
			}
			return &st.History[len(st.History)-1]
		}
	}
	return nil
}

// stateFromRecords rebuilds the engine state from persisted rows, used when
// a session is restored after a service restart. The action history is
// replayed into the engine's append-only log so the steal-back rule keeps
// working across restarts.
func stateFromRecords(session *models.Session, players []*models.Player,
	gifts []*models.Gift, actions []*models.Action) engine.GameState {

	st := engine.GameState{
		Code:       session.SessionCode,
		Phase:      engine.Phase(session.GameStatus),
		Config:     session.Config(),
		RoundIndex: session.RoundIndex,
		FinalRound: session.IsFinalRound,
	}
	st.Seed(seedFromUUID(session.ID))
	if session.ActivePlayerID != nil {
		st.ActivePlayer = engine.PlayerID(session.ActivePlayerID.String())
	}
	if session.FirstPlayerID != nil {
		st.FirstPlayer = engine.PlayerID(session.FirstPlayerID.String())
	}
	for _, p := range players {
		ep := engine.Player{
			ID:               engine.PlayerID(p.ID.String()),
			Name:             p.DisplayName,
			OrderIndex:       p.OrderIndex,
			HasCompletedTurn: p.HasCompletedTurn,
			IsAdmin:          p.IsAdmin,
		}
		if p.CurrentGiftID != nil {
			ep.CurrentGift = engine.GiftID(p.CurrentGiftID.String())
		}
		st.Players = append(st.Players, ep)
	}
	for _, gi := range gifts {
		eg := engine.Gift{
			ID:         engine.GiftID(gi.ID.String()),
			Status:     engine.GiftStatus(gi.Status),
			StealCount: gi.StealCount,
		}
		if gi.CurrentOwnerID != nil {
			eg.Owner = engine.PlayerID(gi.CurrentOwnerID.String())
		}
		if gi.Position != nil {
			eg.Position = *gi.Position
		}
		st.Gifts = append(st.Gifts, eg)
	}
	for _, a := range actions {
		rec := engine.ActionRecord{
			Type:   engine.ActionType(a.ActionType),
			Player: engine.PlayerID(a.PlayerID.String()),
			Gift:   engine.GiftID(a.GiftID.String()),
		}
		if a.PreviousOwnerID != nil {
			rec.PrevOwner = engine.PlayerID(a.PreviousOwnerID.String())
		}
		st.History = append(st.History, rec)
	}
	return st
}
