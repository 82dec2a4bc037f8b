// Package game hosts the in-memory session orchestrator. It binds the pure
// rule engine to the store, the Redis change stream, and the websocket
// broadcast layer: every handler takes the session lock, applies one engine
// action, commits the touched rows in a single transaction, and only then
// fans the resulting events out to subscribers. A failed commit restores the
// pre-action snapshot so memory never runs ahead of the store.
package game

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nicrpayne/white-elephant-sub000/engine"
	"github.com/nicrpayne/white-elephant-sub000/internal/cache"
	"github.com/nicrpayne/white-elephant-sub000/internal/database"
	"github.com/nicrpayne/white-elephant-sub000/internal/models"
)

// ErrNotAdmin is returned when a non-admin player attempts an admin action.
var ErrNotAdmin = errors.New("player is not the session admin")

// InstanceID tags change-stream events with the publishing process so the
// relay on other instances can skip events that already went out locally.
var InstanceID = uuid.NewString()

// EventTurnTimerExpired is the advisory nudge broadcast when the active
// player's timer runs out. It never mutates state; the turn stays with the
// active player until they act or the admin intervenes.
const EventTurnTimerExpired = "turn_timer_expired"

// EventSyncState carries a full StateView snapshot.
const EventSyncState = "sync_state"

// GameEvent is the wire form of one event pushed to clients.
type GameEvent struct {
	Type           string     `json:"type"`
	PlayerID       *uuid.UUID `json:"playerId,omitempty"`
	GiftID         *uuid.UUID `json:"giftId,omitempty"`
	PrevOwnerID    *uuid.UUID `json:"prevOwnerId,omitempty"`
	ActivePlayerID *uuid.UUID `json:"activePlayerId,omitempty"`
	Gift           *GiftView  `json:"gift,omitempty"`
	State          *StateView `json:"state,omitempty"`
	Message        string     `json:"message,omitempty"`
}

// EventError is sent to a single client whose action was rejected.
const EventError = "error"

// ExchangeGame is one live session. All mutation goes through handlers that
// hold Mu; the engine state is authoritative and the models maps carry the
// presentation data (names, images) the engine never sees.
type ExchangeGame struct {
	Mu      sync.Mutex
	State   engine.GameState
	Session *models.Session
	Players map[uuid.UUID]*models.Player
	Gifts   map[uuid.UUID]*models.Gift

	// BroadcastFn pushes an event to every connected client of this session.
	// Set by the websocket layer; nil in tests.
	BroadcastFn func(ev GameEvent)
	// BroadcastToPlayerFn pushes an event to one client.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)
	// OnEnded runs once after a game-over commit has been fanned out, so
	// the transport layer can tear down sockets, relays, and registry
	// entries for the session.
	OnEnded func()

	// TurnDuration overrides the configured turn timer length when set.
	TurnDuration time.Duration

	actionIndex int
	turnTimer   *time.Timer

	log *logrus.Entry
}

// NewExchangeGame builds a live session around a freshly created record set.
func NewExchangeGame(session *models.Session, admin *models.Player) *ExchangeGame {
	g := &ExchangeGame{
		Session: session,
		Players: map[uuid.UUID]*models.Player{admin.ID: admin},
		Gifts:   make(map[uuid.UUID]*models.Gift),
		log:     logrus.WithField("session", session.SessionCode),
	}
	g.State = engine.NewGame(session.SessionCode,
		engine.PlayerID(admin.ID.String()), admin.DisplayName,
		session.Config(), seedFromUUID(session.ID))
	return g
}

// RestoreExchangeGame rebuilds a live session from persisted rows, replaying
// the action log so the steal-back rule survives a service restart.
func RestoreExchangeGame(session *models.Session, players []*models.Player,
	gifts []*models.Gift, actions []*models.Action) *ExchangeGame {
	g := &ExchangeGame{
		Session: session,
		Players: make(map[uuid.UUID]*models.Player, len(players)),
		Gifts:   make(map[uuid.UUID]*models.Gift, len(gifts)),
		log:     logrus.WithField("session", session.SessionCode),
	}
	for _, p := range players {
		g.Players[p.ID] = p
	}
	for _, gi := range gifts {
		g.Gifts[gi.ID] = gi
	}
	g.State = stateFromRecords(session, players, gifts, actions)
	g.actionIndex = len(actions)
	return g
}

func seedFromUUID(id uuid.UUID) uint64 {
	return binary.BigEndian.Uint64(id[:8])
}

// isAdmin reports whether the given player is the session admin.
func (g *ExchangeGame) isAdmin(playerID uuid.UUID) bool {
	p, ok := g.Players[playerID]
	return ok && p.IsAdmin
}

// apply runs one engine action under the lock, commits the touched rows, and
// fans out events. On commit failure the pre-action snapshot is restored and
// the error returned, so callers see store and memory agree either way.
func (g *ExchangeGame) apply(ctx context.Context, mutate func() ([]engine.Event, error)) error {
	snapshot := g.State.Clone()
	events, err := mutate()
	if err != nil {
		// Composite mutations (join + gift) may fail after the first step
		// already landed.
		g.State = snapshot
		return err
	}
	if database.DB != nil {
		if err := database.CommitTurn(ctx, g.buildTurnWrite(events)); err != nil {
			g.State = snapshot
			g.log.WithError(err).Error("turn commit failed, state restored")
			return err
		}
	}
	g.afterCommit(ctx, events)
	return nil
}

// HandleOpenLobby moves the session from setup to lobby. Admin only.
func (g *ExchangeGame) HandleOpenLobby(ctx context.Context, actorID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if !g.isAdmin(actorID) {
		return ErrNotAdmin
	}
	return g.apply(ctx, g.State.OpenLobby)
}

// HandleJoin joins a player, optionally contributing a gift in the same
// action. Both rows land in one commit so a joined player is never visible
// without their gift.
func (g *ExchangeGame) HandleJoin(ctx context.Context, player *models.Player, gift *models.Gift) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	prevPlayer, hadPlayer := g.Players[player.ID]
	g.Players[player.ID] = player
	var prevGift *models.Gift
	var hadGift bool
	if gift != nil {
		prevGift, hadGift = g.Gifts[gift.ID]
		g.Gifts[gift.ID] = gift
	}
	err := g.apply(ctx, func() ([]engine.Event, error) {
		events, err := g.State.AddPlayer(engine.PlayerID(player.ID.String()), player.DisplayName)
		if err != nil {
			return nil, err
		}
		if gift != nil {
			more, err := g.State.AddGift(engine.GiftID(gift.ID.String()))
			if err != nil {
				return nil, err
			}
			events = append(events, more...)
		}
		return events, nil
	})
	if err != nil {
		if hadPlayer {
			g.Players[player.ID] = prevPlayer
		} else {
			delete(g.Players, player.ID)
		}
		if gift != nil {
			if hadGift {
				g.Gifts[gift.ID] = prevGift
			} else {
				delete(g.Gifts, gift.ID)
			}
		}
	}
	return err
}

// HandleAddGift registers an extra gift, e.g. the admin's own contribution
// during setup. Admin only; regular players contribute through HandleJoin.
func (g *ExchangeGame) HandleAddGift(ctx context.Context, actorID uuid.UUID, gift *models.Gift) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if !g.isAdmin(actorID) {
		return ErrNotAdmin
	}
	prevGift, hadGift := g.Gifts[gift.ID]
	g.Gifts[gift.ID] = gift
	err := g.apply(ctx, func() ([]engine.Event, error) {
		return g.State.AddGift(engine.GiftID(gift.ID.String()))
	})
	if err != nil {
		if hadGift {
			g.Gifts[gift.ID] = prevGift
		} else {
			delete(g.Gifts, gift.ID)
		}
	}
	return err
}

// HandleStart begins play. Admin only.
func (g *ExchangeGame) HandleStart(ctx context.Context, actorID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if !g.isAdmin(actorID) {
		return ErrNotAdmin
	}
	return g.apply(ctx, g.State.StartGame)
}

// HandlePick resolves the active player opening a hidden gift.
func (g *ExchangeGame) HandlePick(ctx context.Context, actorID, giftID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.apply(ctx, func() ([]engine.Event, error) {
		return g.State.PickGift(engine.GiftID(giftID.String()), engine.PlayerID(actorID.String()))
	})
}

// HandleSteal resolves the active player taking a revealed gift.
func (g *ExchangeGame) HandleSteal(ctx context.Context, actorID, giftID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.apply(ctx, func() ([]engine.Event, error) {
		return g.State.StealGift(engine.GiftID(giftID.String()), engine.PlayerID(actorID.String()))
	})
}

// HandleKeep resolves the final-round choice to keep the current gift,
// ending the game.
func (g *ExchangeGame) HandleKeep(ctx context.Context, actorID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.apply(ctx, func() ([]engine.Event, error) {
		return g.State.KeepGift(engine.PlayerID(actorID.String()))
	})
}

// HandlePause suspends play. Admin only.
func (g *ExchangeGame) HandlePause(ctx context.Context, actorID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if !g.isAdmin(actorID) {
		return ErrNotAdmin
	}
	return g.apply(ctx, g.State.Pause)
}

// HandleResume returns a paused session to play. Admin only.
func (g *ExchangeGame) HandleResume(ctx context.Context, actorID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if !g.isAdmin(actorID) {
		return ErrNotAdmin
	}
	return g.apply(ctx, g.State.Resume)
}

// HandleEnd ends the session early. Admin only.
func (g *ExchangeGame) HandleEnd(ctx context.Context, actorID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if !g.isAdmin(actorID) {
		return ErrNotAdmin
	}
	return g.apply(ctx, g.State.EndGame)
}

// HandleRemovePlayer drops a player from the session. Admin only, except a
// player may remove themselves (leave).
func (g *ExchangeGame) HandleRemovePlayer(ctx context.Context, actorID, targetID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if actorID != targetID && !g.isAdmin(actorID) {
		return ErrNotAdmin
	}
	err := g.apply(ctx, func() ([]engine.Event, error) {
		return g.State.RemovePlayer(engine.PlayerID(targetID.String()))
	})
	if err == nil {
		delete(g.Players, targetID)
	}
	return err
}

// afterCommit fans committed events out: websocket broadcast, Redis change
// stream, audit log, and the advisory turn timer. Caller holds g.Mu.
func (g *ExchangeGame) afterCommit(ctx context.Context, events []engine.Event) {
	for _, ev := range events {
		wire := g.wireEvent(ev)
		g.fireEventToAll(wire)
		g.publishChange(ctx, wire)

		switch ev.Type {
		case engine.EventGiftPicked, engine.EventGiftStolen:
			g.logAction(ctx)
		case engine.EventTurnChanged, engine.EventFinalRoundStarted:
			g.scheduleTurnTimer()
		case engine.EventGameEnded, engine.EventGamePaused:
			g.stopTurnTimer()
		case engine.EventGameResumed:
			g.scheduleTurnTimer()
		}
	}
	// Trailing snapshot keeps late or lossy clients convergent.
	g.fireEventToAll(GameEvent{Type: EventSyncState, State: g.BuildStateView()})

	if g.State.Phase == engine.PhaseEnded && g.OnEnded != nil {
		// Run off the lock: teardown takes registry locks of its own and
		// must not fire before the final events are queued above.
		go g.OnEnded()
	}
}

// wireEvent converts one engine event to its client form, attaching the
// revealed gift view for picks and steals.
func (g *ExchangeGame) wireEvent(ev engine.Event) GameEvent {
	wire := GameEvent{
		Type:           string(ev.Type),
		PlayerID:       playerUUID(ev.Player),
		GiftID:         giftUUID(ev.Gift),
		PrevOwnerID:    playerUUID(ev.PrevOwner),
		ActivePlayerID: playerUUID(ev.Active),
	}
	if ev.Type == engine.EventGiftPicked || ev.Type == engine.EventGiftStolen {
		if eg := g.State.GiftByID(ev.Gift); eg != nil {
			gv := g.giftView(eg)
			wire.Gift = &gv
		}
	}
	return wire
}

func (g *ExchangeGame) fireEventToAll(ev GameEvent) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}

// FireEventToPlayer pushes an event to a single client, used for the state
// snapshot on connect.
func (g *ExchangeGame) FireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	if g.BroadcastToPlayerFn != nil {
		g.BroadcastToPlayerFn(playerID, ev)
	}
}

// publishChange mirrors the event onto the Redis change stream for
// out-of-process consumers.
func (g *ExchangeGame) publishChange(ctx context.Context, ev GameEvent) {
	if cache.Rdb == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		g.log.WithError(err).Warn("marshal change event")
		return
	}
	if err := cache.PublishEvent(ctx, cache.ChangeEvent{
		SessionID: g.Session.ID,
		Type:      ev.Type,
		Payload:   payload,
		Origin:    InstanceID,
	}); err != nil {
		g.log.WithError(err).Warn("publish change event")
	}
}

// logAction appends the newest history entry to the Redis audit list.
func (g *ExchangeGame) logAction(ctx context.Context) {
	if cache.Rdb == nil || len(g.State.History) == 0 {
		return
	}
	rec := g.State.History[len(g.State.History)-1]
	actor := playerUUID(rec.Player)
	gift := giftUUID(rec.Gift)
	if actor == nil || gift == nil {
		return
	}
	g.actionIndex++
	audit := cache.GameActionRecord{
		SessionID:   g.Session.ID,
		ActionIndex: g.actionIndex,
		ActorID:     *actor,
		ActionType:  string(rec.Type),
		GiftID:      *gift,
		Timestamp:   time.Now().Unix(),
	}
	if rec.PrevOwner != engine.NoPlayer {
		audit.PreviousOwnerID = string(rec.PrevOwner)
	}
	if err := cache.PublishGameAction(ctx, audit); err != nil {
		g.log.WithError(err).Warn("publish action record")
	}
}

// scheduleTurnTimer (re)arms the advisory turn timer. When it fires it only
// broadcasts a nudge; no state changes and the turn is never auto-skipped.
func (g *ExchangeGame) scheduleTurnTimer() {
	g.stopTurnTimer()
	if !g.State.Config.TurnTimerEnabled || g.State.Config.TurnTimerSeconds <= 0 {
		return
	}
	d := time.Duration(g.State.Config.TurnTimerSeconds) * time.Second
	if g.TurnDuration > 0 {
		d = g.TurnDuration
	}
	g.turnTimer = time.AfterFunc(d, func() {
		g.Mu.Lock()
		defer g.Mu.Unlock()
		if g.State.Phase != engine.PhaseActive {
			return
		}
		g.fireEventToAll(GameEvent{
			Type:           EventTurnTimerExpired,
			ActivePlayerID: playerUUID(g.State.ActivePlayer),
		})
	})
}

func (g *ExchangeGame) stopTurnTimer() {
	if g.turnTimer != nil {
		g.turnTimer.Stop()
		g.turnTimer = nil
	}
}
