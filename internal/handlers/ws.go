package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/nicrpayne/white-elephant-sub000/internal/cache"
	"github.com/nicrpayne/white-elephant-sub000/internal/game"
)

const writeTimeout = 10 * time.Second

var (
	errMissingGift   = errors.New("giftId is required")
	errUnknownAction = errors.New("unknown action type")
)

// actionEnvelope is one client message on the websocket. Type selects the
// action; GiftID and PlayerID are filled as the action requires.
type actionEnvelope struct {
	Type     string     `json:"type"`
	GiftID   *uuid.UUID `json:"giftId,omitempty"`
	PlayerID *uuid.UUID `json:"playerId,omitempty"`
}

const (
	actionPick         = "action_pick"
	actionSteal        = "action_steal"
	actionKeep         = "action_keep"
	actionStart        = "action_start"
	actionOpenLobby    = "action_open_lobby"
	actionEnd          = "action_end"
	actionRemovePlayer = "action_remove_player"
	actionPause        = "action_pause"
	actionResume       = "action_resume"
)

// wsClient is one connected socket with its outbound queue. A dedicated
// writer goroutine drains the queue so broadcasts never block on a slow
// client; a client that falls too far behind loses events but recovers from
// the trailing sync_state snapshot.
type wsClient struct {
	playerID uuid.UUID
	conn     *websocket.Conn
	send     chan game.GameEvent
	once     sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.send) })
}

// hub is the set of live sockets for one session.
type hub struct {
	mu          sync.Mutex
	clients     map[*wsClient]struct{}
	cancelRelay context.CancelFunc
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// broadcast queues an event for every client, dropping it for clients whose
// queue is full.
func (h *hub) broadcast(ev game.GameEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
		}
	}
}

// sendTo queues an event for one player's sockets only.
func (h *hub) sendTo(playerID uuid.UUID, ev game.GameEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.playerID != playerID {
			continue
		}
		select {
		case c.send <- ev:
		default:
		}
	}
}

// hubRegistry maps session codes to hubs.
type hubRegistry struct {
	mu     sync.Mutex
	byCode map[string]*hub
}

func (r *hubRegistry) get(code string, sessionID uuid.UUID) *hub {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byCode[code]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		h = &hub{clients: make(map[*wsClient]struct{}), cancelRelay: cancel}
		r.byCode[code] = h
		go relayChangeStream(ctx, sessionID, h)
	}
	return h
}

// remove tears down a session's hub: the relay subscription is closed and
// every client's queue is closed, which lets writers drain the final events
// and then close their connections.
func (r *hubRegistry) remove(code string) {
	r.mu.Lock()
	h, ok := r.byCode[code]
	delete(r.byCode, code)
	r.mu.Unlock()
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelRelay()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

// relayChangeStream forwards change-stream events published by other
// instances to this instance's local sockets, so clients converge no matter
// which node committed the action. Events this process published are skipped;
// they already went out through the hub directly. Cancelling ctx closes the
// subscription and ends the loop.
func relayChangeStream(ctx context.Context, sessionID uuid.UUID, h *hub) {
	if cache.Rdb == nil {
		return
	}
	sub := cache.Subscribe(ctx, sessionID)
	go func() {
		<-ctx.Done()
		sub.Close()
	}()
	for msg := range sub.Channel() {
		var change cache.ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			continue
		}
		if change.Origin == game.InstanceID {
			continue
		}
		var ev game.GameEvent
		if err := json.Unmarshal(change.Payload, &ev); err != nil {
			continue
		}
		h.broadcast(ev)
	}
}

// ServeWS upgrades the connection and runs the client's read loop. The token
// minted at create/join authenticates the socket; the first frame the client
// receives is a full state snapshot.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	g, err := h.Manager.GetByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	claims, err := ParseToken(h.JWTSecret, bearerToken(r))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if claims.SessionID != g.Session.ID {
		http.Error(w, "token is for a different session", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.WithError(err).Warn("websocket accept")
		return
	}

	client := &wsClient{
		playerID: claims.PlayerID,
		conn:     conn,
		send:     make(chan game.GameEvent, 64),
	}
	code := g.Session.SessionCode
	hb := h.hubs.get(code, g.Session.ID)
	hb.add(client)

	g.Mu.Lock()
	g.BroadcastFn = hb.broadcast
	g.BroadcastToPlayerFn = hb.sendTo
	g.OnEnded = func() {
		h.hubs.remove(code)
		h.Manager.Remove(code)
	}
	view := g.BuildStateView()
	g.Mu.Unlock()

	go h.writeLoop(client)
	client.send <- game.GameEvent{Type: game.EventSyncState, State: view}

	h.readLoop(r.Context(), g, hb, client, claims)
}

// writeLoop drains a client's queue. When the queue is closed by hub
// teardown, the remaining buffered events (game over, final snapshot) are
// flushed before the connection closes.
func (h *Handler) writeLoop(c *wsClient) {
	for ev := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := wsjson.Write(ctx, c.conn, ev)
		cancel()
		if err != nil {
			return
		}
	}
	c.conn.Close(websocket.StatusNormalClosure, "session ended")
}

func (h *Handler) readLoop(ctx context.Context, g *game.ExchangeGame, hb *hub, c *wsClient, claims *Claims) {
	defer func() {
		hb.remove(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()
	for {
		var env actionEnvelope
		if err := wsjson.Read(ctx, c.conn, &env); err != nil {
			return
		}
		if err := h.dispatch(ctx, g, claims, env); err != nil {
			hb.sendTo(claims.PlayerID, game.GameEvent{
				Type:    game.EventError,
				Message: err.Error(),
			})
		}
	}
}

// dispatch routes one envelope to the matching session handler. Admin
// enforcement lives in the session handlers themselves.
func (h *Handler) dispatch(ctx context.Context, g *game.ExchangeGame, claims *Claims, env actionEnvelope) error {
	switch env.Type {
	case actionPick:
		if env.GiftID == nil {
			return errMissingGift
		}
		return g.HandlePick(ctx, claims.PlayerID, *env.GiftID)
	case actionSteal:
		if env.GiftID == nil {
			return errMissingGift
		}
		return g.HandleSteal(ctx, claims.PlayerID, *env.GiftID)
	case actionKeep:
		return g.HandleKeep(ctx, claims.PlayerID)
	case actionOpenLobby:
		return g.HandleOpenLobby(ctx, claims.PlayerID)
	case actionStart:
		return g.HandleStart(ctx, claims.PlayerID)
	case actionEnd:
		return g.HandleEnd(ctx, claims.PlayerID)
	case actionPause:
		return g.HandlePause(ctx, claims.PlayerID)
	case actionResume:
		return g.HandleResume(ctx, claims.PlayerID)
	case actionRemovePlayer:
		target := claims.PlayerID
		if env.PlayerID != nil {
			target = *env.PlayerID
		}
		return g.HandleRemovePlayer(ctx, claims.PlayerID, target)
	default:
		return errUnknownAction
	}
}

func bearerToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	auth := r.Header.Get("Authorization")
	return strings.TrimPrefix(auth, "Bearer ")
}
