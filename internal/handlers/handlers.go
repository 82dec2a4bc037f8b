// Package handlers exposes the HTTP surface: session create/join over REST,
// the action log for audit, and the websocket endpoint that carries all
// in-game actions.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nicrpayne/white-elephant-sub000/engine"
	"github.com/nicrpayne/white-elephant-sub000/internal/database"
	"github.com/nicrpayne/white-elephant-sub000/internal/game"
	"github.com/nicrpayne/white-elephant-sub000/internal/models"
)

const tokenTTL = 24 * time.Hour

// Handler carries the shared dependencies of every endpoint.
type Handler struct {
	Manager   *game.Manager
	JWTSecret []byte

	hubs hubRegistry
	log  *logrus.Entry
}

// New builds the handler set around a session manager.
func New(m *game.Manager, jwtSecret []byte) *Handler {
	return &Handler{
		Manager:   m,
		JWTSecret: jwtSecret,
		hubs:      hubRegistry{byCode: make(map[string]*hub)},
		log:       logrus.WithField("component", "http"),
	}
}

// Routes registers every endpoint on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /session", h.CreateSession)
	mux.HandleFunc("POST /session/{code}/join", h.JoinSession)
	mux.HandleFunc("GET /session/{code}/ws", h.ServeWS)
	mux.HandleFunc("GET /session/{code}/actions", h.ListActions)
	mux.HandleFunc("GET /session/{code}", h.GetSession)
	return mux
}

type giftInput struct {
	Name        string  `json:"name"`
	ImageURL    string  `json:"imageUrl"`
	Link        *string `json:"link,omitempty"`
	Description *string `json:"description,omitempty"`
}

type createSessionRequest struct {
	DisplayName string    `json:"displayName"`
	AvatarSeed  string    `json:"avatarSeed"`
	Gift        *giftInput `json:"gift,omitempty"`

	MaxStealsPerGift        *int `json:"maxStealsPerGift,omitempty"`
	RandomizeOrder          bool `json:"randomizeOrder"`
	AllowImmediateStealback bool `json:"allowImmediateStealback"`
	TurnTimerEnabled        bool `json:"turnTimerEnabled"`
	TurnTimerSeconds        *int `json:"turnTimerSeconds,omitempty"`
}

type sessionResponse struct {
	SessionCode string          `json:"sessionCode"`
	PlayerID    uuid.UUID       `json:"playerId"`
	Token       string          `json:"token"`
	State       *game.StateView `json:"state"`
}

// CreateSession creates a session with the caller as admin, applies the rule
// configuration, and opens the lobby so others can join immediately.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		http.Error(w, "displayName is required", http.StatusBadRequest)
		return
	}

	cfg := engine.DefaultConfig()
	cfg.RandomizeOrder = req.RandomizeOrder
	cfg.AllowImmediateStealback = req.AllowImmediateStealback
	cfg.TurnTimerEnabled = req.TurnTimerEnabled
	if req.MaxStealsPerGift != nil && *req.MaxStealsPerGift > 0 {
		cfg.MaxStealsPerGift = *req.MaxStealsPerGift
	}
	if req.TurnTimerSeconds != nil && *req.TurnTimerSeconds > 0 {
		cfg.TurnTimerSeconds = *req.TurnTimerSeconds
	}

	g, admin, err := h.Manager.CreateSession(r.Context(), req.DisplayName, req.AvatarSeed, cfg)
	if err != nil {
		h.log.WithError(err).Error("create session")
		http.Error(w, "could not create session", http.StatusInternalServerError)
		return
	}
	if req.Gift != nil {
		gift := newGiftRecord(g.Session.ID, *req.Gift)
		if err := g.HandleAddGift(r.Context(), admin.ID, gift); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if err := g.HandleOpenLobby(r.Context(), admin.ID); err != nil {
		h.writeError(w, err)
		return
	}

	token, err := NewToken(h.JWTSecret, admin.ID, g.Session.ID, true, tokenTTL)
	if err != nil {
		http.Error(w, "could not mint token", http.StatusInternalServerError)
		return
	}

	g.Mu.Lock()
	view := g.BuildStateView()
	g.Mu.Unlock()
	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionCode: g.Session.SessionCode,
		PlayerID:    admin.ID,
		Token:       token,
		State:       view,
	})
}

type joinSessionRequest struct {
	DisplayName string     `json:"displayName"`
	AvatarSeed  string     `json:"avatarSeed"`
	Gift        *giftInput `json:"gift,omitempty"`
}

// JoinSession joins a player to an open lobby, registering their wrapped
// gift in the same stroke.
func (h *Handler) JoinSession(w http.ResponseWriter, r *http.Request) {
	g, err := h.Manager.GetByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req joinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		http.Error(w, "displayName is required", http.StatusBadRequest)
		return
	}

	player := &models.Player{
		ID:          uuid.New(),
		SessionID:   g.Session.ID,
		DisplayName: req.DisplayName,
		AvatarSeed:  req.AvatarSeed,
		JoinedAt:    time.Now().UTC(),
	}
	var gift *models.Gift
	if req.Gift != nil {
		gift = newGiftRecord(g.Session.ID, *req.Gift)
	}
	if err := g.HandleJoin(r.Context(), player, gift); err != nil {
		h.writeError(w, err)
		return
	}

	token, err := NewToken(h.JWTSecret, player.ID, g.Session.ID, false, tokenTTL)
	if err != nil {
		http.Error(w, "could not mint token", http.StatusInternalServerError)
		return
	}
	g.Mu.Lock()
	view := g.BuildStateView()
	g.Mu.Unlock()
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionCode: g.Session.SessionCode,
		PlayerID:    player.ID,
		Token:       token,
		State:       view,
	})
}

// GetSession returns the current session snapshot.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	g, err := h.Manager.GetByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	g.Mu.Lock()
	view := g.BuildStateView()
	g.Mu.Unlock()
	writeJSON(w, http.StatusOK, view)
}

// ListActions returns the session's append-only action log. Served from the
// store when one is attached, otherwise from the in-memory history.
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	g, err := h.Manager.GetByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if database.DB != nil {
		actions, err := database.ListActions(r.Context(), g.Session.ID)
		if err != nil {
			h.log.WithError(err).Error("list actions")
			http.Error(w, "could not load actions", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, actions)
		return
	}

	type actionView struct {
		ActionType      string `json:"action_type"`
		PlayerID        string `json:"player_id"`
		GiftID          string `json:"gift_id"`
		PreviousOwnerID string `json:"previous_owner_id,omitempty"`
	}
	g.Mu.Lock()
	out := make([]actionView, 0, len(g.State.History))
	for _, rec := range g.State.History {
		out = append(out, actionView{
			ActionType:      string(rec.Type),
			PlayerID:        string(rec.Player),
			GiftID:          string(rec.Gift),
			PreviousOwnerID: string(rec.PrevOwner),
		})
	}
	g.Mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func newGiftRecord(sessionID uuid.UUID, in giftInput) *models.Gift {
	return &models.Gift{
		ID:          uuid.New(),
		SessionID:   sessionID,
		Name:        strings.TrimSpace(in.Name),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Link:        in.Link,
		Description: in.Description,
		Status:      string(engine.GiftHidden),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), errorStatus(err))
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrSessionNotFound),
		errors.Is(err, engine.ErrPlayerNotFound),
		errors.Is(err, engine.ErrGiftNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrWrongPhase),
		errors.Is(err, engine.ErrNotYourTurn),
		errors.Is(err, engine.ErrTurnAlreadyTaken),
		errors.Is(err, engine.ErrNotEnoughPlayers),
		errors.Is(err, engine.ErrNotFinalRound),
		errors.Is(err, engine.ErrGiftNotHidden),
		errors.Is(err, engine.ErrGiftHidden),
		errors.Is(err, engine.ErrGiftLocked),
		errors.Is(err, engine.ErrAlreadyOwned),
		errors.Is(err, engine.ErrStealBackForbidden),
		errors.Is(err, engine.ErrDuplicatePlayer),
		errors.Is(err, engine.ErrDuplicateGift):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
