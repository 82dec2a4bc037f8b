package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nicrpayne/white-elephant-sub000/engine"
	"github.com/nicrpayne/white-elephant-sub000/internal/database"
	"github.com/nicrpayne/white-elephant-sub000/internal/models"
)

// ErrSessionNotFound is returned when no session exists for a code.
var ErrSessionNotFound = errors.New("session not found")

// Manager is the process-wide registry of live sessions, keyed by session
// code. Sessions absent from memory are restored from the store on demand.
type Manager struct {
	mu    sync.Mutex
	games map[string]*ExchangeGame
	log   *logrus.Entry
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{
		games: make(map[string]*ExchangeGame),
		log:   logrus.WithField("component", "manager"),
	}
}

// CreateSession creates a new session with its admin player and registers it.
// Codes collide rarely; on a store conflict we regenerate and try again.
func (m *Manager) CreateSession(ctx context.Context, adminName, avatarSeed string, cfg engine.Config) (*ExchangeGame, *models.Player, error) {
	for attempt := 0; ; attempt++ {
		code := engine.NewSessionCode()
		now := time.Now().UTC()
		session := &models.Session{
			ID:                      uuid.New(),
			SessionCode:             code,
			GameStatus:              string(engine.PhaseSetup),
			MaxStealsPerGift:        cfg.MaxStealsPerGift,
			RandomizeOrder:          cfg.RandomizeOrder,
			AllowImmediateStealback: cfg.AllowImmediateStealback,
			TurnTimerEnabled:        cfg.TurnTimerEnabled,
			TurnTimerSeconds:        cfg.TurnTimerSeconds,
			CreatedAt:               now,
		}
		admin := &models.Player{
			ID:          uuid.New(),
			SessionID:   session.ID,
			DisplayName: adminName,
			IsAdmin:     true,
			AvatarSeed:  avatarSeed,
			JoinedAt:    now,
		}

		if database.DB != nil {
			if err := database.CreateSession(ctx, session); err != nil {
				if errors.Is(err, database.ErrConflict) && attempt < 3 {
					continue
				}
				return nil, nil, err
			}
			if err := database.CreatePlayer(ctx, admin); err != nil {
				return nil, nil, err
			}
		}

		g := NewExchangeGame(session, admin)
		m.mu.Lock()
		m.games[code] = g
		m.mu.Unlock()
		m.log.WithField("session", code).Info("session created")
		return g, admin, nil
	}
}

// GetByCode returns the live session for a code, restoring it from the store
// if this process has not seen it yet.
func (m *Manager) GetByCode(ctx context.Context, code string) (*ExchangeGame, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	m.mu.Lock()
	g, ok := m.games[code]
	m.mu.Unlock()
	if ok {
		return g, nil
	}
	if database.DB == nil {
		return nil, ErrSessionNotFound
	}

	session, err := database.GetSessionByCode(ctx, code)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	players, err := database.ListPlayers(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	gifts, err := database.ListGifts(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	actions, err := database.ListActions(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	g = RestoreExchangeGame(session, players, gifts, actions)

	m.mu.Lock()
	// Another request may have restored it concurrently; keep the first.
	if existing, ok := m.games[code]; ok {
		g = existing
	} else {
		m.games[code] = g
	}
	m.mu.Unlock()
	m.log.WithField("session", code).Info("session restored from store")
	return g, nil
}

// Remove drops an ended session from the registry.
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	delete(m.games, code)
	m.mu.Unlock()
}
