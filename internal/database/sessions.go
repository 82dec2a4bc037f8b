package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/nicrpayne/white-elephant-sub000/internal/models"
)

const sessionColumns = `id, session_code, game_status, active_player_id, first_player_id,
	round_index, is_final_round, max_steals_per_gift, randomize_order,
	allow_immediate_stealback, turn_timer_enabled, turn_timer_seconds, created_at`

// CreateSession inserts a new session record.
func CreateSession(ctx context.Context, s *models.Session) error {
	return withRetry(ctx, "create_session", func() error {
		_, err := DB.Exec(ctx, `
			INSERT INTO sessions (id, session_code, game_status, active_player_id,
				first_player_id, round_index, is_final_round, max_steals_per_gift,
				randomize_order, allow_immediate_stealback, turn_timer_enabled,
				turn_timer_seconds, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			s.ID, s.SessionCode, s.GameStatus, s.ActivePlayerID, s.FirstPlayerID,
			s.RoundIndex, s.IsFinalRound, s.MaxStealsPerGift, s.RandomizeOrder,
			s.AllowImmediateStealback, s.TurnTimerEnabled, s.TurnTimerSeconds, s.CreatedAt)
		return err
	})
}

// GetSessionByCode loads a session by its join code.
func GetSessionByCode(ctx context.Context, code string) (*models.Session, error) {
	var s models.Session
	err := withRetry(ctx, "get_session", func() error {
		row := DB.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE session_code = $1`, code)
		return row.Scan(&s.ID, &s.SessionCode, &s.GameStatus, &s.ActivePlayerID,
			&s.FirstPlayerID, &s.RoundIndex, &s.IsFinalRound, &s.MaxStealsPerGift,
			&s.RandomizeOrder, &s.AllowImmediateStealback, &s.TurnTimerEnabled,
			&s.TurnTimerSeconds, &s.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSession loads a session by ID.
func GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var s models.Session
	err := withRetry(ctx, "get_session", func() error {
		row := DB.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
		return row.Scan(&s.ID, &s.SessionCode, &s.GameStatus, &s.ActivePlayerID,
			&s.FirstPlayerID, &s.RoundIndex, &s.IsFinalRound, &s.MaxStealsPerGift,
			&s.RandomizeOrder, &s.AllowImmediateStealback, &s.TurnTimerEnabled,
			&s.TurnTimerSeconds, &s.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}
