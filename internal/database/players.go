package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/nicrpayne/white-elephant-sub000/internal/models"
)

const playerColumns = `id, session_id, display_name, order_index, current_gift_id,
	is_admin, has_completed_turn, avatar_seed, joined_at`

// CreatePlayer inserts a player record. A duplicate order index within the
// session surfaces as ErrConflict (two joins racing for the same slot).
func CreatePlayer(ctx context.Context, p *models.Player) error {
	return withRetry(ctx, "create_player", func() error {
		_, err := DB.Exec(ctx, `
			INSERT INTO players (id, session_id, display_name, order_index,
				current_gift_id, is_admin, has_completed_turn, avatar_seed, joined_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			p.ID, p.SessionID, p.DisplayName, p.OrderIndex, p.CurrentGiftID,
			p.IsAdmin, p.HasCompletedTurn, p.AvatarSeed, p.JoinedAt)
		return err
	})
}

// ListPlayers returns a session's players in turn order.
func ListPlayers(ctx context.Context, sessionID uuid.UUID) ([]*models.Player, error) {
	var players []*models.Player
	err := withRetry(ctx, "list_players", func() error {
		rows, err := DB.Query(ctx, `SELECT `+playerColumns+`
			FROM players WHERE session_id = $1 ORDER BY order_index`, sessionID)
		if err != nil {
			return err
		}
		defer rows.Close()

		players = players[:0]
		for rows.Next() {
			var p models.Player
			if err := rows.Scan(&p.ID, &p.SessionID, &p.DisplayName, &p.OrderIndex,
				&p.CurrentGiftID, &p.IsAdmin, &p.HasCompletedTurn, &p.AvatarSeed,
				&p.JoinedAt); err != nil {
				return err
			}
			players = append(players, &p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return players, nil
}
