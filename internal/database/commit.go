package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nicrpayne/white-elephant-sub000/internal/models"
)

// TurnWrite carries every row touched by a single engine action. Committing
// it is all-or-nothing: the gift reveal/transfer, the player updates, the
// session update, and the action-log append land in one transaction, so no
// observer can see a gift revealed while the acting player's turn flag has
// not yet updated, and no failure can leave the ledger partially mutated.
type TurnWrite struct {
	Session        *models.Session
	Players        []*models.Player
	Gifts          []*models.Gift
	Action         *models.Action
	RemovePlayerID *uuid.UUID
}

// CommitTurn applies a TurnWrite atomically, retrying transient failures.
func CommitTurn(ctx context.Context, w TurnWrite) error {
	return withRetry(ctx, "commit_turn", func() error {
		return pgx.BeginFunc(ctx, DB, func(tx pgx.Tx) error {
			return applyTurn(ctx, tx, w)
		})
	})
}

func applyTurn(ctx context.Context, tx pgx.Tx, w TurnWrite) error {
	if w.Session != nil {
		if _, err := tx.Exec(ctx, `
			UPDATE sessions SET game_status = $2, active_player_id = $3,
				first_player_id = $4, round_index = $5, is_final_round = $6
			WHERE id = $1`,
			w.Session.ID, w.Session.GameStatus, w.Session.ActivePlayerID,
			w.Session.FirstPlayerID, w.Session.RoundIndex, w.Session.IsFinalRound); err != nil {
			return err
		}
	}
	for _, p := range w.Players {
		if _, err := tx.Exec(ctx, `
			INSERT INTO players (id, session_id, display_name, order_index,
				current_gift_id, is_admin, has_completed_turn, avatar_seed, joined_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT (id) DO UPDATE SET
				order_index = EXCLUDED.order_index,
				current_gift_id = EXCLUDED.current_gift_id,
				has_completed_turn = EXCLUDED.has_completed_turn`,
			p.ID, p.SessionID, p.DisplayName, p.OrderIndex, p.CurrentGiftID,
			p.IsAdmin, p.HasCompletedTurn, p.AvatarSeed, p.JoinedAt); err != nil {
			return err
		}
	}
	for _, g := range w.Gifts {
		if _, err := tx.Exec(ctx, `
			INSERT INTO gifts (id, session_id, name, image_url, link, description,
				status, steal_count, current_owner_id, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (id) DO UPDATE SET
				status = EXCLUDED.status,
				steal_count = EXCLUDED.steal_count,
				current_owner_id = EXCLUDED.current_owner_id`,
			g.ID, g.SessionID, g.Name, g.ImageURL, g.Link, g.Description,
			g.Status, g.StealCount, g.CurrentOwnerID, g.Position); err != nil {
			return err
		}
	}
	if w.Action != nil {
		if _, err := tx.Exec(ctx, `
			INSERT INTO actions (id, session_id, player_id, action_type, gift_id,
				previous_owner_id, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			w.Action.ID, w.Action.SessionID, w.Action.PlayerID, w.Action.ActionType,
			w.Action.GiftID, w.Action.PreviousOwnerID, w.Action.CreatedAt); err != nil {
			return err
		}
	}
	if w.RemovePlayerID != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM players WHERE id = $1`, *w.RemovePlayerID); err != nil {
			return err
		}
	}
	return nil
}
