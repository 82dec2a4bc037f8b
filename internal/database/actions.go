package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/nicrpayne/white-elephant-sub000/internal/models"
)

// ListActions returns a session's full action history, oldest first. The log
// is append-only; there are no update or delete paths for actions anywhere
// in this package.
func ListActions(ctx context.Context, sessionID uuid.UUID) ([]*models.Action, error) {
	var actions []*models.Action
	err := withRetry(ctx, "list_actions", func() error {
		rows, err := DB.Query(ctx, `
			SELECT id, session_id, player_id, action_type, gift_id, previous_owner_id, created_at
			FROM actions WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
		if err != nil {
			return err
		}
		defer rows.Close()

		actions = actions[:0]
		for rows.Next() {
			var a models.Action
			if err := rows.Scan(&a.ID, &a.SessionID, &a.PlayerID, &a.ActionType,
				&a.GiftID, &a.PreviousOwnerID, &a.CreatedAt); err != nil {
				return err
			}
			actions = append(actions, &a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return actions, nil
}
