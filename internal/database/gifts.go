package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/nicrpayne/white-elephant-sub000/internal/models"
)

const giftColumns = `id, session_id, name, image_url, link, description,
	status, steal_count, current_owner_id, position`

// CreateGift inserts a gift record.
func CreateGift(ctx context.Context, g *models.Gift) error {
	return withRetry(ctx, "create_gift", func() error {
		_, err := DB.Exec(ctx, `
			INSERT INTO gifts (id, session_id, name, image_url, link, description,
				status, steal_count, current_owner_id, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			g.ID, g.SessionID, g.Name, g.ImageURL, g.Link, g.Description,
			g.Status, g.StealCount, g.CurrentOwnerID, g.Position)
		return err
	})
}

// ListGifts returns a session's gifts in display position order.
func ListGifts(ctx context.Context, sessionID uuid.UUID) ([]*models.Gift, error) {
	var gifts []*models.Gift
	err := withRetry(ctx, "list_gifts", func() error {
		rows, err := DB.Query(ctx, `SELECT `+giftColumns+`
			FROM gifts WHERE session_id = $1 ORDER BY position NULLS LAST, id`, sessionID)
		if err != nil {
			return err
		}
		defer rows.Close()

		gifts = gifts[:0]
		for rows.Next() {
			var g models.Gift
			if err := rows.Scan(&g.ID, &g.SessionID, &g.Name, &g.ImageURL, &g.Link,
				&g.Description, &g.Status, &g.StealCount, &g.CurrentOwnerID,
				&g.Position); err != nil {
				return err
			}
			gifts = append(gifts, &g)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return gifts, nil
}
