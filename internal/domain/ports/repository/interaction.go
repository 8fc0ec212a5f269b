package repository

import (
	"context"

	"telegram-sales-bot/internal/domain/model"
)

type InteractionRepository interface {
	// Upsert inserts the triple or advances its last start. It never creates a second row.
	Upsert(ctx context.Context, tx Tx, in *model.Interaction) error
	Find(ctx context.Context, tx Tx, botID string, chatID, userID int64) (*model.Interaction, error)
}
