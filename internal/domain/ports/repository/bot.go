package repository

import (
	"context"

	"telegram-sales-bot/internal/domain/model"
)

type BotRepository interface {
	Save(ctx context.Context, tx Tx, b *model.Bot) error
	// FindByID returns the bot regardless of its active flag.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Bot, error)
}
