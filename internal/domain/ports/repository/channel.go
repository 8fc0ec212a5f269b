package repository

import (
	"context"

	"telegram-sales-bot/internal/domain/model"
)

type ChannelRepository interface {
	Save(ctx context.Context, tx Tx, c *model.BotChannel) error
	FindActiveByKind(ctx context.Context, tx Tx, botID string, kind model.ChannelKind) (*model.BotChannel, error)
}
