package repository

import (
	"context"

	"telegram-sales-bot/internal/domain/model"
)

type ReceivedMessageRepository interface {
	Save(ctx context.Context, tx Tx, m *model.ReceivedMessage) error
}
