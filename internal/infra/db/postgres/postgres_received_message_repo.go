package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
)

var _ repository.ReceivedMessageRepository = (*receivedMessageRepo)(nil)

type receivedMessageRepo struct {
	pool *pgxpool.Pool
}

func NewReceivedMessageRepo(pool *pgxpool.Pool) *receivedMessageRepo {
	return &receivedMessageRepo{pool: pool}
}

func (r *receivedMessageRepo) Save(ctx context.Context, tx repository.Tx, m *model.ReceivedMessage) error {
	const q = `
INSERT INTO received_messages (bot_id, chat_id, telegram_user_id, username, first_name, message_text, telegram_message_id, message_type, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q,
		m.BotID, m.ChatID, m.TelegramUserID, nullIfEmpty(m.Username), m.FirstName, m.Text,
		m.TelegramMessageID, m.MessageType, m.CreatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&m.ID); err != nil {
		return fmt.Errorf("save received message: %w", err)
	}
	return nil
}
