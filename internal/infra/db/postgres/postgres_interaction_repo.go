package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
)

var _ repository.InteractionRepository = (*interactionRepo)(nil)

type interactionRepo struct {
	pool *pgxpool.Pool
}

func NewInteractionRepo(pool *pgxpool.Pool) *interactionRepo {
	return &interactionRepo{pool: pool}
}

// Upsert relies on the unique triple; concurrent /start taps collapse into one row
// and last_start_at never moves backwards.
func (r *interactionRepo) Upsert(ctx context.Context, tx repository.Tx, in *model.Interaction) error {
	const q = `
INSERT INTO user_interactions (bot_id, chat_id, telegram_user_id, username, first_name, last_start_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (bot_id, chat_id, telegram_user_id) DO UPDATE SET
  last_start_at = GREATEST(user_interactions.last_start_at, EXCLUDED.last_start_at),
  username = COALESCE(EXCLUDED.username, user_interactions.username),
  first_name = COALESCE(EXCLUDED.first_name, user_interactions.first_name)
RETURNING id, last_start_at, created_at;`
	row, err := pickRow(ctx, r.pool, tx, q,
		in.BotID, in.ChatID, in.TelegramUserID, nullIfEmpty(in.Username), nullIfEmpty(in.FirstName), in.LastStartAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&in.ID, &in.LastStartAt, &in.CreatedAt); err != nil {
		return fmt.Errorf("upsert interaction: %w", err)
	}
	return nil
}

func (r *interactionRepo) Find(ctx context.Context, tx repository.Tx, botID string, chatID, userID int64) (*model.Interaction, error) {
	const q = `
SELECT id, bot_id, chat_id, telegram_user_id, username, first_name, last_start_at, created_at
  FROM user_interactions
 WHERE bot_id = $1 AND chat_id = $2 AND telegram_user_id = $3;`
	row, err := pickRow(ctx, r.pool, tx, q, botID, chatID, userID)
	if err != nil {
		return nil, err
	}
	var (
		in              model.Interaction
		username, first *string
	)
	if err := row.Scan(&in.ID, &in.BotID, &in.ChatID, &in.TelegramUserID, &username, &first, &in.LastStartAt, &in.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	in.Username = derefString(username)
	in.FirstName = derefString(first)
	return &in, nil
}
