package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
)

var _ repository.ChannelRepository = (*channelRepo)(nil)

type channelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *channelRepo {
	return &channelRepo{pool: pool}
}

func (r *channelRepo) Save(ctx context.Context, tx repository.Tx, c *model.BotChannel) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	const q = `
INSERT INTO bot_channels (id, bot_id, channel_id, channel_name, channel_type, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
  channel_id = EXCLUDED.channel_id,
  channel_name = EXCLUDED.channel_name,
  channel_type = EXCLUDED.channel_type,
  is_active = EXCLUDED.is_active;`
	if _, err := execSQL(ctx, r.pool, tx, q, c.ID, c.BotID, c.ChannelID, nullIfEmpty(c.Name), string(c.Kind), c.IsActive); err != nil {
		return fmt.Errorf("save channel: %w", err)
	}
	return nil
}

func (r *channelRepo) FindActiveByKind(ctx context.Context, tx repository.Tx, botID string, kind model.ChannelKind) (*model.BotChannel, error) {
	const q = `
SELECT id, bot_id, channel_id, channel_name, channel_type, is_active
  FROM bot_channels
 WHERE bot_id = $1 AND channel_type = $2 AND is_active
 ORDER BY created_at
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, botID, string(kind))
	if err != nil {
		return nil, err
	}
	var (
		c    model.BotChannel
		name *string
		k    string
	)
	if err := row.Scan(&c.ID, &c.BotID, &c.ChannelID, &name, &k, &c.IsActive); err != nil {
		return nil, scanErr(err)
	}
	c.Name = derefString(name)
	c.Kind = model.ChannelKind(k)
	return &c, nil
}
