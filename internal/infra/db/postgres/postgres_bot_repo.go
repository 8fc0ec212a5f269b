package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-sales-bot/internal/domain"
	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
)

var _ repository.BotRepository = (*botRepo)(nil)

// TokenSealer encrypts bot tokens at rest.
type TokenSealer interface {
	SealToken(token string) (string, error)
	OpenToken(stored string) (string, error)
}

type botRepo struct {
	pool   *pgxpool.Pool
	sealer TokenSealer
}

// NewBotRepo builds the bot repository. A nil sealer stores tokens as given.
func NewBotRepo(pool *pgxpool.Pool, sealer TokenSealer) *botRepo {
	return &botRepo{pool: pool, sealer: sealer}
}

func (r *botRepo) Save(ctx context.Context, tx repository.Tx, b *model.Bot) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	token := b.Token
	if r.sealer != nil {
		sealed, err := r.sealer.SealToken(token)
		if err != nil {
			return fmt.Errorf("seal token: %w", err)
		}
		token = sealed
	}

	const q = `
INSERT INTO telegram_bots (id, owner_id, bot_name, bot_username, bot_token, webhook_secret, welcome_image_url, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
  bot_name = EXCLUDED.bot_name,
  bot_username = EXCLUDED.bot_username,
  bot_token = EXCLUDED.bot_token,
  webhook_secret = EXCLUDED.webhook_secret,
  welcome_image_url = EXCLUDED.welcome_image_url,
  is_active = EXCLUDED.is_active,
  updated_at = NOW();`
	if _, err := execSQL(ctx, r.pool, tx, q,
		b.ID, nullIfEmpty(b.OwnerID), b.Name, nullIfEmpty(b.Username), token,
		nullIfEmpty(b.WebhookSecret), nullIfEmpty(b.WelcomeImageURL), b.IsActive, b.CreatedAt); err != nil {
		return fmt.Errorf("save bot: %w", err)
	}

	const qa = `
INSERT INTO bot_automation_config (bot_id, send_welcome)
VALUES ($1, $2)
ON CONFLICT (bot_id) DO UPDATE SET send_welcome = EXCLUDED.send_welcome, updated_at = NOW();`
	if _, err := execSQL(ctx, r.pool, tx, qa, b.ID, b.SendWelcome); err != nil {
		return fmt.Errorf("save bot automation: %w", err)
	}
	return nil
}

func (r *botRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Bot, error) {
	// the id arrives from a query parameter; reject garbage before it reaches Postgres
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	const q = `
SELECT b.id, b.owner_id::text, b.bot_name, b.bot_username, b.bot_token, b.webhook_secret,
       b.welcome_image_url, b.is_active, COALESCE(ac.send_welcome, TRUE), b.created_at
  FROM telegram_bots b
  LEFT JOIN bot_automation_config ac ON ac.bot_id = b.id
 WHERE b.id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	var (
		b                                     model.Bot
		owner, username, secret, welcomeImage *string
		stored                                string
	)
	if err := row.Scan(&b.ID, &owner, &b.Name, &username, &stored, &secret,
		&welcomeImage, &b.IsActive, &b.SendWelcome, &b.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	b.OwnerID = derefString(owner)
	b.Username = derefString(username)
	b.WebhookSecret = derefString(secret)
	b.WelcomeImageURL = derefString(welcomeImage)

	b.Token = stored
	if r.sealer != nil {
		token, err := r.sealer.OpenToken(stored)
		if err != nil {
			return nil, fmt.Errorf("open token of bot %s: %w", b.ID, err)
		}
		b.Token = token
	}
	return &b, nil
}
