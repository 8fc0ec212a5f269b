package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
)

var _ repository.PaymentWebhookRepository = (*paymentWebhookRepo)(nil)

type paymentWebhookRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentWebhookRepo(pool *pgxpool.Pool) *paymentWebhookRepo {
	return &paymentWebhookRepo{pool: pool}
}

func (r *paymentWebhookRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentWebhook) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	raw := "{}"
	if len(p.Raw) > 0 {
		raw = string(p.Raw)
	}
	const q = `
INSERT INTO payment_webhooks (id, bot_id, telegram_user_id, plan_id, payment_status, payment_data, processed, created_at)
VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8);`
	if _, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.BotID, p.TelegramUserID, nullIfEmpty(p.PlanID), p.PaymentStatus, raw, p.Processed, p.CreatedAt); err != nil {
		return fmt.Errorf("save payment webhook: %w", err)
	}
	return nil
}

func (r *paymentWebhookRepo) MarkProcessed(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	const q = `
UPDATE payment_webhooks
   SET processed = TRUE, processed_at = $2
 WHERE id = $1 AND NOT processed;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		return false, fmt.Errorf("mark payment webhook processed: %w", err)
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentWebhookRepo) ApprovalProcessed(ctx context.Context, tx repository.Tx, botID string, userID int64, planID string) (bool, error) {
	const q = `
SELECT EXISTS (
    SELECT 1 FROM payment_webhooks
     WHERE bot_id = $1 AND telegram_user_id = $2
       AND plan_id IS NOT DISTINCT FROM $3
       AND payment_status = $4 AND processed
);`
	row, err := pickRow(ctx, r.pool, tx, q, botID, userID, nullIfEmpty(planID), model.PaymentStatusApproved)
	if err != nil {
		return false, err
	}
	var done bool
	if err := row.Scan(&done); err != nil {
		return false, fmt.Errorf("check processed approval: %w", err)
	}
	return done, nil
}
