package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-sales-bot/internal/domain"
	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
)

var _ repository.DeliveryRepository = (*deliveryRepo)(nil)

const maxErrorLength = 2000

type deliveryRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewDeliveryRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *deliveryRepo {
	return &deliveryRepo{
		pool: pool,
		tm:   tm,
	}
}

const deliveryColumns = `id, bot_id, scheduled_message_id::text, chat_id, telegram_user_id, scheduled_for,
       status, sent_at, error_message, claim_token, claimed_at, created_at`

// EnqueueBatch pipelines all inserts. Without an outer tx it opens its own so the batch stays all-or-nothing.
func (r *deliveryRepo) EnqueueBatch(ctx context.Context, tx repository.Tx, rows []*model.QueuedDelivery) error {
	if len(rows) == 0 {
		return nil
	}
	if tx == nil {
		return r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			return r.EnqueueBatch(ctx, tx, rows)
		})
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO message_queue (id, bot_id, scheduled_message_id, chat_id, telegram_user_id, scheduled_for, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	b := &pgx.Batch{}
	for _, d := range rows {
		b.Queue(q, d.ID, d.BotID, d.TemplateID, d.ChatID, d.TelegramUserID, d.FireAt, string(d.Status), d.CreatedAt)
	}
	br := ex.SendBatch(ctx, b)
	defer br.Close()
	for _, d := range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("enqueue %s: %w", d.ID, err)
		}
	}
	return br.Close()
}

// ClaimDue stamps due rows with token. SKIP LOCKED keeps overlapping ticks from blocking on
// each other; the lease lets rows of a crashed worker be picked up again.
func (r *deliveryRepo) ClaimDue(ctx context.Context, token string, now time.Time, limit int, lease time.Duration) ([]*model.QueuedDelivery, error) {
	const q = `
UPDATE message_queue q
   SET claim_token = $1, claimed_at = $2, updated_at = $2
 WHERE q.id IN (
       SELECT id
         FROM message_queue
        WHERE status = 'pending'
          AND scheduled_for <= $2
          AND (claimed_at IS NULL OR claimed_at < $3)
        ORDER BY scheduled_for
        LIMIT $4
          FOR UPDATE SKIP LOCKED)
RETURNING ` + deliveryColumns + `;`

	rows, err := queryRows(ctx, r.pool, nil, q, token, now, now.Add(-lease), limit)
	if err != nil {
		return nil, fmt.Errorf("claim due deliveries: %w", err)
	}
	defer rows.Close()

	var out []*model.QueuedDelivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, scanErr(err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim due deliveries: %w", err)
	}

	// RETURNING has no order
	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out, nil
}

func (r *deliveryRepo) MarkSent(ctx context.Context, tx repository.Tx, id, token string, at time.Time) error {
	const q = `
UPDATE message_queue
   SET status = 'sent', sent_at = $3, error_message = NULL, updated_at = NOW()
 WHERE id = $1 AND status = 'pending' AND claim_token = $2;`
	return r.transition(ctx, tx, q, id, token, at)
}

func (r *deliveryRepo) MarkFailed(ctx context.Context, tx repository.Tx, id, token string, reason string) error {
	const q = `
UPDATE message_queue
   SET status = 'failed', error_message = $3, updated_at = NOW()
 WHERE id = $1 AND status = 'pending' AND claim_token = $2;`
	return r.transition(ctx, tx, q, id, token, truncate(reason, maxErrorLength))
}

func (r *deliveryRepo) Release(ctx context.Context, tx repository.Tx, id, token string) error {
	const q = `
UPDATE message_queue
   SET claim_token = NULL, claimed_at = NULL, updated_at = NOW()
 WHERE id = $1 AND status = 'pending' AND claim_token = $2;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, token)
	if err != nil {
		return fmt.Errorf("release delivery %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrClaimLost
	}
	return nil
}

// transition is the compare-and-swap on (pending, token). Zero rows means another worker won.
func (r *deliveryRepo) transition(ctx context.Context, tx repository.Tx, q, id, token string, arg interface{}) error {
	cmd, err := execSQL(ctx, r.pool, tx, q, id, token, arg)
	if err != nil {
		return fmt.Errorf("transition delivery %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrClaimLost
	}
	return nil
}

func (r *deliveryRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.QueuedDelivery, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+deliveryColumns+` FROM message_queue WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	d, err := scanDelivery(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return d, nil
}

func (r *deliveryRepo) CountByStatus(ctx context.Context, tx repository.Tx, botID string) (map[model.DeliveryStatus]int, error) {
	rows, err := queryRows(ctx, r.pool, tx,
		`SELECT status, COUNT(*) FROM message_queue WHERE ($1 = '' OR bot_id::text = $1) GROUP BY status;`, botID)
	if err != nil {
		return nil, fmt.Errorf("count deliveries: %w", err)
	}
	defer rows.Close()

	out := map[model.DeliveryStatus]int{
		model.DeliveryPending: 0,
		model.DeliverySent:    0,
		model.DeliveryFailed:  0,
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, scanErr(err)
		}
		out[model.DeliveryStatus(status)] = n
	}
	return out, rows.Err()
}

func scanDelivery(row pgx.Row) (*model.QueuedDelivery, error) {
	var (
		d                   model.QueuedDelivery
		status              string
		tmpl, errMsg, token *string
	)
	if err := row.Scan(&d.ID, &d.BotID, &tmpl, &d.ChatID, &d.TelegramUserID, &d.FireAt,
		&status, &d.SentAt, &errMsg, &token, &d.ClaimedAt, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Status = model.DeliveryStatus(status)
	d.TemplateID = derefString(tmpl)
	d.Error = derefString(errMsg)
	d.ClaimToken = derefString(token)
	return &d, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
