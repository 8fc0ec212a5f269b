package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
)

var _ repository.TemplateRepository = (*templateRepo)(nil)

type templateRepo struct {
	pool *pgxpool.Pool
}

func NewTemplateRepo(pool *pgxpool.Pool) *templateRepo {
	return &templateRepo{pool: pool}
}

// contentColumns are shared by scheduled_messages and bot_messages.
const contentColumns = `message_text, media_type, media_url, button_text, button_url`

const scheduledColumns = `id, bot_id, delay_minutes, ` + contentColumns + `, is_active, created_at`

func (r *templateRepo) SaveScheduled(ctx context.Context, tx repository.Tx, m *model.ScheduledMessage, plans []repository.PlanRef) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	mt, mu, bt, bu := contentArgs(m.Content)
	const q = `
INSERT INTO scheduled_messages (id, bot_id, delay_minutes, message_text, media_type, media_url, button_text, button_url, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
  delay_minutes = EXCLUDED.delay_minutes,
  message_text = EXCLUDED.message_text,
  media_type = EXCLUDED.media_type,
  media_url = EXCLUDED.media_url,
  button_text = EXCLUDED.button_text,
  button_url = EXCLUDED.button_url,
  is_active = EXCLUDED.is_active;`
	if _, err := execSQL(ctx, r.pool, tx, q,
		m.ID, m.BotID, m.DelayMinutes, m.Text, mt, mu, bt, bu, m.IsActive, m.CreatedAt); err != nil {
		return fmt.Errorf("save scheduled message: %w", err)
	}

	if _, err := execSQL(ctx, r.pool, tx, `DELETE FROM scheduled_message_plans WHERE scheduled_message_id = $1;`, m.ID); err != nil {
		return fmt.Errorf("reset scheduled message plans: %w", err)
	}
	for i, p := range plans {
		const ql = `
INSERT INTO scheduled_message_plans (scheduled_message_id, bot_plan_id, discount_percentage, position)
VALUES ($1, $2, $3, $4);`
		if _, err := execSQL(ctx, r.pool, tx, ql, m.ID, p.PlanID, p.DiscountPercent, i); err != nil {
			return fmt.Errorf("link plan %s: %w", p.PlanID, err)
		}
	}
	return nil
}

func (r *templateRepo) FindScheduled(ctx context.Context, tx repository.Tx, id string) (*model.ScheduledMessage, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+scheduledColumns+` FROM scheduled_messages WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	m, err := scanScheduled(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return m, nil
}

func (r *templateRepo) ListActiveScheduled(ctx context.Context, tx repository.Tx, botID string) ([]*model.ScheduledMessage, error) {
	rows, err := queryRows(ctx, r.pool, tx, `
SELECT `+scheduledColumns+`
  FROM scheduled_messages
 WHERE bot_id = $1 AND is_active
 ORDER BY delay_minutes, created_at;`, botID)
	if err != nil {
		return nil, fmt.Errorf("list scheduled messages: %w", err)
	}
	defer rows.Close()

	var out []*model.ScheduledMessage
	for rows.Next() {
		m, err := scanScheduled(rows)
		if err != nil {
			return nil, scanErr(err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *templateRepo) ListScheduledPlanRefs(ctx context.Context, tx repository.Tx, templateID string) ([]repository.PlanRef, error) {
	rows, err := queryRows(ctx, r.pool, tx, `
SELECT bot_plan_id::text, discount_percentage
  FROM scheduled_message_plans
 WHERE scheduled_message_id = $1
 ORDER BY position, bot_plan_id;`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list plan links: %w", err)
	}
	defer rows.Close()

	var out []repository.PlanRef
	for rows.Next() {
		var ref repository.PlanRef
		if err := rows.Scan(&ref.PlanID, &ref.DiscountPercent); err != nil {
			return nil, scanErr(err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *templateRepo) SaveBotMessage(ctx context.Context, tx repository.Tx, m *model.BotMessage, planIDs []string) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	mt, mu, bt, bu := contentArgs(m.Content)
	const q = `
INSERT INTO bot_messages (id, bot_id, message_type, message_text, media_type, media_url, button_text, button_url, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
  message_text = EXCLUDED.message_text,
  media_type = EXCLUDED.media_type,
  media_url = EXCLUDED.media_url,
  button_text = EXCLUDED.button_text,
  button_url = EXCLUDED.button_url,
  is_active = EXCLUDED.is_active;`
	if _, err := execSQL(ctx, r.pool, tx, q,
		m.ID, m.BotID, string(m.Kind), m.Text, mt, mu, bt, bu, m.IsActive, m.CreatedAt); err != nil {
		return fmt.Errorf("save bot message: %w", err)
	}
	if _, err := execSQL(ctx, r.pool, tx, `DELETE FROM bot_message_plans WHERE bot_message_id = $1;`, m.ID); err != nil {
		return fmt.Errorf("reset bot message plans: %w", err)
	}
	for i, id := range planIDs {
		if _, err := execSQL(ctx, r.pool, tx,
			`INSERT INTO bot_message_plans (bot_message_id, bot_plan_id, position) VALUES ($1, $2, $3);`, m.ID, id, i); err != nil {
			return fmt.Errorf("link plan %s: %w", id, err)
		}
	}
	return nil
}

func (r *templateRepo) FindActiveBotMessage(ctx context.Context, tx repository.Tx, botID string, kind model.BotMessageKind) (*model.BotMessage, error) {
	row, err := pickRow(ctx, r.pool, tx, `
SELECT id, bot_id, message_type, `+contentColumns+`, is_active, created_at
  FROM bot_messages
 WHERE bot_id = $1 AND message_type = $2 AND is_active
 ORDER BY created_at DESC
 LIMIT 1;`, botID, string(kind))
	if err != nil {
		return nil, err
	}

	var (
		m    model.BotMessage
		k    string
		cols contentScan
	)
	dest := append([]interface{}{&m.ID, &m.BotID, &k}, cols.dest()...)
	dest = append(dest, &m.IsActive, &m.CreatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, scanErr(err)
	}
	m.Kind = model.BotMessageKind(k)
	m.Content = cols.content()
	return &m, nil
}

func (r *templateRepo) ListBotMessagePlanIDs(ctx context.Context, tx repository.Tx, messageID string) ([]string, error) {
	rows, err := queryRows(ctx, r.pool, tx, `
SELECT bot_plan_id::text FROM bot_message_plans WHERE bot_message_id = $1 ORDER BY position, bot_plan_id;`, messageID)
	if err != nil {
		return nil, fmt.Errorf("list bot message plans: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, scanErr(err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanScheduled(row pgx.Row) (*model.ScheduledMessage, error) {
	var (
		m    model.ScheduledMessage
		cols contentScan
	)
	dest := append([]interface{}{&m.ID, &m.BotID, &m.DelayMinutes}, cols.dest()...)
	dest = append(dest, &m.IsActive, &m.CreatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	m.Content = cols.content()
	return &m, nil
}

// contentScan receives the nullable content columns.
type contentScan struct {
	text                                 string
	mediaType, mediaURL, btnText, btnURL *string
}

func (c *contentScan) dest() []interface{} {
	return []interface{}{&c.text, &c.mediaType, &c.mediaURL, &c.btnText, &c.btnURL}
}

func (c *contentScan) content() model.Content {
	out := model.Content{Text: c.text}
	if url := derefString(c.mediaURL); url != "" {
		out.Media = &model.Media{Type: model.ParseMediaType(derefString(c.mediaType)), Ref: url}
	}
	label, target := derefString(c.btnText), derefString(c.btnURL)
	if label != "" && target != "" {
		out.Button = &model.Button{Label: label, URL: target}
	}
	return out
}

func contentArgs(c model.Content) (mediaType, mediaURL, btnText, btnURL *string) {
	if c.Media != nil {
		t := string(c.Media.Type)
		mediaType, mediaURL = &t, nullIfEmpty(c.Media.Ref)
	}
	if c.Button != nil {
		btnText, btnURL = nullIfEmpty(c.Button.Label), nullIfEmpty(c.Button.URL)
	}
	return
}
