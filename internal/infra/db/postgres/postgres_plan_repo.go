package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PlanRepository = (*PostgresPlanRepo)(nil)

type PostgresPlanRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPlanRepo(pool *pgxpool.Pool) *PostgresPlanRepo {
	return &PostgresPlanRepo{pool: pool}
}

const planColumns = `id, bot_id, plan_name, plan_description, price::text, duration_days, payment_link, is_active, created_at`

func (r *PostgresPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	const sql = `
INSERT INTO bot_plans (id, bot_id, plan_name, plan_description, price, duration_days, payment_link, is_active, created_at)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE
  SET plan_name        = EXCLUDED.plan_name,
      plan_description = EXCLUDED.plan_description,
      price            = EXCLUDED.price,
      duration_days    = EXCLUDED.duration_days,
      payment_link     = EXCLUDED.payment_link,
      is_active        = EXCLUDED.is_active;
`
	_, err := execSQL(ctx, r.pool, tx, sql,
		p.ID, p.BotID, p.Name, nullIfEmpty(p.Description), p.Price.StringFixed(2),
		p.DurationDays, nullIfEmpty(p.PaymentLink), p.IsActive, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Save plan: %w", err)
	}
	return nil
}

func (r *PostgresPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+planColumns+` FROM bot_plans WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	p, err := scanPlan(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return p, nil
}

func (r *PostgresPlanRepo) FindActiveByIDs(ctx context.Context, tx repository.Tx, ids []string) ([]*model.Plan, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := queryRows(ctx, r.pool, tx,
		`SELECT `+planColumns+` FROM bot_plans WHERE id = ANY($1::uuid[]) AND is_active;`, ids)
	if err != nil {
		return nil, fmt.Errorf("FindActiveByIDs plans: %w", err)
	}
	found, err := collectPlans(rows)
	if err != nil {
		return nil, err
	}
	return orderByIDs(found, ids), nil
}

func (r *PostgresPlanRepo) ListByBot(ctx context.Context, tx repository.Tx, botID string) ([]*model.Plan, error) {
	rows, err := queryRows(ctx, r.pool, tx,
		`SELECT `+planColumns+` FROM bot_plans WHERE bot_id = $1 ORDER BY price, plan_name;`, botID)
	if err != nil {
		return nil, fmt.Errorf("ListByBot plans: %w", err)
	}
	return collectPlans(rows)
}

func scanPlan(row pgx.Row) (*model.Plan, error) {
	var (
		p          model.Plan
		desc, link *string
		price      string
	)
	if err := row.Scan(&p.ID, &p.BotID, &p.Name, &desc, &price, &p.DurationDays, &link, &p.IsActive, &p.CreatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("plan %s price %q: %w", p.ID, price, err)
	}
	p.Price = d
	p.Description = derefString(desc)
	p.PaymentLink = derefString(link)
	return &p, nil
}

func collectPlans(rows pgx.Rows) ([]*model.Plan, error) {
	defer rows.Close()
	var out []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// orderByIDs returns plans in the order of ids, dropping ids without a plan.
func orderByIDs(plans []*model.Plan, ids []string) []*model.Plan {
	byID := make(map[string]*model.Plan, len(plans))
	for _, p := range plans {
		byID[p.ID] = p
	}
	out := make([]*model.Plan, 0, len(plans))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			delete(byID, id)
		}
	}
	return out
}
