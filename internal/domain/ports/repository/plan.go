package repository

import (
	"context"

	"telegram-sales-bot/internal/domain/model"
)

type PlanRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Plan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Plan, error)
	// FindActiveByIDs returns only active plans, in the order of ids. Missing ids are skipped.
	FindActiveByIDs(ctx context.Context, tx Tx, ids []string) ([]*model.Plan, error)
	ListByBot(ctx context.Context, tx Tx, botID string) ([]*model.Plan, error)
}
