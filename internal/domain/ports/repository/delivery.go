package repository

import (
	"context"
	"time"

	"telegram-sales-bot/internal/domain/model"
)

type DeliveryRepository interface {
	// EnqueueBatch inserts all rows or none.
	EnqueueBatch(ctx context.Context, tx Tx, rows []*model.QueuedDelivery) error
	// ClaimDue stamps up to limit due pending rows with token, oldest fire_at first.
	// Rows claimed by someone else less than lease ago are skipped.
	ClaimDue(ctx context.Context, token string, now time.Time, limit int, lease time.Duration) ([]*model.QueuedDelivery, error)
	// MarkSent and MarkFailed return domain.ErrClaimLost when the row is no longer pending under token.
	MarkSent(ctx context.Context, tx Tx, id, token string, at time.Time) error
	MarkFailed(ctx context.Context, tx Tx, id, token string, reason string) error
	// Release drops token's claim on a still pending row so the next tick can take it at once.
	Release(ctx context.Context, tx Tx, id, token string) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.QueuedDelivery, error)
	// CountByStatus counts rows per status; an empty botID counts every bot.
	CountByStatus(ctx context.Context, tx Tx, botID string) (map[model.DeliveryStatus]int, error)
}
