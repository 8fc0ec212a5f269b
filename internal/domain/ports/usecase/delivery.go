package usecase

import (
	"context"

	"telegram-sales-bot/internal/domain/model"
)

// DeliveryRunner runs one delivery tick. It is what periodic triggers
// (in-process scheduler, HTTP trigger, CLI) depend on.
type DeliveryRunner interface {
	RunOnce(ctx context.Context) (model.TickSummary, error)
}
