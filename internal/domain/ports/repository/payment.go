package repository

import (
	"context"
	"time"

	"telegram-sales-bot/internal/domain/model"
)

type PaymentWebhookRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PaymentWebhook) error
	// MarkProcessed is a no-op on an already processed row and reports whether it changed.
	MarkProcessed(ctx context.Context, tx Tx, id string, at time.Time) (bool, error)
	// ApprovalProcessed reports whether an approval for the same bot, user and plan was already handled.
	ApprovalProcessed(ctx context.Context, tx Tx, botID string, userID int64, planID string) (bool, error)
}
