package repository

import (
	"context"

	"telegram-sales-bot/internal/domain/model"
)

// PlanRef is a stored template-to-plan link before plan resolution.
type PlanRef struct {
	PlanID          string
	DiscountPercent int
}

type TemplateRepository interface {
	SaveScheduled(ctx context.Context, tx Tx, m *model.ScheduledMessage, plans []PlanRef) error
	// FindScheduled returns the template regardless of its active flag.
	FindScheduled(ctx context.Context, tx Tx, id string) (*model.ScheduledMessage, error)
	// ListActiveScheduled returns a bot's active sequence ordered by delay.
	ListActiveScheduled(ctx context.Context, tx Tx, botID string) ([]*model.ScheduledMessage, error)
	ListScheduledPlanRefs(ctx context.Context, tx Tx, templateID string) ([]PlanRef, error)

	SaveBotMessage(ctx context.Context, tx Tx, m *model.BotMessage, planIDs []string) error
	// FindActiveBotMessage returns domain.ErrNotFound when the bot has no active message of that kind.
	FindActiveBotMessage(ctx context.Context, tx Tx, botID string, kind model.BotMessageKind) (*model.BotMessage, error)
	ListBotMessagePlanIDs(ctx context.Context, tx Tx, messageID string) ([]string, error)
}
