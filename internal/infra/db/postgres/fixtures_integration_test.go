//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
)

func seedBot(t *testing.T, ctx context.Context) *model.Bot {
	t.Helper()
	b := &model.Bot{Name: "Sales", Token: "123:abc", WebhookSecret: "s3cret", IsActive: true, SendWelcome: true}
	if err := NewBotRepo(testPool, nil).Save(ctx, nil, b); err != nil {
		t.Fatalf("seed bot: %v", err)
	}
	return b
}

func seedPlan(t *testing.T, ctx context.Context, botID, name, price, link string, active bool) *model.Plan {
	t.Helper()
	p := &model.Plan{BotID: botID, Name: name, Price: decimal.RequireFromString(price), DurationDays: 30,
		PaymentLink: link, IsActive: active, CreatedAt: time.Now()}
	if err := NewPostgresPlanRepo(testPool).Save(ctx, nil, p); err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	return p
}

func seedTemplate(t *testing.T, ctx context.Context, botID string, delay int, text string, refs ...repository.PlanRef) *model.ScheduledMessage {
	t.Helper()
	m := &model.ScheduledMessage{BotID: botID, DelayMinutes: delay, Content: model.Content{Text: text}, IsActive: true, CreatedAt: time.Now()}
	if err := NewTemplateRepo(testPool).SaveScheduled(ctx, nil, m, refs); err != nil {
		t.Fatalf("seed template: %v", err)
	}
	return m
}
