//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-sales-bot/internal/domain"
	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
	"telegram-sales-bot/internal/infra/security"
)

func TestTemplateAndPlanRepos(t *testing.T) {
	ctx := context.Background()
	cleanup(t)
	bot := seedBot(t, ctx)
	plans := NewPostgresPlanRepo(testPool)
	tmpls := NewTemplateRepo(testPool)

	gold := seedPlan(t, ctx, bot.ID, "Gold", "100.00", "https://pay/gold", true)
	silver := seedPlan(t, ctx, bot.ID, "Silver", "50.00", "https://pay/silver", true)
	old := seedPlan(t, ctx, bot.ID, "Old", "10.00", "https://pay/old", false)

	late := seedTemplate(t, ctx, bot.ID, 60, "later")
	early := seedTemplate(t, ctx, bot.ID, 5, "soon",
		repository.PlanRef{PlanID: silver.ID, DiscountPercent: 10},
		repository.PlanRef{PlanID: gold.ID, DiscountPercent: 20},
		repository.PlanRef{PlanID: old.ID, DiscountPercent: 0})
	inactive := &model.ScheduledMessage{BotID: bot.ID, DelayMinutes: 1, Content: model.Content{Text: "off"}, CreatedAt: time.Now()}
	if err := tmpls.SaveScheduled(ctx, nil, inactive, nil); err != nil {
		t.Fatal(err)
	}

	t.Run("active sequence is ordered by delay", func(t *testing.T) {
		got, err := tmpls.ListActiveScheduled(ctx, nil, bot.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0].ID != early.ID || got[1].ID != late.ID {
			t.Fatalf("unexpected sequence %+v", got)
		}
	})

	t.Run("plan links keep their order and discount", func(t *testing.T) {
		refs, err := tmpls.ListScheduledPlanRefs(ctx, nil, early.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(refs) != 3 || refs[0].PlanID != silver.ID || refs[1].DiscountPercent != 20 {
			t.Fatalf("unexpected refs %+v", refs)
		}
		active, err := plans.FindActiveByIDs(ctx, nil, []string{refs[0].PlanID, refs[1].PlanID, refs[2].PlanID})
		if err != nil {
			t.Fatal(err)
		}
		if len(active) != 2 || active[0].ID != silver.ID || active[1].ID != gold.ID {
			t.Fatalf("expected silver then gold, got %+v", active)
		}
		if active[1].Price.StringFixed(2) != "100.00" {
			t.Errorf("unexpected price %s", active[1].Price)
		}
	})

	t.Run("bot messages resolve by kind", func(t *testing.T) {
		welcome := &model.BotMessage{BotID: bot.ID, Kind: model.BotMessageWelcome, IsActive: true, CreatedAt: time.Now(),
			Content: model.Content{Text: "hi", Media: &model.Media{Type: model.MediaImage, Ref: "https://img"}}}
		if err := tmpls.SaveBotMessage(ctx, nil, welcome, []string{gold.ID}); err != nil {
			t.Fatal(err)
		}
		got, err := tmpls.FindActiveBotMessage(ctx, nil, bot.ID, model.BotMessageWelcome)
		if err != nil {
			t.Fatal(err)
		}
		if got.Media == nil || got.Media.Type != model.MediaImage || got.Button != nil {
			t.Errorf("unexpected content %+v", got.Content)
		}
		ids, _ := tmpls.ListBotMessagePlanIDs(ctx, nil, got.ID)
		if len(ids) != 1 || ids[0] != gold.ID {
			t.Errorf("unexpected plan ids %v", ids)
		}
		if _, err := tmpls.FindActiveBotMessage(ctx, nil, bot.ID, model.BotMessageExpiration); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestBotRepo_SealsTokens(t *testing.T) {
	ctx := context.Background()
	cleanup(t)
	enc, err := security.NewEncryptionService("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatal(err)
	}
	repo := NewBotRepo(testPool, enc)
	b := &model.Bot{Name: "Sealed", Token: "999:secret", IsActive: true}
	if err := repo.Save(ctx, nil, b); err != nil {
		t.Fatal(err)
	}

	var stored string
	if err := testPool.QueryRow(ctx, `SELECT bot_token FROM telegram_bots WHERE id = $1`, b.ID).Scan(&stored); err != nil {
		t.Fatal(err)
	}
	if !security.IsSealed(stored) {
		t.Fatalf("token stored in clear: %q", stored)
	}
	got, err := repo.FindByID(ctx, nil, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Token != "999:secret" || got.SendWelcome {
		t.Errorf("unexpected bot %+v", got)
	}
	if _, err := repo.FindByID(ctx, nil, "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a malformed id, got %v", err)
	}
}
