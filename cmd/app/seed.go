package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
)

var (
	seedToken   string
	seedSecret  string
	seedChannel string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a demo bot with plans, a welcome message and a two-step follow-up sequence",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedToken == "" {
			return errors.New("--bot-token is required")
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var botID string
		err = a.tm.WithTx(cmd.Context(), pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			id, err := seedDemo(ctx, a, tx)
			botID = id
			return err
		})
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		a.log.Info().Str("bot_id", botID).Msg("seed completed")
		fmt.Printf("webhook path: /telegram/webhook?bot_id=%s\n", botID)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedToken, "bot-token", "", "Telegram bot token of the demo bot")
	seedCmd.Flags().StringVar(&seedSecret, "webhook-secret", "", "secret expected in X-Telegram-Bot-Api-Secret-Token")
	seedCmd.Flags().StringVar(&seedChannel, "vip-channel", "", "VIP channel id or @username for invite links")
}

// seedID derives stable ids so that seeding twice updates instead of duplicating.
func seedID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("salesbot-seed/"+name)).String()
}

func seedDemo(ctx context.Context, a *app, tx repository.Tx) (string, error) {
	bot := &model.Bot{
		ID:            seedID("bot"),
		Name:          "Demo Sales Bot",
		Token:         seedToken,
		WebhookSecret: seedSecret,
		IsActive:      true,
		SendWelcome:   true,
	}
	if err := a.bots.Save(ctx, tx, bot); err != nil {
		return "", err
	}

	plans := []struct {
		key   string
		name  string
		price string
		days  int
	}{
		{"plan-monthly", "Mensal", "29.90", 30},
		{"plan-quarterly", "Trimestral", "79.90", 90},
		{"plan-yearly", "Anual", "249.90", 365},
	}
	planIDs := make([]string, 0, len(plans))
	for _, p := range plans {
		plan, err := model.NewPlan(seedID(p.key), bot.ID, p.name, decimal.RequireFromString(p.price), p.days,
			"https://pay.example.com/"+p.key)
		if err != nil {
			return "", fmt.Errorf("plan %s: %w", p.key, err)
		}
		if err := a.plans.Save(ctx, tx, plan); err != nil {
			return "", err
		}
		planIDs = append(planIDs, plan.ID)
	}

	welcome := &model.BotMessage{
		ID:       seedID("welcome"),
		BotID:    bot.ID,
		Kind:     model.BotMessageWelcome,
		Content:  model.Content{Text: "<b>Bem-vindo!</b> Escolha um plano abaixo."},
		IsActive: true,
	}
	if err := a.tmpls.SaveBotMessage(ctx, tx, welcome, planIDs); err != nil {
		return "", err
	}

	steps := []struct {
		key      string
		delay    int
		content  model.Content
		discount int
	}{
		{"step-5m", 5, model.Content{Text: "Ainda pensando? Os planos continuam disponíveis."}, 0},
		{"step-60m", 60, model.Content{
			Text:   "Última chance: <b>20% OFF</b> só hoje!",
			Button: &model.Button{Label: "Falar com suporte", URL: "https://t.me/suporte"},
		}, 20},
	}
	for _, s := range steps {
		m, err := model.NewScheduledMessage(seedID(s.key), bot.ID, s.delay, s.content)
		if err != nil {
			return "", fmt.Errorf("template %s: %w", s.key, err)
		}
		refs := make([]repository.PlanRef, 0, len(planIDs))
		for _, id := range planIDs {
			refs = append(refs, repository.PlanRef{PlanID: id, DiscountPercent: s.discount})
		}
		if err := a.tmpls.SaveScheduled(ctx, tx, m, refs); err != nil {
			return "", err
		}
	}

	if seedChannel != "" {
		ch := &model.BotChannel{
			ID:        seedID("vip-channel"),
			BotID:     bot.ID,
			ChannelID: seedChannel,
			Name:      "VIP",
			Kind:      model.ChannelVIP,
			IsActive:  true,
		}
		if err := a.channels.Save(ctx, tx, ch); err != nil {
			return "", err
		}
	}
	return bot.ID, nil
}
