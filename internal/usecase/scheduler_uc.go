package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-sales-bot/internal/domain"
	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/adapter"
	"telegram-sales-bot/internal/domain/ports/repository"
	"telegram-sales-bot/internal/infra/logging"
	"telegram-sales-bot/internal/infra/metrics"
)

// Compile-time check
var _ SchedulerUseCase = (*schedulerUC)(nil)

type SchedulerUseCase interface {
	// OnStart records the interaction, queues the bot's active sequence for the user
	// and sends the welcome message. It returns how many deliveries were queued.
	OnStart(ctx context.Context, bot *model.Bot, ev *model.IncomingEvent) (int, error)
	// SendWelcome delivers the welcome message right away.
	SendWelcome(ctx context.Context, bot *model.Bot, chatID int64) error
}

type schedulerUC struct {
	interactions repository.InteractionRepository
	templates    repository.TemplateRepository
	plans        repository.PlanRepository
	queue        repository.DeliveryRepository
	tm           repository.TransactionManager
	gateway      adapter.TelegramGateway
	tr           Translator
	log          *zerolog.Logger
	now          func() time.Time
}

func NewSchedulerUseCase(
	interactions repository.InteractionRepository,
	templates repository.TemplateRepository,
	plans repository.PlanRepository,
	queue repository.DeliveryRepository,
	tm repository.TransactionManager,
	gateway adapter.TelegramGateway,
	tr Translator,
	logger *zerolog.Logger,
) *schedulerUC {
	return &schedulerUC{
		interactions: interactions,
		templates:    templates,
		plans:        plans,
		queue:        queue,
		tm:           tm,
		gateway:      gateway,
		tr:           tr,
		log:          logger,
		now:          time.Now,
	}
}

func (u *schedulerUC) OnStart(ctx context.Context, bot *model.Bot, ev *model.IncomingEvent) (int, error) {
	defer logging.TraceDuration(u.log, "SchedulerUC.OnStart")()
	if bot.IsZero() || ev == nil {
		return 0, domain.ErrInvalidArgument
	}
	log := logging.With(logging.WithChatID(logging.WithBotID(ctx, bot.ID), ev.ChatID), u.log)
	now := u.now()

	in := &model.Interaction{
		BotID:          bot.ID,
		ChatID:         ev.ChatID,
		TelegramUserID: ev.TelegramUserID,
		Username:       ev.Username,
		FirstName:      ev.FirstName,
		LastStartAt:    now,
	}
	if err := u.interactions.Upsert(ctx, repository.NoTX, in); err != nil {
		log.Error().Err(err).Msg("upsert interaction")
	}

	n, queueErr := u.enqueue(ctx, bot, ev, now)
	if queueErr != nil {
		log.Error().Err(queueErr).Msg("queue scheduled messages")
	} else if n > 0 {
		log.Info().Int("queued", n).Msg("scheduled messages queued")
	}

	if err := u.SendWelcome(ctx, bot, ev.ChatID); err != nil {
		log.Error().Err(err).Msg("send welcome")
	}
	return n, queueErr
}

func (u *schedulerUC) enqueue(ctx context.Context, bot *model.Bot, ev *model.IncomingEvent, now time.Time) (int, error) {
	tmpls, err := u.templates.ListActiveScheduled(ctx, repository.NoTX, bot.ID)
	if err != nil {
		return 0, fmt.Errorf("list active templates: %w", err)
	}
	if len(tmpls) == 0 {
		return 0, nil
	}
	rows := make([]*model.QueuedDelivery, 0, len(tmpls))
	for _, t := range tmpls {
		row, err := model.NewQueuedDelivery(bot, t, ev.ChatID, ev.TelegramUserID, now)
		if err != nil {
			return 0, fmt.Errorf("build delivery for template %s: %w", t.ID, err)
		}
		rows = append(rows, row)
	}
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return u.queue.EnqueueBatch(ctx, tx, rows)
	})
	if err != nil {
		return 0, fmt.Errorf("enqueue deliveries: %w", err)
	}
	metrics.AddDeliveriesEnqueued(len(rows))
	return len(rows), nil
}

func (u *schedulerUC) SendWelcome(ctx context.Context, bot *model.Bot, chatID int64) error {
	if !bot.SendWelcome {
		return nil
	}
	content, links, err := u.welcomeContent(ctx, bot)
	if err != nil {
		return err
	}
	payload, err := Render(content, links)
	if err != nil {
		return err
	}
	_, err = sendWithFallback(ctx, u.gateway, bot.Token, adapter.Recipient{ChatID: chatID}, payload)
	if err != nil {
		return errors.New(logging.RedactToken(err.Error(), bot.Token))
	}
	return nil
}

// welcomeContent returns the bot's active welcome message, or the built-in one when none is configured.
// The bot's welcome image stands in when the message carries no media of its own.
func (u *schedulerUC) welcomeContent(ctx context.Context, bot *model.Bot) (model.Content, []model.PlanLink, error) {
	var content model.Content
	var links []model.PlanLink

	msg, err := u.templates.FindActiveBotMessage(ctx, repository.NoTX, bot.ID, model.BotMessageWelcome)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		content.Text = u.tr.T("default_welcome")
	case err != nil:
		return content, nil, fmt.Errorf("load welcome message: %w", err)
	default:
		content = msg.Content
		ids, err := u.templates.ListBotMessagePlanIDs(ctx, repository.NoTX, msg.ID)
		if err != nil {
			return content, nil, fmt.Errorf("load welcome plans: %w", err)
		}
		if links, err = resolvePlanLinks(ctx, u.plans, plainRefs(ids)); err != nil {
			return content, nil, err
		}
	}

	if content.Media == nil && bot.WelcomeImageURL != "" {
		content.Media = &model.Media{Type: model.MediaImage, Ref: bot.WelcomeImageURL}
	}
	return content, links, nil
}
