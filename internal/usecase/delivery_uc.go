package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"telegram-sales-bot/internal/domain"
	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/adapter"
	"telegram-sales-bot/internal/domain/ports/repository"
	ports "telegram-sales-bot/internal/domain/ports/usecase"
	"telegram-sales-bot/internal/infra/logging"
	"telegram-sales-bot/internal/infra/metrics"
)

// Compile-time check
var _ ports.DeliveryRunner = (*deliveryUC)(nil)

// DeliveryConfig bounds one worker tick.
type DeliveryConfig struct {
	BatchSize int
	// Concurrency 1 sends strictly in fire_at order.
	Concurrency int
	ClaimLease  time.Duration
	// RowTimeout caps everything done for one row up to and including the send.
	RowTimeout time.Duration
	// WriteTimeout caps the terminal status write.
	WriteTimeout time.Duration
}

type deliveryUC struct {
	queue     repository.DeliveryRepository
	bots      repository.BotRepository
	templates repository.TemplateRepository
	plans     repository.PlanRepository
	gateway   adapter.TelegramGateway
	cfg       DeliveryConfig
	log       *zerolog.Logger
	now       func() time.Time
}

func NewDeliveryUseCase(
	queue repository.DeliveryRepository,
	bots repository.BotRepository,
	templates repository.TemplateRepository,
	plans repository.PlanRepository,
	gateway adapter.TelegramGateway,
	cfg DeliveryConfig,
	logger *zerolog.Logger,
) *deliveryUC {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ClaimLease <= 0 {
		cfg.ClaimLease = 10 * time.Minute
	}
	if cfg.RowTimeout <= 0 {
		cfg.RowTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &deliveryUC{
		queue:     queue,
		bots:      bots,
		templates: templates,
		plans:     plans,
		gateway:   gateway,
		cfg:       cfg,
		log:       logger,
		now:       time.Now,
	}
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeFailed
	outcomeLost
	outcomeReleased
)

// RunOnce claims the due rows and drives each one to a terminal state, or back to the
// queue when the tick is cancelled before the row's turn.
// Rows are independent: one row's failure never stops its siblings.
func (u *deliveryUC) RunOnce(ctx context.Context) (model.TickSummary, error) {
	defer logging.TraceDuration(u.log, "DeliveryUC.RunOnce")()
	started := time.Now()
	token := uuid.NewString()

	rows, err := u.queue.ClaimDue(ctx, token, u.now(), u.cfg.BatchSize, u.cfg.ClaimLease)
	if err != nil {
		return model.TickSummary{}, fmt.Errorf("claim due deliveries: %w", err)
	}
	sum := model.TickSummary{Claimed: len(rows)}
	if len(rows) == 0 {
		metrics.ObserveDeliveryTick(0, 0, 0, 0, 0, time.Since(started))
		return sum, nil
	}

	results := make([]outcome, len(rows))
	var g errgroup.Group
	g.SetLimit(u.cfg.Concurrency)
	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			results[i] = u.deliver(ctx, token, row)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		switch r {
		case outcomeSent:
			sum.Sent++
		case outcomeFailed:
			sum.Failed++
		case outcomeReleased:
			sum.Released++
		default:
			sum.Lost++
		}
	}
	metrics.ObserveDeliveryTick(sum.Claimed, sum.Sent, sum.Failed, sum.Lost, sum.Released, time.Since(started))
	u.log.Info().
		Int("claimed", sum.Claimed).
		Int("sent", sum.Sent).
		Int("failed", sum.Failed).
		Int("lost", sum.Lost).
		Int("released", sum.Released).
		Dur("took", time.Since(started)).
		Msg("delivery tick finished")
	return sum, nil
}

func (u *deliveryUC) deliver(ctx context.Context, token string, row *model.QueuedDelivery) outcome {
	log := u.log.With().Str("delivery_id", row.ID).Str("bot_id", row.BotID).Int64("chat_id", row.ChatID).Logger()

	// Once the tick is cancelled, rows not yet started go back to the queue untouched.
	if ctx.Err() != nil {
		writeCtx, cancelWrite := u.writeContext(ctx)
		defer cancelWrite()
		if err := u.queue.Release(writeCtx, repository.NoTX, row.ID, token); err != nil {
			return u.writeLost(&log, err)
		}
		log.Debug().Msg("delivery released")
		return outcomeReleased
	}

	// A started row runs to completion under its own timeout, even if the tick is cancelled.
	rowCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.cfg.RowTimeout)
	botToken, sendErr := u.send(rowCtx, row)
	cancel()

	writeCtx, cancelWrite := u.writeContext(ctx)
	defer cancelWrite()
	if sendErr != nil {
		reason := logging.RedactToken(sendErr.Error(), botToken)
		log.Warn().Str("reason", reason).Msg("delivery failed")
		if err := u.queue.MarkFailed(writeCtx, repository.NoTX, row.ID, token, reason); err != nil {
			return u.writeLost(&log, err)
		}
		return outcomeFailed
	}
	if err := u.queue.MarkSent(writeCtx, repository.NoTX, row.ID, token, u.now()); err != nil {
		return u.writeLost(&log, err)
	}
	log.Debug().Msg("delivery sent")
	return outcomeSent
}

// writeContext bounds a status write; it outlives the tick context.
func (u *deliveryUC) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), u.cfg.WriteTimeout)
}

func (u *deliveryUC) writeLost(log *zerolog.Logger, err error) outcome {
	if errors.Is(err, domain.ErrClaimLost) {
		log.Warn().Msg("claim taken over before status write")
	} else {
		log.Error().Err(err).Msg("record delivery outcome")
	}
	return outcomeLost
}

// send resolves the row into a payload and sends it. The bot token is returned so callers can scrub it from errors.
func (u *deliveryUC) send(ctx context.Context, row *model.QueuedDelivery) (string, error) {
	bot, err := u.bots.FindByID(ctx, repository.NoTX, row.BotID)
	if err != nil {
		return "", fmt.Errorf("resolve bot: %w", err)
	}
	if !bot.IsActive {
		return bot.Token, domain.ErrBotInactive
	}
	payload, err := u.render(ctx, row)
	if err != nil {
		return bot.Token, err
	}
	if _, err := sendWithFallback(ctx, u.gateway, bot.Token, adapter.Recipient{ChatID: row.ChatID}, payload); err != nil {
		return bot.Token, err
	}
	return bot.Token, nil
}

// render loads the template and its live plans. A deactivated template still renders:
// queued rows are not cancelled by deactivation.
func (u *deliveryUC) render(ctx context.Context, row *model.QueuedDelivery) (*model.Payload, error) {
	if row.TemplateID == "" {
		return nil, domain.ErrTemplateUnavailable
	}
	tmpl, err := u.templates.FindScheduled(ctx, repository.NoTX, row.TemplateID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrTemplateUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("resolve template: %w", err)
	}
	refs, err := u.templates.ListScheduledPlanRefs(ctx, repository.NoTX, tmpl.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve plan links: %w", err)
	}
	links, err := resolvePlanLinks(ctx, u.plans, refs)
	if err != nil {
		return nil, err
	}
	return Render(tmpl.Content, links)
}
