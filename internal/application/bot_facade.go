package application

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/adapter"
	"telegram-sales-bot/internal/infra/logging"
	"telegram-sales-bot/internal/infra/metrics"
	"telegram-sales-bot/internal/infra/redis"
	"telegram-sales-bot/internal/usecase"
)

var _ EventHandler = (*BotFacade)(nil)

const (
	OutcomeStart       = "start"
	OutcomeEcho        = "echo"
	OutcomeRateLimited = "rate_limited"
	OutcomeIgnored     = "ignored"
	OutcomeError       = "error"
)

// BotFacade routes normalized bot events to the usecases: /start opens the
// follow-up sequence, any other text gets an echo reply.
type BotFacade struct {
	Scheduler  SchedulerIface
	Limiter    RateLimiterIface
	Gateway    adapter.TelegramGateway
	Tr         usecase.Translator
	EchoLimit  int
	EchoWindow time.Duration
	log        *zerolog.Logger
}

// NewBotFacade constructs the facade. A zero echoLimit disables echo rate limiting.
func NewBotFacade(
	scheduler SchedulerIface,
	limiter RateLimiterIface,
	gateway adapter.TelegramGateway,
	tr usecase.Translator,
	echoLimit int,
	echoWindow time.Duration,
	logger *zerolog.Logger,
) *BotFacade {
	return &BotFacade{
		Scheduler:  scheduler,
		Limiter:    limiter,
		Gateway:    gateway,
		Tr:         tr,
		EchoLimit:  echoLimit,
		EchoWindow: echoWindow,
		log:        logger,
	}
}

func (b *BotFacade) HandleEvent(ctx context.Context, bot *model.Bot, ev *model.IncomingEvent) string {
	ctx = logging.WithChatID(logging.WithBotID(ctx, bot.ID), ev.ChatID)
	log := logging.With(ctx, b.log)

	if ev.IsStart {
		if _, err := b.Scheduler.OnStart(ctx, bot, ev); err != nil {
			log.Error().Err(err).Msg("handle /start")
			return OutcomeError
		}
		return OutcomeStart
	}
	if strings.TrimSpace(ev.Text) == "" {
		return OutcomeIgnored
	}
	return b.echo(ctx, log, bot, ev)
}

func (b *BotFacade) echo(ctx context.Context, log *zerolog.Logger, bot *model.Bot, ev *model.IncomingEvent) string {
	if b.EchoLimit > 0 && b.Limiter != nil {
		ok, err := b.Limiter.Allow(ctx, redis.UserReplyKey(bot.ID, ev.TelegramUserID), b.EchoLimit, b.EchoWindow)
		if err != nil {
			// fail open: a Redis outage should not silence the bot
			log.Warn().Err(err).Msg("echo rate limiter unavailable")
		} else if !ok {
			metrics.IncRateLimitTriggered()
			return OutcomeRateLimited
		}
	}

	reply := &model.Payload{Text: b.Tr.T("echo_reply", html.EscapeString(ev.Text))}
	if _, err := b.Gateway.Send(ctx, bot.Token, adapter.Recipient{ChatID: ev.ChatID}, reply); err != nil {
		log.Error().Str("reason", logging.RedactToken(err.Error(), bot.Token)).Msg("send echo reply")
		return OutcomeError
	}
	return OutcomeEcho
}
