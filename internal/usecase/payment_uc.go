package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-sales-bot/internal/domain"
	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/adapter"
	"telegram-sales-bot/internal/domain/ports/repository"
	"telegram-sales-bot/internal/infra/logging"
	"telegram-sales-bot/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentNotification is the body a payment provider posts when a payment changes state.
type PaymentNotification struct {
	BotID          string `json:"bot_id" validate:"required,uuid"`
	TelegramUserID int64  `json:"telegram_user_id" validate:"required"`
	PlanID         string `json:"plan_id" validate:"omitempty,uuid"`
	PaymentStatus  string `json:"payment_status" validate:"required"`
}

// Locker serializes handling of the same payment across replicas.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

type PaymentConfig struct {
	InviteTTL time.Duration
	LockTTL   time.Duration
	// LockKey builds the lock key for a (bot, user, plan) triple.
	LockKey func(botID string, userID int64, planID string) string
}

type PaymentUseCase interface {
	// HandleNotification stores the notification and, when approved, runs the approval side effects once.
	HandleNotification(ctx context.Context, n PaymentNotification, raw []byte) error
}

type paymentUC struct {
	webhooks     repository.PaymentWebhookRepository
	bots         repository.BotRepository
	plans        repository.PlanRepository
	channels     repository.ChannelRepository
	interactions repository.InteractionRepository
	gateway      adapter.TelegramGateway
	locker       Locker
	tr           Translator
	cfg          PaymentConfig
	log          *zerolog.Logger
	now          func() time.Time
}

func NewPaymentUseCase(
	webhooks repository.PaymentWebhookRepository,
	bots repository.BotRepository,
	plans repository.PlanRepository,
	channels repository.ChannelRepository,
	interactions repository.InteractionRepository,
	gateway adapter.TelegramGateway,
	locker Locker,
	tr Translator,
	cfg PaymentConfig,
	logger *zerolog.Logger,
) *paymentUC {
	if cfg.InviteTTL <= 0 {
		cfg.InviteTTL = 24 * time.Hour
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.LockKey == nil {
		cfg.LockKey = func(botID string, userID int64, planID string) string {
			return fmt.Sprintf("lock:payment:%s:%d:%s", botID, userID, planID)
		}
	}
	return &paymentUC{
		webhooks:     webhooks,
		bots:         bots,
		plans:        plans,
		channels:     channels,
		interactions: interactions,
		gateway:      gateway,
		locker:       locker,
		tr:           tr,
		cfg:          cfg,
		log:          logger,
		now:          time.Now,
	}
}

func (u *paymentUC) HandleNotification(ctx context.Context, n PaymentNotification, raw []byte) error {
	if !json.Valid(raw) {
		return domain.ErrInvalidArgument
	}
	wh := &model.PaymentWebhook{
		ID:             uuid.NewString(),
		BotID:          n.BotID,
		TelegramUserID: n.TelegramUserID,
		PlanID:         n.PlanID,
		PaymentStatus:  n.PaymentStatus,
		Raw:            json.RawMessage(raw),
		CreatedAt:      u.now(),
	}
	if err := u.webhooks.Save(ctx, repository.NoTX, wh); err != nil {
		return fmt.Errorf("save payment webhook: %w", err)
	}
	metrics.ObservePaymentWebhook(n.PaymentStatus)
	if !wh.Approved() {
		return nil
	}

	key := u.cfg.LockKey(n.BotID, n.TelegramUserID, n.PlanID)
	lockToken, err := u.locker.TryLock(ctx, key, u.cfg.LockTTL)
	if errors.Is(err, domain.ErrLockNotAcquired) {
		u.log.Info().Str("bot_id", n.BotID).Int64("user_id", n.TelegramUserID).Msg("approval already being handled")
		metrics.ObserveApproval(metrics.ApprovalBusy)
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock payment: %w", err)
	}
	defer func() {
		if err := u.locker.Unlock(context.WithoutCancel(ctx), key, lockToken); err != nil {
			u.log.Warn().Err(err).Str("key", key).Msg("release payment lock")
		}
	}()

	done, err := u.webhooks.ApprovalProcessed(ctx, repository.NoTX, n.BotID, n.TelegramUserID, n.PlanID)
	if err != nil {
		return fmt.Errorf("check earlier approval: %w", err)
	}
	if done {
		if _, err := u.webhooks.MarkProcessed(ctx, repository.NoTX, wh.ID, u.now()); err != nil {
			return fmt.Errorf("mark webhook processed: %w", err)
		}
		u.log.Info().Str("bot_id", n.BotID).Int64("user_id", n.TelegramUserID).Msg("duplicate approval ignored")
		metrics.ObserveApproval(metrics.ApprovalDuplicate)
		return nil
	}
	return u.approve(ctx, wh)
}

func (u *paymentUC) approve(ctx context.Context, wh *model.PaymentWebhook) error {
	log := logging.With(logging.WithBotID(ctx, wh.BotID), u.log).With().Int64("user_id", wh.TelegramUserID).Logger()

	bot, err := u.bots.FindByID(ctx, repository.NoTX, wh.BotID)
	if err != nil {
		return fmt.Errorf("resolve bot: %w", err)
	}
	var plan *model.Plan
	if wh.PlanID != "" {
		plan, err = u.plans.FindByID(ctx, repository.NoTX, wh.PlanID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("resolve plan: %w", err)
		}
	}

	if err := u.sendVIPInvite(ctx, bot, wh.TelegramUserID); err != nil {
		log.Error().Str("reason", logging.RedactToken(err.Error(), bot.Token)).Msg("vip invite")
	}
	if err := u.notifySale(ctx, bot, wh.TelegramUserID, plan); err != nil {
		log.Error().Str("reason", logging.RedactToken(err.Error(), bot.Token)).Msg("sale notification")
	}
	if plan != nil {
		metrics.AddRevenue("BRL", plan.Price.InexactFloat64())
	}

	changed, err := u.webhooks.MarkProcessed(ctx, repository.NoTX, wh.ID, u.now())
	if err != nil {
		return fmt.Errorf("mark webhook processed: %w", err)
	}
	metrics.ObserveApproval(metrics.ApprovalHandled)
	log.Info().Bool("changed", changed).Msg("payment approval handled")
	return nil
}

// sendVIPInvite creates a single-use invite to the bot's VIP channel and DMs it to the buyer.
func (u *paymentUC) sendVIPInvite(ctx context.Context, bot *model.Bot, userID int64) error {
	ch, err := u.channels.FindActiveByKind(ctx, repository.NoTX, bot.ID, model.ChannelVIP)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find vip channel: %w", err)
	}
	chatID, username := ch.ChatRef()
	link, err := u.gateway.CreateInviteLink(ctx, bot.Token, adapter.InviteLinkRequest{
		Chat:        adapter.Recipient{ChatID: chatID, Username: username},
		Name:        "VIP - " + strconv.FormatInt(userID, 10),
		MemberLimit: 1,
		ExpireAt:    u.now().Add(u.cfg.InviteTTL),
	})
	if err != nil {
		return fmt.Errorf("create invite link: %w", err)
	}
	_, err = u.gateway.Send(ctx, bot.Token, adapter.Recipient{ChatID: userID}, &model.Payload{Text: u.tr.T("vip_invite", link)})
	if err != nil {
		return fmt.Errorf("send invite: %w", err)
	}
	return nil
}

// notifySale posts the sale into the bot's registry channel.
func (u *paymentUC) notifySale(ctx context.Context, bot *model.Bot, userID int64, plan *model.Plan) error {
	ch, err := u.channels.FindActiveByKind(ctx, repository.NoTX, bot.ID, model.ChannelRegistry)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find registry channel: %w", err)
	}

	buyer := strconv.FormatInt(userID, 10)
	if in, err := u.interactions.Find(ctx, repository.NoTX, bot.ID, userID, userID); err == nil && in.Username != "" {
		buyer = "@" + in.Username
	}
	planName, price := u.tr.T("sale_unknown_plan"), "-"
	if plan != nil {
		planName, price = html.EscapeString(plan.Name), plan.Price.StringFixed(2)
	}
	text := u.tr.T("sale_notification", buyer, planName, price, u.now().Format("02/01/2006 15:04"))

	chatID, username := ch.ChatRef()
	if _, err := u.gateway.Send(ctx, bot.Token, adapter.Recipient{ChatID: chatID, Username: username}, &model.Payload{Text: text}); err != nil {
		return fmt.Errorf("send sale notification: %w", err)
	}
	return nil
}
