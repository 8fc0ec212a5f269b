package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-sales-bot/internal/domain"
	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
	"telegram-sales-bot/internal/infra/logging"
)

// Compile-time check
var _ IngestUseCase = (*ingestUC)(nil)

// DropReason says why an inbound update was acknowledged without processing.
type DropReason string

const (
	DropUnknownBot  DropReason = "unknown_bot"
	DropInactiveBot DropReason = "inactive_bot"
	DropBadSecret   DropReason = "bad_secret"
	DropMalformed   DropReason = "malformed"
	DropNoMessage   DropReason = "no_message"
	DropLookupError DropReason = "lookup_error"
)

// IngestResult carries either a normalized event with its bot, or a drop reason.
type IngestResult struct {
	Bot   *model.Bot
	Event *model.IncomingEvent
	Drop  DropReason
}

func (r IngestResult) Dropped() bool { return r.Drop != "" }

type IngestUseCase interface {
	// Ingest never fails: every problem turns into a Drop so the transport can always be acknowledged.
	Ingest(ctx context.Context, raw []byte, botID, secretHeader string) IngestResult
}

type ingestUC struct {
	bots     repository.BotRepository
	received repository.ReceivedMessageRepository
	log      *zerolog.Logger
	now      func() time.Time
}

func NewIngestUseCase(bots repository.BotRepository, received repository.ReceivedMessageRepository, logger *zerolog.Logger) *ingestUC {
	return &ingestUC{bots: bots, received: received, log: logger, now: time.Now}
}

func (u *ingestUC) Ingest(ctx context.Context, raw []byte, botID, secretHeader string) IngestResult {
	if botID == "" {
		return IngestResult{Drop: DropUnknownBot}
	}
	bot, err := u.bots.FindByID(ctx, repository.NoTX, botID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return IngestResult{Drop: DropUnknownBot}
	case err != nil:
		u.log.Error().Err(err).Str("bot_id", botID).Msg("resolve bot for webhook")
		return IngestResult{Drop: DropLookupError}
	case !bot.IsActive:
		return IngestResult{Drop: DropInactiveBot}
	case !bot.CheckSecret(secretHeader):
		u.log.Warn().Str("bot_id", botID).Msg("webhook secret mismatch")
		return IngestResult{Drop: DropBadSecret}
	}

	var upd tgbotapi.Update
	if err := json.Unmarshal(raw, &upd); err != nil {
		u.log.Debug().Err(err).Str("bot_id", botID).Msg("undecodable update")
		return IngestResult{Drop: DropMalformed}
	}
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return IngestResult{Drop: DropNoMessage}
	}

	ev := &model.IncomingEvent{
		BotID:             bot.ID,
		ChatID:            msg.Chat.ID,
		Text:              msg.Text,
		TelegramMessageID: msg.MessageID,
		ReceivedAt:        u.now(),
	}
	if msg.From != nil {
		ev.TelegramUserID = msg.From.ID
		ev.Username = msg.From.UserName
		ev.FirstName = msg.From.FirstName
	} else {
		// channel posts have no sender; the chat stands in for it
		ev.TelegramUserID = msg.Chat.ID
	}
	ev.IsStart, ev.StartPayload = model.ParseStart(msg.Text)

	if err := u.received.Save(ctx, repository.NoTX, model.NewReceivedMessage(ev)); err != nil {
		logging.With(logging.WithChatID(ctx, ev.ChatID), u.log).Error().Err(err).Msg("persist received message")
	}
	return IngestResult{Bot: bot, Event: ev}
}
