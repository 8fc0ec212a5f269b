package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-sales-bot/internal/config"
	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/adapter"
	"telegram-sales-bot/internal/infra/logging"
	"telegram-sales-bot/internal/infra/metrics"
)

var _ adapter.TelegramGateway = (*Gateway)(nil)

// GatewayError is a failed Bot API call. Its text never contains the bot token.
type GatewayError struct {
	Method string
	Err    error
	token  string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("telegram %s: %s", e.Method, logging.RedactToken(e.Err.Error(), e.token))
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Gateway talks to the Bot API on behalf of any bot. It keeps no per-bot state:
// every call builds a short-lived client bound to the caller's context.
type Gateway struct {
	http     *http.Client
	endpoint string
}

func NewGateway(cfg config.TelegramConfig) *Gateway {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return &Gateway{http: &http.Client{Timeout: timeout}, endpoint: endpoint}
}

// ctxClient binds outgoing requests to ctx; tgbotapi itself is not context aware.
type ctxClient struct {
	ctx context.Context
	c   *http.Client
}

func (c ctxClient) Do(req *http.Request) (*http.Response, error) {
	return c.c.Do(req.WithContext(c.ctx))
}

func (g *Gateway) bot(ctx context.Context, token string) *tgbotapi.BotAPI {
	// built by hand to skip the getMe round trip NewBotAPI makes
	b := &tgbotapi.BotAPI{Token: token, Client: ctxClient{ctx: ctx, c: g.http}}
	b.SetAPIEndpoint(g.endpoint)
	return b
}

func (g *Gateway) Send(ctx context.Context, token string, to adapter.Recipient, p *model.Payload) (int, error) {
	if p.Empty() {
		return 0, &GatewayError{Method: "send", Err: fmt.Errorf("empty payload")}
	}
	method, msg := buildMessage(to, p)

	start := time.Now()
	sent, err := g.bot(ctx, token).Send(msg)
	metrics.ObserveTelegramCall(method, time.Since(start), err == nil)
	if err != nil {
		return 0, &GatewayError{Method: method, Err: err, token: token}
	}
	return sent.MessageID, nil
}

func (g *Gateway) CreateInviteLink(ctx context.Context, token string, req adapter.InviteLinkRequest) (string, error) {
	const method = "createChatInviteLink"
	cfg := tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: req.Chat.ChatID, SuperGroupUsername: req.Chat.Username},
		Name:        req.Name,
		MemberLimit: req.MemberLimit,
	}
	if !req.ExpireAt.IsZero() {
		cfg.ExpireDate = int(req.ExpireAt.Unix())
	}

	start := time.Now()
	resp, err := g.bot(ctx, token).Request(cfg)
	metrics.ObserveTelegramCall(method, time.Since(start), err == nil)
	if err != nil {
		return "", &GatewayError{Method: method, Err: err, token: token}
	}
	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", &GatewayError{Method: method, Err: fmt.Errorf("decode invite link: %w", err), token: token}
	}
	return link.InviteLink, nil
}

// buildMessage maps a payload onto one Bot API call: a media method carrying the caption
// and keyboard, or sendMessage when there is no media.
func buildMessage(to adapter.Recipient, p *model.Payload) (string, tgbotapi.Chattable) {
	base := tgbotapi.BaseChat{ChatID: to.ChatID, ChannelUsername: to.Username}
	if kb := keyboard(p.Buttons); kb != nil {
		base.ReplyMarkup = *kb
	}
	if p.Media == nil {
		return "sendMessage", tgbotapi.MessageConfig{BaseChat: base, Text: p.Text, ParseMode: tgbotapi.ModeHTML}
	}

	file := fileRef(p.Media.Ref)
	switch p.Media.Type {
	case model.MediaImage:
		return "sendPhoto", tgbotapi.PhotoConfig{
			BaseFile: tgbotapi.BaseFile{BaseChat: base, File: file},
			Caption:  p.Text, ParseMode: tgbotapi.ModeHTML,
		}
	case model.MediaVideo:
		return "sendVideo", tgbotapi.VideoConfig{
			BaseFile: tgbotapi.BaseFile{BaseChat: base, File: file},
			Caption:  p.Text, ParseMode: tgbotapi.ModeHTML,
		}
	case model.MediaAudio:
		return "sendAudio", tgbotapi.AudioConfig{
			BaseFile: tgbotapi.BaseFile{BaseChat: base, File: file},
			Caption:  p.Text, ParseMode: tgbotapi.ModeHTML,
		}
	default:
		return "sendDocument", tgbotapi.DocumentConfig{
			BaseFile: tgbotapi.BaseFile{BaseChat: base, File: file},
			Caption:  p.Text, ParseMode: tgbotapi.ModeHTML,
		}
	}
}

// fileRef tells URLs apart from Telegram file ids.
func fileRef(ref string) tgbotapi.RequestFileData {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tgbotapi.FileURL(ref)
	}
	return tgbotapi.FileID(ref)
}

func keyboard(rows [][]model.Button) *tgbotapi.InlineKeyboardMarkup {
	var out [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var r []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			r = append(r, tgbotapi.NewInlineKeyboardButtonURL(b.Label, b.URL))
		}
		if len(r) > 0 {
			out = append(out, tgbotapi.NewInlineKeyboardRow(r...))
		}
	}
	if len(out) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(out...)
	return &kb
}
