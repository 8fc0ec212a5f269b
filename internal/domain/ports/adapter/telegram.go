package adapter

import (
	"context"
	"time"

	"telegram-sales-bot/internal/domain/model"
)

// Recipient addresses a private chat or channel by numeric id, or a public channel by @username.
type Recipient struct {
	ChatID   int64
	Username string
}

type InviteLinkRequest struct {
	Chat        Recipient
	Name        string
	MemberLimit int
	ExpireAt    time.Time
}

// TelegramGateway sends through the Bot API on behalf of any bot, identified by its token.
// API-level rejections (ok:false) are returned as errors.
type TelegramGateway interface {
	Send(ctx context.Context, token string, to Recipient, p *model.Payload) (messageID int, err error)
	CreateInviteLink(ctx context.Context, token string, req InviteLinkRequest) (string, error)
}
