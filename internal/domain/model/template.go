package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"telegram-sales-bot/internal/domain"
)

const MaxTextLength = 4096

type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaDocument MediaType = "document"
)

// ParseMediaType maps stored media kinds onto the four supported types.
// "photo" is accepted as an alias of image; unknown kinds are sent as documents.
func ParseMediaType(s string) MediaType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image", "photo":
		return MediaImage
	case "video":
		return MediaVideo
	case "audio":
		return MediaAudio
	default:
		return MediaDocument
	}
}

// Media is an opaque external reference (URL or Telegram file id).
type Media struct {
	Type MediaType
	Ref  string
}

type Button struct {
	Label string
	URL   string
}

// Content is what every message template carries.
type Content struct {
	Text   string
	Media  *Media
	Button *Button
}

func (c Content) Validate() error {
	if utf8.RuneCountInString(c.Text) > MaxTextLength {
		return domain.ErrInvalidArgument
	}
	if c.Media != nil && c.Media.Ref == "" {
		return domain.ErrInvalidArgument
	}
	return nil
}

// ScheduledMessage is one step of a bot's follow-up sequence.
type ScheduledMessage struct {
	ID           string
	BotID        string
	DelayMinutes int
	Content
	IsActive  bool
	CreatedAt time.Time
}

// NewScheduledMessage validates and constructs a scheduled message template.
func NewScheduledMessage(id, botID string, delayMinutes int, content Content) (*ScheduledMessage, error) {
	if id == "" || botID == "" || delayMinutes < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if err := content.Validate(); err != nil {
		return nil, err
	}
	return &ScheduledMessage{
		ID:           id,
		BotID:        botID,
		DelayMinutes: delayMinutes,
		Content:      content,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}, nil
}

func (m *ScheduledMessage) Delay() time.Duration {
	return time.Duration(m.DelayMinutes) * time.Minute
}

type BotMessageKind string

const (
	BotMessageWelcome    BotMessageKind = "welcome"
	BotMessageThankYou   BotMessageKind = "thank_you"
	BotMessageExpiration BotMessageKind = "expiration"
)

// BotMessage is a bot-level message sent immediately on a lifecycle event.
type BotMessage struct {
	ID    string
	BotID string
	Kind  BotMessageKind
	Content
	IsActive  bool
	CreatedAt time.Time
}
