package model

import (
	"strings"
	"time"
)

const StartCommand = "/start"

// IncomingEvent is an inbound Telegram message normalized for the bot's handlers.
type IncomingEvent struct {
	BotID             string
	ChatID            int64
	TelegramUserID    int64
	Username          string
	FirstName         string
	Text              string
	TelegramMessageID int
	IsStart           bool
	StartPayload      string
	ReceivedAt        time.Time
}

// ParseStart detects the /start command. The match is a case-sensitive prefix, so
// "/startfoo" also counts as a start. A bot mention ("/start@my_bot") and a deep-link
// payload after whitespace are split off; a glued suffix yields no payload.
func ParseStart(text string) (isStart bool, payload string) {
	if !strings.HasPrefix(text, StartCommand) {
		return false, ""
	}
	rest := text[len(StartCommand):]
	if rest == "" {
		return true, ""
	}
	if rest[0] == '@' {
		i := strings.IndexAny(rest, " \n\t")
		if i < 0 {
			return true, ""
		}
		rest = rest[i:]
	}
	switch rest[0] {
	case ' ', '\n', '\t':
		return true, strings.TrimSpace(rest)
	}
	return true, ""
}

// ReceivedMessage is the audit copy of an inbound message.
type ReceivedMessage struct {
	ID                string
	BotID             string
	ChatID            int64
	TelegramUserID    int64
	Username          string
	FirstName         string
	Text              string
	TelegramMessageID int
	MessageType       string
	CreatedAt         time.Time
}

func NewReceivedMessage(ev *IncomingEvent) *ReceivedMessage {
	first := ev.FirstName
	if first == "" {
		first = "User"
	}
	kind := "text"
	if ev.Text == "" {
		kind = "other"
	}
	return &ReceivedMessage{
		BotID:             ev.BotID,
		ChatID:            ev.ChatID,
		TelegramUserID:    ev.TelegramUserID,
		Username:          ev.Username,
		FirstName:         first,
		Text:              ev.Text,
		TelegramMessageID: ev.TelegramMessageID,
		MessageType:       kind,
		CreatedAt:         ev.ReceivedAt,
	}
}
