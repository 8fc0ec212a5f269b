package model

import "time"

// Interaction marks the last /start of a (bot, chat, user) triple.
type Interaction struct {
	ID             string
	BotID          string
	ChatID         int64
	TelegramUserID int64
	Username       string
	FirstName      string
	LastStartAt    time.Time
	CreatedAt      time.Time
}
