package model

import (
	"crypto/subtle"
	"time"
)

// Bot is a Telegram bot owned by an operator. Token is a secret and must never be logged.
type Bot struct {
	ID              string
	OwnerID         string
	Name            string
	Username        string
	Token           string
	WebhookSecret   string
	WelcomeImageURL string
	IsActive        bool
	SendWelcome     bool
	CreatedAt       time.Time
}

func (b *Bot) IsZero() bool { return b == nil || b.ID == "" }

// CheckSecret reports whether the header value matches the configured webhook secret.
// A bot without a secret accepts any header.
func (b *Bot) CheckSecret(header string) bool {
	if b.WebhookSecret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(b.WebhookSecret), []byte(header)) == 1
}
