package model

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"telegram-sales-bot/internal/domain"
)

type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// CanTransition reports whether a status change is allowed. Only pending rows move, and only forward.
func (s DeliveryStatus) CanTransition(to DeliveryStatus) bool {
	return s == DeliveryPending && (to == DeliverySent || to == DeliveryFailed)
}

// QueuedDelivery is one scheduled send obligation for one recipient and one template.
type QueuedDelivery struct {
	ID             string // ULID, sortable by creation time
	BotID          string
	TemplateID     string
	ChatID         int64
	TelegramUserID int64
	FireAt         time.Time
	Status         DeliveryStatus
	SentAt         *time.Time
	Error          string
	ClaimToken     string
	ClaimedAt      *time.Time
	CreatedAt      time.Time
}

// NewQueuedDelivery materializes a template into a pending row due at now + delay.
func NewQueuedDelivery(bot *Bot, tmpl *ScheduledMessage, chatID, userID int64, now time.Time) (*QueuedDelivery, error) {
	if bot.IsZero() || tmpl == nil || tmpl.ID == "" || chatID == 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &QueuedDelivery{
		ID:             NewULID(now),
		BotID:          bot.ID,
		TemplateID:     tmpl.ID,
		ChatID:         chatID,
		TelegramUserID: userID,
		FireAt:         now.Add(tmpl.Delay()),
		Status:         DeliveryPending,
		CreatedAt:      now,
	}, nil
}

// Due reports whether the row is ready to be claimed at now.
func (d *QueuedDelivery) Due(now time.Time) bool {
	return d.Status == DeliveryPending && !d.FireAt.After(now)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func NewULID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// TickSummary counts what one worker run did.
type TickSummary struct {
	Claimed int `json:"processed"`
	Sent    int `json:"success"`
	Failed  int `json:"failed"`
	// Lost counts rows whose terminal write did not land, usually because the claim was taken over.
	Lost int `json:"lost,omitempty"`
	// Released counts rows handed back unsent because the tick was cancelled before their turn.
	Released int `json:"released,omitempty"`
}
