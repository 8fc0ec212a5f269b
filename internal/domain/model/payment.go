package model

import (
	"encoding/json"
	"time"
)

const PaymentStatusApproved = "approved"

// PaymentWebhook is a payment provider notification. Raw keeps the original body for audit.
type PaymentWebhook struct {
	ID             string
	BotID          string
	TelegramUserID int64
	PlanID         string
	PaymentStatus  string
	Raw            json.RawMessage
	Processed      bool
	ProcessedAt    *time.Time
	CreatedAt      time.Time
}

func (p *PaymentWebhook) Approved() bool { return p.PaymentStatus == PaymentStatusApproved }
