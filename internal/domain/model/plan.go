package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"telegram-sales-bot/internal/domain"
)

// Plan is a sellable offer of a bot, priced in BRL.
type Plan struct {
	ID           string
	BotID        string
	Name         string
	Description  string
	Price        decimal.Decimal
	DurationDays int
	PaymentLink  string
	IsActive     bool
	CreatedAt    time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// Purchasable reports whether a button can be rendered for the plan.
func (p *Plan) Purchasable() bool {
	return p != nil && p.IsActive && strings.TrimSpace(p.PaymentLink) != ""
}

// NewPlan validates and constructs a plan.
func NewPlan(id, botID, name string, price decimal.Decimal, durationDays int, paymentLink string) (*Plan, error) {
	if id == "" || botID == "" || strings.TrimSpace(name) == "" || price.IsNegative() || durationDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:           id,
		BotID:        botID,
		Name:         name,
		Price:        price,
		DurationDays: durationDays,
		PaymentLink:  paymentLink,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}, nil
}

// PlanLink attaches a plan to a message with an optional discount in percent.
type PlanLink struct {
	Plan            *Plan
	DiscountPercent int
}
