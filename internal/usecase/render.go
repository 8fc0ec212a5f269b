package usecase

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"telegram-sales-bot/internal/domain"
	"telegram-sales-bot/internal/domain/model"
)

var hundred = decimal.NewFromInt(100)

// Render turns a template and its resolved plans into one sendable payload.
// The static button comes first, then one row per purchasable plan in the given order.
// Plans that are inactive or lack a payment link are skipped.
func Render(c model.Content, links []model.PlanLink) (*model.Payload, error) {
	p := &model.Payload{Text: c.Text}
	if c.Media != nil && strings.TrimSpace(c.Media.Ref) != "" {
		m := *c.Media
		p.Media = &m
	}
	if p.Empty() {
		return nil, domain.ErrEmptyPayload
	}

	if b := c.Button; b != nil && b.Label != "" && b.URL != "" {
		p.Buttons = append(p.Buttons, []model.Button{{Label: b.Label, URL: b.URL}})
	}
	for _, l := range links {
		if !l.Plan.Purchasable() {
			continue
		}
		p.Buttons = append(p.Buttons, []model.Button{{
			Label: PlanLabel(l.Plan, l.DiscountPercent),
			URL:   l.Plan.PaymentLink,
		}})
	}
	return p, nil
}

// DiscountedPrice applies a percent discount, rounded half-up to cents.
func DiscountedPrice(price decimal.Decimal, discount int) decimal.Decimal {
	d := clampDiscount(discount)
	if d == 0 {
		return price.Round(2)
	}
	return price.Mul(decimal.NewFromInt(int64(100 - d))).Div(hundred).Round(2)
}

// PlanLabel formats "{name} - R$ {price}" with a " (N% OFF)" suffix when discounted.
func PlanLabel(p *model.Plan, discount int) string {
	d := clampDiscount(discount)
	label := fmt.Sprintf("%s - R$ %s", p.Name, DiscountedPrice(p.Price, d).StringFixed(2))
	if d > 0 {
		label += fmt.Sprintf(" (%d%% OFF)", d)
	}
	return label
}

func clampDiscount(d int) int {
	switch {
	case d < 0:
		return 0
	case d > 100:
		return 100
	}
	return d
}
