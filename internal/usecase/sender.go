package usecase

import (
	"context"
	"fmt"

	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/adapter"
)

// Translator resolves built-in message texts.
type Translator interface {
	T(key string, args ...interface{}) string
}

// sendWithFallback sends p in one call. When a media send fails and there is text to
// fall back on, it retries once as a text message with the same keyboard.
func sendWithFallback(ctx context.Context, gw adapter.TelegramGateway, token string, to adapter.Recipient, p *model.Payload) (int, error) {
	id, err := gw.Send(ctx, token, to, p)
	if err == nil || !p.HasMedia() || p.Text == "" || ctx.Err() != nil {
		return id, err
	}
	id, retryErr := gw.Send(ctx, token, to, p.WithoutMedia())
	if retryErr != nil {
		return 0, fmt.Errorf("media send: %v; text fallback: %w", err, retryErr)
	}
	return id, nil
}
