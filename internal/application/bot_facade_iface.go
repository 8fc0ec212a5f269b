package application

import (
	"context"
	"time"

	"telegram-sales-bot/internal/domain/model"
)

// ---- small interfaces to decouple the facade from concrete usecase structs ----

type SchedulerIface interface {
	OnStart(ctx context.Context, bot *model.Bot, ev *model.IncomingEvent) (int, error)
}

type RateLimiterIface interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EventHandler is what the webhook transport calls for every accepted update.
type EventHandler interface {
	// HandleEvent never fails; it returns an outcome label for metrics and logs.
	HandleEvent(ctx context.Context, bot *model.Bot, ev *model.IncomingEvent) string
}
