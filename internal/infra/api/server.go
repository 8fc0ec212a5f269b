package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-sales-bot/internal/application"
	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
	ports "telegram-sales-bot/internal/domain/ports/usecase"
	"telegram-sales-bot/internal/usecase"
)

const maxBodyBytes = 1 << 20

// QueueStats reports queue depth per status.
type QueueStats interface {
	CountByStatus(ctx context.Context, tx repository.Tx, botID string) (map[model.DeliveryStatus]int, error)
}

type Deps struct {
	Ingest        usecase.IngestUseCase
	Events        application.EventHandler
	Payments      usecase.PaymentUseCase
	Runner        ports.DeliveryRunner
	Stats         QueueStats
	Auth          *TriggerAuth
	PaymentSecret string
	// HandlerTimeout bounds every request; zero disables it.
	HandlerTimeout time.Duration
}

// Server exposes the bot webhooks and the internal queue endpoints.
type Server struct {
	deps     Deps
	validate *validator.Validate
	log      *zerolog.Logger
}

func NewServer(deps Deps, logger *zerolog.Logger) *Server {
	if deps.Auth == nil {
		deps.Auth = NewTriggerAuth("")
	}
	return &Server{deps: deps, validate: validator.New(), log: logger}
}

// Router builds the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(middleware.RealIP)
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(Timeout(s.deps.HandlerTimeout))
		r.Post("/telegram/webhook", s.handleTelegramWebhook)
		r.Post("/payments/webhook", s.handlePaymentWebhook)

		r.Route("/internal/queue", func(r chi.Router) {
			r.Use(s.deps.Auth.RequireService)
			r.Post("/process", s.handleProcessQueue)
			r.Get("/stats", s.handleQueueStats)
		})
	})
	return r
}
