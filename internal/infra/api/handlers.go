package api

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"telegram-sales-bot/internal/infra/logging"
	"telegram-sales-bot/internal/infra/metrics"
	"telegram-sales-bot/internal/usecase"
)

const (
	headerTelegramSecret = "X-Telegram-Bot-Api-Secret-Token"
	headerPaymentSecret  = "X-Payment-Secret"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// handleTelegramWebhook always acknowledges with 200 {"ok":true}; Telegram retries anything else forever.
func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	defer writeJSON(w, http.StatusOK, map[string]bool{"ok": true})

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		metrics.IncWebhookUpdate("read_error")
		return
	}
	res := s.deps.Ingest.Ingest(r.Context(), body, r.URL.Query().Get("bot_id"), r.Header.Get(headerTelegramSecret))
	if res.Dropped() {
		metrics.IncWebhookUpdate("dropped_" + string(res.Drop))
		return
	}
	metrics.IncWebhookUpdate(s.deps.Events.HandleEvent(r.Context(), res.Bot, res.Event))
}

func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if secret := s.deps.PaymentSecret; secret != "" {
		got := r.Header.Get(headerPaymentSecret)
		if subtle.ConstantTimeCompare([]byte(secret), []byte(got)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid secret"})
			return
		}
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unreadable body"})
		return
	}
	var n usecase.PaymentNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON"})
		return
	}
	if err := s.validate.Struct(n); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	if err := s.deps.Payments.HandleNotification(r.Context(), n, raw); err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("bot_id", n.BotID).Msg("payment webhook")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleProcessQueue(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Runner.RunOnce(r.Context())
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("queue tick")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "tick failed"})
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "stats unavailable"})
		return
	}
	counts, err := s.deps.Stats.CountByStatus(r.Context(), nil, r.URL.Query().Get("bot_id"))
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("queue stats")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "stats failed"})
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
