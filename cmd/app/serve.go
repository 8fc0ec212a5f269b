package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"telegram-sales-bot/internal/infra/api"
	pg "telegram-sales-bot/internal/infra/db/postgres"
	"telegram-sales-bot/internal/infra/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook HTTP server (and the delivery loop when worker.embedded is set)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := api.NewServer(api.Deps{
			Ingest:         a.ingest,
			Events:         a.facade,
			Payments:       a.payments,
			Runner:         a.delivery,
			Stats:          a.queue,
			Auth:           api.NewTriggerAuth(a.cfg.Security.TriggerSecret),
			PaymentSecret:  a.cfg.Payments.WebhookSecret,
			HandlerTimeout: a.cfg.HTTP.HandlerTimeout,
		}, a.log)
		httpSrv := &http.Server{
			Addr:         a.cfg.HTTP.Addr,
			Handler:      srv.Router(),
			ReadTimeout:  a.cfg.HTTP.ReadTimeout,
			WriteTimeout: a.cfg.HTTP.WriteTimeout,
		}

		if a.cfg.Worker.Embedded {
			sch, err := startScheduler(ctx, a)
			if err != nil {
				return err
			}
			defer func() {
				if err := sch.Stop(); err != nil {
					a.log.Error().Err(err).Msg("scheduler stop")
				}
			}()
		}

		errCh := make(chan error, 1)
		go func() {
			a.log.Info().Str("addr", httpSrv.Addr).Msg("http listening")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
			a.log.Info().Msg("shutdown requested")
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("http server: %w", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	},
}

// startScheduler runs the delivery tick plus the pool gauge refresher.
func startScheduler(ctx context.Context, a *app) (*scheduler.Scheduler, error) {
	sch, err := scheduler.New(a.delivery, a.cfg.Worker.Interval, a.cfg.Worker.TickTimeout, a.log)
	if err != nil {
		return nil, err
	}
	if err := sch.Every("pool-stats", 15*time.Second, time.Second, func(context.Context) {
		pg.ReportPoolStats(a.pool)
	}); err != nil {
		return nil, err
	}
	sch.Start(ctx)
	return sch, nil
}
