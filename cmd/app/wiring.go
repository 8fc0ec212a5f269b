package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"telegram-sales-bot/internal/application"
	"telegram-sales-bot/internal/config"
	"telegram-sales-bot/internal/domain/ports/repository"
	ports "telegram-sales-bot/internal/domain/ports/usecase"
	pg "telegram-sales-bot/internal/infra/db/postgres"
	"telegram-sales-bot/internal/infra/i18n"
	"telegram-sales-bot/internal/infra/logging"
	"telegram-sales-bot/internal/infra/metrics"
	red "telegram-sales-bot/internal/infra/redis"
	"telegram-sales-bot/internal/infra/security"
	"telegram-sales-bot/internal/infra/telegram"
	"telegram-sales-bot/internal/usecase"
)

// app holds every long-lived dependency built from the config.
type app struct {
	cfg   *config.Config
	log   *zerolog.Logger
	pool  *pgxpool.Pool
	redis *red.Client

	tm       *pg.TxManager
	bots     repository.BotRepository
	plans    repository.PlanRepository
	tmpls    repository.TemplateRepository
	channels repository.ChannelRepository
	queue    repository.DeliveryRepository

	delivery ports.DeliveryRunner
	ingest   usecase.IngestUseCase
	payments usecase.PaymentUseCase
	facade   *application.BotFacade
}

func loadConfig() (*config.Config, *zerolog.Logger, error) {
	cfg, err := config.LoadConfig(cfgPath, devMode)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	return cfg, logger, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, time.Now())

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	var sealer pg.TokenSealer
	if cfg.Security.EncryptionKey != "" {
		enc, err := security.NewEncryptionService(cfg.Security.EncryptionKey)
		if err != nil {
			pool.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("encryption: %w", err)
		}
		sealer = enc
	} else {
		logger.Warn().Msg("security.encryption_key not set; bot tokens are stored in plain text")
	}

	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Messaging.Locale)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("i18n: %w", err)
	}

	a := &app{cfg: cfg, log: logger, pool: pool, redis: redisClient}
	a.tm = pg.NewTxManager(pool)
	a.bots = pg.NewBotRepo(pool, sealer)
	a.plans = pg.NewPlanRepoCacheDecorator(pg.NewPostgresPlanRepo(pool), redisClient, cfg.Redis.TTL, logger)
	a.tmpls = pg.NewTemplateRepo(pool)
	a.channels = pg.NewChannelRepo(pool)
	a.queue = pg.NewDeliveryRepo(pool, a.tm)
	interactions := pg.NewInteractionRepo(pool)

	gateway := telegram.NewGateway(cfg.Telegram)

	a.delivery = usecase.NewDeliveryUseCase(a.queue, a.bots, a.tmpls, a.plans, gateway, usecase.DeliveryConfig{
		BatchSize:    cfg.Worker.BatchSize,
		Concurrency:  cfg.Worker.Concurrency,
		ClaimLease:   cfg.Worker.ClaimLease,
		RowTimeout:   3 * cfg.Telegram.RequestTimeout,
		WriteTimeout: cfg.Telegram.RequestTimeout,
	}, logger)
	a.ingest = usecase.NewIngestUseCase(a.bots, pg.NewReceivedMessageRepo(pool), logger)
	scheduler := usecase.NewSchedulerUseCase(interactions, a.tmpls, a.plans, a.queue, a.tm, gateway, tr, logger)
	a.payments = usecase.NewPaymentUseCase(
		pg.NewPaymentWebhookRepo(pool), a.bots, a.plans, a.channels, interactions,
		gateway, red.NewLocker(redisClient), tr,
		usecase.PaymentConfig{
			InviteTTL: cfg.Payments.InviteTTL,
			LockTTL:   cfg.Payments.LockTTL,
			LockKey:   red.PaymentLockKey,
		}, logger)
	a.facade = application.NewBotFacade(scheduler, red.NewRateLimiter(redisClient), gateway, tr,
		cfg.Messaging.EchoLimit, cfg.Messaging.EchoWindow, logger)
	return a, nil
}

func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.Warn().Err(err).Msg("redis close")
	}
	a.pool.Close()
}
