package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	ports "telegram-sales-bot/internal/domain/ports/usecase"
	"telegram-sales-bot/internal/infra/logging"
)

// Scheduler drives the delivery tick (plus any housekeeping jobs) on fixed intervals.
// Every job runs in singleton mode: a slow run makes the next one wait instead of overlapping.
type Scheduler struct {
	s           gocron.Scheduler
	runner      ports.DeliveryRunner
	interval    time.Duration
	tickTimeout time.Duration
	log         *zerolog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a scheduler for runner. interval <= 0 defaults to 30s; tickTimeout <= 0 to 5m.
func New(runner ports.DeliveryRunner, interval, tickTimeout time.Duration, logger *zerolog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if tickTimeout <= 0 {
		tickTimeout = 5 * time.Minute
	}
	l := logger.With().Str("component", "scheduler").Logger()
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(logging.SchedulerLogger{L: &l}),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	sch := &Scheduler{s: s, runner: runner, interval: interval, tickTimeout: tickTimeout, log: &l}
	sch.ctx, sch.cancel = context.WithCancel(context.Background())

	if err := sch.Every("delivery-tick", interval, tickTimeout, sch.tick); err != nil {
		return nil, err
	}
	return sch, nil
}

// Every registers fn to run each interval with its own timeout.
func (s *Scheduler) Every(name string, every, timeout time.Duration, fn func(ctx context.Context)) error {
	_, err := s.s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			s.mu.Lock()
			parent := s.ctx
			s.mu.Unlock()
			ctx, cancel := context.WithTimeout(parent, timeout)
			defer cancel()
			fn(ctx)
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.log.Info().Str("job", name).Dur("every", every).Msg("job scheduled")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	sum, err := s.runner.RunOnce(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("delivery tick")
		return
	}
	if sum.Claimed > 0 {
		s.log.Debug().Int("claimed", sum.Claimed).Msg("delivery tick done")
	}
}

// Start begins running jobs. Jobs stop receiving new runs once ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	s.s.Start()
	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	if err := s.s.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	s.log.Info().Msg("scheduler stopped")
	return nil
}
