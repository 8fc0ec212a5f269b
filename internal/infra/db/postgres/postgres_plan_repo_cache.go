package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
	"telegram-sales-bot/internal/infra/metrics"
	red "telegram-sales-bot/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches plans by id. Plans are edited by the dashboard directly in
// the database, so the TTL bounds how stale a rendered price can be.
type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.PlanRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "plan_cache").Logger()
	return &planRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   &l,
	}
}

func planKey(id string) string { return fmt.Sprintf("plan:%s", id) }

func (d *planRepoCacheDecorator) get(ctx context.Context, id string) (*model.Plan, bool) {
	val, err := d.cache.Get(ctx, planKey(id))
	switch {
	case errors.Is(err, red.Nil):
		metrics.ObserveCacheLookup("plan", metrics.CacheMiss)
		return nil, false
	case err != nil:
		metrics.ObserveCacheLookup("plan", metrics.CacheError)
		d.log.Warn().Err(err).Str("plan_id", id).Msg("cache get failed")
		return nil, false
	}
	var plan model.Plan
	if err := json.Unmarshal([]byte(val), &plan); err != nil {
		metrics.ObserveCacheLookup("plan", metrics.CacheCorrupt)
		return nil, false
	}
	metrics.ObserveCacheLookup("plan", metrics.CacheHit)
	return &plan, true
}

func (d *planRepoCacheDecorator) put(ctx context.Context, p *model.Plan) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, planKey(p.ID), string(b), d.ttl); err != nil {
		d.log.Warn().Err(err).Str("plan_id", p.ID).Msg("cache set failed")
	}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	if p, ok := d.get(ctx, id); ok {
		return p, nil
	}
	plan, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	d.put(ctx, plan)
	return plan, nil
}

// FindActiveByIDs serves what it can from cache and loads the rest in one query.
func (d *planRepoCacheDecorator) FindActiveByIDs(ctx context.Context, tx repository.Tx, ids []string) ([]*model.Plan, error) {
	found := make([]*model.Plan, 0, len(ids))
	var missing []string
	for _, id := range ids {
		if p, ok := d.get(ctx, id); ok {
			if p.IsActive {
				found = append(found, p)
			}
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) > 0 {
		loaded, err := d.inner.FindActiveByIDs(ctx, tx, missing)
		if err != nil {
			return nil, err
		}
		for _, p := range loaded {
			d.put(ctx, p)
		}
		found = append(found, loaded...)
	}
	return orderByIDs(found, ids), nil
}

func (d *planRepoCacheDecorator) ListByBot(ctx context.Context, tx repository.Tx, botID string) ([]*model.Plan, error) {
	return d.inner.ListByBot(ctx, tx, botID)
}

// Save invalidates before writing.
func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	if plan.ID != "" {
		if err := d.cache.Del(ctx, planKey(plan.ID)); err != nil {
			d.log.Warn().Err(err).Str("plan_id", plan.ID).Msg("cache invalidate failed")
		}
	}
	return d.inner.Save(ctx, tx, plan)
}
