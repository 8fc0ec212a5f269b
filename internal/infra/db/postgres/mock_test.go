//go:build !integration

package postgres

import (
	"context"
	"time"

	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/repository"
	red "telegram-sales-bot/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerPlanRepo mocks the database repository that the Plan decorator wraps.
type mockInnerPlanRepo struct {
	SaveFunc            func(ctx context.Context, tx repository.Tx, plan *model.Plan) error
	FindByIDFunc        func(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error)
	FindActiveByIDsFunc func(ctx context.Context, tx repository.Tx, ids []string) ([]*model.Plan, error)
	ListByBotFunc       func(ctx context.Context, tx repository.Tx, botID string) ([]*model.Plan, error)
}

func (m *mockInnerPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	return m.SaveFunc(ctx, tx, plan)
}
func (m *mockInnerPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerPlanRepo) FindActiveByIDs(ctx context.Context, tx repository.Tx, ids []string) ([]*model.Plan, error) {
	return m.FindActiveByIDsFunc(ctx, tx, ids)
}
func (m *mockInnerPlanRepo) ListByBot(ctx context.Context, tx repository.Tx, botID string) ([]*model.Plan, error) {
	return m.ListByBotFunc(ctx, tx, botID)
}

// mockRedisClient implements the RedisClient interface for testing.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = (*mockRedisClient)(nil)

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return "", red.Nil
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}
	return nil
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return 0, nil
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) CompareAndDelete(ctx context.Context, key, value string) error {
	return nil
}
func (m *mockRedisClient) Close() error { return nil }

func redisNil() error { return red.Nil }
