//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-sales-bot/internal/domain"
	"telegram-sales-bot/internal/domain/model"
	"telegram-sales-bot/internal/domain/ports/adapter"
	"telegram-sales-bot/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// =============================
// Repositories
// =============================

// ---- MockBotRepo ----

type MockBotRepo struct {
	mu   sync.Mutex
	bots map[string]*model.Bot

	FindByIDFunc func(ctx context.Context, id string) (*model.Bot, error)
}

var _ repository.BotRepository = (*MockBotRepo)(nil)

func NewMockBotRepo(bots ...*model.Bot) *MockBotRepo {
	m := &MockBotRepo{bots: map[string]*model.Bot{}}
	for _, b := range bots {
		m.bots[b.ID] = b
	}
	return m
}

func (m *MockBotRepo) Save(ctx context.Context, tx repository.Tx, b *model.Bot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bots[b.ID] = b
	return nil
}

func (m *MockBotRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Bot, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bots[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

// ---- MockPlanRepo ----

type MockPlanRepo struct {
	mu    sync.Mutex
	plans map[string]*model.Plan

	FindActiveByIDsFunc func(ctx context.Context, ids []string) ([]*model.Plan, error)
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo(plans ...*model.Plan) *MockPlanRepo {
	m := &MockPlanRepo{plans: map[string]*model.Plan{}}
	for _, p := range plans {
		m.plans[p.ID] = p
	}
	return m
}

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p
	return nil
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *MockPlanRepo) FindActiveByIDs(ctx context.Context, tx repository.Tx, ids []string) ([]*model.Plan, error) {
	if m.FindActiveByIDsFunc != nil {
		return m.FindActiveByIDsFunc(ctx, ids)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Plan
	for _, id := range ids {
		if p, ok := m.plans[id]; ok && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockPlanRepo) ListByBot(ctx context.Context, tx repository.Tx, botID string) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Plan
	for _, p := range m.plans {
		if p.BotID == botID {
			out = append(out, p)
		}
	}
	return out, nil
}

// ---- MockTemplateRepo ----

type MockTemplateRepo struct {
	mu          sync.Mutex
	scheduled   map[string]*model.ScheduledMessage
	refs        map[string][]repository.PlanRef
	botMessages map[string]*model.BotMessage
	botPlans    map[string][]string

	ListActiveScheduledFunc func(ctx context.Context, botID string) ([]*model.ScheduledMessage, error)
}

var _ repository.TemplateRepository = (*MockTemplateRepo)(nil)

func NewMockTemplateRepo() *MockTemplateRepo {
	return &MockTemplateRepo{
		scheduled:   map[string]*model.ScheduledMessage{},
		refs:        map[string][]repository.PlanRef{},
		botMessages: map[string]*model.BotMessage{},
		botPlans:    map[string][]string{},
	}
}

func (m *MockTemplateRepo) SaveScheduled(ctx context.Context, tx repository.Tx, s *model.ScheduledMessage, plans []repository.PlanRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduled[s.ID] = s
	m.refs[s.ID] = plans
	return nil
}

func (m *MockTemplateRepo) FindScheduled(ctx context.Context, tx repository.Tx, id string) (*model.ScheduledMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scheduled[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (m *MockTemplateRepo) ListActiveScheduled(ctx context.Context, tx repository.Tx, botID string) ([]*model.ScheduledMessage, error) {
	if m.ListActiveScheduledFunc != nil {
		return m.ListActiveScheduledFunc(ctx, botID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ScheduledMessage
	for _, s := range m.scheduled {
		if s.BotID == botID && s.IsActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DelayMinutes < out[j].DelayMinutes })
	return out, nil
}

func (m *MockTemplateRepo) ListScheduledPlanRefs(ctx context.Context, tx repository.Tx, templateID string) ([]repository.PlanRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refs[templateID], nil
}

func (m *MockTemplateRepo) SaveBotMessage(ctx context.Context, tx repository.Tx, b *model.BotMessage, planIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.botMessages[b.ID] = b
	m.botPlans[b.ID] = planIDs
	return nil
}

func (m *MockTemplateRepo) FindActiveBotMessage(ctx context.Context, tx repository.Tx, botID string, kind model.BotMessageKind) (*model.BotMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.botMessages {
		if b.BotID == botID && b.Kind == kind && b.IsActive {
			return b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockTemplateRepo) ListBotMessagePlanIDs(ctx context.Context, tx repository.Tx, messageID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.botPlans[messageID], nil
}

// ---- MockInteractionRepo ----

type MockInteractionRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Interaction

	UpsertFunc func(ctx context.Context, in *model.Interaction) error
}

var _ repository.InteractionRepository = (*MockInteractionRepo)(nil)

func NewMockInteractionRepo() *MockInteractionRepo {
	return &MockInteractionRepo{rows: map[string]*model.Interaction{}}
}

func interactionKey(botID string, chatID, userID int64) string {
	return fmt.Sprintf("%s|%d|%d", botID, chatID, userID)
}

func (m *MockInteractionRepo) Upsert(ctx context.Context, tx repository.Tx, in *model.Interaction) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, in)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := interactionKey(in.BotID, in.ChatID, in.TelegramUserID)
	if cur, ok := m.rows[k]; ok {
		if in.LastStartAt.After(cur.LastStartAt) {
			cur.LastStartAt = in.LastStartAt
		}
		if in.Username != "" {
			cur.Username = in.Username
		}
		return nil
	}
	cp := *in
	m.rows[k] = &cp
	return nil
}

func (m *MockInteractionRepo) Find(ctx context.Context, tx repository.Tx, botID string, chatID, userID int64) (*model.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.rows[interactionKey(botID, chatID, userID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return in, nil
}

func (m *MockInteractionRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// ---- MockDeliveryRepo ----

// MockDeliveryRepo is an in-memory queue with the same claim rules as the Postgres one.
type MockDeliveryRepo struct {
	mu   sync.Mutex
	rows map[string]*model.QueuedDelivery

	EnqueueBatchFunc func(ctx context.Context, rows []*model.QueuedDelivery) error
	ClaimDueFunc     func(ctx context.Context, token string, now time.Time, limit int, lease time.Duration) ([]*model.QueuedDelivery, error)
	MarkSentFunc     func(ctx context.Context, id, token string, at time.Time) error
}

var _ repository.DeliveryRepository = (*MockDeliveryRepo)(nil)

func NewMockDeliveryRepo() *MockDeliveryRepo {
	return &MockDeliveryRepo{rows: map[string]*model.QueuedDelivery{}}
}

func (m *MockDeliveryRepo) EnqueueBatch(ctx context.Context, tx repository.Tx, rows []*model.QueuedDelivery) error {
	if m.EnqueueBatchFunc != nil {
		return m.EnqueueBatchFunc(ctx, rows)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		cp := *r
		m.rows[r.ID] = &cp
	}
	return nil
}

func (m *MockDeliveryRepo) ClaimDue(ctx context.Context, token string, now time.Time, limit int, lease time.Duration) ([]*model.QueuedDelivery, error) {
	if m.ClaimDueFunc != nil {
		return m.ClaimDueFunc(ctx, token, now, limit, lease)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*model.QueuedDelivery
	for _, r := range m.rows {
		if !r.Due(now) {
			continue
		}
		if r.ClaimedAt != nil && r.ClaimedAt.After(now.Add(-lease)) {
			continue
		}
		due = append(due, r)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].FireAt.Before(due[j].FireAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	out := make([]*model.QueuedDelivery, 0, len(due))
	for _, r := range due {
		at := now
		r.ClaimToken, r.ClaimedAt = token, &at
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockDeliveryRepo) MarkSent(ctx context.Context, tx repository.Tx, id, token string, at time.Time) error {
	if m.MarkSentFunc != nil {
		return m.MarkSentFunc(ctx, id, token, at)
	}
	return m.transition(id, token, func(r *model.QueuedDelivery) {
		r.Status, r.SentAt = model.DeliverySent, &at
	})
}

func (m *MockDeliveryRepo) MarkFailed(ctx context.Context, tx repository.Tx, id, token string, reason string) error {
	return m.transition(id, token, func(r *model.QueuedDelivery) {
		r.Status, r.Error = model.DeliveryFailed, reason
	})
}

func (m *MockDeliveryRepo) Release(ctx context.Context, tx repository.Tx, id, token string) error {
	return m.transition(id, token, func(r *model.QueuedDelivery) {
		r.ClaimToken, r.ClaimedAt = "", nil
	})
}

func (m *MockDeliveryRepo) transition(id, token string, apply func(*model.QueuedDelivery)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Status != model.DeliveryPending || r.ClaimToken != token {
		return domain.ErrClaimLost
	}
	apply(r)
	return nil
}

func (m *MockDeliveryRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.QueuedDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockDeliveryRepo) CountByStatus(ctx context.Context, tx repository.Tx, botID string) (map[model.DeliveryStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.DeliveryStatus]int{}
	for _, r := range m.rows {
		if botID == "" || r.BotID == botID {
			out[r.Status]++
		}
	}
	return out, nil
}

// All returns a snapshot ordered by fire_at.
func (m *MockDeliveryRepo) All() []model.QueuedDelivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.QueuedDelivery, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

// ---- MockReceivedRepo ----

type MockReceivedRepo struct {
	mu    sync.Mutex
	Saved []*model.ReceivedMessage

	SaveFunc func(ctx context.Context, m *model.ReceivedMessage) error
}

func (m *MockReceivedRepo) Save(ctx context.Context, tx repository.Tx, r *model.ReceivedMessage) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saved = append(m.Saved, r)
	return nil
}

// ---- MockPaymentWebhookRepo ----

type MockPaymentWebhookRepo struct {
	mu        sync.Mutex
	Saved     []*model.PaymentWebhook
	Processed map[string]bool

	SaveFunc func(ctx context.Context, p *model.PaymentWebhook) error
}

func NewMockPaymentWebhookRepo() *MockPaymentWebhookRepo {
	return &MockPaymentWebhookRepo{Processed: map[string]bool{}}
}

func (m *MockPaymentWebhookRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentWebhook) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saved = append(m.Saved, p)
	return nil
}

func (m *MockPaymentWebhookRepo) MarkProcessed(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Processed[id] {
		return false, nil
	}
	m.Processed[id] = true
	return true, nil
}

func (m *MockPaymentWebhookRepo) ApprovalProcessed(ctx context.Context, tx repository.Tx, botID string, userID int64, planID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Saved {
		if m.Processed[p.ID] && p.Approved() && p.BotID == botID && p.TelegramUserID == userID && p.PlanID == planID {
			return true, nil
		}
	}
	return false, nil
}

// ---- MockChannelRepo ----

type MockChannelRepo struct {
	mu       sync.Mutex
	channels []*model.BotChannel
}

func (m *MockChannelRepo) Save(ctx context.Context, tx repository.Tx, c *model.BotChannel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, c)
	return nil
}

func (m *MockChannelRepo) FindActiveByKind(ctx context.Context, tx repository.Tx, botID string, kind model.ChannelKind) (*model.BotChannel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.channels {
		if c.BotID == botID && c.Kind == kind && c.IsActive {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ---- MockTxManager ----

type MockTxManager struct {
	Calls int

	WithTxFunc func(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error
}

func (m *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	return fn(ctx, struct{}{})
}

// =============================
// Adapters
// =============================

type sentMessage struct {
	Token   string
	To      adapter.Recipient
	Payload model.Payload
}

// MockGateway records every send. SendFunc, when set, decides the result of each call.
type MockGateway struct {
	mu   sync.Mutex
	Sent []sentMessage

	SendFunc         func(ctx context.Context, to adapter.Recipient, p *model.Payload) (int, error)
	CreateInviteFunc func(ctx context.Context, req adapter.InviteLinkRequest) (string, error)
	Invites          []adapter.InviteLinkRequest
}

var _ adapter.TelegramGateway = (*MockGateway)(nil)

func (m *MockGateway) Send(ctx context.Context, token string, to adapter.Recipient, p *model.Payload) (int, error) {
	m.mu.Lock()
	m.Sent = append(m.Sent, sentMessage{Token: token, To: to, Payload: *p})
	n := len(m.Sent)
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, p)
	}
	return n, nil
}

func (m *MockGateway) CreateInviteLink(ctx context.Context, token string, req adapter.InviteLinkRequest) (string, error) {
	m.mu.Lock()
	m.Invites = append(m.Invites, req)
	m.mu.Unlock()
	if m.CreateInviteFunc != nil {
		return m.CreateInviteFunc(ctx, req)
	}
	return "https://t.me/+invite", nil
}

func (m *MockGateway) Sends() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.Sent...)
}

// ---- MockLocker ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	Calls int
}

func NewMockLocker() *MockLocker { return &MockLocker{held: map[string]string{}} }

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if _, ok := m.held[key]; ok {
		return "", domain.ErrLockNotAcquired
	}
	tok := fmt.Sprintf("tok-%d", m.Calls)
	m.held[key] = tok
	return tok, nil
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] == token {
		delete(m.held, key)
	}
	return nil
}

// ---- fakeTranslator ----

// fakeTranslator renders "key|arg1|arg2" so tests can assert on keys and arguments.
type fakeTranslator struct{}

func (fakeTranslator) T(key string, args ...interface{}) string {
	parts := []string{key}
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, "|")
}
