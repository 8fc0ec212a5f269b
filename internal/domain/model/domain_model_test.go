//go:build !integration

package model

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"telegram-sales-bot/internal/domain"
)

// --- Inbound events ---

func TestParseStart(t *testing.T) {
	cases := []struct {
		text        string
		wantStart   bool
		wantPayload string
	}{
		{"/start", true, ""},
		{"/start promo42", true, "promo42"},
		{"/start@sales_bot", true, ""},
		{"/start@sales_bot ref_7", true, "ref_7"},
		{"/start\nhello", true, "hello"},
		{"/START", false, ""},
		{"/Start", false, ""},
		{"/started", true, ""},
		{"/startfoo", true, ""},
		{"/start_promo42", true, ""},
		{" /start", false, ""},
		{"hello /start", false, ""},
		{"", false, ""},
	}
	for _, tc := range cases {
		gotStart, gotPayload := ParseStart(tc.text)
		if gotStart != tc.wantStart || gotPayload != tc.wantPayload {
			t.Errorf("ParseStart(%q) = (%v, %q), want (%v, %q)", tc.text, gotStart, gotPayload, tc.wantStart, tc.wantPayload)
		}
	}
}

func TestNewReceivedMessage(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewReceivedMessage(&IncomingEvent{BotID: "b", ChatID: 1, TelegramUserID: 2, Text: "oi", ReceivedAt: at})
	if m.FirstName != "User" {
		t.Errorf("expected default first name, got %q", m.FirstName)
	}
	if m.MessageType != "text" || !m.CreatedAt.Equal(at) {
		t.Errorf("unexpected audit row: %+v", m)
	}

	m = NewReceivedMessage(&IncomingEvent{BotID: "b", ChatID: 1, FirstName: "Ana"})
	if m.MessageType != "other" || m.FirstName != "Ana" {
		t.Errorf("unexpected audit row for empty text: %+v", m)
	}
}

// --- Bot ---

func TestBot_CheckSecret(t *testing.T) {
	open := &Bot{ID: "b"}
	if !open.CheckSecret("") || !open.CheckSecret("anything") {
		t.Error("bot without a secret must accept any header")
	}

	locked := &Bot{ID: "b", WebhookSecret: "s3cret"}
	if !locked.CheckSecret("s3cret") {
		t.Error("exact secret must be accepted")
	}
	for _, h := range []string{"", "S3CRET", "s3cret ", "s3cre"} {
		if locked.CheckSecret(h) {
			t.Errorf("header %q must be rejected", h)
		}
	}
}

// --- Plans and content ---

func TestNewPlan(t *testing.T) {
	p, err := NewPlan("p1", "b1", "Mensal", decimal.RequireFromString("29.90"), 30, "https://pay/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Purchasable() {
		t.Error("active plan with a link should be purchasable")
	}
	p.PaymentLink = "  "
	if p.Purchasable() {
		t.Error("blank payment link must not be purchasable")
	}

	if _, err := NewPlan("p1", "b1", "X", decimal.NewFromInt(-1), 30, ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("negative price: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := NewPlan("p1", "b1", " ", decimal.NewFromInt(1), 30, ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("blank name: expected ErrInvalidArgument, got %v", err)
	}
}

func TestParseMediaType(t *testing.T) {
	cases := map[string]MediaType{
		"image":    MediaImage,
		"PHOTO":    MediaImage,
		" video ":  MediaVideo,
		"audio":    MediaAudio,
		"document": MediaDocument,
		"gif":      MediaDocument,
		"":         MediaDocument,
	}
	for in, want := range cases {
		if got := ParseMediaType(in); got != want {
			t.Errorf("ParseMediaType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContent_Validate(t *testing.T) {
	if err := (Content{Text: strings.Repeat("á", MaxTextLength)}).Validate(); err != nil {
		t.Errorf("text at the limit counted in runes should pass, got %v", err)
	}
	if err := (Content{Text: strings.Repeat("a", MaxTextLength+1)}).Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("over-long text: expected ErrInvalidArgument, got %v", err)
	}
	if err := (Content{Media: &Media{Type: MediaImage}}).Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("media without ref: expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewScheduledMessage(t *testing.T) {
	m, err := NewScheduledMessage("t1", "b1", 60, Content{Text: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Delay() != time.Hour || !m.IsActive {
		t.Errorf("unexpected template: %+v", m)
	}
	if _, err := NewScheduledMessage("t1", "b1", -1, Content{}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("negative delay: expected ErrInvalidArgument, got %v", err)
	}
}

// --- Delivery queue ---

func TestNewQueuedDelivery(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	bot := &Bot{ID: "b1"}
	tmpl := &ScheduledMessage{ID: "t1", DelayMinutes: 5}

	d, err := NewQueuedDelivery(bot, tmpl, 100, 200, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.FireAt.Equal(now.Add(5 * time.Minute)) {
		t.Errorf("fire_at = %s, want now+5m", d.FireAt)
	}
	if d.Status != DeliveryPending || d.ID == "" {
		t.Errorf("unexpected row: %+v", d)
	}
	if d.Due(now.Add(4*time.Minute)) || !d.Due(now.Add(5*time.Minute)) {
		t.Error("row must become due exactly at fire_at")
	}

	if _, err := NewQueuedDelivery(bot, tmpl, 0, 200, now); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("zero chat: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := NewQueuedDelivery(&Bot{}, tmpl, 100, 200, now); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("zero bot: expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewULID_SortsByTime(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewULID(t0)
	b := NewULID(t0)
	c := NewULID(t0.Add(time.Millisecond))
	if !(a < b && b < c) {
		t.Errorf("ids not monotonic: %s %s %s", a, b, c)
	}
}

func TestDeliveryStatus_CanTransition(t *testing.T) {
	cases := []struct {
		from, to DeliveryStatus
		want     bool
	}{
		{DeliveryPending, DeliverySent, true},
		{DeliveryPending, DeliveryFailed, true},
		{DeliveryPending, DeliveryPending, false},
		{DeliverySent, DeliveryFailed, false},
		{DeliveryFailed, DeliverySent, false},
		{DeliveryFailed, DeliveryPending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

// --- Channels and payloads ---

func TestBotChannel_ChatRef(t *testing.T) {
	cases := []struct {
		in       string
		wantID   int64
		wantUser string
	}{
		{"-1001234567890", -1001234567890, ""},
		{"@vip_room", 0, "@vip_room"},
		{"vip_room", 0, "@vip_room"},
		{" -42 ", -42, ""},
	}
	for _, tc := range cases {
		id, user := (&BotChannel{ChannelID: tc.in}).ChatRef()
		if id != tc.wantID || user != tc.wantUser {
			t.Errorf("ChatRef(%q) = (%d, %q), want (%d, %q)", tc.in, id, user, tc.wantID, tc.wantUser)
		}
	}
}

func TestPayload(t *testing.T) {
	var nilPayload *Payload
	if !nilPayload.Empty() {
		t.Error("nil payload is empty")
	}
	if !(&Payload{Buttons: [][]Button{{{Label: "x", URL: "u"}}}}).Empty() {
		t.Error("keyboard alone is still an empty payload")
	}

	p := &Payload{Text: "hi", Media: &Media{Type: MediaImage, Ref: "f"}, Buttons: [][]Button{{{Label: "x", URL: "u"}}}}
	if p.Empty() || !p.HasMedia() {
		t.Error("payload with text and media is not empty")
	}
	q := p.WithoutMedia()
	if q.HasMedia() || q.Text != "hi" || len(q.Buttons) != 1 {
		t.Errorf("WithoutMedia must keep text and keyboard: %+v", q)
	}
	if !p.HasMedia() {
		t.Error("WithoutMedia must not mutate the original")
	}
}
