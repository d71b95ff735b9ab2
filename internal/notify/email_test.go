package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/events"
)

func payloadWith(t *testing.T, fields map[string]any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func TestEmailSendsForOrderTopics(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	notifier := EmailNotifier{Mail: outbox, Enabled: true}

	err := notifier.Send(EventTaskPayload{
		Topic:      events.TopicOrderOutForDelivery,
		Payload:    payloadWith(t, map[string]any{"email": "budi@example.com", "orderId": "ord-1"}),
		OccurredAt: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(outbox.Outbox) != 1 {
		t.Fatalf("expected one email, got %d", len(outbox.Outbox))
	}
	mail := outbox.Outbox[0]
	if mail.To != "budi@example.com" {
		t.Fatalf("recipient: %q", mail.To)
	}
	if mail.Subject != "Your order is on the way" {
		t.Fatalf("subject: %q", mail.Subject)
	}
}

func TestEmailSkipsWithoutRecipient(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	notifier := EmailNotifier{Mail: outbox, Enabled: true}

	err := notifier.Send(EventTaskPayload{
		Topic:   events.TopicOrderCreated,
		Payload: payloadWith(t, map[string]any{"orderId": "ord-1"}),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(outbox.Outbox) != 0 {
		t.Fatal("expected no email without a recipient")
	}
}

func TestEmailHonoursTopicToggle(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	notifier := EmailNotifier{
		Mail:         outbox,
		Enabled:      true,
		TopicToggles: map[string]bool{events.TopicOrderCreated: false},
	}

	err := notifier.Send(EventTaskPayload{
		Topic:   events.TopicOrderCreated,
		Payload: payloadWith(t, map[string]any{"email": "budi@example.com"}),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(outbox.Outbox) != 0 {
		t.Fatal("expected toggled-off topic to be skipped")
	}
}

func TestEmailDisabledIsNoop(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	notifier := EmailNotifier{Mail: outbox, Enabled: false}

	err := notifier.Send(EventTaskPayload{
		Topic:   events.TopicOrderDelivered,
		Payload: payloadWith(t, map[string]any{"email": "budi@example.com"}),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(outbox.Outbox) != 0 {
		t.Fatal("expected disabled notifier to skip")
	}
}
