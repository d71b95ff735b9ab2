package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/events"
)

// EmailNotifier sends transactional emails for order lifecycle topics.
type EmailNotifier struct {
	Mail         common.EmailSender
	Enabled      bool
	From         string
	TopicToggles map[string]bool
}

// Send renders and sends the email for one notification payload. The
// recipient comes from the event payload; events without one are skipped.
func (n EmailNotifier) Send(p EventTaskPayload) error {
	if !n.Enabled || n.Mail == nil {
		return nil
	}
	if n.TopicToggles != nil {
		if enabled, ok := n.TopicToggles[p.Topic]; ok && !enabled {
			return nil
		}
	}
	fields := decodeFields(p.Payload)
	to := extractRecipient(fields)
	if to == "" {
		return nil
	}
	return n.Mail.Send(to, subjectFor(p.Topic), bodyFor(p.Topic, fields, p.OccurredAt))
}

func decodeFields(raw []byte) map[string]any {
	fields := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &fields)
	}
	return fields
}

func extractRecipient(payload map[string]any) string {
	for _, key := range []string{"email", "recipient", "userEmail", "customerEmail"} {
		if val, ok := payload[key]; ok {
			if s, ok := val.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func subjectFor(topic string) string {
	switch topic {
	case events.TopicOrderCreated:
		return "Order received"
	case events.TopicOrderAccepted:
		return "Your order is being prepared"
	case events.TopicOrderReadyForPickup:
		return "Your order is ready for pickup"
	case events.TopicOrderOutForDelivery:
		return "Your order is on the way"
	case events.TopicOrderDelivered:
		return "Your order has been delivered"
	case events.TopicOrderCancelled:
		return "Your order was cancelled"
	default:
		return fmt.Sprintf("Notification: %s", topic)
	}
}

func bodyFor(topic string, payload map[string]any, occurred time.Time) string {
	body := fmt.Sprintf("%s at %s.", subjectFor(topic), occurred.Format(time.RFC1123))
	if orderID, ok := payload["orderId"].(string); ok && orderID != "" {
		body += fmt.Sprintf("\nOrder: %s", orderID)
	}
	if total, ok := payload["total"].(float64); ok {
		body += fmt.Sprintf("\nTotal: %d", int64(total))
	}
	if note, ok := payload["message"].(string); ok && note != "" {
		body += "\n" + note
	}
	return body
}
