package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-resto/internal/store"
)

// TypeEvent is the asynq task type for domain-event notifications.
const TypeEvent = "notify:event"

// EventTaskPayload is the serialised form of a domain event on the task
// queue.
type EventTaskPayload struct {
	EventID     string          `json:"eventId"`
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// NewEventTask packs a domain event into an asynq task.
func NewEventTask(event store.DomainEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(EventTaskPayload{
		EventID:     store.UUIDString(event.ID),
		Topic:       event.Topic,
		AggregateID: store.UUIDString(event.AggregateID),
		Payload:     json.RawMessage(event.Payload),
		OccurredAt:  event.OccurredAt.Time,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEvent, payload), nil
}

// Scheduler enqueues notification tasks for emitted events. It satisfies
// the event bus's Scheduler interface.
type Scheduler struct {
	Client       *asynq.Client
	Queue        string
	MaxRetry     int
	RetentionTTL time.Duration
}

// Schedule enqueues one task per emitted event. The event id doubles as the
// task id so redelivered emits do not fan out twice.
func (s Scheduler) Schedule(ctx context.Context, event store.DomainEvent) error {
	if s.Client == nil {
		return nil
	}
	task, err := NewEventTask(event)
	if err != nil {
		return err
	}
	queue := s.Queue
	if queue == "" {
		queue = "notifications"
	}
	maxRetry := s.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 5
	}
	retention := s.RetentionTTL
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	opts := []asynq.Option{
		asynq.Queue(queue),
		asynq.MaxRetry(maxRetry),
		asynq.TaskID(store.UUIDString(event.ID)),
		asynq.Retention(retention),
	}
	_, err = s.Client.EnqueueContext(ctx, task, opts...)
	return err
}
